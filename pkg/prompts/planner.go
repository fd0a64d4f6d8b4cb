// Package prompts builds the two oracle prompts: the plan request and the
// response-generation request.
package prompts

import (
	"fmt"
	"strings"
)

// PlannerSystemMessage instructs the oracle to act as a query planner.
const PlannerSystemMessage = "You are a financial query planner. " +
	"You translate a user's question into a JSON query plan against the given tables. " +
	"Respond with a single JSON object and nothing else."

// BuildPlanPrompt creates the few-shot plan request prompt. schemaBlock is
// the rendered schema descriptor.
func BuildPlanPrompt(question, schemaBlock string) string {
	var b strings.Builder

	b.WriteString("# Query Planning\n\n")
	b.WriteString(schemaBlock)
	b.WriteString("\n")

	b.WriteString(`Produce a JSON object of this shape:
{"queries": [{"table": "<table name>", "type": "sum" | "count" | "list", "filters": "<short filter description>", "groupBy": null | "<column>" | "month" | ["<column>", "month"], "alias": "<unique label>"}]}

Rules:
- "type" must be exactly sum, count, or list.
- "filters" is a short phrase such as "income this year", "overdue", "pending".
- Use "month" in groupBy to bucket by calendar month.
- Each alias must be unique within the plan.
- Prefer the smallest plan that answers the question.

Examples:

Question: how much revenue did we make this year?
{"queries": [{"table": "general_ledger", "type": "sum", "filters": "income this year", "groupBy": null, "alias": "revenue_ytd"}]}

Question: revenue by month
{"queries": [{"table": "general_ledger", "type": "sum", "filters": "income this year", "groupBy": "month", "alias": "revenue_by_month"}]}

Question: who owes us money?
{"queries": [{"table": "ar_aging_detail", "type": "list", "filters": "outstanding", "groupBy": null, "alias": "open_receivables"}, {"table": "ar_aging_detail", "type": "sum", "filters": "outstanding", "groupBy": "customer", "alias": "owed_by_customer"}]}

Question: expenses by vendor and month
{"queries": [{"table": "general_ledger", "type": "sum", "filters": "expense this year", "groupBy": ["vendor", "month"], "alias": "expense_by_vendor_month"}]}

`)
	b.WriteString(fmt.Sprintf("Question: %s\n", question))
	return b.String()
}
