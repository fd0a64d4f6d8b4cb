package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/finlens/finlens-engine/pkg/models"
)

// ResponderSystemMessage instructs the oracle to summarize query results.
const ResponderSystemMessage = "You are a financial assistant. " +
	"Answer the user's question in two or three sentences using only the data provided. " +
	"Format currency amounts with two decimal places."

// BuildAnswerPrompt creates the response-generation prompt. dataJSON is the
// serialized DataMap including the pre-aggregated side-channel totals.
func BuildAnswerPrompt(question string, dataJSON []byte, data models.DataMap) string {
	var b strings.Builder

	totals := data.Totals()
	if len(totals) > 0 {
		sort.Slice(totals, func(i, j int) bool { return totals[i].Alias < totals[j].Alias })
		b.WriteString("IMPORTANT: The totals below were computed exactly from the database. ")
		b.WriteString("Use these values verbatim. Do NOT add up or recompute any numbers yourself.\n")
		for _, t := range totals {
			b.WriteString(fmt.Sprintf("- %s: %.2f\n", t.Alias, t.Total))
		}
		b.WriteString("\n")
	}

	b.WriteString("Data:\n")
	b.Write(dataJSON)
	b.WriteString("\n\n")

	if data.HasMonthSeries() {
		b.WriteString("The data contains a monthly series. Mention the month-over-month percentage change where it is notable.\n\n")
	}

	b.WriteString(fmt.Sprintf("Question: %s\n", question))
	return b.String()
}
