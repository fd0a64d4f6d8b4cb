package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/finlens/finlens-engine/pkg/schema"
)

// Classification marks a sum as revenue or expense, which switches the
// per-row amount to a signed debit/credit difference.
type Classification int

const (
	ClassNone Classification = iota
	ClassRevenue
	ClassExpense
)

// FilterSet is the interpreted form of a plan entry's free-text filter
// description: positional-parameter WHERE clauses plus an optional
// revenue/expense classification.
type FilterSet struct {
	Class   Classification
	clauses []string
	Args    []any
}

// addClause appends a clause. format uses %d verbs for each positional
// parameter; indices are assigned from the current argument count.
func (f *FilterSet) addClause(format string, args ...any) {
	indices := make([]any, len(args))
	for i := range args {
		indices[i] = len(f.Args) + i + 1
	}
	f.clauses = append(f.clauses, fmt.Sprintf(format, indices...))
	f.Args = append(f.Args, args...)
}

// WhereClause renders the combined WHERE clause, or "" when no predicate
// applies.
func (f *FilterSet) WhereClause() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.clauses, " AND ")
}

// filterRule is one entry of the keyword-to-predicate table. The trigger
// phrases and their order are an externally visible contract: changing
// them changes which questions produce which filters.
type filterRule struct {
	name     string
	triggers []string
	apply    func(f *FilterSet, t *schema.Table, d *schema.Descriptor, now time.Time)
}

func hasColumn(t *schema.Table, name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// filterRules is evaluated in order; every matching rule contributes its
// predicate. Phrases outside this vocabulary add no predicate at all, so
// an unrecognized filter description silently runs unfiltered. That is
// long-standing behavior callers rely on, not an oversight to correct here.
var filterRules = []filterRule{
	{
		name:     "revenue_accounts",
		triggers: []string{"income", "revenue"},
		apply: func(f *FilterSet, t *schema.Table, d *schema.Descriptor, _ time.Time) {
			f.Class = ClassRevenue
			if hasColumn(t, "account_type") {
				f.addClause("account_type = ANY($%d)", d.RevenueAccountTypes)
			}
		},
	},
	{
		name:     "expense_accounts",
		triggers: []string{"expense"},
		apply: func(f *FilterSet, t *schema.Table, d *schema.Descriptor, _ time.Time) {
			f.Class = ClassExpense
			if hasColumn(t, "account_type") {
				f.addClause("account_type = ANY($%d)", d.ExpenseAccountTypes)
			}
		},
	},
	{
		name:     "this_year",
		triggers: []string{"this year", "ytd", "year to date"},
		apply: func(f *FilterSet, t *schema.Table, _ *schema.Descriptor, now time.Time) {
			if t.DateColumn == "" {
				return
			}
			start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
			f.addClause(t.DateColumn+" >= $%d AND "+t.DateColumn+" < $%d", start, start.AddDate(1, 0, 0))
		},
	},
	{
		name:     "this_month",
		triggers: []string{"this month"},
		apply: func(f *FilterSet, t *schema.Table, _ *schema.Descriptor, now time.Time) {
			if t.DateColumn == "" {
				return
			}
			start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
			f.addClause(t.DateColumn+" >= $%d AND "+t.DateColumn+" < $%d", start, start.AddDate(0, 1, 0))
		},
	},
	{
		name:     "last_month",
		triggers: []string{"last month"},
		apply: func(f *FilterSet, t *schema.Table, _ *schema.Descriptor, now time.Time) {
			if t.DateColumn == "" {
				return
			}
			start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
			f.addClause(t.DateColumn+" >= $%d AND "+t.DateColumn+" < $%d", start, start.AddDate(0, 1, 0))
		},
	},
	{
		name:     "status_pending",
		triggers: []string{"pending"},
		apply: func(f *FilterSet, t *schema.Table, _ *schema.Descriptor, _ time.Time) {
			if hasColumn(t, "status") {
				f.addClause("status = $%d", "pending")
			}
		},
	},
	{
		name:     "status_approved",
		triggers: []string{"approved"},
		apply: func(f *FilterSet, t *schema.Table, _ *schema.Descriptor, _ time.Time) {
			if hasColumn(t, "status") {
				f.addClause("status = $%d", "approved")
			}
		},
	},
	{
		name:     "overdue",
		triggers: []string{"overdue"},
		apply: func(f *FilterSet, t *schema.Table, _ *schema.Descriptor, now time.Time) {
			if hasColumn(t, "open_balance") && hasColumn(t, "due_date") {
				f.addClause("open_balance > 0 AND due_date < $%d", now)
			}
		},
	},
	{
		name:     "outstanding",
		triggers: []string{"outstanding", "owe", "receivable"},
		apply: func(f *FilterSet, t *schema.Table, _ *schema.Descriptor, _ time.Time) {
			if hasColumn(t, "open_balance") {
				f.addClause("open_balance > 0")
			}
		},
	},
}

// InterpretFilters maps a free-text filter description onto predicate
// clauses for the given table. Matching is substring-based over the
// lower-cased description; every matching rule applies, in table order.
func InterpretFilters(description string, t *schema.Table, d *schema.Descriptor, now time.Time) FilterSet {
	var f FilterSet
	lower := strings.ToLower(description)

	for _, rule := range filterRules {
		for _, trigger := range rule.triggers {
			if strings.Contains(lower, trigger) {
				rule.apply(&f, t, d, now)
				break
			}
		}
	}
	return f
}
