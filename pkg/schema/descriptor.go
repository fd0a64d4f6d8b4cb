// Package schema describes the financial tables the engine may query.
// The descriptor is static: it ships embedded in the binary and is rendered
// into the planner prompt so the oracle only ever plans against real tables.
package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"
	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var tablesYAML []byte

// Column is one salient column of a financial table.
type Column struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

// Table describes one queryable financial table.
type Table struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	DateColumn  string   `yaml:"date_column"`
	// AmountColumn is the designated amount field for plain sums. Empty for
	// debit/credit tables, where sums are signed per account class.
	AmountColumn string   `yaml:"amount_column"`
	Columns      []Column `yaml:"columns"`
}

// Label returns a human-readable singular label for the table, e.g.
// "payroll_submissions" -> "Payroll Submission".
func (t Table) Label() string {
	words := strings.Split(t.Name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return inflection.Singular(strings.Join(words, " "))
}

// Descriptor is the full static schema handed to the planner.
type Descriptor struct {
	DefaultTable        string   `yaml:"default_table"`
	RevenueAccountTypes []string `yaml:"revenue_account_types"`
	ExpenseAccountTypes []string `yaml:"expense_account_types"`
	Tables              []Table  `yaml:"tables"`

	byName map[string]*Table
}

// Load parses the embedded descriptor. It fails only if the embedded
// document is malformed, which is a build defect, so callers treat an
// error here as fatal at startup.
func Load() (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(tablesYAML, &d); err != nil {
		return nil, fmt.Errorf("parse schema descriptor: %w", err)
	}
	if d.DefaultTable == "" || len(d.Tables) == 0 {
		return nil, fmt.Errorf("schema descriptor missing default_table or tables")
	}

	d.byName = make(map[string]*Table, len(d.Tables))
	for i := range d.Tables {
		d.byName[d.Tables[i].Name] = &d.Tables[i]
	}
	if _, ok := d.byName[d.DefaultTable]; !ok {
		return nil, fmt.Errorf("default_table %q not in tables", d.DefaultTable)
	}
	return &d, nil
}

// Table looks up a table by name.
func (d *Descriptor) Table(name string) (*Table, bool) {
	t, ok := d.byName[name]
	return t, ok
}

// Known reports whether the named table exists.
func (d *Descriptor) Known(name string) bool {
	_, ok := d.byName[name]
	return ok
}

// IsRevenueType reports whether the account classification counts as revenue.
func (d *Descriptor) IsRevenueType(accountType string) bool {
	return containsFold(d.RevenueAccountTypes, accountType)
}

// IsExpenseType reports whether the account classification counts as expense.
func (d *Descriptor) IsExpenseType(accountType string) bool {
	return containsFold(d.ExpenseAccountTypes, accountType)
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

// PromptBlock renders the descriptor as a compact block for the planner
// prompt: one line per table with its columns, plus the business semantics
// the oracle needs to classify revenue and expenses.
func (d *Descriptor) PromptBlock() string {
	var b strings.Builder
	b.WriteString("Available tables:\n")
	for _, t := range d.Tables {
		b.WriteString(fmt.Sprintf("- %s (%s): ", t.Name, t.Label()))
		names := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			names[i] = c.Name
		}
		b.WriteString(strings.Join(names, ", "))
		if t.Description != "" {
			b.WriteString(". ")
			b.WriteString(t.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("Revenue account types: %s\n", strings.Join(d.RevenueAccountTypes, ", ")))
	b.WriteString(fmt.Sprintf("Expense account types: %s\n", strings.Join(d.ExpenseAccountTypes, ", ")))
	return b.String()
}
