package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	d, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "general_ledger", d.DefaultTable)
	assert.NotEmpty(t, d.RevenueAccountTypes)
	assert.NotEmpty(t, d.ExpenseAccountTypes)
	require.NotEmpty(t, d.Tables)

	ledger, ok := d.Table("general_ledger")
	require.True(t, ok)
	assert.Equal(t, "txn_date", ledger.DateColumn)
	assert.Empty(t, ledger.AmountColumn, "ledger sums are signed per account class, not a single column")

	ar, ok := d.Table("ar_aging_detail")
	require.True(t, ok)
	assert.Equal(t, "open_balance", ar.AmountColumn)

	assert.False(t, d.Known("users"))
}

func TestDescriptor_AccountTypeClassification(t *testing.T) {
	d, err := Load()
	require.NoError(t, err)

	assert.True(t, d.IsRevenueType("Income"))
	assert.True(t, d.IsRevenueType("income"), "matching is case-insensitive")
	assert.True(t, d.IsRevenueType("Other Income"))
	assert.False(t, d.IsRevenueType("Expense"))

	assert.True(t, d.IsExpenseType("Cost of Goods Sold"))
	assert.False(t, d.IsExpenseType("Sales"))
}

func TestTable_Label(t *testing.T) {
	assert.Equal(t, "Payroll Submission", Table{Name: "payroll_submissions"}.Label())
	assert.Equal(t, "Payment", Table{Name: "payments"}.Label())
}

func TestDescriptor_PromptBlock(t *testing.T) {
	d, err := Load()
	require.NoError(t, err)

	block := d.PromptBlock()
	for _, table := range d.Tables {
		assert.Contains(t, block, table.Name)
	}
	assert.Contains(t, block, "Revenue account types:")
	assert.Contains(t, block, "Expense account types:")

	// One line per table plus the header and the two account-type lines.
	lines := strings.Count(strings.TrimSpace(block), "\n") + 1
	assert.Equal(t, len(d.Tables)+3, lines)
}
