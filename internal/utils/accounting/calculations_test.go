package accounting

import (
	"testing"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNetBalance(t *testing.T) {
	tests := []struct {
		accountType domain.AccountType
		want        string
	}{
		{domain.Asset, "70"},
		{domain.Expense, "70"},
		{domain.Liability, "-70"},
		{domain.Equity, "-70"},
		{domain.Revenue, "-70"},
	}
	for _, tt := range tests {
		t.Run(string(tt.accountType), func(t *testing.T) {
			got, err := NetBalance(d("100"), d("30"), tt.accountType)
			require.NoError(t, err)
			assert.True(t, d(tt.want).Equal(got), "got %s", got)
		})
	}

	_, err := NetBalance(d("1"), d("0"), domain.AccountType("BOGUS"))
	assert.Error(t, err)
}

func TestIncome(t *testing.T) {
	rows := []domain.TrialBalanceRow{
		{AccountID: "rev", AccountType: domain.Revenue, Debit: d("10"), Credit: d("1010.50")},
		{AccountID: "exp", AccountType: domain.Expense, Debit: d("400.25"), Credit: d("0")},
		{AccountID: "bank", AccountType: domain.Asset, Debit: d("5000"), Credit: d("0")},
	}

	summary := Income(2024, rows)

	assert.True(t, d("600.25").Equal(summary.NetIncome), "net income %s", summary.NetIncome)
	require.Len(t, summary.Revenue, 1)
	require.Len(t, summary.Expenses, 1)
}

func TestClosingLines(t *testing.T) {
	rows := []domain.TrialBalanceRow{
		{AccountID: "rev", AccountType: domain.Revenue, Debit: d("0"), Credit: d("1000")},
		{AccountID: "exp", AccountType: domain.Expense, Debit: d("300"), Credit: d("0")},
		{AccountID: "zero", AccountType: domain.Expense, Debit: d("50"), Credit: d("50")},
		{AccountID: "bank", AccountType: domain.Asset, Debit: d("700"), Credit: d("0")},
	}

	lines := ClosingLines(rows, "re")

	require.Len(t, lines, 3)
	entry := domain.JournalEntry{Lines: lines}
	assert.True(t, entry.IsBalanced())
	assert.Equal(t, "rev", lines[0].AccountID)
	assert.True(t, d("1000").Equal(lines[0].Debit))
	assert.Equal(t, "exp", lines[1].AccountID)
	assert.True(t, d("300").Equal(lines[1].Credit))
	assert.Equal(t, "re", lines[2].AccountID)
	assert.True(t, d("700").Equal(lines[2].Credit))
	for _, l := range lines {
		assert.NoError(t, l.Validate())
	}
}

func TestClosingLines_Loss(t *testing.T) {
	rows := []domain.TrialBalanceRow{
		{AccountID: "rev", AccountType: domain.Revenue, Debit: d("0"), Credit: d("100")},
		{AccountID: "exp", AccountType: domain.Expense, Debit: d("250"), Credit: d("0")},
	}

	lines := ClosingLines(rows, "re")

	require.Len(t, lines, 3)
	assert.True(t, d("150").Equal(lines[2].Debit))
}

func TestClosingLines_NothingToClose(t *testing.T) {
	assert.Empty(t, ClosingLines(nil, "re"))
}

func TestOpeningLines(t *testing.T) {
	rows := []domain.TrialBalanceRow{
		{AccountID: "bank", AccountType: domain.Asset, Debit: d("700"), Credit: d("0")},
		{AccountID: "re", AccountType: domain.Equity, Debit: d("0"), Credit: d("700")},
		{AccountID: "rev", AccountType: domain.Revenue, Debit: d("1000"), Credit: d("1000")},
	}

	lines := OpeningLines(rows)

	require.Len(t, lines, 2)
	entry := domain.JournalEntry{Lines: lines}
	assert.True(t, entry.IsBalanced())
	assert.Equal(t, 1, lines[0].Position)
	assert.Equal(t, 2, lines[1].Position)
}
