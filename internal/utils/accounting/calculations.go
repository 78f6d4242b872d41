package accounting

import (
	"fmt"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/shopspring/decimal"
)

// NetBalance returns debit minus credit or credit minus debit, whichever is the normal side of the account type.
// DEBIT to ASSET/EXPENSE -> Positive (+)
// DEBIT to LIABILITY/EQUITY/REVENUE -> Negative (-)
func NetBalance(debit, credit decimal.Decimal, accountType domain.AccountType) (decimal.Decimal, error) {
	switch accountType {
	case domain.Asset, domain.Expense:
		return debit.Sub(credit), nil
	case domain.Liability, domain.Equity, domain.Revenue:
		return credit.Sub(debit), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown account type '%s'", accountType)
	}
}

// Income folds trial balance rows into a profit and loss summary.
// Net income = sum(revenue credit - debit) - sum(expense debit - credit).
func Income(year int, rows []domain.TrialBalanceRow) domain.IncomeSummary {
	summary := domain.IncomeSummary{
		Year:      year,
		Revenue:   []domain.AccountAmount{},
		Expenses:  []domain.AccountAmount{},
		NetIncome: decimal.Zero,
	}
	for _, row := range rows {
		amount := domain.AccountAmount{AccountID: row.AccountID, Code: row.AccountCode, Name: row.AccountName}
		switch row.AccountType {
		case domain.Revenue:
			amount.NetAmount = row.Credit.Sub(row.Debit)
			summary.Revenue = append(summary.Revenue, amount)
			summary.NetIncome = summary.NetIncome.Add(amount.NetAmount)
		case domain.Expense:
			amount.NetAmount = row.Debit.Sub(row.Credit)
			summary.Expenses = append(summary.Expenses, amount)
			summary.NetIncome = summary.NetIncome.Sub(amount.NetAmount)
		}
	}
	return summary
}

// ClosingLines builds the lines that bring every revenue and expense account to zero
// against the retained earnings account. Accounts already at zero are skipped.
func ClosingLines(rows []domain.TrialBalanceRow, retainedEarningsID string) []domain.JournalLine {
	lines := make([]domain.JournalLine, 0, len(rows)+1)
	net := decimal.Zero // debit-minus-credit of the generated lines so far
	for _, row := range rows {
		if row.AccountType != domain.Revenue && row.AccountType != domain.Expense {
			continue
		}
		diff := row.Debit.Sub(row.Credit)
		if diff.IsZero() {
			continue
		}
		l := domain.JournalLine{AccountID: row.AccountID, Description: "Year-end closing", Debit: decimal.Zero, Credit: decimal.Zero}
		if diff.IsPositive() {
			l.Credit = diff
		} else {
			l.Debit = diff.Neg()
		}
		net = net.Add(l.Debit).Sub(l.Credit)
		lines = append(lines, l)
	}
	if len(lines) == 0 {
		return lines
	}
	if !net.IsZero() {
		l := domain.JournalLine{AccountID: retainedEarningsID, Description: "Result for the year", Debit: decimal.Zero, Credit: decimal.Zero}
		if net.IsPositive() {
			l.Credit = net
		} else {
			l.Debit = net.Neg()
		}
		lines = append(lines, l)
	}
	for i := range lines {
		lines[i].Position = i + 1
	}
	return lines
}

// OpeningLines carries balance-sheet balances into a new year. Accounts at zero are skipped.
func OpeningLines(rows []domain.TrialBalanceRow) []domain.JournalLine {
	lines := make([]domain.JournalLine, 0, len(rows))
	for _, row := range rows {
		if !row.AccountType.IsBalanceSheet() {
			continue
		}
		diff := row.Debit.Sub(row.Credit)
		if diff.IsZero() {
			continue
		}
		l := domain.JournalLine{AccountID: row.AccountID, Description: "Opening balance", Debit: decimal.Zero, Credit: decimal.Zero}
		if diff.IsPositive() {
			l.Debit = diff
		} else {
			l.Credit = diff.Neg()
		}
		lines = append(lines, l)
	}
	for i := range lines {
		lines[i].Position = i + 1
	}
	return lines
}
