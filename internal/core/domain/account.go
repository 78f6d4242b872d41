package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// Valid reports whether t is one of the five account types.
func (t AccountType) Valid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// IsBalanceSheet reports whether balances of this type carry over into the next fiscal year.
func (t AccountType) IsBalanceSheet() bool {
	return t == Asset || t == Liability || t == Equity
}

// Account represents a ledger account in a tenant's chart of accounts.
type Account struct {
	AccountID   string      `json:"accountID"`
	TenantID    string      `json:"tenantID"`
	Code        string      `json:"code"` // unique per tenant
	Name        string      `json:"name"`
	AccountType AccountType `json:"accountType"` // immutable after creation
	Description string      `json:"description"`
	IsActive    bool        `json:"isActive"`
	AuditFields
}
