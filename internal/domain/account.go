package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Accounts
// ============================================================

// AccountType classifies an account.
type AccountType string

const (
	AccountChecking   AccountType = "CHECKING"
	AccountSavings    AccountType = "SAVINGS"
	AccountCredit     AccountType = "CREDIT"
	AccountInvestment AccountType = "INVESTMENT"
)

// Account is a user account as supplied by the account source.
type Account struct {
	ID       string          `json:"id"`
	OwnerID  string          `json:"ownerId"`
	Type     AccountType     `json:"type"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// ============================================================
// Transactions
// ============================================================

// Category is the spending category of a transaction.
type Category string

const (
	CategoryFood          Category = "FOOD"
	CategoryTransport     Category = "TRANSPORT"
	CategoryShopping      Category = "SHOPPING"
	CategoryUtilities     Category = "UTILITIES"
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryHealthcare    Category = "HEALTHCARE"
	CategoryEducation     Category = "EDUCATION"
	CategoryInvestment    Category = "INVESTMENT"
	CategorySalary        Category = "SALARY"
	CategoryTransfer      Category = "TRANSFER"
	CategoryOther         Category = "OTHER"
)

// TransactionStatus is the lifecycle status of a transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
	StatusCancelled TransactionStatus = "CANCELLED"
)

// Transaction is a single movement on an account. Negative amounts are debits.
type Transaction struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"ownerId"`
	AccountID   string            `json:"accountId"`
	Amount      decimal.Decimal   `json:"amount"`
	Category    Category          `json:"category"`
	Status      TransactionStatus `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Merchant    string            `json:"merchant,omitempty"`
	Description string            `json:"description,omitempty"`
}

// IsCompleted reports whether the transaction has settled.
func (t Transaction) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// IsTransfer reports whether the transaction moves money between own accounts.
func (t Transaction) IsTransfer() bool {
	return t.Category == CategoryTransfer
}

// Snapshot is the point-in-time view of a user's accounts and transactions.
type Snapshot struct {
	UserID       string        `json:"userId"`
	Accounts     []Account     `json:"accounts"`
	Transactions []Transaction `json:"transactions"`
}
