package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// CategoryType is the closed set of category kinds. A category is either an
// income bucket or an expense bucket, never both.
type CategoryType string

const (
	CategoryExpense CategoryType = "expense"
	CategoryIncome  CategoryType = "income"
)

// Valid reports whether t is one of the two known category types.
func (t CategoryType) Valid() bool {
	return t == CategoryExpense || t == CategoryIncome
}

// User is a bot user, keyed by the stable numeric identifier the chat
// transport assigns.
type User struct {
	UserID          int64
	ChatID          int64
	DefaultCurrency string
	IsOnboarded     bool
}

// Category is a user-owned transaction bucket.
type Category struct {
	ID        int64
	UserID    int64
	Name      string
	Type      CategoryType
	IsDefault bool
}

// Transaction is one persisted financial movement. Amounts are always
// positive; the direction comes from the category type. Date is stored
// timezone-aware in UTC.
type Transaction struct {
	ID          int64
	UserID      int64
	CategoryID  int64
	Amount      decimal.Decimal
	Date        time.Time
	Description string
}

// ExtractionResult is the validated output of the AI extraction pipeline.
// It is transient: the router turns it into a Transaction, it is never
// persisted on its own.
type ExtractionResult struct {
	Amount      decimal.Decimal
	CategoryID  int64
	Description string
	Type        CategoryType
	Date        civil.Date
}
