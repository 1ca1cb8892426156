package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction polarity. Credits increase balance, debits decrease it.
const (
	TypeCredit = "credit"
	TypeDebit  = "debit"
)

// legacy label for the debit side, still accepted on input
const typeExpense = "expense"

// NormalizeTransactionType maps incoming type labels to the canonical
// credit/debit pair. The web client historically sent "expense" for the
// negative side; it is treated as an alias of "debit". Unknown labels are
// returned unchanged so validation can reject them.
func NormalizeTransactionType(t string) string {
	if t == typeExpense {
		return TypeDebit
	}
	return t
}

// ValidTransactionType reports whether t is a canonical polarity label.
func ValidTransactionType(t string) bool {
	return t == TypeCredit || t == TypeDebit
}

// Transaction is a single money movement owned by one user. Amount is always
// stored positive; Type decides the sign applied during aggregation.
type Transaction struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"userId"`
	Title       string             `bson:"title" json:"title"`
	Amount      float64            `bson:"amount" json:"amount"`
	Type        string             `bson:"type" json:"type"`
	Category    string             `bson:"category" json:"category"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Date        time.Time          `bson:"date" json:"date"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}
