package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExpenseFields is the structured input the expense creation collaborator
// accepts, either confirmed by a user or synthesized from a parse result.
type ExpenseFields struct {
	Amount        float64   `json:"amount"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	Date          time.Time `json:"date"`
	Location      string    `json:"location,omitempty"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
}

// Expense is a stored ledger entry.
type Expense struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	Amount        float64   `json:"amount"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	Date          time.Time `json:"date"`
	Location      string    `json:"location,omitempty"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
