package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/likexin0304/expense-tracker-backend/constants"
	"github.com/likexin0304/expense-tracker-backend/internal/entity"
)

// Sentinel errors shared by every RecordRepository implementation.
var (
	ErrNotFound = errors.New("record not found")
	// ErrInvalidTransition is returned when a status write loses the
	// conditional update, either because the transition is illegal or a
	// concurrent writer got there first.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// RecordFilter narrows List calls.
type RecordFilter struct {
	Status *constants.RecordStatus
	Limit  int
	Offset int
}

// RecordRepository persists OCR records. Status never changes through a
// blind update: each transition method performs an atomic compare-and-swap
// against the source statuses constants.TransitionSources allows, so two
// concurrent confirmations of the same record cannot both win.
type RecordRepository interface {
	Create(ctx context.Context, ownerID uuid.UUID, text string) (*entity.OCRRecord, error)
	GetByID(ctx context.Context, id, ownerID uuid.UUID) (*entity.OCRRecord, error)
	List(ctx context.Context, ownerID uuid.UUID, filter RecordFilter) ([]*entity.OCRRecord, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error)
	Stats(ctx context.Context, ownerID uuid.UUID) (*entity.RecordStats, error)

	// MarkParsed moves processing -> success, storing the parse result.
	MarkParsed(ctx context.Context, id, ownerID uuid.UUID, parsed json.RawMessage, confidence float64) (*entity.OCRRecord, error)
	// MarkFailed moves processing -> failed with a non-empty error message.
	MarkFailed(ctx context.Context, id, ownerID uuid.UUID, errorMessage string) (*entity.OCRRecord, error)
	// Confirm moves success -> confirmed and links the created expense.
	Confirm(ctx context.Context, id, ownerID, expenseID uuid.UUID) (*entity.OCRRecord, error)
}

// MerchantFilter narrows merchant listing.
type MerchantFilter struct {
	Category string
	Search   string
	Limit    int
}

// MerchantRepository is the read side of the merchant directory.
type MerchantRepository interface {
	FindActive(ctx context.Context) ([]entity.Merchant, error)
	List(ctx context.Context, filter MerchantFilter) ([]entity.Merchant, error)
}

// ExpenseRepository creates ledger entries from confirmed or auto-created
// recognition results.
type ExpenseRepository interface {
	Create(ctx context.Context, ownerID uuid.UUID, fields entity.ExpenseFields) (*entity.Expense, error)
}
