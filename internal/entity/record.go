package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/likexin0304/expense-tracker-backend/constants"
)

// OCRRecord represents one submitted text and its recognition outcome, for
// data transfer between layers.
type OCRRecord struct {
	ID              uuid.UUID              `json:"id"`
	OwnerID         uuid.UUID              `json:"owner_id"`
	OriginalText    string                 `json:"original_text"`
	ParsedData      json.RawMessage        `json:"parsed_data,omitempty"`
	ConfidenceScore float64                `json:"confidence_score"`
	Status          constants.RecordStatus `json:"status"`
	ErrorMessage    *string                `json:"error_message,omitempty"`
	ExpenseID       *uuid.UUID             `json:"expense_id,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// RecordStats aggregates per-owner recognition outcomes.
type RecordStats struct {
	Total             int                            `json:"total"`
	ByStatus          map[constants.RecordStatus]int `json:"by_status"`
	AverageConfidence float64                        `json:"average_confidence"`
}

// SuccessRate returns the share of records that parsed or were confirmed,
// in [0,1]. Zero when no records exist.
func (s *RecordStats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	ok := s.ByStatus[constants.StatusSuccess] + s.ByStatus[constants.StatusConfirmed]
	return float64(ok) / float64(s.Total)
}
