package entity

import (
	"time"

	"github.com/google/uuid"
)

// Merchant is a directory entry used for fuzzy matching. The directory is
// owned by the merchant management side of the application; the pipeline
// only reads it.
type Merchant struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Keywords    []string  `json:"keywords"`
	Reliability float64   `json:"confidence_score"` // prior reliability in [0,1], default 1.0
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MerchantMatch is one ranked candidate from the matcher.
type MerchantMatch struct {
	Merchant   Merchant `json:"merchant"`
	Confidence float64  `json:"confidence"`
	MatchType  string   `json:"match_type"` // name | keyword | fuzzy
}
