package matcher

import (
	"context"

	"github.com/likexin0304/expense-tracker-backend/internal/entity"
)

// Options bound a match run.
type Options struct {
	MinConfidence float64 // candidates below this are dropped
	MaxResults    int     // result list is truncated to this many entries
}

// Matcher ranks known merchants against a normalized text. Implementations
// must return results sorted descending by confidence, never below
// MinConfidence and never more than MaxResults.
type Matcher interface {
	Match(ctx context.Context, text string, opts Options) ([]entity.MerchantMatch, error)
}

// Directory is the read side of the merchant service the in-process scorer
// needs.
type Directory interface {
	FindActive(ctx context.Context) ([]entity.Merchant, error)
}
