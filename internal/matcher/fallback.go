package matcher

import (
	"context"
	"log/slog"

	"github.com/likexin0304/expense-tracker-backend/internal/entity"
)

// Fallback tries a primary matcher (typically the server-side one) and
// degrades to a secondary when it fails, so the pipeline has no hard
// dependency on a specific search backend.
type Fallback struct {
	primary   Matcher
	secondary Matcher
	logger    *slog.Logger
}

func WithFallback(primary, secondary Matcher, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *Fallback) Match(ctx context.Context, text string, opts Options) ([]entity.MerchantMatch, error) {
	matches, err := f.primary.Match(ctx, text, opts)
	if err == nil {
		return matches, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	f.logger.Warn("matcher.primary.degraded", "error", err)
	return f.secondary.Match(ctx, text, opts)
}
