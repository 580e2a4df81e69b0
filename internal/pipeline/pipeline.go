package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/likexin0304/expense-tracker-backend/constants"
	"github.com/likexin0304/expense-tracker-backend/internal/common"
	"github.com/likexin0304/expense-tracker-backend/internal/entity"
	"github.com/likexin0304/expense-tracker-backend/internal/matcher"
	"github.com/likexin0304/expense-tracker-backend/internal/parser"
)

// Options bound one parse run.
type Options struct {
	MerchantMinConfidence float64
	MerchantMaxResults    int
}

// DefaultOptions returns the production matching budget.
func DefaultOptions() Options {
	return Options{
		MerchantMinConfidence: 0.3,
		MerchantMaxResults:    5,
	}
}

// Pipeline turns normalized OCR text into a confidence-scored parse result.
// It is a pure function of its inputs plus the merchant directory snapshot;
// the clock is injected so runs stay reproducible.
type Pipeline struct {
	cfg      parser.ScoringConfig
	amounts  *parser.AmountExtractor
	dates    *parser.DateExtractor
	payments *parser.PaymentClassifier
	matcher  matcher.Matcher
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Pipeline)

// WithClock overrides the time source used for assumed years and the
// fallback date.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

func New(cfg parser.ScoringConfig, m matcher.Matcher, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		cfg:      cfg,
		amounts:  parser.NewAmountExtractor(cfg),
		dates:    parser.NewDateExtractor(cfg),
		payments: parser.NewPaymentClassifier(cfg),
		matcher:  m,
		logger:   logger,
		now:      time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ValidateText rejects empty or too-short input before any persistence
// happens. Length is measured in runes over the trimmed text.
func (p *Pipeline) ValidateText(text string) error {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < p.cfg.MinTextLength {
		return common.NewAppError(common.CodeInvalidText, "请提供有效的OCR文本", nil)
	}
	return nil
}

// Parse runs the full recognition flow: normalize, extract fields, match
// merchants, resolve category, aggregate confidence. A failing extractor
// degrades its field to "no result"; it never aborts the run.
func (p *Pipeline) Parse(ctx context.Context, text string, opts Options) (*parser.Result, error) {
	if err := p.ValidateText(text); err != nil {
		return nil, err
	}

	normalized := parser.Normalize(text)
	now := p.now()

	amount := guard(p.logger, "amount", func() parser.Field[float64] {
		return p.amounts.Extract(normalized)
	})
	date := guard(p.logger, "date", func() parser.Field[string] {
		return p.dates.Extract(normalized, now)
	})
	payment := guard(p.logger, "payment_method", func() parser.Field[string] {
		return p.payments.Extract(normalized)
	})
	merchants := p.matchMerchants(ctx, normalized, opts)

	result := &parser.Result{
		Amount:         amount,
		Date:           date,
		PaymentMethod:  payment,
		OriginalText:   text,
		NormalizedText: normalized,
	}

	// Category comes from the top merchant when there is one, else from the
	// keyword lexicon.
	if len(merchants) > 0 {
		top := merchants[0]
		result.Merchant = parser.FieldOf(top.Merchant.Name, top.Confidence, top.Merchant.Name)
		result.Category = top.Merchant.Category
		result.Merchants = make([]parser.MerchantCandidate, len(merchants))
		for i, m := range merchants {
			result.Merchants[i] = parser.MerchantCandidate{
				Name:       m.Merchant.Name,
				Category:   m.Merchant.Category,
				Confidence: m.Confidence,
			}
		}
	} else {
		result.Category = string(constants.InferCategory(normalized))
	}

	result.OverallConfidence = p.cfg.Overall(
		confidenceOf(result.Amount),
		confidenceOf(result.Merchant),
		confidenceOf(result.Date),
		confidenceOf(result.PaymentMethod),
		utf8.RuneCountInString(normalized),
	)
	result.Message = p.cfg.MessageFor(result.OverallConfidence)
	result.Warnings = parser.Warnings(result, now)

	p.logger.Info("pipeline.parse.ok",
		"confidence", result.OverallConfidence,
		"category", result.Category,
		"merchants", len(result.Merchants),
		"amount_found", result.Amount.Present(),
	)
	return result, nil
}

func (p *Pipeline) matchMerchants(ctx context.Context, normalized string, opts Options) []entity.MerchantMatch {
	matches, err := p.matcher.Match(ctx, normalized, matcher.Options{
		MinConfidence: opts.MerchantMinConfidence,
		MaxResults:    opts.MerchantMaxResults,
	})
	if err != nil {
		// The merchant field degrades to "no result"; the rest of the parse
		// still stands.
		p.logger.Warn("pipeline.merchant_match.degraded", "error", err)
		return nil
	}
	return matches
}

// confidenceOf returns the field's confidence, or nil when the field is an
// absent value that must not count against the aggregation denominator.
func confidenceOf[T any](f parser.Field[T]) *float64 {
	if !f.Present() {
		return nil
	}
	c := f.Confidence
	return &c
}

// guard isolates one extractor: a panic inside it is logged and its field
// degrades to empty instead of aborting the whole parse.
func guard[T any](logger *slog.Logger, name string, fn func() parser.Field[T]) (field parser.Field[T]) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("pipeline.extractor.panic", "extractor", name, "panic", r)
			field = parser.Field[T]{}
		}
	}()
	return fn()
}
