package matcher

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/likexin0304/expense-tracker-backend/internal/entity"
)

// trgmQuery pushes the scoring policy of the in-process Scorer into
// Postgres, using pg_trgm similarity() for the fuzzy signal. It returns the
// same contributions (0.9 name, 0.8 keyword, 0.6 fuzzy) weighted by the
// merchant's prior reliability, so both matchers are interchangeable.
const trgmQuery = `
SELECT id, name, category, keywords, confidence_score, is_active,
       match_confidence, match_type
FROM (
    SELECT m.*,
           GREATEST(name_score, keyword_score, fuzzy_score) * m.confidence_score AS match_confidence,
           CASE GREATEST(name_score, keyword_score, fuzzy_score)
               WHEN name_score THEN 'name'
               WHEN keyword_score THEN 'keyword'
               ELSE 'fuzzy'
           END AS match_type
    FROM (
        SELECT m.id, m.name, m.category, m.keywords, m.confidence_score, m.is_active,
               CASE WHEN position(lower(m.name) IN $1) > 0 OR position($1 IN lower(m.name)) > 0
                    THEN 0.9 ELSE 0 END AS name_score,
               COALESCE((SELECT max(CASE WHEN position(lower(k) IN $1) > 0 OR position($1 IN lower(k)) > 0
                                         THEN 0.8 ELSE 0 END)
                         FROM unnest(m.keywords) AS k), 0) AS keyword_score,
               CASE WHEN similarity(lower(m.name), $1) > 0.6 THEN 0.6 ELSE 0 END AS fuzzy_score
        FROM merchants m
        WHERE m.is_active
    ) m
) scored
WHERE match_confidence >= $2
ORDER BY match_confidence DESC, name
LIMIT $3`

// PGTrgm ranks merchants server-side; it is the production analog of the
// directory's fuzzy-match RPC and requires the pg_trgm extension.
type PGTrgm struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPGTrgm(pool *pgxpool.Pool, logger *slog.Logger) *PGTrgm {
	if logger == nil {
		logger = slog.Default()
	}
	return &PGTrgm{pool: pool, logger: logger}
}

func (p *PGTrgm) Match(ctx context.Context, text string, opts Options) ([]entity.MerchantMatch, error) {
	searchText := strings.ToLower(strings.TrimSpace(text))
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	rows, err := p.pool.Query(ctx, trgmQuery, searchText, opts.MinConfidence, maxResults)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []entity.MerchantMatch
	for rows.Next() {
		var m entity.Merchant
		var match entity.MerchantMatch
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &m.Keywords, &m.Reliability,
			&m.IsActive, &match.Confidence, &match.MatchType); err != nil {
			return nil, err
		}
		match.Merchant = m
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	p.logger.Debug("matcher.trgm.done", "candidates", len(matches))
	return matches, nil
}
