package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/likexin0304/expense-tracker-backend/internal/entity"
)

const merchantColumns = `id, name, category, keywords, confidence_score, is_active, created_at, updated_at`

type merchantRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewMerchantRepository(pool *pgxpool.Pool, logger *slog.Logger) MerchantRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &merchantRepository{pool: pool, logger: logger}
}

func (r *merchantRepository) FindActive(ctx context.Context) ([]entity.Merchant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+merchantColumns+`
		FROM merchants
		WHERE is_active
		ORDER BY confidence_score DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMerchants(rows)
}

func (r *merchantRepository) List(ctx context.Context, filter MerchantFilter) ([]entity.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE is_active`
	var args []any
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	query += " ORDER BY name"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	merchants, err := scanMerchants(rows)
	if err != nil {
		return nil, err
	}
	// Keyword search is applied in-process so it matches the in-process
	// scorer's semantics (name or any keyword contains the term).
	if term := strings.ToLower(strings.TrimSpace(filter.Search)); term != "" {
		filtered := merchants[:0]
		for _, m := range merchants {
			if merchantMatchesSearch(m, term) {
				filtered = append(filtered, m)
			}
		}
		merchants = filtered
	}
	return merchants, nil
}

func merchantMatchesSearch(m entity.Merchant, term string) bool {
	if strings.Contains(strings.ToLower(m.Name), term) {
		return true
	}
	for _, kw := range m.Keywords {
		if strings.Contains(strings.ToLower(kw), term) {
			return true
		}
	}
	return false
}

func scanMerchants(rows pgx.Rows) ([]entity.Merchant, error) {
	var merchants []entity.Merchant
	for rows.Next() {
		var m entity.Merchant
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &m.Keywords, &m.Reliability,
			&m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		merchants = append(merchants, m)
	}
	return merchants, rows.Err()
}
