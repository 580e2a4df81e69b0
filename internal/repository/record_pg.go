package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/google/uuid"

	"github.com/likexin0304/expense-tracker-backend/constants"
	"github.com/likexin0304/expense-tracker-backend/internal/entity"
)

const recordColumns = `id, user_id, original_text, parsed_data, confidence_score, status, error_message, expense_id, created_at, updated_at`

type recordRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRecordRepository(pool *pgxpool.Pool, logger *slog.Logger) RecordRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &recordRepository{pool: pool, logger: logger}
}

func (r *recordRepository) Create(ctx context.Context, ownerID uuid.UUID, text string) (*entity.OCRRecord, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO ocr_records (user_id, original_text, status)
		VALUES ($1, $2, $3)
		RETURNING `+recordColumns,
		ownerID, text, string(constants.StatusProcessing))

	rec, err := scanRecord(row)
	if err != nil {
		r.logger.Error("record.create.failed", "owner_id", ownerID, "error", err)
		return nil, err
	}
	r.logger.Info("record.create.ok", "record_id", rec.ID, "owner_id", ownerID)
	return rec, nil
}

func (r *recordRepository) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*entity.OCRRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM ocr_records
		WHERE id = $1 AND user_id = $2`,
		id, ownerID)

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (r *recordRepository) List(ctx context.Context, ownerID uuid.UUID, filter RecordFilter) ([]*entity.OCRRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM ocr_records WHERE user_id = $1`
	args := []any{ownerID}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*entity.OCRRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *recordRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM ocr_records WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *recordRepository) Stats(ctx context.Context, ownerID uuid.UUID) (*entity.RecordStats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, count(*),
		       count(*) FILTER (WHERE confidence_score > 0),
		       avg(confidence_score) FILTER (WHERE confidence_score > 0)
		FROM ocr_records
		WHERE user_id = $1
		GROUP BY status`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &entity.RecordStats{ByStatus: make(map[constants.RecordStatus]int)}
	var confidenceSum float64
	var confidenceWeight int
	for rows.Next() {
		var status string
		var count, scored int
		var avg *float64
		if err := rows.Scan(&status, &count, &scored, &avg); err != nil {
			return nil, err
		}
		if s, ok := constants.ParseStatus(status); ok {
			stats.ByStatus[s] = count
		}
		stats.Total += count
		if avg != nil && scored > 0 {
			confidenceSum += *avg * float64(scored)
			confidenceWeight += scored
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if confidenceWeight > 0 {
		stats.AverageConfidence = confidenceSum / float64(confidenceWeight)
	}
	return stats, nil
}

func (r *recordRepository) MarkParsed(ctx context.Context, id, ownerID uuid.UUID, parsed json.RawMessage, confidence float64) (*entity.OCRRecord, error) {
	return r.transition(ctx, id, ownerID, constants.StatusSuccess, `
		UPDATE ocr_records
		SET status = $3, parsed_data = $4, confidence_score = $5, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND status = ANY($6)
		RETURNING `+recordColumns,
		parsed, confidence)
}

func (r *recordRepository) MarkFailed(ctx context.Context, id, ownerID uuid.UUID, errorMessage string) (*entity.OCRRecord, error) {
	if errorMessage == "" {
		return nil, errors.New("failed status requires an error message")
	}
	return r.transition(ctx, id, ownerID, constants.StatusFailed, `
		UPDATE ocr_records
		SET status = $3, error_message = $4, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND status = ANY($5)
		RETURNING `+recordColumns,
		errorMessage)
}

func (r *recordRepository) Confirm(ctx context.Context, id, ownerID, expenseID uuid.UUID) (*entity.OCRRecord, error) {
	return r.transition(ctx, id, ownerID, constants.StatusConfirmed, `
		UPDATE ocr_records
		SET status = $3, expense_id = $4, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND status = ANY($5)
		RETURNING `+recordColumns,
		expenseID)
}

// transition runs a conditional status update. The WHERE clause carries the
// legal source statuses, so the database is the arbiter under concurrency:
// losing the swap surfaces as ErrInvalidTransition, never a silent repeat.
func (r *recordRepository) transition(ctx context.Context, id, ownerID uuid.UUID, to constants.RecordStatus, query string, extra ...any) (*entity.OCRRecord, error) {
	sources := constants.TransitionSources(to)
	from := make([]string, len(sources))
	for i, s := range sources {
		from[i] = string(s)
	}

	args := append([]any{id, ownerID, string(to)}, extra...)
	args = append(args, from)

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, args...))
	if err == nil {
		r.logger.Info("record.transition.ok", "record_id", id, "to", to)
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("record.transition.failed", "record_id", id, "to", to, "error", err)
		return nil, err
	}

	// No row moved: distinguish a missing record from an illegal or lost
	// transition.
	if _, getErr := r.GetByID(ctx, id, ownerID); getErr != nil {
		return nil, getErr
	}
	r.logger.Warn("record.transition.rejected", "record_id", id, "to", to)
	return nil, ErrInvalidTransition
}

func scanRecord(row pgx.Row) (*entity.OCRRecord, error) {
	var rec entity.OCRRecord
	var status string
	if err := row.Scan(&rec.ID, &rec.OwnerID, &rec.OriginalText, &rec.ParsedData,
		&rec.ConfidenceScore, &status, &rec.ErrorMessage, &rec.ExpenseID,
		&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	if s, ok := constants.ParseStatus(status); ok {
		rec.Status = s
	} else {
		return nil, fmt.Errorf("unknown record status %q", status)
	}
	return &rec, nil
}
