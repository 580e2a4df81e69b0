package repository

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/google/uuid"

	"github.com/likexin0304/expense-tracker-backend/internal/entity"
)

type expenseRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewExpenseRepository(pool *pgxpool.Pool, logger *slog.Logger) ExpenseRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &expenseRepository{pool: pool, logger: logger}
}

func (r *expenseRepository) Create(ctx context.Context, ownerID uuid.UUID, fields entity.ExpenseFields) (*entity.Expense, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO expenses (user_id, amount, category, description, date, location, payment_method, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, user_id, amount, category, description, date, location, payment_method, tags, created_at`,
		ownerID, fields.Amount, fields.Category, fields.Description, fields.Date,
		fields.Location, fields.PaymentMethod, fields.Tags)

	var e entity.Expense
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Amount, &e.Category, &e.Description,
		&e.Date, &e.Location, &e.PaymentMethod, &e.Tags, &e.CreatedAt); err != nil {
		r.logger.Error("expense.create.failed", "owner_id", ownerID, "error", err)
		return nil, err
	}
	r.logger.Info("expense.create.ok", "expense_id", e.ID, "owner_id", ownerID, "amount", e.Amount)
	return &e, nil
}
