package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/likexin0304/expense-tracker-backend/constants"
	"github.com/likexin0304/expense-tracker-backend/internal/entity"
)

// MemoryRecordRepository is an in-memory RecordRepository used by tests and
// the offline CLI. Transitions hold the same compare-and-swap contract as
// the Postgres implementation, guarded by a mutex instead of a conditional
// UPDATE.
type MemoryRecordRepository struct {
	mu      sync.Mutex
	records map[uuid.UUID]*entity.OCRRecord
}

func NewMemoryRecordRepository() *MemoryRecordRepository {
	return &MemoryRecordRepository{records: make(map[uuid.UUID]*entity.OCRRecord)}
}

func (r *MemoryRecordRepository) Create(_ context.Context, ownerID uuid.UUID, text string) (*entity.OCRRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	rec := &entity.OCRRecord{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		OriginalText: text,
		Status:       constants.StatusProcessing,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.records[rec.ID] = rec
	return copyRecord(rec), nil
}

func (r *MemoryRecordRepository) GetByID(_ context.Context, id, ownerID uuid.UUID) (*entity.OCRRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return copyRecord(rec), nil
}

func (r *MemoryRecordRepository) List(_ context.Context, ownerID uuid.UUID, filter RecordFilter) ([]*entity.OCRRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var records []*entity.OCRRecord
	for _, rec := range r.records {
		if rec.OwnerID != ownerID {
			continue
		}
		if filter.Status != nil && rec.Status != *filter.Status {
			continue
		}
		records = append(records, copyRecord(rec))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(records) {
			return nil, nil
		}
		records = records[filter.Offset:]
	}
	if filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	return records, nil
}

func (r *MemoryRecordRepository) Delete(_ context.Context, id, ownerID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.OwnerID != ownerID {
		return false, nil
	}
	delete(r.records, id)
	return true, nil
}

func (r *MemoryRecordRepository) Stats(_ context.Context, ownerID uuid.UUID) (*entity.RecordStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := &entity.RecordStats{ByStatus: make(map[constants.RecordStatus]int)}
	var confidenceSum float64
	var confidenceCount int
	for _, rec := range r.records {
		if rec.OwnerID != ownerID {
			continue
		}
		stats.Total++
		stats.ByStatus[rec.Status]++
		if rec.ConfidenceScore > 0 {
			confidenceSum += rec.ConfidenceScore
			confidenceCount++
		}
	}
	if confidenceCount > 0 {
		stats.AverageConfidence = confidenceSum / float64(confidenceCount)
	}
	return stats, nil
}

func (r *MemoryRecordRepository) MarkParsed(_ context.Context, id, ownerID uuid.UUID, parsed json.RawMessage, confidence float64) (*entity.OCRRecord, error) {
	return r.transition(id, ownerID, constants.StatusSuccess, func(rec *entity.OCRRecord) {
		rec.ParsedData = append(json.RawMessage(nil), parsed...)
		rec.ConfidenceScore = confidence
	})
}

func (r *MemoryRecordRepository) MarkFailed(_ context.Context, id, ownerID uuid.UUID, errorMessage string) (*entity.OCRRecord, error) {
	if errorMessage == "" {
		return nil, errors.New("failed status requires an error message")
	}
	return r.transition(id, ownerID, constants.StatusFailed, func(rec *entity.OCRRecord) {
		rec.ErrorMessage = &errorMessage
	})
}

func (r *MemoryRecordRepository) Confirm(_ context.Context, id, ownerID, expenseID uuid.UUID) (*entity.OCRRecord, error) {
	return r.transition(id, ownerID, constants.StatusConfirmed, func(rec *entity.OCRRecord) {
		rec.ExpenseID = &expenseID
	})
}

func (r *MemoryRecordRepository) transition(id, ownerID uuid.UUID, to constants.RecordStatus, apply func(*entity.OCRRecord)) (*entity.OCRRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	if !constants.CanTransition(rec.Status, to) {
		return nil, ErrInvalidTransition
	}
	rec.Status = to
	rec.UpdatedAt = time.Now().UTC()
	apply(rec)
	return copyRecord(rec), nil
}

func copyRecord(rec *entity.OCRRecord) *entity.OCRRecord {
	cp := *rec
	if rec.ParsedData != nil {
		cp.ParsedData = append(json.RawMessage(nil), rec.ParsedData...)
	}
	return &cp
}

// MemoryExpenseRepository is an in-memory ExpenseRepository for tests and
// the offline CLI.
type MemoryExpenseRepository struct {
	mu       sync.Mutex
	expenses []*entity.Expense
}

func NewMemoryExpenseRepository() *MemoryExpenseRepository {
	return &MemoryExpenseRepository{}
}

func (r *MemoryExpenseRepository) Create(_ context.Context, ownerID uuid.UUID, fields entity.ExpenseFields) (*entity.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := &entity.Expense{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Amount:        fields.Amount,
		Category:      fields.Category,
		Description:   fields.Description,
		Date:          fields.Date,
		Location:      fields.Location,
		PaymentMethod: fields.PaymentMethod,
		Tags:          append([]string(nil), fields.Tags...),
		CreatedAt:     time.Now().UTC(),
	}
	r.expenses = append(r.expenses, e)
	cp := *e
	return &cp, nil
}

// All returns a snapshot of every stored expense.
func (r *MemoryExpenseRepository) All() []*entity.Expense {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Expense, len(r.expenses))
	for i, e := range r.expenses {
		cp := *e
		out[i] = &cp
	}
	return out
}

// MemoryMerchantRepository is an in-memory merchant directory snapshot.
type MemoryMerchantRepository struct {
	mu        sync.RWMutex
	merchants []entity.Merchant
}

func NewMemoryMerchantRepository(merchants ...entity.Merchant) *MemoryMerchantRepository {
	return &MemoryMerchantRepository{merchants: merchants}
}

func (r *MemoryMerchantRepository) Add(m entity.Merchant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merchants = append(r.merchants, m)
}

func (r *MemoryMerchantRepository) FindActive(_ context.Context) ([]entity.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var active []entity.Merchant
	for _, m := range r.merchants {
		if m.IsActive {
			active = append(active, m)
		}
	}
	return active, nil
}

func (r *MemoryMerchantRepository) List(_ context.Context, filter MerchantFilter) ([]entity.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(filter.Search))
	var result []entity.Merchant
	for _, m := range r.merchants {
		if !m.IsActive {
			continue
		}
		if filter.Category != "" && m.Category != filter.Category {
			continue
		}
		if term != "" && !merchantMatchesSearch(m, term) {
			continue
		}
		result = append(result, m)
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result, nil
}
