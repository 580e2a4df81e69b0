package async

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/likexin0304/expense-tracker-backend/constants"
	"github.com/likexin0304/expense-tracker-backend/internal/entity"
	"github.com/likexin0304/expense-tracker-backend/internal/matcher"
	"github.com/likexin0304/expense-tracker-backend/internal/parser"
	"github.com/likexin0304/expense-tracker-backend/internal/pipeline"
	"github.com/likexin0304/expense-tracker-backend/internal/recognition"
	"github.com/likexin0304/expense-tracker-backend/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newQueueFixture(t *testing.T, opts ...Option) (*RecognizerQueue, *repository.MemoryRecordRepository, *repository.MemoryExpenseRepository) {
	t.Helper()

	records := repository.NewMemoryRecordRepository()
	merchants := repository.NewMemoryMerchantRepository(
		entity.Merchant{
			Name: "星巴克", Category: "餐饮",
			Keywords: []string{"星巴克", "咖啡"}, Reliability: 1.0, IsActive: true,
		},
	)
	expenses := repository.NewMemoryExpenseRepository()

	m := matcher.NewScorer(merchants, nil)
	p := pipeline.New(parser.DefaultScoring(), m, nil)
	svc := recognition.NewService(records, merchants, expenses, p, m, recognition.DefaultConfig(), nil)

	return NewRecognizerQueue(svc, testLogger(), opts...), records, expenses
}

func TestQueueProcessesJobs(t *testing.T) {
	queue, records, _ := newQueueFixture(t, WithWorkers(2), WithQueueSize(16))
	owner := uuid.New()

	texts := []string{
		"星巴克咖啡 消费金额：¥35.50 支付宝支付",
		"滴滴打车 行程费用 23.50元",
		"本月电费缴纳 ¥156.00",
	}
	for i, text := range texts {
		require.NoError(t, queue.Enqueue(context.Background(), Job{
			OwnerID:     owner,
			Text:        text,
			SubmittedAt: time.Now(),
			TraceID:     uuid.NewString(),
		}), "job %d", i)
	}
	queue.Shutdown(context.Background())

	all, err := records.List(context.Background(), owner, repository.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, all, len(texts))
	for _, rec := range all {
		assert.Equal(t, constants.StatusSuccess, rec.Status)
	}
}

func TestQueueAutoCreateJobs(t *testing.T) {
	queue, records, expenses := newQueueFixture(t)
	owner := uuid.New()

	require.NoError(t, queue.Enqueue(context.Background(), Job{
		OwnerID:    owner,
		Text:       "星巴克咖啡 消费金额：¥35.50 2024-01-15 支付宝支付",
		AutoCreate: true,
		TraceID:    uuid.NewString(),
	}))
	queue.Shutdown(context.Background())

	all, err := records.List(context.Background(), owner, repository.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, constants.StatusConfirmed, all[0].Status)
	assert.Len(t, expenses.All(), 1)
}

func TestQueueInvalidTextDoesNotPersist(t *testing.T) {
	queue, records, _ := newQueueFixture(t)
	owner := uuid.New()

	require.NoError(t, queue.Enqueue(context.Background(), Job{
		OwnerID: owner,
		Text:    "短",
		TraceID: uuid.NewString(),
	}))
	queue.Shutdown(context.Background())

	all, err := records.List(context.Background(), owner, repository.RecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestQueueEnqueueAfterShutdownIsNoop(t *testing.T) {
	queue, records, _ := newQueueFixture(t)
	owner := uuid.New()

	queue.Shutdown(context.Background())
	require.NoError(t, queue.Enqueue(context.Background(), Job{
		OwnerID: owner,
		Text:    "星巴克咖啡 消费 ¥35.50",
	}))
	// Shutdown twice is safe.
	queue.Shutdown(context.Background())

	all, err := records.List(context.Background(), owner, repository.RecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}
