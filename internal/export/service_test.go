package export

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/likexin0304/expense-tracker-backend/internal/parser"
	"github.com/likexin0304/expense-tracker-backend/internal/repository"
)

func TestExportRecordsXLSX(t *testing.T) {
	ctx := context.Background()
	records := repository.NewMemoryRecordRepository()
	owner := uuid.New()

	rec, err := records.Create(ctx, owner, "星巴克咖啡 消费金额：¥35.50 2024-01-15 支付宝支付")
	require.NoError(t, err)

	result := &parser.Result{
		Amount:            parser.FieldOf(35.50, 1.0, "¥35.50"),
		Date:              parser.FieldOf("2024-01-15", 0.8, "2024-01-15"),
		Merchant:          parser.FieldOf("星巴克", 0.9, "星巴克"),
		PaymentMethod:     parser.FieldOf("支付宝", 0.9, "支付宝"),
		Category:          "餐饮",
		OverallConfidence: 0.92,
		OriginalText:      "星巴克咖啡 消费金额：¥35.50 2024-01-15 支付宝支付",
		NormalizedText:    "星巴克咖啡 消费金额 ¥35.50 2024-01-15 支付宝支付",
		Message:           "解析成功",
	}
	parsed, err := json.Marshal(result)
	require.NoError(t, err)
	_, err = records.MarkParsed(ctx, rec.ID, owner, parsed, 0.92)
	require.NoError(t, err)

	failed, err := records.Create(ctx, owner, "完全无法识别的图像内容")
	require.NoError(t, err)
	_, err = records.MarkFailed(ctx, failed.ID, owner, "解析失败")
	require.NoError(t, err)

	svc := NewService(records, nil)
	data, err := svc.ExportRecordsXLSX(ctx, owner, repository.RecordFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"OCR Records"}, f.GetSheetList(), "default Sheet1 must not ship")

	rows, err := f.GetRows("OCR Records")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per record")

	assert.Equal(t, "Created At", rows[0][0])
	assert.Equal(t, "Status", rows[0][1])
	assert.Equal(t, "Original Text", rows[0][9])

	// Records list newest first; the failed one was created last.
	assert.Equal(t, "failed", rows[1][1])
	assert.Equal(t, "success", rows[2][1])
	assert.Equal(t, "餐饮", rows[2][4])
	assert.Equal(t, "星巴克", rows[2][5])
	assert.Equal(t, "2024-01-15", rows[2][6])
}

func TestExportRecordsXLSXEmpty(t *testing.T) {
	svc := NewService(repository.NewMemoryRecordRepository(), nil)

	data, err := svc.ExportRecordsXLSX(context.Background(), uuid.New(), repository.RecordFilter{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("OCR Records")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "星巴克咖啡", truncate("星巴克咖啡", 5))
	got := truncate("一二三四五六七八九十", 5)
	assert.Equal(t, "一二三四…", got)
	assert.Equal(t, "", truncate("", 5))
	assert.Equal(t, "anything", truncate("anything", 0))
}
