package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/likexin0304/expense-tracker-backend/internal/parser"
	"github.com/likexin0304/expense-tracker-backend/internal/repository"
)

// Service is a tiny façade over the record repository that produces XLSX
// bytes for recognition-history exports.
type Service struct {
	records repository.RecordRepository
	logger  *slog.Logger
}

func NewService(records repository.RecordRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, logger: logger}
}

// ExportRecordsXLSX returns an XLSX workbook (as bytes) with one row per OCR
// record for the given owner. The filter's status and paging apply as-is.
func (s *Service) ExportRecordsXLSX(ctx context.Context, ownerID uuid.UUID, filter repository.RecordFilter) ([]byte, error) {
	start := time.Now()

	recs, err := s.records.List(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "OCR Records"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// NewFile seeds a default Sheet1 that would otherwise ship empty.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headers := []string{
		"Created At",
		"Status",
		"Confidence",
		"Amount",
		"Category",
		"Merchant",
		"Date",
		"Payment Method",
		"Error",
		"Original Text",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.CreatedAt.Format("2006-01-02 15:04:05"))
		write(2, string(r.Status))
		write(3, fmt.Sprintf("%.2f", r.ConfidenceScore))

		// Parsed fields are best-effort: failed records carry none.
		if len(r.ParsedData) > 0 {
			var result parser.Result
			if err := json.Unmarshal(r.ParsedData, &result); err == nil {
				if result.Amount.Present() {
					write(4, *result.Amount.Value)
				}
				write(5, result.Category)
				if result.Merchant.Present() {
					write(6, *result.Merchant.Value)
				}
				if result.Date.Present() {
					write(7, *result.Date.Value)
				}
				if result.PaymentMethod.Present() {
					write(8, *result.PaymentMethod.Value)
				}
			}
		}

		if r.ErrorMessage != nil {
			write(9, truncate(*r.ErrorMessage, 140))
		}
		write(10, truncate(r.OriginalText, 200))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 20) // created at
	_ = f.SetColWidth(sheet, "B", "C", 12) // status, confidence
	_ = f.SetColWidth(sheet, "D", "E", 12) // amount, category
	_ = f.SetColWidth(sheet, "F", "F", 24) // merchant
	_ = f.SetColWidth(sheet, "G", "H", 14) // date, payment
	_ = f.SetColWidth(sheet, "I", "I", 36) // error
	_ = f.SetColWidth(sheet, "J", "J", 60) // original text

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"owner_id", ownerID.String(),
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// truncate cuts on rune boundaries so CJK text is never split mid-character.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
