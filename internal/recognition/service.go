package recognition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/likexin0304/expense-tracker-backend/constants"
	"github.com/likexin0304/expense-tracker-backend/internal/common"
	"github.com/likexin0304/expense-tracker-backend/internal/entity"
	"github.com/likexin0304/expense-tracker-backend/internal/matcher"
	"github.com/likexin0304/expense-tracker-backend/internal/parser"
	"github.com/likexin0304/expense-tracker-backend/internal/pipeline"
	"github.com/likexin0304/expense-tracker-backend/internal/repository"
)

// Config holds the decision thresholds and matching budget of the service.
// The defaults are tuned heuristics with no derivation behind them; they are
// cutoffs, not invariants.
type Config struct {
	AutoCreateThreshold float64 // automatic expense creation at or above this
	ReviewThreshold     float64 // responses flag needs_review below this
	SuggestThreshold    float64 // parse responses suggest auto-create above this

	MerchantMinConfidence float64 // merchant candidates below this are dropped
	MerchantMaxResults    int     // merchant candidate list cap
}

func DefaultConfig() Config {
	defaults := pipeline.DefaultOptions()
	return Config{
		AutoCreateThreshold:   0.85,
		ReviewThreshold:       0.6,
		SuggestThreshold:      0.8,
		MerchantMinConfidence: defaults.MerchantMinConfidence,
		MerchantMaxResults:    defaults.MerchantMaxResults,
	}
}

// parseOptions resolves the per-run matching budget, falling back to the
// production defaults for unset values.
func (c Config) parseOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	if c.MerchantMinConfidence > 0 {
		opts.MerchantMinConfidence = c.MerchantMinConfidence
	}
	if c.MerchantMaxResults > 0 {
		opts.MerchantMaxResults = c.MerchantMaxResults
	}
	return opts
}

// Service owns the OCRRecord lifecycle: it submits texts through the
// pipeline, persists outcomes, and decides between automatic expense
// creation and manual review.
type Service struct {
	records   repository.RecordRepository
	merchants repository.MerchantRepository
	expenses  repository.ExpenseRepository
	pipeline  *pipeline.Pipeline
	matcher   matcher.Matcher
	cfg       Config
	parseOpts pipeline.Options
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(
	records repository.RecordRepository,
	merchants repository.MerchantRepository,
	expenses repository.ExpenseRepository,
	p *pipeline.Pipeline,
	m matcher.Matcher,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		records:   records,
		merchants: merchants,
		expenses:  expenses,
		pipeline:  p,
		matcher:   m,
		cfg:       cfg,
		parseOpts: cfg.parseOptions(),
		logger:    logger,
		now:       time.Now,
	}
}

// Suggestions tells the client what to do with a parse result.
type Suggestions struct {
	ShouldAutoCreate bool   `json:"shouldAutoCreate"`
	NeedsReview      bool   `json:"needsReview"`
	Reason           string `json:"reason,omitempty"`
}

// ParseResponse is the outcome of a plain parse submission.
type ParseResponse struct {
	RecordID    uuid.UUID      `json:"recordId"`
	Parsed      *parser.Result `json:"parsedData"`
	Confidence  float64        `json:"confidence"`
	Message     string         `json:"message"`
	Suggestions Suggestions    `json:"suggestions"`
}

// AutoCreateResponse is the outcome of a parse-and-maybe-auto-create
// submission. A failed automatic creation is reported here, not as an
// error: the record stays in success and manual confirmation remains open.
type AutoCreateResponse struct {
	ParseResponse
	AutoCreated     bool            `json:"autoCreated"`
	Expense         *entity.Expense `json:"expense,omitempty"`
	AutoCreateError string          `json:"autoCreateError,omitempty"`
}

// ConfirmRequest carries user-confirmed or corrected expense fields.
type ConfirmRequest struct {
	Amount        float64  `json:"amount"`
	Category      string   `json:"category"`
	Description   string   `json:"description"`
	Date          string   `json:"date,omitempty"` // YYYY-MM-DD
	Location      string   `json:"location,omitempty"`
	PaymentMethod string   `json:"paymentMethod,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// ConfirmResponse links the created expense with the confirmed record.
type ConfirmResponse struct {
	Expense *entity.Expense   `json:"expense"`
	Record  *entity.OCRRecord `json:"ocrRecord"`
}

// Parse validates and parses a submitted text, persisting the outcome as an
// OCRRecord. Invalid text is rejected before any record exists.
func (s *Service) Parse(ctx context.Context, ownerID uuid.UUID, text string) (*ParseResponse, error) {
	_, resp, err := s.parseAndStore(ctx, ownerID, text)
	return resp, err
}

// parseAndStore runs the shared submit flow: create record, parse,
// transition to success or failed.
func (s *Service) parseAndStore(ctx context.Context, ownerID uuid.UUID, text string) (*parser.Result, *ParseResponse, error) {
	if err := s.pipeline.ValidateText(text); err != nil {
		return nil, nil, err
	}

	s.logger.Info("recognition.parse.start",
		"owner_id", ownerID,
		"text_len", len(text),
		"request_id", common.RequestIDFromContext(ctx),
	)

	rec, err := s.records.Create(ctx, ownerID, text)
	if err != nil {
		return nil, nil, common.NewAppError(common.CodeRecordCreationFailed, "创建OCR记录失败", err)
	}

	result, err := s.pipeline.Parse(ctx, text, s.parseOpts)
	if err != nil {
		s.failRecord(ctx, rec.ID, ownerID, err.Error())
		return nil, nil, common.NewAppError(common.CodeParseFailed, "文本解析失败", err)
	}

	parsed, err := json.Marshal(result)
	if err == nil {
		err = parser.ValidateResultJSON(parsed)
	}
	if err != nil {
		s.failRecord(ctx, rec.ID, ownerID, err.Error())
		return nil, nil, common.NewAppError(common.CodeParseFailed, "解析结果无法持久化", err)
	}

	if _, err := s.records.MarkParsed(ctx, rec.ID, ownerID, parsed, result.OverallConfidence); err != nil {
		return nil, nil, common.NewAppError(common.CodeStorageError, "更新OCR记录失败", err)
	}

	s.logger.Info("recognition.parse.ok",
		"record_id", rec.ID,
		"confidence", result.OverallConfidence,
		"category", result.Category,
	)

	resp := &ParseResponse{
		RecordID:   rec.ID,
		Parsed:     result,
		Confidence: result.OverallConfidence,
		Message:    result.Message,
		Suggestions: Suggestions{
			ShouldAutoCreate: result.OverallConfidence > s.cfg.SuggestThreshold,
			NeedsReview:      result.OverallConfidence < s.cfg.ReviewThreshold,
		},
	}
	return result, resp, nil
}

// ParseAndAutoCreate parses a text and, when overall confidence reaches the
// threshold, synthesizes an expense from the best-guess fields. threshold <= 0
// selects the configured default.
func (s *Service) ParseAndAutoCreate(ctx context.Context, ownerID uuid.UUID, text string, threshold float64) (*AutoCreateResponse, error) {
	if threshold <= 0 {
		threshold = s.cfg.AutoCreateThreshold
	}

	result, parseResp, err := s.parseAndStore(ctx, ownerID, text)
	if err != nil {
		return nil, err
	}
	resp := &AutoCreateResponse{ParseResponse: *parseResp}

	if result.OverallConfidence < threshold {
		resp.Suggestions = Suggestions{
			ShouldAutoCreate: false,
			NeedsReview:      result.OverallConfidence < s.cfg.ReviewThreshold,
			Reason:           fmt.Sprintf("置信度 %.2f 低于阈值 %.2f", result.OverallConfidence, threshold),
		}
		return resp, nil
	}

	expense, err := s.expenses.Create(ctx, ownerID, s.expenseFromResult(result))
	if err != nil {
		// Non-fatal: the record stays in success and the parsed data stands;
		// the caller falls back to manual confirmation.
		s.logger.Error("recognition.auto_create.failed",
			"record_id", resp.RecordID, "code", common.CodeAutoCreateFailed, "error", err)
		resp.AutoCreated = false
		resp.AutoCreateError = err.Error()
		resp.Suggestions = Suggestions{
			ShouldAutoCreate: false,
			NeedsReview:      true,
			Reason:           "自动创建失败，需要手动确认",
		}
		return resp, nil
	}

	if _, err := s.records.Confirm(ctx, resp.RecordID, ownerID, expense.ID); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, common.NewAppError(common.CodeAlreadyConfirmed, "OCR记录已经被确认过了", err)
		}
		return nil, common.NewAppError(common.CodeStorageError, "确认OCR记录失败", err)
	}

	s.logger.Info("recognition.auto_create.ok",
		"record_id", resp.RecordID, "expense_id", expense.ID, "confidence", result.OverallConfidence)
	resp.AutoCreated = true
	resp.Expense = expense
	return resp, nil
}

// Confirm validates user-supplied fields, creates the expense and moves the
// record success -> confirmed. A second confirmation is a conflict, never a
// silent repeat.
func (s *Service) Confirm(ctx context.Context, recordID, ownerID uuid.UUID, req ConfirmRequest) (*ConfirmResponse, error) {
	rec, err := s.records.GetByID(ctx, recordID, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, common.NewAppError(common.CodeRecordNotFound, "OCR记录不存在", err)
		}
		return nil, common.NewAppError(common.CodeStorageError, "查找OCR记录失败", err)
	}
	switch rec.Status {
	case constants.StatusConfirmed:
		return nil, common.NewAppError(common.CodeAlreadyConfirmed, "OCR记录已经被确认过了", nil)
	case constants.StatusSuccess:
		// confirmable
	default:
		return nil, common.NewAppError(common.CodeValidationError,
			fmt.Sprintf("记录状态 %s 不允许确认", rec.Status), repository.ErrInvalidTransition)
	}

	v := common.NewValidator()
	v.Field("amount", req.Amount, common.Positive)
	v.Field("category", req.Category, common.Required)
	v.Field("description", req.Description, common.Required)
	if err := v.Error(); err != nil {
		return nil, err
	}

	date := s.now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, common.NewAppError(common.CodeValidationError, "date 格式应为 YYYY-MM-DD", err)
		}
		date = parsed
	}

	expense, err := s.expenses.Create(ctx, ownerID, entity.ExpenseFields{
		Amount:        req.Amount,
		Category:      req.Category,
		Description:   req.Description,
		Date:          date,
		Location:      req.Location,
		PaymentMethod: req.PaymentMethod,
		Tags:          req.Tags,
	})
	if err != nil {
		return nil, common.NewAppError(common.CodeStorageError, "创建支出记录失败", err)
	}

	confirmed, err := s.records.Confirm(ctx, recordID, ownerID, expense.ID)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			// A concurrent confirmation won the swap after our status read.
			s.logger.Warn("recognition.confirm.race_lost",
				"record_id", recordID, "orphan_expense_id", expense.ID)
			return nil, common.NewAppError(common.CodeAlreadyConfirmed, "OCR记录已经被确认过了", err)
		}
		return nil, common.NewAppError(common.CodeStorageError, "确认OCR记录失败", err)
	}

	s.logger.Info("recognition.confirm.ok",
		"record_id", recordID, "expense_id", expense.ID, "amount", expense.Amount)
	return &ConfirmResponse{Expense: expense, Record: confirmed}, nil
}

// GetRecord returns one record by ID.
func (s *Service) GetRecord(ctx context.Context, recordID, ownerID uuid.UUID) (*entity.OCRRecord, error) {
	rec, err := s.records.GetByID(ctx, recordID, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, common.NewAppError(common.CodeRecordNotFound, "OCR记录不存在", err)
		}
		return nil, common.NewAppError(common.CodeStorageError, "查找OCR记录失败", err)
	}
	return rec, nil
}

// ListRecords returns an owner's records, newest first.
func (s *Service) ListRecords(ctx context.Context, ownerID uuid.UUID, filter repository.RecordFilter) ([]*entity.OCRRecord, error) {
	records, err := s.records.List(ctx, ownerID, filter)
	if err != nil {
		return nil, common.NewAppError(common.CodeStorageError, "获取OCR记录列表失败", err)
	}
	return records, nil
}

// DeleteRecord removes a record. The pipeline never calls this itself;
// deletion is an administrative operation.
func (s *Service) DeleteRecord(ctx context.Context, recordID, ownerID uuid.UUID) error {
	deleted, err := s.records.Delete(ctx, recordID, ownerID)
	if err != nil {
		return common.NewAppError(common.CodeStorageError, "删除OCR记录失败", err)
	}
	if !deleted {
		return common.NewAppError(common.CodeRecordNotFound, "OCR记录不存在", nil)
	}
	s.logger.Info("recognition.record.deleted", "record_id", recordID, "owner_id", ownerID)
	return nil
}

// Statistics aggregates an owner's recognition outcomes.
func (s *Service) Statistics(ctx context.Context, ownerID uuid.UUID) (*entity.RecordStats, error) {
	stats, err := s.records.Stats(ctx, ownerID)
	if err != nil {
		return nil, common.NewAppError(common.CodeStorageError, "获取OCR统计失败", err)
	}
	return stats, nil
}

// ListMerchants exposes the directory for client-side result correction.
func (s *Service) ListMerchants(ctx context.Context, filter repository.MerchantFilter) ([]entity.Merchant, error) {
	merchants, err := s.merchants.List(ctx, filter)
	if err != nil {
		return nil, common.NewAppError(common.CodeStorageError, "获取商户列表失败", err)
	}
	return merchants, nil
}

// MatchMerchants ranks merchants against an arbitrary text.
func (s *Service) MatchMerchants(ctx context.Context, text string, opts matcher.Options) ([]entity.MerchantMatch, error) {
	if err := s.pipeline.ValidateText(text); err != nil {
		return nil, err
	}
	matches, err := s.matcher.Match(ctx, parser.Normalize(text), opts)
	if err != nil {
		return nil, common.NewAppError(common.CodeStorageError, "商户匹配失败", err)
	}
	return matches, nil
}

// expenseFromResult synthesizes expense fields from a parse result's best
// guesses for the automatic-creation path.
func (s *Service) expenseFromResult(result *parser.Result) entity.ExpenseFields {
	fields := entity.ExpenseFields{
		Category:      result.Category,
		Description:   "自动识别记录",
		Date:          s.now(),
		PaymentMethod: "现金",
		Tags:          []string{"自动创建", "OCR识别"},
	}
	if fields.Category == "" {
		fields.Category = string(constants.Other)
	}
	if result.Amount.Present() {
		fields.Amount = *result.Amount.Value
	}
	if result.Merchant.Present() {
		fields.Description = *result.Merchant.Value
	}
	if result.Date.Present() {
		if date, err := time.Parse("2006-01-02", *result.Date.Value); err == nil {
			fields.Date = date
		}
	}
	if result.PaymentMethod.Present() {
		fields.PaymentMethod = *result.PaymentMethod.Value
	}
	return fields
}

func (s *Service) failRecord(ctx context.Context, recordID, ownerID uuid.UUID, message string) {
	if _, err := s.records.MarkFailed(ctx, recordID, ownerID, message); err != nil {
		s.logger.Error("recognition.mark_failed.error", "record_id", recordID, "error", err)
	}
}
