package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/likexin0304/expense-tracker-backend/internal/common"
	"github.com/likexin0304/expense-tracker-backend/internal/entity"
	"github.com/likexin0304/expense-tracker-backend/internal/matcher"
	"github.com/likexin0304/expense-tracker-backend/internal/parser"
	"github.com/likexin0304/expense-tracker-backend/internal/repository"
)

var fixedNow = time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)

func testMerchants() *repository.MemoryMerchantRepository {
	return repository.NewMemoryMerchantRepository(
		entity.Merchant{
			Name: "星巴克", Category: "餐饮",
			Keywords: []string{"星巴克", "Starbucks", "咖啡"}, Reliability: 1.0, IsActive: true,
		},
		entity.Merchant{
			Name: "滴滴出行", Category: "交通",
			Keywords: []string{"滴滴", "打车"}, Reliability: 1.0, IsActive: true,
		},
	)
}

func testPipeline(m matcher.Matcher) *Pipeline {
	if m == nil {
		m = matcher.NewScorer(testMerchants(), nil)
	}
	return New(parser.DefaultScoring(), m, nil, WithClock(func() time.Time { return fixedNow }))
}

func TestParseFullReceipt(t *testing.T) {
	p := testPipeline(nil)

	result, err := p.Parse(context.Background(),
		"星巴克咖啡 消费金额：¥35.50 2024-01-15 支付宝支付", DefaultOptions())
	require.NoError(t, err)

	require.True(t, result.Amount.Present())
	assert.InDelta(t, 35.50, *result.Amount.Value, 1e-9)
	assert.InDelta(t, 1.0, result.Amount.Confidence, 1e-9)

	require.True(t, result.Date.Present())
	assert.Equal(t, "2024-01-15", *result.Date.Value)
	assert.InDelta(t, 0.8, result.Date.Confidence, 1e-9)

	require.True(t, result.Merchant.Present())
	assert.Equal(t, "星巴克", *result.Merchant.Value)
	assert.InDelta(t, 0.9, result.Merchant.Confidence, 1e-9)

	require.True(t, result.PaymentMethod.Present())
	assert.Equal(t, "支付宝", *result.PaymentMethod.Value)
	assert.InDelta(t, 0.9, result.PaymentMethod.Confidence, 1e-9)

	assert.Equal(t, "餐饮", result.Category)
	assert.InDelta(t, 0.92, result.OverallConfidence, 1e-9)
	assert.Equal(t, "解析成功", result.Message)
	assert.Empty(t, result.Warnings)
}

func TestParseDeterministic(t *testing.T) {
	p := testPipeline(nil)
	text := "星巴克咖啡 消费金额：¥35.50 2024-01-15 支付宝支付"

	first, err := p.Parse(context.Background(), text, DefaultOptions())
	require.NoError(t, err)
	second, err := p.Parse(context.Background(), text, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParseRejectsShortText(t *testing.T) {
	p := testPipeline(nil)

	for _, text := range []string{"", "   ", "短文", "a b "} {
		_, err := p.Parse(context.Background(), text, DefaultOptions())
		require.Error(t, err, "text %q", text)
		assert.Equal(t, common.CodeInvalidText, common.ErrorCode(err))
	}
}

func TestParseWithoutAmountStillSucceeds(t *testing.T) {
	p := testPipeline(nil)

	result, err := p.Parse(context.Background(), "滴滴打车 行程结束 感谢乘坐", DefaultOptions())
	require.NoError(t, err)

	assert.False(t, result.Amount.Present())
	assert.Equal(t, "交通", result.Category)
	// Only fallback date, merchant and fallback payment contribute;
	// confidence stays low enough to need review downstream.
	assert.Greater(t, result.OverallConfidence, 0.0)
}

func TestParseCategoryFromLexiconWhenNoMerchant(t *testing.T) {
	p := testPipeline(matcher.NewScorer(repository.NewMemoryMerchantRepository(), nil))

	result, err := p.Parse(context.Background(), "本月电费缴纳 ¥156.00 2024-01-10", DefaultOptions())
	require.NoError(t, err)

	assert.False(t, result.Merchant.Present())
	assert.Equal(t, "生活", result.Category)
	assert.Contains(t, result.Warnings, "未能识别商户信息")
}

type failingMatcher struct{}

func (failingMatcher) Match(context.Context, string, matcher.Options) ([]entity.MerchantMatch, error) {
	return nil, errors.New("directory unavailable")
}

func TestParseDegradesWhenMatcherFails(t *testing.T) {
	p := testPipeline(failingMatcher{})

	result, err := p.Parse(context.Background(), "星巴克咖啡 消费 ¥35.50 2024-01-15", DefaultOptions())
	require.NoError(t, err)

	assert.False(t, result.Merchant.Present())
	assert.Empty(t, result.Merchants)
	require.True(t, result.Amount.Present())
	assert.InDelta(t, 35.50, *result.Amount.Value, 1e-9)
}

func TestParseFallsBackToTodayDate(t *testing.T) {
	p := testPipeline(nil)

	result, err := p.Parse(context.Background(), "星巴克咖啡 消费 ¥35.50", DefaultOptions())
	require.NoError(t, err)

	require.True(t, result.Date.Present())
	assert.Equal(t, "2024-01-20", *result.Date.Value)
	assert.InDelta(t, 0.1, result.Date.Confidence, 1e-9)
}

func TestParseMerchantCandidatesRanked(t *testing.T) {
	p := testPipeline(nil)

	result, err := p.Parse(context.Background(), "星巴克咖啡 滴滴打车 消费记录", DefaultOptions())
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(result.Merchants), 2)
	for i := 1; i < len(result.Merchants); i++ {
		assert.GreaterOrEqual(t, result.Merchants[i-1].Confidence, result.Merchants[i].Confidence)
	}
}
