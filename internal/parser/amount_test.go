package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountExtract(t *testing.T) {
	e := NewAmountExtractor(DefaultScoring())

	tests := []struct {
		name     string
		text     string
		want     float64
		wantConf float64
	}{
		// ¥ pattern: base 0.9 + currency marker 0.1
		{"yen sign", "星巴克 ¥35.50", 35.50, 1.0},
		// 元 suffix: base 0.85 + currency 0.1
		{"yuan suffix", "星巴克咖啡 35.50元", 35.50, 0.95},
		// $ pattern: base 0.8, no CNY marker, no context word
		{"dollar sign", "Starbucks $12.00", 12.00, 0.8},
		// keyword context: base 0.7 + context bonus 0.1
		{"keyword context", "合计: 88.00", 88.00, 0.7},
		// bare decimal: base 0.4 only
		{"bare decimal", "小票尾号 35.50", 35.50, 0.4},
		// thousands separator
		{"thousands separator", "¥1,234.56", 1234.56, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := e.Extract(tt.text)
			require.True(t, f.Present())
			assert.InDelta(t, tt.want, *f.Value, 1e-9)
			assert.InDelta(t, tt.wantConf, f.Confidence, 1e-9)
		})
	}
}

func TestAmountExtractContextBonus(t *testing.T) {
	e := NewAmountExtractor(DefaultScoring())

	// 消费 in the surrounding text adds the context bonus on top of the
	// currency marker; the sum caps at 1.0.
	f := e.Extract("消费 ¥35.50")
	require.True(t, f.Present())
	assert.InDelta(t, 1.0, f.Confidence, 1e-9)

	// The bonus applies once even when several context words appear.
	f = e.Extract("支付 消费 金额 $35.50")
	require.True(t, f.Present())
	assert.InDelta(t, 0.8+0.1, f.Confidence, 1e-9)
}

func TestAmountExtractPicksHighestConfidence(t *testing.T) {
	e := NewAmountExtractor(DefaultScoring())

	// The ¥ candidate outranks the bare decimal.
	f := e.Extract("¥35.50 备注 12.00")
	require.True(t, f.Present())
	assert.InDelta(t, 35.50, *f.Value, 1e-9)
}

func TestAmountExtractRejectsOutOfRange(t *testing.T) {
	e := NewAmountExtractor(DefaultScoring())

	assert.False(t, e.Extract("没有数字的文本").Present())
	// At or above the sanity bound.
	assert.False(t, e.Extract("¥1,000,000.00").Present())
	// Zero is not a usable amount.
	assert.False(t, e.Extract("¥0.00").Present())
}

func TestAmountExtractBoundIsExclusive(t *testing.T) {
	e := NewAmountExtractor(DefaultScoring())
	f := e.Extract("¥999,999.99")
	require.True(t, f.Present())
	assert.InDelta(t, 999999.99, *f.Value, 1e-9)
}
