package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWarnings(t *testing.T) {
	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)

	base := func() *Result {
		return &Result{
			Amount:   FieldOf(35.50, 1.0, "¥35.50"),
			Date:     FieldOf("2024-01-15", 0.8, "2024-01-15"),
			Merchant: FieldOf("星巴克", 0.9, "星巴克"),
		}
	}

	t.Run("clean result has no warnings", func(t *testing.T) {
		assert.Empty(t, Warnings(base(), now))
	})

	t.Run("very high amount", func(t *testing.T) {
		r := base()
		r.Amount = FieldOf(150000.0, 1.0, "¥150000.00")
		assert.Contains(t, Warnings(r, now), "金额异常高，请确认")
	})

	t.Run("date more than a year back", func(t *testing.T) {
		r := base()
		r.Date = FieldOf("2022-01-15", 0.8, "2022-01-15")
		warnings := Warnings(r, now)
		assert.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "2022-01-15")
	})

	t.Run("date more than a month ahead", func(t *testing.T) {
		r := base()
		r.Date = FieldOf("2024-06-01", 0.8, "2024-06-01")
		assert.Len(t, Warnings(r, now), 1)
	})

	t.Run("missing merchant", func(t *testing.T) {
		r := base()
		r.Merchant = Field[string]{}
		assert.Contains(t, Warnings(r, now), "未能识别商户信息")
	})

	t.Run("warnings accumulate", func(t *testing.T) {
		r := base()
		r.Amount = FieldOf(200000.0, 1.0, "¥200000.00")
		r.Merchant = Field[string]{}
		assert.Len(t, Warnings(r, now), 2)
	})
}
