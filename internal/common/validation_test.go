package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorCollectsErrors(t *testing.T) {
	v := NewValidator()
	v.Field("amount", 0.0, Positive)
	v.Field("category", "", Required)
	v.Field("description", "ok", Required)

	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 2)

	err := v.Error()
	require.Error(t, err)
	assert.Equal(t, CodeValidationError, ErrorCode(err))
	assert.Contains(t, err.Error(), "amount")
	assert.Contains(t, err.Error(), "category")
}

func TestValidatorNoErrors(t *testing.T) {
	v := NewValidator()
	v.Field("amount", 35.50, Positive)
	v.Field("category", "餐饮", Required)

	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Error())
}

func TestPositive(t *testing.T) {
	assert.Nil(t, Positive("n", 0.01))
	assert.Nil(t, Positive("n", 5))
	assert.NotNil(t, Positive("n", 0.0))
	assert.NotNil(t, Positive("n", -3.5))
	assert.NotNil(t, Positive("n", "35.50"))
}

func TestRequired(t *testing.T) {
	assert.Nil(t, Required("s", "星巴克"))
	assert.NotNil(t, Required("s", ""))
	assert.NotNil(t, Required("s", "   "))
	assert.NotNil(t, Required("s", nil))

	empty := "  "
	assert.NotNil(t, Required("s", &empty))
	var nilPtr *string
	assert.NotNil(t, Required("s", nilPtr))
}

func TestLengthRules(t *testing.T) {
	// Rune-based: five CJK characters pass a min of 5.
	assert.Nil(t, MinLength(5)("s", "星巴克咖啡"))
	assert.NotNil(t, MinLength(5)("s", "星巴克"))
	assert.NotNil(t, MinLength(5)("s", "  星巴克  "))

	assert.Nil(t, MaxLength(5)("s", "星巴克咖啡"))
	assert.NotNil(t, MaxLength(4)("s", "星巴克咖啡"))
}

func TestUUIDRule(t *testing.T) {
	assert.Nil(t, UUID("id", "3e2f8f7e-3f9f-4f63-9a48-6a57e9a7f0b1"))
	assert.NotNil(t, UUID("id", "not-a-uuid"))
	assert.NotNil(t, UUID("id", 42))
}
