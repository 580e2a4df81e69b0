package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from RecordStatus
		to   RecordStatus
		want bool
	}{
		{"processing to success", StatusProcessing, StatusSuccess, true},
		{"processing to failed", StatusProcessing, StatusFailed, true},
		{"success to confirmed", StatusSuccess, StatusConfirmed, true},
		{"processing to confirmed skips success", StatusProcessing, StatusConfirmed, false},
		{"failed to success", StatusFailed, StatusSuccess, false},
		{"failed to confirmed", StatusFailed, StatusConfirmed, false},
		{"confirmed to confirmed", StatusConfirmed, StatusConfirmed, false},
		{"success to failed", StatusSuccess, StatusFailed, false},
		{"nothing re-enters processing", StatusSuccess, StatusProcessing, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTransitionSources(t *testing.T) {
	assert.Equal(t, []RecordStatus{StatusProcessing}, TransitionSources(StatusSuccess))
	assert.Equal(t, []RecordStatus{StatusProcessing}, TransitionSources(StatusFailed))
	assert.Equal(t, []RecordStatus{StatusSuccess}, TransitionSources(StatusConfirmed))
	assert.Empty(t, TransitionSources(StatusProcessing))
}

func TestParseStatus(t *testing.T) {
	for _, raw := range StatusValues() {
		s, ok := ParseStatus(raw)
		require.True(t, ok)
		assert.Equal(t, raw, string(s))
	}
	_, ok := ParseStatus("pending")
	assert.False(t, ok)
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatusProcessing.Terminal())
	assert.False(t, StatusSuccess.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusConfirmed.Terminal())
}
