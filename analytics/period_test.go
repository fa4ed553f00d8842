package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hr-dashboard/analytics"
)

func TestRelativeMonth(t *testing.T) {
	tests := []struct {
		period string
		offset int
		want   string
	}{
		{"2024-01", -1, "2023-12"},
		{"2024-12", 1, "2025-01"},
		{"2024-03", -12, "2023-03"},
		{"2024-03", 0, "2024-03"},
		{"2024-03", -27, "2021-12"},
		{"2024-11", 14, "2026-01"},
	}
	for _, tt := range tests {
		got, err := analytics.RelativeMonth(tt.period, tt.offset)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "RelativeMonth(%s, %d)", tt.period, tt.offset)
	}
}

func TestParsePeriod_Rejects(t *testing.T) {
	for _, in := range []string{"", "2024-3", "2024/03", "2024-13", "2024-00", "abcd-01", "2024-03-01"} {
		_, err := analytics.ParsePeriod(in)
		assert.ErrorIs(t, err, analytics.ErrInvalidPeriod, "input %q", in)
	}
}

func TestPeriod_TextRoundTrip(t *testing.T) {
	var p analytics.Period
	require.NoError(t, p.UnmarshalText([]byte("2023-12")))
	b, err := p.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2023-12", string(b))
	assert.True(t, p.Before(analytics.MustPeriod(2024, time.January)))
}

func TestSelector_IndependentYearAndMonth(t *testing.T) {
	// GIVEN: March 2024 selected
	s := analytics.NewSelector(mar2024)

	// WHEN: only the month changes
	require.NoError(t, s.SetMonth(time.January))

	// THEN: the year is kept and the adjacent periods roll over
	assert.Equal(t, "2024-01", s.String())
	assert.Equal(t, "2023-12", s.PreviousMonth().String())
	assert.Equal(t, "2023-01", s.SameMonthLastYear().String())

	require.NoError(t, s.SetYear(2025))
	assert.Equal(t, "2025-01", s.String())

	assert.ErrorIs(t, s.SetMonth(13), analytics.ErrInvalidPeriod)
	assert.Equal(t, "2025-01", s.String(), "failed update leaves the selection unchanged")
}
