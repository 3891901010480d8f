package businessflow

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlexibleDate(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)

	tests := []struct {
		raw   string
		end   bool
		want  time.Time
		isErr bool
	}{
		{raw: "2024", want: time.Date(2024, 1, 1, 0, 0, 0, 0, loc)},
		{raw: "2024", end: true, want: time.Date(2024, 12, 31, 23, 59, 59, 0, loc)},
		{raw: "2024-02", end: true, want: time.Date(2024, 2, 29, 23, 59, 59, 0, loc)},
		{raw: "2023-02", end: true, want: time.Date(2023, 2, 28, 23, 59, 59, 0, loc)},
		{raw: " 2024-03-10 ", want: time.Date(2024, 3, 10, 0, 0, 0, 0, loc)},
		{raw: "2024-03-10", end: true, want: time.Date(2024, 3, 10, 23, 59, 59, 0, loc)},
		{raw: "2024-13", isErr: true},
		{raw: "10/03/2024", isErr: true},
		{raw: "", isErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFlexibleDate(tt.raw, tt.end, loc)
		if tt.isErr {
			assert.ErrorIs(t, err, ErrInvalidDate, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.True(t, tt.want.Equal(got), "%s: got %s want %s", tt.raw, got, tt.want)
	}
}

func TestParseDateRange(t *testing.T) {
	start, end, err := parseDateRange("2024-01", "2024-01", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *start)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC), *end)

	start, end, err = parseDateRange("", "", time.UTC)
	require.NoError(t, err)
	assert.Nil(t, start)
	assert.Nil(t, end)

	_, _, err = parseDateRange("2024-02", "2024-01", time.UTC)
	assert.ErrorIs(t, err, ErrStartDateAfterEndDate)

	_, _, err = parseDateRange("2024", "bad", time.UTC)
	be, ok := AsBusinessError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, be.Status)
	assert.Equal(t, "Invalid end_date format: bad. Use YYYY, YYYY-MM, or YYYY-MM-DD", be.Message)
}

func TestNormalizeDOB(t *testing.T) {
	for raw, want := range map[string]string{
		"1990-04-30":                "1990-04-30",
		"1990-04-30T00:00:00Z":      "1990-04-30",
		"1990-04-30T15:04:05":       "1990-04-30",
		"1990-04-30T07:00:00+07:00": "1990-04-30",
	} {
		got, err := NormalizeDOB(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"30/04/1990", "1990-02-30", "tomorrow"} {
		_, err := NormalizeDOB(raw)
		assert.Error(t, err, raw)
	}
}

func TestBrandThumbnailRules(t *testing.T) {
	assert.True(t, shouldUpdateThumbnail(nil, []string{"a"}))
	assert.True(t, shouldUpdateThumbnail([]string{"a"}, nil))
	assert.True(t, shouldUpdateThumbnail([]string{"a"}, []string{"b", "a"}))
	assert.False(t, shouldUpdateThumbnail([]string{"a"}, []string{"a", "b"}))
	assert.False(t, shouldUpdateThumbnail(nil, nil))

	assert.Equal(t, []string{"x"}, brandImages(nil, strPtr("x")))
	assert.Equal(t, []string{"a"}, brandImages([]string{" a ", " "}, strPtr("x")))
	assert.Equal(t, []string{"c"}, newImages([]string{"a", "b"}, []string{"a", "c"}))
}

func strPtr(s string) *string { return &s }
