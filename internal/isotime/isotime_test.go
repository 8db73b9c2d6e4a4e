package isotime

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsure(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2025-01-02T10:00:00Z", "2025-01-02T10:00:00Z"},
		{"2025-01-02T10:00:00z", "2025-01-02T10:00:00z"},
		{"2025-01-02T10:00:00.123Z", "2025-01-02T10:00:00.123Z"},
		{"2025-01-02T10:00:00+02:00", "2025-01-02T10:00:00+02:00"},
		{"2025-01-02T10:00:00-0500", "2025-01-02T10:00:00-0500"},
		{"2025-01-02T10:00:00", "2025-01-02T10:00:00Z"},
		{"2025-01-02T10:00:00.5", "2025-01-02T10:00:00.5Z"},
		{"  2025-01-02T10:00:00Z  ", "2025-01-02T10:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Ensure(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := Ensure(got)
			require.NoError(t, err)
			assert.Equal(t, got, again, "Ensure must be idempotent")
		})
	}
}

func TestEnsureRejectsMalformed(t *testing.T) {
	for _, input := range []string{
		"",
		"   ",
		"2025-01-02",
		"not-a-date",
		"2025-01-02 10:00:00Z",
		"2025-01-02T10:00Z",
		"2025-01-02T10:00:00+2",
	} {
		_, err := Ensure(input)
		assert.Error(t, err, "input %q", input)
		assert.True(t, errors.Is(err, ErrMalformedTimestamp), "input %q", input)
	}
}

func TestFormat(t *testing.T) {
	loc := time.FixedZone("X", 2*60*60)
	ts := time.Date(2025, 3, 4, 7, 8, 9, 123456789, loc)
	assert.Equal(t, "2025-03-04T05:08:09.123Z", Format(ts))

	got, err := Ensure(Format(ts))
	require.NoError(t, err)
	assert.Equal(t, Format(ts), got)
}

func TestParse(t *testing.T) {
	want := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	for _, input := range []string{
		"2025-01-02T15:00:00Z",
		"2025-01-02T15:00:00z",
		"2025-01-02T15:00:00",
		"2025-01-02T10:00:00-05:00",
		"2025-01-02T10:00:00-0500",
		"2025-01-02T15:00:00.000Z",
	} {
		got, err := Parse(input)
		require.NoError(t, err, input)
		assert.True(t, want.Equal(got), "input %q parsed to %s", input, got)
	}

	_, err := Parse("2025-13-02T10:00:00Z")
	assert.True(t, errors.Is(err, ErrMalformedTimestamp))
}
