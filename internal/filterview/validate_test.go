package filterview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidDateString(t *testing.T) {
	cases := map[string]bool{
		"2024-03-01":           true,
		" 2024-03-01 ":         true,
		"2024-03-01T10:00:00Z": true,
		"":                     false,
		"2024-13-01":           false,
		"yesterday":            false,
		"2024/03/01":           false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsValidDateString(in), "input %q", in)
	}
}

func TestIsValidInteger(t *testing.T) {
	cases := map[string]bool{
		"12":                   true,
		"-4":                   true,
		" 7 ":                  true,
		"":                     false,
		"   ":                  false,
		"abc":                  false,
		"1.5":                  false,
		"99999999999999999999": false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsValidInteger(in), "input %q", in)
	}
}

func TestParseDateTruncatesToDay(t *testing.T) {
	got, err := ParseDate("2024-03-01T23:15:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, "2024-03-01", FormatDate(got))
	assert.Equal(t, "", FormatDate(time.Time{}))
}
