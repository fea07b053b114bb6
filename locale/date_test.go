package locale

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kyiv = time.FixedZone("EET", 2*60*60)

// TestParseDate_AllMonths verifies every abbreviation round-trips to the
// expected day, month and year.
func TestParseDate_AllMonths(t *testing.T) {
	now := time.Date(2025, 2, 4, 15, 0, 0, 0, kyiv)

	for i, abbr := range Abbreviations() {
		month := time.Month(i + 1)
		t.Run(abbr, func(t *testing.T) {
			for _, day := range []int{1, 15, 28} {
				token := fmt.Sprintf("%d %s 2024 10:09", day, abbr)
				got, err := ParseDate(token, now)
				require.NoError(t, err, token)

				y, m, d := got.Date()
				assert.Equal(t, 2024, y)
				assert.Equal(t, month, m)
				assert.Equal(t, day, d)
				assert.Equal(t, kyiv, got.Location())
			}
		})
	}
}

// TestParseDate_BareClockMeansToday verifies HH:MM markers resolve to the
// reference day.
func TestParseDate_BareClockMeansToday(t *testing.T) {
	now := time.Date(2025, 3, 10, 23, 30, 0, 0, kyiv)

	for _, token := range []string{"10:09", "9:05", " 23:59 "} {
		got, err := ParseDate(token, now)
		require.NoError(t, err, token)
		assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, kyiv), got)
	}
}

// TestParseDate_YearPunctuation verifies trailing punctuation on the year is
// ignored.
func TestParseDate_YearPunctuation(t *testing.T) {
	got, err := ParseDate("4 лют. 2025, 10:09", time.Now().In(kyiv))
	require.NoError(t, err)
	assert.Equal(t, "04.02.2025", FormatDisplay(got))
}

// TestParseDate_Malformed verifies rejected tokens and their error kinds.
func TestParseDate_Malformed(t *testing.T) {
	now := time.Date(2025, 2, 4, 12, 0, 0, 0, kyiv)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMalformedDate},
		{"two fields", "4 лют.", ErrMalformedDate},
		{"non-numeric day", "x лют. 2025", ErrMalformedDate},
		{"non-numeric year", "4 лют. рік", ErrMalformedDate},
		{"unknown month", "4 feb. 2025", ErrUnknownMonth},
		{"month without dot", "4 лют 2025", ErrUnknownMonth},
		{"day overflow", "31 лют. 2025", ErrMalformedDate},
		{"day zero", "0 січ. 2025", ErrMalformedDate},
		{"clock with seconds", "10:09:01", ErrMalformedDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDate(tt.token, now)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// TestParseDate_LeapDay verifies 29 February is accepted only in leap years.
func TestParseDate_LeapDay(t *testing.T) {
	now := time.Now()

	_, err := ParseDate("29 лют. 2024", now)
	assert.NoError(t, err)

	_, err = ParseDate("29 лют. 2025", now)
	assert.ErrorIs(t, err, ErrMalformedDate)
}

// TestDateFromLink verifies ISO dates are pulled out of document URLs.
func TestDateFromLink(t *testing.T) {
	got, err := DateFromLink("https://bank.gov.ua/admin_uploads/article/FSR_2025-06-17_eng.pdf", kyiv)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 17, 0, 0, 0, 0, kyiv), got)

	_, err = DateFromLink("https://bank.gov.ua/admin_uploads/report.pdf", kyiv)
	assert.ErrorIs(t, err, ErrMalformedDate)
}

// TestSameDay verifies calendar-day comparison ignores the clock.
func TestSameDay(t *testing.T) {
	a := time.Date(2025, 2, 4, 0, 0, 0, 0, kyiv)
	assert.True(t, SameDay(a, a.Add(23*time.Hour)))
	assert.False(t, SameDay(a, a.Add(24*time.Hour)))
	assert.False(t, SameDay(a, a.AddDate(1, 0, 0)))
}

// TestMonth verifies lookups do not accept unknown tokens.
func TestMonth(t *testing.T) {
	m, ok := Month("груд.")
	assert.True(t, ok)
	assert.Equal(t, time.December, m)

	_, ok = Month("грудень")
	assert.False(t, ok)
	assert.Len(t, Abbreviations(), 12)
}

// TestParseDate_UnknownMonthListsTokens verifies the error names the accepted
// abbreviations
func TestParseDate_UnknownMonthListsTokens(t *testing.T) {
	_, err := ParseDate("4 feb. 2025", time.Date(2025, 2, 4, 12, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, ErrUnknownMonth)
	assert.Contains(t, err.Error(), `"feb."`)
	assert.Contains(t, err.Error(), "січ. лют. берез.")
	assert.Contains(t, err.Error(), "груд.")
}
