// Package locale parses and renders the Ukrainian-language dates printed on
// the bank.gov.ua listing pages.
package locale

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DisplayLayout renders dates the way uk-UA short dates look (04.02.2025).
const DisplayLayout = "02.01.2006"

var (
	ErrMalformedDate = errors.New("malformed date")
	ErrUnknownMonth  = errors.New("unknown month abbreviation")
)

// months maps the abbreviations used by the site to calendar months. It is
// never written after initialization; use Month for lookups.
var months = map[string]time.Month{
	"січ.":   time.January,
	"лют.":   time.February,
	"берез.": time.March,
	"квіт.":  time.April,
	"трав.":  time.May,
	"черв.":  time.June,
	"лип.":   time.July,
	"серп.":  time.August,
	"вер.":   time.September,
	"жовт.":  time.October,
	"лист.":  time.November,
	"груд.":  time.December,
}

var (
	clockPattern   = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	isoDatePattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
	leadingDigits  = regexp.MustCompile(`^\d+`)
	nonDigits      = regexp.MustCompile(`\D`)
)

// Month looks up an abbreviated month token such as "лют.".
func Month(abbr string) (time.Month, bool) {
	m, ok := months[abbr]
	return m, ok
}

// Abbreviations returns the recognized month tokens ordered January to
// December.
func Abbreviations() []string {
	out := make([]string, 12)
	for abbr, m := range months {
		out[m-1] = abbr
	}
	return out
}

// ParseDate converts a listing time marker into a calendar date at midnight
// in now's location. A bare clock ("10:09") means the article was published
// today. Otherwise the token must look like "4 лют. 2025 10:09"; anything
// after the year is ignored.
func ParseDate(token string, now time.Time) (time.Time, error) {
	token = strings.TrimSpace(token)
	if clockPattern.MatchString(token) {
		return StartOfDay(now), nil
	}

	fields := strings.Fields(token)
	if len(fields) < 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, token)
	}

	dayDigits := leadingDigits.FindString(fields[0])
	if dayDigits == "" {
		return time.Time{}, fmt.Errorf("%w: non-numeric day in %q", ErrMalformedDate, token)
	}
	day, err := strconv.Atoi(dayDigits)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, token)
	}

	month, ok := Month(fields[1])
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q (want one of %s)",
			ErrUnknownMonth, fields[1], strings.Join(Abbreviations(), " "))
	}

	// The year is sometimes followed by punctuation ("2025,").
	yearDigits := nonDigits.ReplaceAllString(fields[2], "")
	if yearDigits == "" {
		return time.Time{}, fmt.Errorf("%w: non-numeric year in %q", ErrMalformedDate, token)
	}
	year, err := strconv.Atoi(yearDigits)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, token)
	}

	if day < 1 || day > daysIn(month, year) {
		return time.Time{}, fmt.Errorf("%w: day %d out of range in %q", ErrMalformedDate, day, token)
	}

	return time.Date(year, month, day, 0, 0, 0, 0, now.Location()), nil
}

// DateFromLink extracts the first YYYY-MM-DD found in a document URL.
func DateFromLink(link string, loc *time.Location) (time.Time, error) {
	match := isoDatePattern.FindString(link)
	if match == "" {
		return time.Time{}, fmt.Errorf("%w: no date in link %q", ErrMalformedDate, link)
	}
	t, err := time.ParseInLocation("2006-01-02", match, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedDate, err)
	}
	return t, nil
}

// FormatDisplay renders t as DD.MM.YYYY.
func FormatDisplay(t time.Time) string {
	return t.Format(DisplayLayout)
}

// SameDay reports whether a and b fall on the same calendar day. Both are
// compared in their own locations.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay truncates t to midnight in its location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
