// Package dates turns free-text dates read off insurance certificates into
// canonical YYYY-MM-DD strings.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Layout is the canonical calendar-date layout stored in the database.
const Layout = "2006-01-02"

var (
	canonicalRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dayFirstRe  = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})(?:[ T]\S.*)?$`)
	digitsRe    = regexp.MustCompile(`^\d+$`)
	weekdayRe   = regexp.MustCompile(`(?i)^(mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)(day|sday|nesday|rsday|urday)?\.?,?\s+`)
	monthDotRe  = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\.`)
	ordinalRe   = regexp.MustCompile(`(\d)(st|nd|rd|th)\b`)
)

// Layouts dateparse does not settle, tried once it has given up.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"2006/1/2",
	"2 January 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January, 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"Monday, 2 January 2006",
	"Mon, 2 Jan 2006",
	"2.1.2006",
	"2-Jan-2006",
	"2006-1-2",
	"20060102",
}

// Normalize returns the canonical form of text and true, or "" and false when
// text is not a recognisable calendar date. Slash or dash separated numeric
// dates are read day first.
func Normalize(text string) (string, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return "", false
	}

	if canonicalRe.MatchString(s) {
		if _, err := time.Parse(Layout, s); err != nil {
			return "", false
		}
		return s, true
	}

	if m := dayFirstRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return fromParts(year, month, day)
	}

	// Bare numbers would otherwise read as years or unix timestamps.
	if digitsRe.MatchString(s) {
		if t, err := time.Parse("20060102", s); err == nil {
			return t.Format(Layout), true
		}
		return "", false
	}

	cleaned := clean(s)
	if t, ok := parseAny(cleaned); ok {
		return t.Format(Layout), true
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.Format(Layout), true
		}
	}
	return "", false
}

// parseAny hands free text to dateparse, reading ambiguous numeric dates day
// first.
func parseAny(s string) (t time.Time, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	t, err := dateparse.ParseIn(s, time.UTC, dateparse.PreferMonthFirst(false))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Parse returns the canonical date as midnight UTC.
func Parse(canonical string) (time.Time, bool) {
	t, err := time.Parse(Layout, canonical)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Today returns now's calendar date in loc, as midnight UTC so it compares
// directly with values from Parse.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysUntil counts whole calendar days from today to date. Negative when date
// has passed.
func DaysUntil(today, date time.Time) int {
	return int(date.Sub(today).Hours() / 24)
}

func fromParts(year, month, day int) (string, bool) {
	if month < 1 || month > 12 || day < 1 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return "", false
	}
	return t.Format(Layout), true
}

// clean drops ordinal suffixes, a leading weekday and the full stop after an
// abbreviated month.
func clean(s string) string {
	s = ordinalRe.ReplaceAllString(s, "$1")
	s = weekdayRe.ReplaceAllString(s, "")
	s = monthDotRe.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}
