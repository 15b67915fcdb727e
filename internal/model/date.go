package model

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDate is returned when a string cannot be parsed into a real calendar date.
var ErrInvalidDate = errors.New("invalid date")

// FirstComic is the date of the first published strip. No date before it
// can ever be downloaded.
var FirstComic = Date{Year: 1978, Month: time.June, Day: 19}

// PublishHour is the hour (UTC) after which the strip for the current day is
// assumed to be available on the source sites.
//
// The strip is published somewhere between 04:00 and 07:00 UTC, so the upper
// bound is used.
const PublishHour = 7

// Date is a calendar day with no time or location attached.
//
// Date is comparable and can be used as a map key. The zero value is not a
// valid date; use NewDate, ParseDate or DateFromTime to build one.
//
// Example:
//
//	d, _ := model.ParseDate("2023-05-01")
//	fmt.Println(d)              // 2023-05-01
//	fmt.Println(d.AddDays(1))   // 2023-05-02
//	fmt.Println(d.Format("/", false)) // 2023/5/1
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date, reporting false when the components do not form a
// real calendar day (for example month 13 or February 30).
func NewDate(year int, month time.Month, day int) (Date, bool) {
	if month < time.January || month > time.December || day < 1 {
		return Date{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, false
	}
	return Date{Year: year, Month: month, Day: day}, true
}

// DateFromTime returns the calendar day of t in t's own location.
func DateFromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a date written as year, month and day separated by '-'.
//
// Leading zeros are optional, so both "2023-05-01" and "2023-5-1" are
// accepted. Surrounding whitespace is not.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	var nums [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || strings.HasPrefix(part, "+") || strings.HasPrefix(part, "-") {
			return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
		nums[i] = n
	}

	d, ok := NewDate(nums[0], time.Month(nums[1]), nums[2])
	if !ok {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// DateFromFilename extracts a date from a file name like "2020-01-01.png".
//
// Only the last path element is considered, and everything from the first
// '.' onwards is ignored. Names that do not follow the convention return
// false; this is not an error, since users may keep unrelated files in the
// output folder.
func DateFromFilename(name string) (Date, bool) {
	name = path.Base(filepath.ToSlash(name))
	if i := strings.Index(name, "."); i >= 0 {
		name = name[:i]
	}
	d, err := ParseDate(name)
	if err != nil {
		return Date{}, false
	}
	return d, true
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n days later (or earlier when n is negative).
func (d Date) AddDays(n int) Date {
	return DateFromTime(d.Time().AddDate(0, 0, n))
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Day, other.Day)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

// String formats the date as YYYY-MM-DD, the same convention used for output
// file names and the cache file.
func (d Date) String() string {
	return d.Format("-", true)
}

// Format joins year, month and day with sep, optionally zero-padding month
// and day to two digits.
func (d Date) Format(sep string, leadingZeros bool) string {
	if leadingZeros {
		return fmt.Sprintf("%04d%s%02d%s%02d", d.Year, sep, int(d.Month), sep, d.Day)
	}
	return fmt.Sprintf("%d%s%d%s%d", d.Year, sep, int(d.Month), sep, d.Day)
}

// Range returns every date from start to end inclusive in ascending order.
// An empty slice is returned when start is after end.
func Range(start, end Date) []Date {
	if start.After(end) {
		return nil
	}
	days := int(end.Time().Sub(start.Time()).Hours() / 24)
	dates := make([]Date, 0, days+1)
	t := start.Time()
	for i := 0; i <= days; i++ {
		dates = append(dates, DateFromTime(t.AddDate(0, 0, i)))
	}
	return dates
}

// Latest returns the most recent date whose strip is expected to be
// published at the instant now.
//
// It is the current UTC day, unless now is earlier than PublishHour UTC, in
// which case it is the day before.
func Latest(now time.Time) Date {
	now = now.UTC()
	today := DateFromTime(now)
	publish := time.Date(now.Year(), now.Month(), now.Day(), PublishHour, 0, 0, 0, time.UTC)
	if now.Before(publish) {
		return today.AddDays(-1)
	}
	return today
}

// Missing returns the dates of all that are not present in existing,
// preserving the order of all.
func Missing(all, existing []Date) []Date {
	seen := make(map[Date]struct{}, len(existing))
	for _, d := range existing {
		seen[d] = struct{}{}
	}

	missing := make([]Date, 0, len(all))
	for _, d := range all {
		if _, ok := seen[d]; ok {
			continue
		}
		missing = append(missing, d)
	}
	return missing
}
