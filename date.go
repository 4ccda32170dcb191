package sitekit

import (
	"regexp"
	"strconv"
	"time"
)

var datePrefix = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)

// DateFromFilename parses the leading YYYY-MM-DD of name. Out of range
// months and days are normalized, 2026-02-30 is the 2nd of March.
func DateFromFilename(name string) (time.Time, bool) {
	m := datePrefix.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	y, _ := strconv.Atoi(m[1])
	mon, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	return time.Date(y, time.Month(mon), d, 0, 0, 0, 0, time.UTC), true
}

var germanMonths = [...]string{
	"Januar",
	"Februar",
	"März",
	"April",
	"Mai",
	"Juni",
	"Juli",
	"August",
	"September",
	"Oktober",
	"November",
	"Dezember",
}

// FormatDate renders t as a long German date, e.g. "15. Februar 2026".
func FormatDate(t time.Time) string {
	return strconv.Itoa(t.Day()) + ". " + germanMonths[t.Month()-1] + " " + strconv.Itoa(t.Year())
}
