// Package dateparse turns the relative posting dates job boards display
// ("3 days ago", "před 2 dny") into integer day counts and ISO timestamps.
package dateparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Clock supplies the current time. Injected so tests can freeze it.
type Clock func() time.Time

// SystemClock returns the current UTC time.
func SystemClock() time.Time { return time.Now().UTC() }

var (
	enRelativeRe = regexp.MustCompile(`(\d+)\s*(day|week|month)`)
	csDaysRe     = regexp.MustCompile(`před\s+(\d+)\s*(dn|den|dny)`)
	csWeeksRe    = regexp.MustCompile(`před\s+(\d+)\s*týdn`)
)

// DaysAgoEN parses English relative dates ("2 weeks ago") to integer days.
// Returns ok=false when the text carries no recognizable date, never a
// zero default.
func DaysAgoEN(text string) (int, bool) {
	if text == "" {
		return 0, false
	}
	t := strings.ToLower(strings.TrimSpace(text))
	if strings.Contains(t, "just") || strings.Contains(t, "now") ||
		strings.Contains(t, "today") || strings.Contains(t, "hour") {
		return 0, true
	}
	if strings.Contains(t, "yesterday") {
		return 1, true
	}
	if m := enRelativeRe.FindStringSubmatch(t); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch {
		case strings.HasPrefix(m[2], "week"):
			return n * 7, true
		case strings.HasPrefix(m[2], "month"):
			return n * 30, true
		}
		return n, true
	}
	return 0, false
}

// DaysAgoCS parses Czech relative dates ("před 3 dny") to integer days,
// falling back to English parsing for mixed-language pages.
func DaysAgoCS(text string) (int, bool) {
	if text == "" {
		return 0, false
	}
	t := strings.ToLower(strings.TrimSpace(text))
	if strings.Contains(t, "dnes") {
		return 0, true
	}
	if strings.Contains(t, "včera") {
		return 1, true
	}
	if strings.Contains(t, "před týdnem") {
		return 7, true
	}
	if m := csDaysRe.FindStringSubmatch(t); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true
	}
	if m := csWeeksRe.FindStringSubmatch(t); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n * 7, true
	}
	return DaysAgoEN(t)
}

// DaysToISO converts a days-ago count to an ISO-8601 UTC timestamp.
func DaysToISO(daysAgo int, clock Clock) string {
	return clock().AddDate(0, 0, -daysAgo).Format("2006-01-02T15:04:05") + "Z"
}

// NowISO formats the clock's current time as an ISO-8601 UTC timestamp.
func NowISO(clock Clock) string {
	return clock().Format("2006-01-02T15:04:05") + "Z"
}

// ParseISODate converts an ISO date or datetime string to days before now.
// Only the date part is considered; negative results clamp to 0.
func ParseISODate(dateStr string, clock Clock) (int, bool) {
	if dateStr == "" {
		return 0, false
	}
	datePart, _, _ := strings.Cut(dateStr, "T")
	posted, err := time.Parse("2006-01-02", datePart)
	if err != nil {
		return 0, false
	}
	days := int(clock().Sub(posted).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days, true
}
