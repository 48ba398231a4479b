package jobscz

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	salaryRangeRe  = regexp.MustCompile(`(\d[\d\s]*)\s*[-–]\s*(\d[\d\s]*)\s*Kč`)
	salaryFromRe   = regexp.MustCompile(`(?i)od\s*(\d[\d\s]*)\s*Kč`)
	salarySingleRe = regexp.MustCompile(`(\d[\d\s]*)\s*Kč`)
)

// ParseSalaryCZK normalizes Czech salary text ("55 000 – 85 000 Kč") into
// a comparable form ("55,000 - 85,000 CZK"). Returns "" when the text
// carries no salary.
func ParseSalaryCZK(text string) string {
	if text == "" {
		return ""
	}
	// Non-breaking and narrow spaces appear as digit group separators
	text = strings.NewReplacer("\u00a0", " ", "\u202f", " ").Replace(text)
	text = strings.TrimSpace(text)

	if m := salaryRangeRe.FindStringSubmatch(text); m != nil {
		return groupThousands(m[1]) + " - " + groupThousands(m[2]) + " CZK"
	}
	if m := salaryFromRe.FindStringSubmatch(text); m != nil {
		return "from " + groupThousands(m[1]) + " CZK"
	}
	if m := salarySingleRe.FindStringSubmatch(text); m != nil {
		return groupThousands(m[1]) + " CZK"
	}
	return ""
}

func groupThousands(digits string) string {
	digits = strings.ReplaceAll(digits, " ", "")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return digits
	}
	s := strconv.Itoa(n)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
