package euremotejobs

import (
	"regexp"
	"strings"

	"github.com/project-hledam/go-scraper/internal/domain"
)

var (
	slugRe   = regexp.MustCompile(`/job/([^/]+)/?`)
	postedRe = regexp.MustCompile(`(?i)Posted\s+(\d+\s*(?:hour|day|week|month)s?\s*ago)`)
	salaryRe = regexp.MustCompile(`[£€$][\d,]+(?:\s*[-–]\s*[£€$]?[\d,]+)?`)
)

// ParseCard turns a job link's text block into a raw card. The card text
// stacks title, company and location on the first three lines; posted
// date and salary float among the remaining tag lines.
func ParseCard(text, href, siteBase string) (domain.RawCard, bool) {
	m := slugRe.FindStringSubmatch(href)
	if m == nil {
		return domain.RawCard{}, false
	}
	slug := m[1]

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	line := func(i int) string {
		if i < len(lines) {
			return lines[i]
		}
		return ""
	}

	postedText := ""
	for _, l := range lines {
		if pm := postedRe.FindStringSubmatch(l); pm != nil {
			postedText = pm[1]
			break
		}
	}

	salary := salaryRe.FindString(text)

	fullURL := href
	if !strings.HasPrefix(fullURL, "http") {
		fullURL = siteBase + href
	}

	return domain.RawCard{
		JobID:      slug,
		Title:      line(0),
		Company:    line(1),
		Location:   line(2),
		Salary:     salary,
		URL:        fullURL,
		PostedText: postedText,
	}, true
}

// ExtractSlug pulls the job slug out of a raw ID, canonical ID or detail
// URL. Unrecognized input passes through as the slug itself.
func ExtractSlug(idOrURL string) string {
	if strings.HasPrefix(idOrURL, "job_er_") {
		return idOrURL[len("job_er_"):]
	}
	if strings.HasPrefix(idOrURL, "er_") {
		return idOrURL[len("er_"):]
	}
	if m := slugRe.FindStringSubmatch(idOrURL); m != nil {
		return m[1]
	}
	return idOrURL
}
