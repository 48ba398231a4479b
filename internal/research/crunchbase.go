package research

import (
	"context"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-rod/rod"

	"github.com/project-hledam/go-scraper/internal/browser"
)

// CompanyProfile is the funding and background picture of one company.
type CompanyProfile struct {
	Source       string   `json:"source"`
	URL          string   `json:"url"`
	Description  string   `json:"description,omitempty"`
	TotalFunding string   `json:"total_funding,omitempty"`
	FundingStage string   `json:"funding_stage,omitempty"`
	LastRound    string   `json:"last_round,omitempty"`
	Investors    []string `json:"investors,omitempty"`
	Employees    string   `json:"employees,omitempty"`
	Founded      string   `json:"founded,omitempty"`
	HQ           string   `json:"hq,omitempty"`
	Website      string   `json:"website,omitempty"`
	Error        string   `json:"error,omitempty"`
}

var crunchbaseDescSelectors = []string{
	`[class*="description"]`,
	`[data-test*="description"]`,
	`.profile-section [class*="text"]`,
}

var crunchbaseInvestorSelectors = []string{
	`[class*="investor"] a`,
	`[data-test*="investor"] a`,
}

var (
	totalFundingRe = regexp.MustCompile(`(?i)Total Funding[:\s]*\$?([\d.,]+[BMK]?)`)
	raisedRe       = regexp.MustCompile(`(?i)raised[:\s]*(?:a total of\s*)?\$?([\d.,]+[BMK]?)`)
	fundingStageRe = regexp.MustCompile(`(Series [A-Z]|Seed|Pre-Seed|IPO|Private Equity)`)
	lastRoundRe    = regexp.MustCompile(`(?i)(?:Latest|Last|Most Recent)[^$]*\$?([\d.,]+[BMK]?)`)
	employeesRe    = regexp.MustCompile(`(?i)([\d,]+(?:-[\d,]+)?)\s*employees`)
	foundedRe      = regexp.MustCompile(`(?i)Founded[:\s]*(\d{4})`)
	hqRe           = regexp.MustCompile(`(?i)Headquarters[:\s]*([^<\n]+)`)
	websiteRe      = regexp.MustCompile(`(?i)href="(https?://(?:www\.)?[^"]+)"[^>]*>\s*(?:Website|Visit)`)
)

// Crunchbase extracts the funding profile from a Crunchbase
// organization page.
func (c *Client) Crunchbase(ctx context.Context, url string) CompanyProfile {
	profile := CompanyProfile{Source: "crunchbase", URL: url}

	sess, page, err := c.open(ctx, url)
	if err != nil {
		profile.Error = err.Error()
		return profile
	}
	defer sess.Close()

	if m, ok := c.evalSnippet(ctx, page, "crunchbase"); ok {
		profile.Description = snippetString(m, "description")
		profile.TotalFunding = snippetString(m, "total_funding")
		profile.FundingStage = snippetString(m, "funding_stage")
		profile.LastRound = snippetString(m, "last_round")
		profile.Investors = snippetStrings(m, "investors")
		profile.Employees = snippetString(m, "employees")
		profile.Founded = snippetString(m, "founded")
		profile.HQ = snippetString(m, "hq")
		profile.Website = snippetString(m, "website")
		if profile.TotalFunding != "" || profile.Description != "" {
			return profile
		}
		log.Printf("[Research] Crunchbase snippet returned nothing, falling back")
	}

	c.crunchbaseFallback(page, &profile)
	return profile
}

// crunchbaseFallback scrapes with fixed selectors and raw-content
// regexes when no snippet is available.
func (c *Client) crunchbaseFallback(page *rod.Page, profile *CompanyProfile) {
	for _, selector := range crunchbaseDescSelectors {
		text, ok := browser.Text(page, selector)
		if ok && len(text) > 20 {
			profile.Description = truncate(text, 500)
			break
		}
	}

	content := pageContent(page)
	profile.TotalFunding = matchAmount(content, totalFundingRe, raisedRe)
	if m := fundingStageRe.FindStringSubmatch(content); m != nil {
		profile.FundingStage = m[1]
	}
	if m := lastRoundRe.FindStringSubmatch(content); m != nil && m[1] != "" {
		profile.LastRound = normalizeAmount(m[1])
	}

	for _, selector := range crunchbaseInvestorSelectors {
		names := allText(page, selector, maxListExtractions*3)
		if investors := dedupeShort(names, 1, 0, maxListExtractions); len(investors) > 0 {
			profile.Investors = investors
			break
		}
	}

	if m := employeesRe.FindStringSubmatch(content); m != nil {
		profile.Employees = m[1]
	}
	if m := foundedRe.FindStringSubmatch(content); m != nil {
		profile.Founded = m[1]
	}
	if m := hqRe.FindStringSubmatch(content); m != nil {
		if hq := strings.TrimSpace(m[1]); len(hq) < 100 {
			profile.HQ = hq
		}
	}
	if m := websiteRe.FindStringSubmatch(content); m != nil {
		profile.Website = m[1]
	}
}

// matchAmount tries a list of funding regexes in order and normalizes
// the first hit.
func matchAmount(content string, patterns ...*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(content); m != nil && m[1] != "" {
			return normalizeAmount(m[1])
		}
	}
	return ""
}

// normalizeAmount renders a scraped money figure as $X.XB, $X.XM or
// $X.XK. Already-suffixed values keep their magnitude; bare numbers
// get scaled.
func normalizeAmount(raw string) string {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "$"))
	if raw == "" {
		return ""
	}
	suffix := ""
	last := raw[len(raw)-1]
	if last == 'B' || last == 'M' || last == 'K' {
		suffix = string(last)
		raw = raw[:len(raw)-1]
	}
	raw = strings.TrimRight(strings.ReplaceAll(raw, ",", ""), ".")
	num, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return ""
	}
	if suffix == "" {
		switch {
		case num >= 1e9:
			num, suffix = num/1e9, "B"
		case num >= 1e6:
			num, suffix = num/1e6, "M"
		case num >= 1e3:
			num, suffix = num/1e3, "K"
		}
	}
	return "$" + strconv.FormatFloat(num, 'f', -1, 64) + suffix
}
