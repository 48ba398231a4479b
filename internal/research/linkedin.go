package research

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-rod/rod"

	"github.com/project-hledam/go-scraper/internal/browser"
)

// LinkedInCompany is the organizational picture from a company's
// LinkedIn about page.
type LinkedInCompany struct {
	Source      string   `json:"source"`
	URL         string   `json:"url"`
	Name        string   `json:"name,omitempty"`
	Employees   string   `json:"employees,omitempty"`
	HQ          string   `json:"hq,omitempty"`
	Industry    string   `json:"industry,omitempty"`
	Founded     string   `json:"founded,omitempty"`
	Website     string   `json:"website,omitempty"`
	Type        string   `json:"company_type,omitempty"`
	Specialties []string `json:"specialties,omitempty"`
	Description string   `json:"description,omitempty"`
	Error       string   `json:"error,omitempty"`
	Code        string   `json:"code,omitempty"`
}

const linkedinSearchBox = `input[aria-label*="Search"]`

var (
	liEmployeesRe = regexp.MustCompile(`(?i)([\d,]+(?:-[\d,]+)?)\s*employees?\s*on\s*LinkedIn`)
	liSizeRe      = regexp.MustCompile(`(?i)Company size\s*([\d,]+(?:-[\d,+]+)?)\s*employees?`)
	liHQRe        = regexp.MustCompile(`(?i)Headquarters\s*([^\n]+)`)
	liIndustryRe  = regexp.MustCompile(`(?i)Industry\s*([^\n]+)`)
	liFoundedRe   = regexp.MustCompile(`(?i)Founded\s*(\d{4})`)
	liWebsiteRe   = regexp.MustCompile(`https?://(?:www\.)?[a-z0-9.-]+\.[a-z]{2,}[^\s"<]*`)
	liTypeRe      = regexp.MustCompile(`(Public Company|Privately Held|Partnership|Nonprofit|Self-Employed|Government Agency|Educational)`)
)

// LinkedInCompanyPage extracts the about-page facts for a company.
// Requires the logged-in browser profile used for job scraping.
func (c *Client) LinkedInCompanyPage(ctx context.Context, companyURL string) LinkedInCompany {
	result := LinkedInCompany{Source: "linkedin", URL: companyURL}

	aboutURL := strings.TrimSuffix(companyURL, "/") + "/about/"
	sess, page, err := c.launch(ctx, aboutURL, true)
	if err != nil {
		result.Error = err.Error()
		result.Code = "SCRAPE_FAILED"
		return result
	}
	defer sess.Close()

	// The global search box only renders for a signed-in session
	if ok, _, err := page.Has(linkedinSearchBox); err != nil || !ok {
		result.Error = fmt.Sprintf("not logged in at %s", aboutURL)
		result.Code = "AUTH_REQUIRED"
		return result
	}

	if m, ok := c.evalSnippet(ctx, page, "linkedin_company"); ok {
		result.Name = snippetString(m, "name")
		result.Employees = snippetString(m, "employees")
		result.HQ = snippetString(m, "hq")
		result.Industry = snippetString(m, "industry")
		result.Founded = snippetString(m, "founded")
		result.Website = snippetString(m, "website")
		result.Type = snippetString(m, "company_type")
		result.Specialties = snippetStrings(m, "specialties")
		result.Description = snippetString(m, "description")
		if result.Name != "" {
			return result
		}
	}

	c.linkedInFallback(page, &result)
	return result
}

func (c *Client) linkedInFallback(page *rod.Page, result *LinkedInCompany) {
	if name, ok := browser.Text(page, "h1"); ok {
		result.Name = strings.TrimSpace(name)
	}

	text := pageText(page)

	if m := liEmployeesRe.FindStringSubmatch(text); m != nil {
		result.Employees = m[1]
	} else if m := liSizeRe.FindStringSubmatch(text); m != nil {
		result.Employees = strings.TrimSpace(m[1])
	}
	if m := liHQRe.FindStringSubmatch(text); m != nil {
		if hq := strings.TrimSpace(m[1]); len(hq) < 100 {
			result.HQ = hq
		}
	}
	if m := liIndustryRe.FindStringSubmatch(text); m != nil {
		if industry := strings.TrimSpace(m[1]); len(industry) < 100 {
			result.Industry = industry
		}
	}
	if m := liFoundedRe.FindStringSubmatch(text); m != nil {
		result.Founded = m[1]
	}
	if m := liTypeRe.FindStringSubmatch(text); m != nil {
		result.Type = m[1]
	}
	result.Website = companyWebsite(text)
	result.Specialties = parseSpecialties(text)

	for _, selector := range []string{`[class*="about-us"] p`, "section p"} {
		desc, ok := browser.Text(page, selector)
		if ok && len(strings.TrimSpace(desc)) > 50 {
			result.Description = truncate(strings.TrimSpace(desc), 500)
			break
		}
	}
}

// companyWebsite finds the first external URL in the about text,
// skipping LinkedIn's own links.
func companyWebsite(text string) string {
	idx := strings.Index(strings.ToLower(text), "website")
	if idx < 0 {
		return ""
	}
	for _, u := range liWebsiteRe.FindAllString(text[idx:], 5) {
		if !strings.Contains(u, "linkedin.com") {
			return u
		}
	}
	return ""
}

// parseSpecialties splits the comma-separated specialties line.
func parseSpecialties(text string) []string {
	idx := strings.Index(text, "Specialties")
	if idx < 0 {
		return nil
	}
	line := text[idx+len("Specialties"):]
	if end := strings.IndexByte(line, '\n'); end >= 0 {
		line = line[:end]
	}
	var parts []string
	for _, part := range strings.Split(line, ",") {
		parts = append(parts, strings.TrimPrefix(strings.TrimSpace(part), "and "))
	}
	return dedupeShort(parts, 1, 50, 10)
}

func pageText(page *rod.Page) string {
	res, err := page.Eval(`() => document.body.innerText`)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}
