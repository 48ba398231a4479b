package startupjobs

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/project-hledam/go-scraper/internal/jobid"
	"github.com/project-hledam/go-scraper/internal/markdown"
	"github.com/project-hledam/go-scraper/internal/scrape"
)

var descSelectors = []string{
	"article",
	".job-description",
	".offer-description",
	`[class*="description"]`,
	"main",
}

var (
	detailIDRe = regexp.MustCompile(`/nabidka/(\d+)`)
	nuxtDataRe = regexp.MustCompile(`<script[^>]*id="__NUXT_DATA__"[^>]*>([^<]+)</script>`)
)

// Selector hits shorter than this are assumed to be page furniture; the
// hard floor below still applies to whatever wins.
const preferredJDLength = 200

const minJDLength = 100

// ExtractJobID pulls the numeric offer ID out of a raw ID, canonical ID
// or detail URL.
func ExtractJobID(idOrURL string) (string, error) {
	prefix, raw, ok := jobid.Split(jobid.Normalize(idOrURL))
	if ok && prefix == jobid.PrefixStartupJobs {
		return raw, nil
	}
	if isDigits(idOrURL) {
		return idOrURL, nil
	}
	if m := detailIDRe.FindStringSubmatch(idOrURL); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("could not extract job ID from %q", idOrURL)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ScrapeJD fetches one detail page and converts its description.
func (s *Scraper) ScrapeJD(idOrURL string) scrape.JDResult {
	numericID, err := ExtractJobID(idOrURL)
	if err != nil {
		return scrape.JDError(idOrURL, err, scrape.CodeInvalidParam)
	}
	canonicalID := jobid.Canonical(jobid.PrefixStartupJobs, numericID)

	pageURL := idOrURL
	if !strings.HasPrefix(pageURL, "http") {
		_, urlTemplate := s.endpoints()
		pageURL = strings.NewReplacer("{id}", numericID, "{slug}", "").Replace(urlTemplate)
		pageURL = strings.TrimRight(pageURL, "/")
	}

	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return scrape.JDError(canonicalID, err, scrape.CodeScrapeFailed)
	}
	req.Header.Set("User-Agent", s.Env.UserAgent)
	req.Header.Set("Accept-Language", "cs,en;q=0.9")

	resp, err := s.client().Do(req)
	if err != nil {
		return scrape.JDError(canonicalID, err, scrape.CodeScrapeFailed)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return scrape.JDError(canonicalID, fmt.Errorf("detail page returned status %d", resp.StatusCode), scrape.CodeScrapeFailed)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return scrape.JDError(canonicalID, err, scrape.CodeScrapeFailed)
	}

	jdText := extractJD(string(body))
	if len(jdText) < minJDLength {
		return scrape.JDError(canonicalID, fmt.Errorf("could not find job description"), scrape.CodeScrapeFailed)
	}

	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return scrape.JDResult{Status: "ok", JobID: canonicalID, JDText: jdText, URL: finalURL}
}

// ScrapeJDs fetches several descriptions. Each job succeeds or fails on
// its own.
func (s *Scraper) ScrapeJDs(idsOrURLs []string) scrape.JDBatch {
	batch := scrape.JDBatch{Status: "ok", Items: []scrape.JDResult{}}
	for _, idOrURL := range idsOrURLs {
		item := s.ScrapeJD(idOrURL)
		batch.Items = append(batch.Items, item)
		if item.Status == "ok" {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	return batch
}

// extractJD tries the selector list first, then falls back to scanning
// the Nuxt hydration payload for an HTML-looking description string.
func extractJD(pageHTML string) string {
	conv := markdown.New()

	best := ""
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML)); err == nil {
		for _, selector := range descSelectors {
			sel := doc.Find(selector).First()
			if sel.Length() == 0 {
				continue
			}
			inner, err := goquery.OuterHtml(sel)
			if err != nil {
				continue
			}
			// Broad selectors like article or main drag in page chrome
			// and tracking markup; the document path prunes and
			// sanitizes before converting
			jd, err := conv.ConvertDocument(inner)
			if err != nil {
				continue
			}
			if len(jd) > preferredJDLength {
				return jd
			}
			if len(jd) > len(best) {
				best = jd
			}
		}
	}

	if len(best) <= preferredJDLength {
		if jd := nuxtPayloadJD(pageHTML, conv); jd != "" {
			return jd
		}
	}
	return best
}

// nuxtPayloadJD scans the __NUXT_DATA__ array for long HTML strings; the
// offer description ships there when the DOM renders client-side.
func nuxtPayloadJD(pageHTML string, conv *markdown.Converter) string {
	m := nuxtDataRe.FindStringSubmatch(pageHTML)
	if m == nil {
		return ""
	}
	var payload []any
	if err := json.Unmarshal([]byte(m[1]), &payload); err != nil {
		return ""
	}
	for _, entry := range payload {
		str, ok := entry.(string)
		if !ok || len(str) <= preferredJDLength || !strings.Contains(str, "<") {
			continue
		}
		jd, err := conv.Convert(str)
		if err != nil {
			continue
		}
		if len(jd) > preferredJDLength {
			return jd
		}
	}
	return ""
}
