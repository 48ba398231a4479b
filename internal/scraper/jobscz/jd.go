package jobscz

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/go-rod/rod"

	"github.com/project-hledam/go-scraper/internal/browser"
	"github.com/project-hledam/go-scraper/internal/dateparse"
	"github.com/project-hledam/go-scraper/internal/jobid"
	"github.com/project-hledam/go-scraper/internal/markdown"
	"github.com/project-hledam/go-scraper/internal/scrape"
)

// Detail pages ship several layouts; selectors are tried in order and the
// first one yielding a substantial description wins.
var descSelectors = []string{
	".RichContent",
	".cp-detail__content",
	".c-detail__content",
	".c-detail__description",
	`[data-test="job-detail-description"]`,
	".job-description",
	".offer-description",
	"article",
}

var dateSelectors = []string{
	`[data-test="job-detail-date"]`,
	".DetailHeader__date",
	".JobDetailMeta__date",
	`[class*="date"]`,
	`[class*="posted"]`,
}

var (
	detailIDRe   = regexp.MustCompile(`/(?:rpd|fp|pd)/(?:[^/]+/)?(\d+)`)
	bodyPostedRe = regexp.MustCompile(`(?i)(?:zveřejněno|publikováno)[:\s]*(před[^,\n]+)`)
)

// minJDLength rejects cookie banners and teasers posing as descriptions.
const minJDLength = 100

const settleDelay = 2 * time.Second

// ExtractJobID pulls the numeric job ID out of a raw ID, canonical ID or
// detail URL.
func ExtractJobID(idOrURL string) (string, error) {
	if raw, ok := cutCanonical(idOrURL); ok {
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

func cutCanonical(id string) (string, bool) {
	prefix, raw, ok := jobid.Split(jobid.Normalize(id))
	if !ok || prefix != jobid.PrefixJobsCZ {
		return "", false
	}
	return raw, true
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

// ScrapeJD fetches and converts one job description.
func (s *Scraper) ScrapeJD(ctx context.Context, idOrURL string) scrape.JDResult {
	numericID, err := ExtractJobID(idOrURL)
	if err != nil {
		return scrape.JDError(idOrURL, err, scrape.CodeInvalidParam)
	}

	sess, err := browser.Open(browser.Options{Headless: true})
	if err != nil {
		return scrape.JDError(idOrURL, err, scrape.CodeScrapeFailed)
	}
	defer sess.Close()

	page, err := sess.Page(ctx, s.detailURL(idOrURL, numericID))
	if err != nil {
		return scrape.JDError(idOrURL, err, scrape.CodeScrapeFailed)
	}
	defer page.Close()

	return s.scrapeLoadedPage(page, numericID)
}

// ScrapeJDs fetches several descriptions through one browser session.
// Each job succeeds or fails on its own.
func (s *Scraper) ScrapeJDs(ctx context.Context, idsOrURLs []string) scrape.JDBatch {
	batch := scrape.JDBatch{Status: "ok", Items: []scrape.JDResult{}}
	if len(idsOrURLs) == 0 {
		return batch
	}

	sess, err := browser.Open(browser.Options{Headless: true})
	if err != nil {
		return scrape.JDBatchError(err, scrape.CodeScrapeFailed)
	}
	defer sess.Close()

	page, err := sess.Page(ctx, "about:blank")
	if err != nil {
		return scrape.JDBatchError(err, scrape.CodeScrapeFailed)
	}
	defer page.Close()

	for _, idOrURL := range idsOrURLs {
		numericID, err := ExtractJobID(idOrURL)
		if err != nil {
			batch.Items = append(batch.Items, scrape.JDError(idOrURL, err, scrape.CodeInvalidParam))
			batch.Failed++
			continue
		}

		if err := browser.Navigate(ctx, page, s.detailURL(idOrURL, numericID)); err != nil {
			batch.Items = append(batch.Items, scrape.JDError(jobid.Canonical(jobid.PrefixJobsCZ, numericID), err, scrape.CodeScrapeFailed))
			batch.Failed++
			continue
		}

		item := s.scrapeLoadedPage(page, numericID)
		batch.Items = append(batch.Items, item)
		if item.Status == "ok" {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	return batch
}

func (s *Scraper) detailURL(idOrURL, numericID string) string {
	if len(idOrURL) > 4 && idOrURL[:4] == "http" {
		return idOrURL
	}
	return fmt.Sprintf("%s/rpd/%s/", s.baseURL(), numericID)
}

func (s *Scraper) scrapeLoadedPage(page *rod.Page, numericID string) scrape.JDResult {
	time.Sleep(settleDelay)
	canonicalID := jobid.Canonical(jobid.PrefixJobsCZ, numericID)

	jdText := extractJD(page)
	if jdText == "" {
		return scrape.JDError(canonicalID, fmt.Errorf("could not find job description"), scrape.CodeScrapeFailed)
	}

	result := scrape.JDResult{
		Status: "ok",
		JobID:  canonicalID,
		JDText: jdText,
	}
	if info, err := page.Info(); err == nil {
		result.URL = info.URL
	}
	if days, ok := extractDaysAgo(page); ok {
		result.DaysAgo = &days
		result.Posted = dateparse.DaysToISO(days, s.Env.Now())
	}
	return result
}

func extractJD(page *rod.Page) string {
	conv := markdown.New()
	for _, selector := range descSelectors {
		html, ok := browser.HTML(page, selector)
		if !ok {
			continue
		}
		jd, err := conv.Convert(html)
		if err != nil {
			continue
		}
		if len(jd) > minJDLength {
			return jd
		}
	}
	return ""
}

func extractDaysAgo(page *rod.Page) (int, bool) {
	for _, selector := range dateSelectors {
		if text, ok := browser.Text(page, selector); ok {
			if days, ok := dateparse.DaysAgoCS(text); ok {
				return days, true
			}
		}
	}
	if body, ok := browser.Text(page, "body"); ok {
		if m := bodyPostedRe.FindStringSubmatch(body); m != nil {
			return dateparse.DaysAgoCS(m[1])
		}
	}
	return 0, false
}
