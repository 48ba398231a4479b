package linkedin

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/project-hledam/go-scraper/internal/browser"
	"github.com/project-hledam/go-scraper/internal/dateparse"
	"github.com/project-hledam/go-scraper/internal/jobid"
	"github.com/project-hledam/go-scraper/internal/markdown"
	"github.com/project-hledam/go-scraper/internal/scrape"
)

// The description module has been through several redesigns; selectors
// are ordered newest layout first.
var descSelectors = []string{
	`[data-testid="expandable-text-box"]`,
	".show-more-less-html__markup",
	".jobs-description__content",
	".jobs-box__html-content",
	".jobs-description-content__text",
	`[class*="jobs-description"]`,
	".job-details-about-the-job-module__description",
	"article",
}

const (
	expandButtonSelector = `[data-testid="expandable-text-button"]`
	topCardSelector      = ".job-details-jobs-unified-top-card__primary-description-container"
)

var (
	viewIDRe  = regexp.MustCompile(`/jobs/view/(\d+)`)
	postedAgo = regexp.MustCompile(`(?i)(\d+\s+(?:hour|day|week|month)s?\s+ago)`)
)

const (
	minJDLength = 100
	jdSettle    = 2 * time.Second
	expandWait  = 500 * time.Millisecond
	batchDelay  = time.Second
)

// ExtractJobID pulls the numeric job ID out of a raw ID, canonical ID or
// job view URL.
func ExtractJobID(idOrURL string) (string, error) {
	prefix, raw, ok := jobid.Split(jobid.Normalize(idOrURL))
	if ok && prefix == jobid.PrefixLinkedIn {
		return raw, nil
	}
	if m := viewIDRe.FindStringSubmatch(idOrURL); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("could not extract job ID from %q", idOrURL)
}

// ScrapeJD fetches one job description in its own browser session.
func (s *Scraper) ScrapeJD(ctx context.Context, idOrURL string) scrape.JDResult {
	numericID, err := ExtractJobID(idOrURL)
	if err != nil {
		return scrape.JDError(idOrURL, err, scrape.CodeInvalidParam)
	}
	canonicalID := jobid.Canonical(jobid.PrefixLinkedIn, numericID)

	if err := s.requireProfile(); err != nil {
		return scrape.JDError(canonicalID, err, scrape.CodeAuthRequired)
	}

	sess, err := browser.Open(browser.Options{Headless: true, ProfileDir: s.Env.ProfileDir})
	if err != nil {
		return scrape.JDError(canonicalID, err, scrape.CodeScrapeFailed)
	}
	defer sess.Close()

	page, err := sess.Page(ctx, s.viewURL(numericID))
	if err != nil {
		return scrape.JDError(canonicalID, err, scrape.CodeScrapeFailed)
	}
	defer page.Close()

	return s.scrapeLoadedPage(page, numericID)
}

// ScrapeJDs fetches several descriptions through one shared page. Each
// job succeeds or fails on its own, except an expired session, which
// fails all remaining jobs at once.
func (s *Scraper) ScrapeJDs(ctx context.Context, idsOrURLs []string) scrape.JDBatch {
	batch := scrape.JDBatch{Status: "ok", Items: []scrape.JDResult{}}
	if len(idsOrURLs) == 0 {
		return batch
	}
	if err := s.requireProfile(); err != nil {
		return scrape.JDBatchError(err, scrape.CodeAuthRequired)
	}

	sess, err := browser.Open(browser.Options{Headless: true, ProfileDir: s.Env.ProfileDir})
	if err != nil {
		return scrape.JDBatchError(err, scrape.CodeScrapeFailed)
	}
	defer sess.Close()

	page, err := sess.Page(ctx, "about:blank")
	if err != nil {
		return scrape.JDBatchError(err, scrape.CodeScrapeFailed)
	}
	defer page.Close()

	for i, idOrURL := range idsOrURLs {
		numericID, err := ExtractJobID(idOrURL)
		if err != nil {
			batch.Items = append(batch.Items, scrape.JDError(idOrURL, err, scrape.CodeInvalidParam))
			batch.Failed++
			continue
		}
		canonicalID := jobid.Canonical(jobid.PrefixLinkedIn, numericID)

		if i > 0 {
			time.Sleep(batchDelay)
		}
		if err := browser.Navigate(ctx, page, s.viewURL(numericID)); err != nil {
			batch.Items = append(batch.Items, scrape.JDError(canonicalID, err, scrape.CodeScrapeFailed))
			batch.Failed++
			continue
		}

		item := s.scrapeLoadedPage(page, numericID)
		batch.Items = append(batch.Items, item)
		if item.Status == "ok" {
			batch.Succeeded++
			continue
		}
		batch.Failed++
		// An expired session will fail every remaining job the same way
		if item.Code == scrape.CodeAuthRequired {
			for _, rest := range idsOrURLs[i+1:] {
				batch.Items = append(batch.Items, scrape.JDError(rest, fmt.Errorf("session expired"), scrape.CodeAuthRequired))
				batch.Failed++
			}
			break
		}
	}
	return batch
}

func (s *Scraper) viewURL(numericID string) string {
	return s.baseURL() + "/jobs/view/" + numericID + "/"
}

func (s *Scraper) scrapeLoadedPage(page *rod.Page, numericID string) scrape.JDResult {
	time.Sleep(jdSettle)
	canonicalID := jobid.Canonical(jobid.PrefixLinkedIn, numericID)

	if info, err := page.Info(); err == nil && loggedOutURL(info.URL) {
		return scrape.JDError(canonicalID, fmt.Errorf("session expired, run login first"), scrape.CodeAuthRequired)
	}

	expandDescription(page)

	jdText := extractJD(page)
	if len(jdText) < minJDLength {
		return scrape.JDError(canonicalID, fmt.Errorf("could not find job description"), scrape.CodeJDNotFound)
	}

	result := scrape.JDResult{
		Status: "ok",
		JobID:  canonicalID,
		URL:    s.viewURL(numericID),
		JDText: jdText,
	}
	if days, ok := s.extractDaysAgo(page); ok {
		result.DaysAgo = &days
		result.Posted = dateparse.DaysToISO(days, s.Env.Now())
	}
	return result
}

// expandDescription clicks the "see more" toggle so the full text is in
// the DOM. Best effort; a missing button means the text is short.
func expandDescription(page *rod.Page) {
	ok, el, err := page.Has(expandButtonSelector)
	if err != nil || !ok {
		return
	}
	if visible, err := el.Visible(); err != nil || !visible {
		return
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
		time.Sleep(expandWait)
	}
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

func (s *Scraper) extractDaysAgo(page *rod.Page) (int, bool) {
	if text, ok := browser.Text(page, topCardSelector); ok {
		if m := postedAgo.FindStringSubmatch(text); m != nil {
			return dateparse.DaysAgoEN(m[1])
		}
	}
	if text, ok := browser.Text(page, "strong"); ok {
		if m := postedAgo.FindStringSubmatch(text); m != nil {
			return dateparse.DaysAgoEN(m[1])
		}
	}
	return 0, false
}
