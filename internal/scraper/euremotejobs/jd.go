package euremotejobs

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"github.com/project-hledam/go-scraper/internal/browser"
	"github.com/project-hledam/go-scraper/internal/dateparse"
	"github.com/project-hledam/go-scraper/internal/jobid"
	"github.com/project-hledam/go-scraper/internal/markdown"
	"github.com/project-hledam/go-scraper/internal/scrape"
)

var descSelectors = []string{
	".job_description",
	".single_job_listing .content",
	"article .entry-content",
	".job-description",
	"article",
}

const (
	minJDLength = 100
	batchDelay  = 1500 * time.Millisecond
	jdSettle    = 3 * time.Second
)

// jsonldJS finds the JobPosting structured-data block. The board embeds
// one on every detail page, which is far more stable than the theme DOM.
const jsonldJS = `() => {
	for (const script of document.querySelectorAll('script[type="application/ld+json"]')) {
		try {
			let data = JSON.parse(script.textContent);
			if (Array.isArray(data)) {
				data = data.find(d => d && d['@type'] === 'JobPosting');
			}
			if (data && data['@type'] === 'JobPosting') {
				return {description: data.description || '', datePosted: data.datePosted || ''};
			}
		} catch (e) {}
	}
	return null;
}`

// ScrapeJD fetches one job description in its own browser session.
func (s *Scraper) ScrapeJD(ctx context.Context, idOrURL string) scrape.JDResult {
	sess, err := browser.Open(browser.Options{Headless: true})
	if err != nil {
		return scrape.JDError(canonicalFor(idOrURL), err, scrape.CodeScrapeFailed)
	}
	defer sess.Close()

	page, err := sess.Page(ctx, "about:blank")
	if err != nil {
		return scrape.JDError(canonicalFor(idOrURL), err, scrape.CodeScrapeFailed)
	}
	defer page.Close()

	return s.scrapeJDOnPage(ctx, page, idOrURL)
}

// ScrapeJDs fetches several descriptions through one shared page, pausing
// between navigations. Each job succeeds or fails on its own.
func (s *Scraper) ScrapeJDs(ctx context.Context, idsOrURLs []string) scrape.JDBatch {
	batch := scrape.JDBatch{Status: "ok", Items: []scrape.JDResult{}}

	sess, err := browser.Open(browser.Options{Headless: true})
	if err != nil {
		for _, idOrURL := range idsOrURLs {
			batch.Items = append(batch.Items, scrape.JDError(canonicalFor(idOrURL), err, scrape.CodeScrapeFailed))
			batch.Failed++
		}
		return batch
	}
	defer sess.Close()

	page, err := sess.Page(ctx, "about:blank")
	if err != nil {
		for _, idOrURL := range idsOrURLs {
			batch.Items = append(batch.Items, scrape.JDError(canonicalFor(idOrURL), err, scrape.CodeScrapeFailed))
			batch.Failed++
		}
		return batch
	}
	defer page.Close()

	for i, idOrURL := range idsOrURLs {
		if i > 0 {
			time.Sleep(batchDelay)
		}
		item := s.scrapeJDOnPage(ctx, page, idOrURL)
		batch.Items = append(batch.Items, item)
		if item.Status == "ok" {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	return batch
}

func canonicalFor(idOrURL string) string {
	return jobid.Canonical(jobid.PrefixEURemoteJobs, ExtractSlug(idOrURL))
}

func (s *Scraper) jobURL(idOrURL string) string {
	if strings.HasPrefix(idOrURL, "http") {
		return idOrURL
	}
	return s.baseURL() + "/job/" + ExtractSlug(idOrURL) + "/"
}

func (s *Scraper) scrapeJDOnPage(ctx context.Context, page *rod.Page, idOrURL string) scrape.JDResult {
	canonicalID := canonicalFor(idOrURL)
	pageURL := s.jobURL(idOrURL)
	log.Printf("[EURemoteJobs] Fetching JD %s", pageURL)

	if err := browser.Navigate(ctx, page, pageURL); err != nil {
		return scrape.JDError(canonicalID, err, scrape.CodeScrapeFailed)
	}
	time.Sleep(jdSettle)

	conv := markdown.New()
	result := scrape.JDResult{Status: "ok", JobID: canonicalID, URL: pageURL}

	// Structured data first, theme DOM second
	if res, err := page.Context(ctx).Eval(jsonldJS); err == nil && !res.Value.Nil() {
		desc := res.Value.Get("description").Str()
		if jd, err := conv.ConvertUnescaped(desc); err == nil && len(jd) >= minJDLength {
			result.JDText = jd
			if datePosted := res.Value.Get("datePosted").Str(); datePosted != "" {
				if days, ok := dateparse.ParseISODate(datePosted, s.Env.Now()); ok {
					result.DaysAgo = &days
				}
				result.Posted = strings.SplitN(datePosted, "T", 2)[0]
			}
			return result
		}
	}

	for _, selector := range descSelectors {
		html, ok := browser.HTML(page, selector)
		if !ok {
			continue
		}
		jd, err := conv.Convert(html)
		if err != nil || len(jd) < minJDLength {
			continue
		}
		result.JDText = jd
		return result
	}

	return scrape.JDError(canonicalID, fmt.Errorf("no job description found at %s", pageURL), scrape.CodeJDNotFound)
}
