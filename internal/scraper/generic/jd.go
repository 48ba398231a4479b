package generic

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"github.com/project-hledam/go-scraper/internal/browser"
	"github.com/project-hledam/go-scraper/internal/jobid"
	"github.com/project-hledam/go-scraper/internal/markdown"
	"github.com/project-hledam/go-scraper/internal/scrape"
)

var defaultJDSelectors = []string{"#jobDescriptionText", ".job-description", "article"}

const (
	minJDLength  = 100
	jdBatchDelay = 1500 * time.Millisecond
)

const jsonldJS = `() => {
	for (const script of document.querySelectorAll('script[type="application/ld+json"]')) {
		try {
			let data = JSON.parse(script.textContent);
			if (Array.isArray(data)) {
				data = data.find(d => d && d['@type'] === 'JobPosting');
			}
			if (data && data['@type'] === 'JobPosting') {
				return {description: data.description || ''};
			}
		} catch (e) {}
	}
	return null;
}`

// jdSource is the jd sub-config of one source.
type jdSource struct {
	*source
	urlTemplate string
	selectors   []string
	useJSONLD   bool
	wait        time.Duration
}

func (s *Scraper) loadJDSource(name string) (*jdSource, string, error) {
	src, err := s.loadSource(name)
	if err != nil {
		return nil, scrape.CodeConfigNotFound, err
	}

	urlTemplate := src.cfg.StringValue("url_pattern.job_url_template", "")
	if urlTemplate == "" {
		return nil, scrape.CodeConfigMissing, fmt.Errorf("config %q has no url_pattern.job_url_template", name)
	}

	selectors := src.cfg.Strings("jd.selectors")
	if len(selectors) == 0 {
		selectors = defaultJDSelectors
	}

	return &jdSource{
		source:      src,
		urlTemplate: urlTemplate,
		selectors:   selectors,
		useJSONLD:   src.cfg.BoolValue("jd.use_jsonld", true),
		wait:        time.Duration(src.cfg.IntValue("jd.wait_ms", 2000)) * time.Millisecond,
	}, "", nil
}

// rawID strips the canonical or short prefix off a job ID, leaving the
// source's own ID.
func (src *source) rawID(id string) string {
	if rest, found := strings.CutPrefix(id, "job_"+src.idPrefix+"_"); found {
		return rest
	}
	if rest, found := strings.CutPrefix(id, src.idPrefix+"_"); found {
		return rest
	}
	return id
}

// ScrapeJD fetches one job description from a configured source.
func (s *Scraper) ScrapeJD(ctx context.Context, name, id string) scrape.JDResult {
	src, code, err := s.loadJDSource(name)
	if err != nil {
		return scrape.JDError(id, err, code)
	}

	sess, err := browser.Open(browser.Options{Headless: true, Stealth: true})
	if err != nil {
		return scrape.JDError(id, err, scrape.CodeScrapeFailed)
	}
	defer sess.Close()

	page, err := sess.Page(ctx, "about:blank")
	if err != nil {
		return scrape.JDError(id, err, scrape.CodeScrapeFailed)
	}
	defer page.Close()

	return s.scrapeJDOnPage(ctx, page, src, id)
}

// ScrapeJDs fetches several descriptions from one configured source
// through a shared page. Each job succeeds or fails on its own.
func (s *Scraper) ScrapeJDs(ctx context.Context, name string, ids []string) scrape.JDBatch {
	batch := scrape.JDBatch{Status: "ok", Items: []scrape.JDResult{}}
	if len(ids) == 0 {
		return batch
	}

	src, code, err := s.loadJDSource(name)
	if err != nil {
		for _, id := range ids {
			batch.Items = append(batch.Items, scrape.JDError(id, err, code))
			batch.Failed++
		}
		return batch
	}

	sess, err := browser.Open(browser.Options{Headless: true, Stealth: true})
	if err != nil {
		return scrape.JDBatchError(err, scrape.CodeScrapeFailed)
	}
	defer sess.Close()

	page, err := sess.Page(ctx, "about:blank")
	if err != nil {
		return scrape.JDBatchError(err, scrape.CodeScrapeFailed)
	}
	defer page.Close()

	for i, id := range ids {
		if i > 0 {
			time.Sleep(jdBatchDelay)
		}
		item := s.scrapeJDOnPage(ctx, page, src, id)
		batch.Items = append(batch.Items, item)
		if item.Status == "ok" {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	return batch
}

func (s *Scraper) scrapeJDOnPage(ctx context.Context, page *rod.Page, src *jdSource, id string) scrape.JDResult {
	rawID := src.rawID(id)
	canonicalID := jobid.Canonical(src.idPrefix, rawID)
	pageURL := strings.ReplaceAll(src.urlTemplate, "{id}", rawID)
	log.Printf("[Generic:%s] Fetching JD %s", src.name, pageURL)

	if err := browser.Navigate(ctx, page, pageURL); err != nil {
		return scrape.JDError(canonicalID, err, scrape.CodeScrapeFailed)
	}
	time.Sleep(src.wait)

	conv := markdown.New()

	if src.useJSONLD {
		if res, err := page.Context(ctx).Eval(jsonldJS); err == nil && !res.Value.Nil() {
			desc := res.Value.Get("description").Str()
			if jd, err := conv.ConvertUnescaped(desc); err == nil && len(jd) >= minJDLength {
				return scrape.JDResult{Status: "ok", JobID: canonicalID, JDText: jd, URL: pageURL}
			}
		}
	}

	for _, selector := range src.selectors {
		html, ok := browser.HTML(page, selector)
		if !ok {
			continue
		}
		jd, err := conv.ConvertUnescaped(html)
		if err != nil || len(jd) < minJDLength {
			continue
		}
		return scrape.JDResult{Status: "ok", JobID: canonicalID, JDText: jd, URL: pageURL}
	}

	// Distinguish an anti-bot wall from a page we simply cannot parse
	if title := pageTitle(page); strings.Contains(title, "block") || strings.Contains(title, "captcha") {
		return scrape.JDError(canonicalID, fmt.Errorf("bot blocked at %s", pageURL), scrape.CodeBotBlocked)
	}
	return scrape.JDError(canonicalID, fmt.Errorf("no job description found at %s", pageURL), scrape.CodeJDNotFound)
}

func pageTitle(page *rod.Page) string {
	if info, err := page.Info(); err == nil {
		return strings.ToLower(info.Title)
	}
	return ""
}
