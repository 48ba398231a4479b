package generic

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/project-hledam/go-scraper/internal/browser"
	"github.com/project-hledam/go-scraper/internal/domain"
	"github.com/project-hledam/go-scraper/internal/scrape"
)

const scrollRounds = 3

// scrapeBrowser drives a stealth browser through the listing pages,
// handling the config's pagination style and cookie consent.
func (s *Scraper) scrapeBrowser(ctx context.Context, src *source, params SearchParams) ([]domain.RawCard, int, *scrape.Diagnostics, error) {
	idRe, err := regexp.Compile(src.plan.JobIDRegex)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("job ID pattern %q: %w", src.plan.JobIDRegex, err)
	}

	sess, err := browser.Open(browser.Options{Headless: true, Stealth: true})
	if err != nil {
		return nil, 0, nil, err
	}
	defer sess.Close()

	firstURL := buildSearchURL(src, params.Query, params.Location, 1)
	log.Printf("[Generic:%s] Opening %s", src.name, firstURL)

	page, err := sess.Page(ctx, firstURL)
	if err != nil {
		return nil, 0, nil, err
	}
	defer page.Close()
	time.Sleep(src.delay)

	var diag *scrape.Diagnostics
	if params.Diagnostics {
		diag = s.collectDiagnostics(ctx, page, src, firstURL)
	}
	dismissCookieBanner(page, src.cfg.StringValue("cookie_dismiss", ""))

	paginationType := src.cfg.StringValue("pagination.type", "")

	var (
		cards        []domain.RawCard
		seen         = map[string]bool{}
		pagesFetched int
	)
pages:
	for pageNum := 1; pageNum <= params.MaxPages; pageNum++ {
		if pageNum > 1 && paginationType == "url_param" {
			if err := browser.Navigate(ctx, page, buildSearchURL(src, params.Query, params.Location, pageNum)); err != nil {
				return nil, pagesFetched, diag, err
			}
			time.Sleep(src.delay)
		}

		switch paginationType {
		case "scroll":
			browser.ScrollToBottom(ctx, page, scrollRounds, time.Second)
		case "load_more":
			if pageNum > 1 {
				if !clickIfVisible(page, src.cfg.StringValue("pagination.selector", "button.load-more")) {
					break pages
				}
				time.Sleep(src.delay)
			}
		}

		pageCards, err := collectPlanCards(ctx, page, src, idRe)
		if err != nil {
			return nil, pagesFetched, diag, err
		}
		pagesFetched++
		for _, card := range pageCards {
			if !seen[card.JobID] {
				seen[card.JobID] = true
				cards = append(cards, card)
			}
		}

		if paginationType == "button" && pageNum < params.MaxPages {
			if !clickIfEnabled(page, src.cfg.StringValue("pagination.selector", `button[aria-label="Next"]`)) {
				break
			}
			time.Sleep(src.delay)
		}
	}
	return cards, pagesFetched, diag, nil
}

// collectDiagnostics counts how many elements each configured selector
// matches on the first page. -1 means the selector itself is invalid.
func (s *Scraper) collectDiagnostics(ctx context.Context, page *rod.Page, src *source, pageURL string) *scrape.Diagnostics {
	diag := &scrape.Diagnostics{
		Engine:          src.engine,
		URL:             pageURL,
		SelectorMatches: map[string]int{},
	}
	for name, selector := range src.cfg.StringMap("selectors") {
		if selector == "" {
			continue
		}
		els, err := page.Context(ctx).Elements(selector)
		if err != nil {
			diag.SelectorMatches[name] = -1
			continue
		}
		diag.SelectorMatches[name] = len(els)
	}
	return diag
}

func dismissCookieBanner(page *rod.Page, selector string) {
	if selector == "" {
		return
	}
	if clickIfVisible(page, selector) {
		time.Sleep(500 * time.Millisecond)
	}
}

func clickIfVisible(page *rod.Page, selector string) bool {
	ok, el, err := page.Has(selector)
	if err != nil || !ok {
		return false
	}
	if visible, err := el.Visible(); err != nil || !visible {
		return false
	}
	return el.Click(proto.InputMouseButtonLeft, 1) == nil
}

func clickIfEnabled(page *rod.Page, selector string) bool {
	ok, el, err := page.Has(selector)
	if err != nil || !ok {
		return false
	}
	if disabled, err := el.Attribute("disabled"); err != nil || disabled != nil {
		return false
	}
	return el.Click(proto.InputMouseButtonLeft, 1) == nil
}

func collectPlanCards(ctx context.Context, page *rod.Page, src *source, idRe *regexp.Regexp) ([]domain.RawCard, error) {
	els, err := page.Context(ctx).Elements(src.plan.Card)
	if err != nil {
		return nil, fmt.Errorf("query cards %q: %w", src.plan.Card, err)
	}

	origin := ""
	if info, err := page.Info(); err == nil {
		origin = urlOrigin(info.URL)
	}

	var cards []domain.RawCard
	for _, el := range els {
		href, _ := browser.Attr(el, src.plan.Title.Selector, "href")

		id := ""
		if src.idAttr != "" {
			id, _ = browser.Attr(el, src.plan.Title.Selector, src.idAttr)
		} else if m := idRe.FindStringSubmatch(href); m != nil {
			id = m[1]
		}
		if id == "" {
			continue
		}

		title, _ := browser.Text(el, src.plan.Title.Selector)
		title = strings.TrimSpace(strings.SplitN(title, "\n", 2)[0])

		fullURL := href
		if fullURL != "" && !strings.HasPrefix(fullURL, "http") {
			fullURL = origin + href
		}

		card := domain.RawCard{JobID: id, Title: title, URL: fullURL}
		card.Company, _ = browser.Text(el, src.plan.Company.Selector)
		card.Location, _ = browser.Text(el, src.plan.Location.Selector)
		card.Salary, _ = browser.Text(el, src.plan.Salary.Selector)
		card.PostedText, _ = browser.Text(el, src.plan.Posted.Selector)
		cards = append(cards, card)
	}
	return cards, nil
}

func urlOrigin(u string) string {
	rest, found := strings.CutPrefix(u, "https://")
	scheme := "https://"
	if !found {
		rest, found = strings.CutPrefix(u, "http://")
		scheme = "http://"
		if !found {
			return ""
		}
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return scheme + rest
}
