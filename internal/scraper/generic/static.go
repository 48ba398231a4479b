package generic

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/project-hledam/go-scraper/internal/domain"
	"github.com/project-hledam/go-scraper/internal/scrape"
)

// scrapeStatic fetches server-rendered listing pages over plain HTTP.
func (s *Scraper) scrapeStatic(src *source, params SearchParams) ([]domain.RawCard, int, *scrape.Diagnostics, error) {
	idRe, err := regexp.Compile(src.plan.JobIDRegex)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("job ID pattern %q: %w", src.plan.JobIDRegex, err)
	}

	base := colly.NewCollector(
		colly.UserAgent(s.Env.UserAgent),
		colly.AllowURLRevisit(),
	)
	base.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	var (
		cards        []domain.RawCard
		seen         = map[string]bool{}
		pagesFetched int
		diag         *scrape.Diagnostics
	)

	for page := 1; page <= params.MaxPages; page++ {
		pageURL := buildSearchURL(src, params.Query, params.Location, page)
		log.Printf("[Generic:%s] Fetching page %d: %s", src.name, page, pageURL)

		// Diagnostics only inspect the first page
		var pageDiag *scrape.Diagnostics
		if page == 1 && params.Diagnostics {
			pageDiag = &scrape.Diagnostics{
				Engine:          src.engine,
				URL:             pageURL,
				SelectorMatches: map[string]int{},
			}
		}

		pageCards, err := s.scrapeStaticPage(base, src, idRe, pageURL, pageDiag)
		if err != nil {
			return nil, pagesFetched, diag, err
		}
		pagesFetched++
		if pageDiag != nil {
			diag = pageDiag
		}

		for _, card := range pageCards {
			if !seen[card.JobID] {
				seen[card.JobID] = true
				cards = append(cards, card)
			}
		}

		if page < params.MaxPages {
			time.Sleep(src.delay)
		}
	}
	return cards, pagesFetched, diag, nil
}

func (s *Scraper) scrapeStaticPage(base *colly.Collector, src *source, idRe *regexp.Regexp, pageURL string, diag *scrape.Diagnostics) ([]domain.RawCard, error) {
	var (
		cards     []domain.RawCard
		scrapeErr error
	)

	collector := base.Clone()

	collector.OnHTML(src.plan.Card, func(el *colly.HTMLElement) {
		titleEl := el.DOM.Find(src.plan.Title.Selector).First()
		if titleEl.Length() == 0 {
			return
		}
		href, _ := titleEl.Attr("href")

		id := ""
		if src.idAttr != "" {
			id, _ = titleEl.Attr(src.idAttr)
		} else if m := idRe.FindStringSubmatch(href); m != nil {
			id = m[1]
		}
		if id == "" {
			return
		}

		fullURL := href
		if fullURL != "" && !strings.HasPrefix(fullURL, "http") {
			fullURL = strings.TrimRight(src.baseURL, "/") + href
		}

		cards = append(cards, domain.RawCard{
			JobID:      id,
			Title:      strings.TrimSpace(titleEl.Text()),
			Company:    selectionText(el.DOM, src.plan.Company.Selector),
			Location:   selectionText(el.DOM, src.plan.Location.Selector),
			Salary:     selectionText(el.DOM, src.plan.Salary.Selector),
			PostedText: selectionText(el.DOM, src.plan.Posted.Selector),
			URL:        fullURL,
		})
	})

	if diag != nil {
		collector.OnHTML("html", func(el *colly.HTMLElement) {
			// goquery treats an unparsable selector as matching nothing,
			// so a bogus selector reports 0 rather than failing the search
			for name, selector := range src.cfg.StringMap("selectors") {
				if selector == "" {
					continue
				}
				diag.SelectorMatches[name] = el.DOM.Find(selector).Length()
			}
		})
	}

	collector.OnError(func(r *colly.Response, err error) {
		scrapeErr = fmt.Errorf("fetch %s: %w (status %d)", pageURL, err, r.StatusCode)
	})

	if err := collector.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", pageURL, err)
	}
	collector.Wait()

	if scrapeErr != nil {
		return nil, scrapeErr
	}
	return cards, nil
}

func selectionText(dom *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(dom.Find(selector).First().Text())
}
