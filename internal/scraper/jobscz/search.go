// Package jobscz scrapes jobs.cz. Listing pages are plain server-rendered
// HTML, so search runs over HTTP; job detail pages hydrate client-side and
// need a browser.
package jobscz

import (
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/project-hledam/go-scraper/internal/dateparse"
	"github.com/project-hledam/go-scraper/internal/domain"
	"github.com/project-hledam/go-scraper/internal/filter"
	"github.com/project-hledam/go-scraper/internal/jobid"
	"github.com/project-hledam/go-scraper/internal/scrape"
	"github.com/project-hledam/go-scraper/internal/searchcache"
)

// LocationCodes maps location names to jobs.cz locality codes. Empty code
// means country-wide.
var LocationCodes = map[string]string{
	"praha":            "R200000",
	"prague":           "R200000",
	"brno":             "R200001",
	"ostrava":          "R200002",
	"plzen":            "R200003",
	"liberec":          "R200004",
	"olomouc":          "R200005",
	"ceske-budejovice": "R200006",
	"hradec-kralove":   "R200007",
	"pardubice":        "R200008",
	"czech":            "",
	"czechia":          "",
}

// ArrangementOptions maps friendly remote-filter names to the site's
// arrangement parameter values.
var ArrangementOptions = map[string]string{
	"remote":   "work-mostly-from-home",
	"hybrid":   "partial-work-from-home",
	"flexible": "flexible-hours",
}

// Cities used to split the card footer, which concatenates company and
// location without a separator.
var footerCities = []string{"Praha", "Brno", "Ostrava", "Plzeň", "Olomouc", "Remote", "Vzdáleně"}

var (
	jobIDRe    = regexp.MustCompile(`/(?:rpd|fp)/(\d+)`)
	nextPageRe = regexp.MustCompile(`page=\d+`)
)

// Scraper scrapes jobs.cz searches.
type Scraper struct {
	Env *scrape.Env
	// BaseURL overrides the site root, for tests.
	BaseURL string
	// RequestDelay paces page fetches.
	RequestDelay time.Duration
}

// SearchParams selects what to search for.
type SearchParams struct {
	Query    string
	Location string
	// Remote filters by work arrangement: remote, hybrid or flexible.
	Remote   string
	Days     int
	MaxPages int
	Filter   filter.Options
}

func (s *Scraper) baseURL() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return "https://www.jobs.cz"
}

// Search scrapes listing pages, enriches and filters the results, and
// caches them under a new search ID.
func (s *Scraper) Search(params SearchParams) scrape.SearchResult {
	if params.Query == "" {
		return scrape.SearchError(fmt.Errorf("query is required"), scrape.CodeInvalidParam, 0)
	}
	if params.Days == 0 {
		params.Days = 30
	}
	if params.MaxPages == 0 {
		params.MaxPages = 3
	}
	params.Filter.Days = params.Days

	collector := colly.NewCollector(
		colly.UserAgent(s.Env.UserAgent),
		colly.AllowURLRevisit(),
	)
	if s.RequestDelay > 0 {
		collector.Limit(&colly.LimitRule{DomainGlob: "*", Delay: s.RequestDelay})
	}
	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "cs,en;q=0.9")
	})

	var (
		allCards     []domain.RawCard
		seen         = map[string]bool{}
		pagesFetched int
	)

	for page := 1; page <= params.MaxPages; page++ {
		pageURL := s.buildSearchURL(params.Query, params.Location, page, params.Remote)
		log.Printf("[JobsCZ] Fetching page %d: %s", page, pageURL)

		cards, hasNext, err := s.scrapePage(collector, pageURL)
		if err != nil {
			return scrape.SearchError(err, scrape.CodeScrapeFailed, params.MaxPages)
		}
		pagesFetched++

		for _, card := range cards {
			if !seen[card.JobID] {
				seen[card.JobID] = true
				allCards = append(allCards, card)
			}
		}
		if !hasNext {
			break
		}
	}

	enriched := s.enrich(allCards)
	kept, filteredOut := filter.Apply(enriched, params.Filter)

	store := &searchcache.Store{Dir: s.Env.CacheDir, Clock: s.Env.Now()}
	searchID := store.NewSearchID(jobid.PrefixJobsCZ)
	rec := &searchcache.Record{
		SearchID: searchID,
		Query:    params.Query,
		Location: params.Location,
		Days:     params.Days,
		MaxPages: params.MaxPages,
		Filters: searchcache.Filters{
			ExcludeLocations: params.Filter.ExcludeLocations,
			ExcludeCompanies: params.Filter.ExcludeCompanies,
			MinLevel:         params.Filter.MinLevel,
			AIOnly:           params.Filter.AIOnly,
		},
		Jobs:    kept,
		AllJobs: enriched,
	}
	if err := store.Write(rec); err != nil {
		return scrape.SearchError(err, scrape.CodeScrapeFailed, params.MaxPages)
	}

	return scrape.SearchResult{
		Status:         "ok",
		SearchID:       searchID,
		Jobs:           kept,
		JobCount:       len(kept),
		FilteredOut:    filteredOut,
		PagesFetched:   pagesFetched,
		PagesRequested: params.MaxPages,
	}
}

func (s *Scraper) buildSearchURL(query, location string, page int, remote string) string {
	params := url.Values{}
	params.Set("q", query)
	if location != "" {
		if code := LocationCodes[strings.ToLower(location)]; code != "" {
			params.Set("locality[code]", code)
		}
	}
	if page > 1 {
		params.Set("page", fmt.Sprint(page))
	}
	if remote != "" {
		arrangement, ok := ArrangementOptions[strings.ToLower(remote)]
		if !ok {
			arrangement = remote
		}
		params.Set("arrangement", arrangement)
	}
	return s.baseURL() + "/prace/?" + params.Encode()
}

func (s *Scraper) scrapePage(base *colly.Collector, pageURL string) ([]domain.RawCard, bool, error) {
	var (
		cards     []domain.RawCard
		hasNext   bool
		scrapeErr error
	)

	collector := base.Clone()

	collector.OnHTML(".SearchResultCard", func(el *colly.HTMLElement) {
		titleLink := el.DOM.Find(".SearchResultCard__titleLink").First()
		if titleLink.Length() == 0 {
			return
		}
		href, _ := titleLink.Attr("href")
		m := jobIDRe.FindStringSubmatch(href)
		if m == nil {
			return
		}
		title := strings.TrimSpace(titleLink.Text())
		if len(title) < 3 {
			return
		}

		var company, location string
		footer := strings.TrimSpace(el.DOM.Find(".SearchResultCard__footer").First().Text())
		if footer != "" {
			company, location = splitFooter(footer)
		}

		salary := ""
		if salaryEl := el.DOM.Find("[data-test-ad-salary]").First(); salaryEl.Length() > 0 {
			salary = ParseSalaryCZK(salaryEl.Text())
		} else {
			salary = ParseSalaryCZK(el.DOM.Text())
		}

		posted := strings.TrimSpace(el.DOM.Find(".SearchResultCard__status").First().Text())

		fullURL := href
		if !strings.HasPrefix(fullURL, "http") {
			fullURL = el.Request.AbsoluteURL(href)
		}
		if i := strings.IndexByte(fullURL, '?'); i >= 0 {
			fullURL = fullURL[:i]
		}

		cards = append(cards, domain.RawCard{
			JobID:      m[1],
			Title:      title,
			Company:    company,
			Location:   location,
			Salary:     salary,
			URL:        fullURL,
			PostedText: posted,
		})
	})

	collector.OnHTML("a[href]", func(el *colly.HTMLElement) {
		if nextPageRe.MatchString(el.Attr("href")) {
			hasNext = true
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		scrapeErr = fmt.Errorf("fetch %s: %w (status %d)", pageURL, err, r.StatusCode)
	})

	if err := collector.Visit(pageURL); err != nil {
		return nil, false, fmt.Errorf("visit %s: %w", pageURL, err)
	}
	collector.Wait()

	if scrapeErr != nil {
		return nil, false, scrapeErr
	}
	return cards, hasNext, nil
}

// splitFooter separates "Company NamePraha – Karlín" into company and
// location. The site renders them in one element with no separator, so
// the split point is the first known city name.
func splitFooter(footer string) (company, location string) {
	for _, city := range footerCities {
		if idx := strings.Index(footer, city); idx >= 0 {
			return strings.TrimSpace(footer[:idx]), strings.TrimSpace(footer[idx:])
		}
	}
	return footer, ""
}

func (s *Scraper) enrich(cards []domain.RawCard) []domain.Job {
	jobs := make([]domain.Job, 0, len(cards))
	for _, card := range cards {
		job := domain.Job{
			JobID:    jobid.Canonical(jobid.PrefixJobsCZ, card.JobID),
			Title:    card.Title,
			Company:  card.Company,
			Location: card.Location,
			Salary:   card.Salary,
			URL:      card.URL,
			Source:   string(domain.SourceJobsCZ),
			Level:    domain.CategorizeLevel(card.Title),
			AIFocus:  domain.HasAIFocus(card.Title),
		}
		if days, ok := dateparse.DaysAgoCS(card.PostedText); ok {
			job.DaysAgo = &days
			job.Posted = dateparse.DaysToISO(days, s.Env.Now())
		}
		jobs = append(jobs, job)
	}
	return jobs
}
