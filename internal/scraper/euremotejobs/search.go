// Package euremotejobs scrapes euremotejobs.com. The site renders through
// a WordPress job board with load-more pagination, so both search and
// detail scraping run in a browser.
package euremotejobs

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/project-hledam/go-scraper/internal/browser"
	"github.com/project-hledam/go-scraper/internal/dateparse"
	"github.com/project-hledam/go-scraper/internal/domain"
	"github.com/project-hledam/go-scraper/internal/filter"
	"github.com/project-hledam/go-scraper/internal/jobid"
	"github.com/project-hledam/go-scraper/internal/scrape"
	"github.com/project-hledam/go-scraper/internal/scrapecfg"
	"github.com/project-hledam/go-scraper/internal/searchcache"
)

const (
	defaultCardSelector     = `a[href*="/job/"]`
	defaultLoadMoreSelector = `a.load_more_jobs, button.load_more_jobs, [class*="load-more"]`

	initialSettle  = 5 * time.Second
	loadMoreSettle = 2 * time.Second
)

// RegionSlugs map friendly region names to the site's search_region
// parameter values.
var RegionSlugs = map[string]string{
	"emea":        "remote-jobs-emea",
	"eu_remote":   "remote-jobs-emea",
	"europe":      "remote-jobs-europe",
	"italy":       "remote-jobs-italy",
	"germany":     "remote-jobs-germany",
	"france":      "remote-jobs-france",
	"spain":       "remote-jobs-spain",
	"netherlands": "remote-jobs-netherlands",
	"uk":          "remote-jobs-uk",
}

// CategorySlugs are the accepted search_category values.
var CategorySlugs = map[string]string{
	"product":     "product",
	"engineering": "engineering",
	"design":      "design",
	"marketing":   "marketing",
	"sales":       "sales",
	"operations":  "operations",
}

// LevelSlugs map experience levels to the site's search_level values.
var LevelSlugs = map[string]string{
	"entry":  "entry-level",
	"junior": "1-2-years",
	"mid":    "3-4-years",
	"senior": "5-years",
}

// Scraper scrapes euremotejobs.com.
type Scraper struct {
	Env *scrape.Env
	// BaseURL overrides the site root, for tests.
	BaseURL string
}

// SearchParams selects what to search for.
type SearchParams struct {
	Query      string
	Region     string
	Category   string
	Level      string
	HighSalary bool
	Days       int
	// MaxLoads caps load-more clicks; each load adds roughly 20 jobs.
	MaxLoads int
	Filter   filter.Options
}

func (s *Scraper) baseURL() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return "https://euremotejobs.com"
}

// Search drives a headless browser through the listing page, clicking
// load-more up to MaxLoads times, then enriches, filters and caches.
func (s *Scraper) Search(ctx context.Context, params SearchParams) scrape.SearchResult {
	if params.Days == 0 {
		params.Days = 30
	}
	if params.MaxLoads == 0 {
		params.MaxLoads = 3
	}
	params.Filter.Days = params.Days

	cfg := scrapecfg.Load(s.Env.ConfigDir, "euremotejobs")
	cardSelector := cfg.Selector("card", defaultCardSelector)
	loadMoreSelector := cfg.StringValue("pagination.selector", defaultLoadMoreSelector)

	searchURL := s.buildSearchURL(params)
	log.Printf("[EURemoteJobs] Opening %s", searchURL)

	sess, err := browser.Open(browser.Options{Headless: true})
	if err != nil {
		return scrape.SearchError(err, scrape.CodeScrapeFailed, params.MaxLoads)
	}
	defer sess.Close()

	page, err := sess.Page(ctx, searchURL)
	if err != nil {
		return scrape.SearchError(err, scrape.CodeScrapeFailed, params.MaxLoads)
	}
	defer page.Close()
	time.Sleep(initialSettle)

	var (
		cards []domain.RawCard
		seen  = map[string]bool{}
	)
	loads := 0
	for load := 0; load < params.MaxLoads; load++ {
		pageCards, err := collectCards(ctx, page, cardSelector)
		if err != nil {
			return scrape.SearchError(err, scrape.CodeScrapeFailed, params.MaxLoads)
		}
		loads++
		for _, card := range pageCards {
			if !seen[card.JobID] {
				seen[card.JobID] = true
				cards = append(cards, card)
			}
		}

		if !clickLoadMore(page, loadMoreSelector) {
			break
		}
		time.Sleep(loadMoreSettle)
	}

	enriched := s.enrich(cards)
	kept, filteredOut := filter.Apply(enriched, params.Filter)

	store := &searchcache.Store{Dir: s.Env.CacheDir, Clock: s.Env.Now()}
	searchID := store.NewSearchID(jobid.PrefixEURemoteJobs)
	rec := &searchcache.Record{
		SearchID: searchID,
		Query:    params.Query,
		Location: params.Region,
		Days:     params.Days,
		MaxPages: params.MaxLoads,
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
		return scrape.SearchError(err, scrape.CodeScrapeFailed, params.MaxLoads)
	}

	return scrape.SearchResult{
		Status:         "ok",
		SearchID:       searchID,
		Jobs:           kept,
		JobCount:       len(kept),
		FilteredOut:    filteredOut,
		PagesFetched:   loads,
		PagesRequested: params.MaxLoads,
	}
}

func (s *Scraper) buildSearchURL(params SearchParams) string {
	parts := []string{"search_keywords=" + strings.ReplaceAll(params.Query, " ", "+")}

	if params.Region != "" {
		slug, ok := RegionSlugs[strings.ToLower(params.Region)]
		if !ok {
			slug = params.Region
		}
		parts = append(parts, "search_region="+slug)
	}
	parts = append(parts, "search_type=full-time")
	if params.HighSalary {
		parts = append(parts, "high_salary=1")
	}
	if params.Level != "" {
		slug, ok := LevelSlugs[strings.ToLower(params.Level)]
		if !ok {
			slug = LevelSlugs["senior"]
		}
		parts = append(parts, "search_level="+slug)
	}
	if params.Category != "" {
		slug, ok := CategorySlugs[strings.ToLower(params.Category)]
		if !ok {
			slug = params.Category
		}
		parts = append(parts, "search_category="+slug)
	}
	return s.baseURL() + "/?" + strings.Join(parts, "&")
}

// collectCards reads every job link currently in the DOM and parses its
// text block into a raw card.
func collectCards(ctx context.Context, page *rod.Page, cardSelector string) ([]domain.RawCard, error) {
	links, err := page.Context(ctx).Elements(cardSelector)
	if err != nil {
		return nil, fmt.Errorf("query cards %q: %w", cardSelector, err)
	}

	var cards []domain.RawCard
	for _, link := range links {
		href, err := link.Attribute("href")
		if err != nil || href == nil {
			continue
		}
		// innerText keeps the card's visual line structure
		res, err := link.Eval(`() => this.innerText`)
		if err != nil {
			continue
		}
		card, ok := ParseCard(res.Value.Str(), *href, "https://euremotejobs.com")
		if ok {
			cards = append(cards, card)
		}
	}
	return cards, nil
}

func clickLoadMore(page *rod.Page, selector string) bool {
	ok, el, err := page.Has(selector)
	if err != nil || !ok {
		return false
	}
	visible, err := el.Visible()
	if err != nil || !visible {
		return false
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false
	}
	return true
}

func (s *Scraper) enrich(cards []domain.RawCard) []domain.Job {
	jobs := make([]domain.Job, 0, len(cards))
	for _, card := range cards {
		job := domain.Job{
			JobID:    jobid.Canonical(jobid.PrefixEURemoteJobs, card.JobID),
			Title:    card.Title,
			Company:  card.Company,
			Location: card.Location,
			Salary:   card.Salary,
			URL:      card.URL,
			Source:   string(domain.SourceEURemoteJobs),
			Level:    domain.CategorizeLevel(card.Title),
			AIFocus:  domain.HasAIFocus(card.Title),
		}
		if days, ok := dateparse.DaysAgoEN(card.PostedText); ok {
			job.DaysAgo = &days
			job.Posted = dateparse.DaysToISO(days, s.Env.Now())
		}
		jobs = append(jobs, job)
	}
	return jobs
}
