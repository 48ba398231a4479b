// Package generic scrapes any job board described by a config file. The
// config picks one of three engines (browser, static, api) and supplies
// URL patterns and selectors; everything downstream of extraction is
// shared with the built-in scrapers.
package generic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/project-hledam/go-scraper/internal/dateparse"
	"github.com/project-hledam/go-scraper/internal/domain"
	"github.com/project-hledam/go-scraper/internal/filter"
	"github.com/project-hledam/go-scraper/internal/jobid"
	"github.com/project-hledam/go-scraper/internal/scrape"
	"github.com/project-hledam/go-scraper/internal/scrapecfg"
	"github.com/project-hledam/go-scraper/internal/searchcache"
)

// Scraper runs config-driven scrapes.
type Scraper struct {
	Env *scrape.Env
}

// SearchParams selects a configured source and what to search on it.
type SearchParams struct {
	// Name matches the config file name without .json.
	Name     string
	Query    string
	Location string
	MaxPages int
	// Diagnostics adds first-page selector match counts to the result.
	Diagnostics bool
	Filter      filter.Options
}

var defaultPlan = scrapecfg.ExtractionPlan{
	Card:       ".job-card",
	Title:      scrapecfg.FieldSource{Selector: "a"},
	Company:    scrapecfg.FieldSource{Selector: ".company"},
	Location:   scrapecfg.FieldSource{Selector: ".location"},
	Posted:     scrapecfg.FieldSource{Selector: "time"},
	Salary:     scrapecfg.FieldSource{Selector: ".salary"},
	JobIDRegex: `/job/(\w+)`,
}

// source is one loaded config resolved into the fields the engines need.
type source struct {
	name     string
	cfg      *scrapecfg.Config
	plan     scrapecfg.ExtractionPlan
	engine   string
	idPrefix string
	// idAttr names a data attribute carrying the job ID, overriding the
	// href regex.
	idAttr  string
	baseURL string
	pattern string
	delay   time.Duration
}

func (s *Scraper) loadSource(name string) (*source, error) {
	cfg := scrapecfg.Load(s.Env.ConfigDir, name)
	if cfg == nil {
		return nil, fmt.Errorf("no config found for %q", name)
	}

	idPrefix := cfg.StringValue("id_prefix", defaultPrefix(name))
	idPrefix = strings.TrimSuffix(idPrefix, "_")

	engine := cfg.StringValue("engine", "browser")
	switch engine {
	case "playwright":
		engine = "browser"
	case "beautifulsoup":
		engine = "static"
	}

	baseURL := cfg.StringValue("base_url", "")
	src := &source{
		name:     name,
		cfg:      cfg,
		plan:     scrapecfg.BuildPlan(cfg, defaultPlan),
		engine:   engine,
		idPrefix: idPrefix,
		idAttr:   cfg.StringValue("url_pattern.job_id_attr", ""),
		baseURL:  baseURL,
		pattern:  cfg.StringValue("search_url.pattern", baseURL),
		delay:    time.Duration(cfg.IntValue("delay_ms", 2000)) * time.Millisecond,
	}
	return src, nil
}

func defaultPrefix(name string) string {
	if len(name) < 2 {
		return name
	}
	return name[:2]
}

// Search loads the named config, scrapes with its engine, then enriches,
// filters and caches like every other source.
func (s *Scraper) Search(ctx context.Context, params SearchParams) scrape.SearchResult {
	if params.MaxPages == 0 {
		params.MaxPages = 3
	}

	src, err := s.loadSource(params.Name)
	if err != nil {
		return scrape.SearchError(err, scrape.CodeConfigNotFound, params.MaxPages)
	}
	if err := jobid.Register(src.idPrefix, src.name); err != nil {
		return scrape.SearchError(err, scrape.CodeInvalidParam, params.MaxPages)
	}

	var (
		cards        []domain.RawCard
		pagesFetched int
		diag         *scrape.Diagnostics
	)
	switch src.engine {
	case "browser":
		cards, pagesFetched, diag, err = s.scrapeBrowser(ctx, src, params)
	case "static":
		cards, pagesFetched, diag, err = s.scrapeStatic(src, params)
	case "api":
		cards, pagesFetched, err = s.scrapeAPI(src, params)
	default:
		return scrape.SearchError(fmt.Errorf("unknown engine %q", src.engine), scrape.CodeInvalidParam, params.MaxPages)
	}
	if err != nil {
		return scrape.SearchError(err, scrape.CodeScrapeFailed, params.MaxPages)
	}

	enriched := s.enrich(src, cards)
	kept, filteredOut := filter.Apply(enriched, params.Filter)

	store := &searchcache.Store{Dir: s.Env.CacheDir, Clock: s.Env.Now()}
	searchID := store.NewSearchID(src.idPrefix)
	rec := &searchcache.Record{
		SearchID: searchID,
		Query:    params.Query,
		Location: params.Location,
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

	result := scrape.SearchResult{
		Status:         "ok",
		SearchID:       searchID,
		Jobs:           kept,
		JobCount:       len(kept),
		FilteredOut:    filteredOut,
		PagesFetched:   pagesFetched,
		PagesRequested: params.MaxPages,
	}
	if params.Diagnostics {
		result.Diagnostics = diag
	}
	return result
}

// buildSearchURL fills the config's URL pattern. Pagination of type
// url_param appends <param>=<(page-1)*increment>, matching boards that
// count results rather than pages.
func buildSearchURL(src *source, query, location string, page int) string {
	u := strings.ReplaceAll(src.pattern, "{query}", strings.ReplaceAll(query, " ", "+"))
	u = strings.ReplaceAll(u, "{location}", strings.ReplaceAll(location, " ", "+"))

	if src.cfg.StringValue("pagination.type", "") == "url_param" && page > 1 {
		param := src.cfg.StringValue("pagination.param", "page")
		increment := src.cfg.IntValue("pagination.increment", 1)
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u = fmt.Sprintf("%s%s%s=%d", u, sep, param, (page-1)*increment)
	}
	return u
}

func (s *Scraper) enrich(src *source, cards []domain.RawCard) []domain.Job {
	jobs := make([]domain.Job, 0, len(cards))
	for _, card := range cards {
		job := domain.Job{
			JobID:    jobid.Canonical(src.idPrefix, card.JobID),
			Title:    card.Title,
			Company:  card.Company,
			Location: card.Location,
			Salary:   card.Salary,
			URL:      card.URL,
			Source:   src.name,
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
