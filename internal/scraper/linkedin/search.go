package linkedin

import (
	"context"
	"fmt"
	"log"
	"os"
	"regexp"
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

// SearchParams selects what to search for. Region expands to a preset;
// the explicit geo fields override it.
type SearchParams struct {
	Query          string
	Region         string
	GeoID          string
	PreferredGeoID string
	Distance       int
	// Remote distinguishes "unset" from "off" so a preset's remote flag
	// survives unless explicitly overridden.
	Remote   *bool
	Days     int
	MaxPages int
	Filter   filter.Options
}

const (
	pageSettle     = 2 * time.Second
	topPicksSettle = 5 * time.Second
	scrollSettle   = time.Second

	searchScrollRounds   = 5
	topPicksScrollRounds = 8
)

// scrollJS scrolls whichever container holds the job list. The list pane
// lazy-loads cards, so the window scroll position alone does nothing.
const scrollJS = `() => {
	for (const el of document.querySelectorAll('*')) {
		if (el.scrollHeight > el.clientHeight && el.clientHeight > 100) {
			if (el.querySelector('.job-card-container') || el.querySelector('[data-job-id]') || el.querySelector('.jobs-search-results__list-item')) {
				el.scrollTo(0, el.scrollHeight);
				return true;
			}
		}
	}
	return false;
}`

// Card selectors for the recommended-collections page, which uses a
// different DOM than search results.
var altCardSelectors = []string{
	".jobs-search-results__list-item",
	"[data-job-id]",
	".job-card-list__entity-lockup",
	".jobs-job-board-list__item",
	`li[class*="job"]`,
}

var altPlan = scrapecfg.ExtractionPlan{
	Title:      scrapecfg.FieldSource{Selector: `.job-card-list__title, .artdeco-entity-lockup__title, [class*="title"]`},
	Company:    scrapecfg.FieldSource{Selector: `.job-card-container__primary-description, .artdeco-entity-lockup__subtitle, [class*="company"], [class*="subtitle"]`},
	Location:   scrapecfg.FieldSource{Selector: `.job-card-container__metadata-item, .artdeco-entity-lockup__caption, [class*="location"], [class*="caption"]`},
	JobIDRegex: `/jobs/view/(\d+)`,
}

var postedFallbackSelectors = []string{
	".job-card-container__footer-item",
	".job-card-container__listed-time",
}

var agoWords = []string{"ago", "hour", "day", "week", "month"}

// Search scrapes the job search results, paging with the next button.
func (s *Scraper) Search(ctx context.Context, params SearchParams) scrape.SearchResult {
	if params.Days == 0 {
		params.Days = 30
	}
	if params.MaxPages == 0 {
		params.MaxPages = 3
	}
	params.Filter.Days = params.Days

	if err := s.requireProfile(); err != nil {
		return scrape.SearchError(err, scrape.CodeAuthRequired, params.MaxPages)
	}

	cfg := scrapecfg.Load(s.Env.ConfigDir, "linkedin")
	plan := scrapecfg.BuildPlan(cfg, defaultPlan)
	nextPageSelector := cfg.StringValue("pagination.selector", defaultNextPageSelector)

	searchURL := s.buildSearchURL(params.Query, resolveGeo(params), params.Days)
	log.Printf("[LinkedIn] Opening %s", searchURL)

	sess, err := browser.Open(browser.Options{Headless: true, ProfileDir: s.Env.ProfileDir})
	if err != nil {
		return scrape.SearchError(err, scrape.CodeScrapeFailed, params.MaxPages)
	}
	defer sess.Close()

	page, err := sess.Page(ctx, searchURL)
	if err != nil {
		return scrape.SearchError(err, scrape.CodeScrapeFailed, params.MaxPages)
	}
	defer page.Close()
	time.Sleep(pageSettle)

	if code, err := checkBlockedPage(page); err != nil {
		return scrape.SearchError(err, code, params.MaxPages)
	}

	var (
		cards []domain.RawCard
		seen  = map[string]bool{}
	)
	pagesFetched := 0
	for pageNum := 0; pageNum < params.MaxPages; pageNum++ {
		scrollJobList(ctx, page, searchScrollRounds)

		pageCards, err := collectCards(ctx, page, plan)
		if err != nil {
			return scrape.SearchError(err, scrape.CodeScrapeFailed, params.MaxPages)
		}
		pagesFetched++
		for _, card := range pageCards {
			if !seen[card.JobID] {
				seen[card.JobID] = true
				cards = append(cards, card)
			}
		}

		if !clickNextPage(page, nextPageSelector) {
			break
		}
		time.Sleep(pageSettle)
	}

	enriched := s.enrich(cards)
	kept, filteredOut := filter.Apply(enriched, params.Filter)

	store := &searchcache.Store{Dir: s.Env.CacheDir, Clock: s.Env.Now()}
	searchID := store.NewSearchID(jobid.PrefixLinkedIn)
	rec := &searchcache.Record{
		SearchID: searchID,
		Query:    params.Query,
		Location: params.Region,
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

// TopPicks scrapes the personalized recommended-jobs collection, letting
// the site's own ranking surface jobs no query would. Results are not
// cached; there is no query to key them by.
func (s *Scraper) TopPicks(ctx context.Context, opts filter.Options) scrape.SearchResult {
	if err := s.requireProfile(); err != nil {
		return scrape.SearchError(err, scrape.CodeAuthRequired, 1)
	}

	sess, err := browser.Open(browser.Options{Headless: true, ProfileDir: s.Env.ProfileDir})
	if err != nil {
		return scrape.SearchError(err, scrape.CodeScrapeFailed, 1)
	}
	defer sess.Close()

	page, err := sess.Page(ctx, s.baseURL()+"/jobs/")
	if err != nil {
		return scrape.SearchError(err, scrape.CodeScrapeFailed, 1)
	}
	defer page.Close()
	time.Sleep(pageSettle)

	if code, err := checkBlockedPage(page); err != nil {
		return scrape.SearchError(err, code, 1)
	}

	if err := browser.Navigate(ctx, page, s.baseURL()+"/jobs/collections/recommended/"); err != nil {
		return scrape.SearchError(err, scrape.CodeScrapeFailed, 1)
	}
	time.Sleep(topPicksSettle)
	scrollJobList(ctx, page, topPicksScrollRounds)

	cards, err := collectCards(ctx, page, defaultPlan)
	if err != nil {
		return scrape.SearchError(err, scrape.CodeScrapeFailed, 1)
	}
	if len(cards) == 0 {
		cards = collectAltCards(ctx, page)
	}
	if len(cards) == 0 {
		browser.Screenshot(page, s.Env.DebugDir, "top_picks")
	}

	seen := map[string]bool{}
	var deduped []domain.RawCard
	for _, card := range cards {
		if !seen[card.JobID] {
			seen[card.JobID] = true
			deduped = append(deduped, card)
		}
	}

	enriched := s.enrich(deduped)
	kept, filteredOut := filter.Apply(enriched, opts)
	return scrape.SearchResult{
		Status:         "ok",
		Jobs:           kept,
		JobCount:       len(kept),
		FilteredOut:    filteredOut,
		PagesFetched:   1,
		PagesRequested: 1,
	}
}

func (s *Scraper) requireProfile() error {
	if s.Env.ProfileDir == "" {
		return fmt.Errorf("no browser profile configured")
	}
	if _, err := os.Stat(s.Env.ProfileDir); err != nil {
		return fmt.Errorf("not authenticated, run login first")
	}
	return nil
}

// checkBlockedPage inspects the landed URL for the two ways LinkedIn
// refuses a scrape: a logged-out redirect and a verification checkpoint.
func checkBlockedPage(page *rod.Page) (string, error) {
	info, err := page.Info()
	if err != nil {
		return scrape.CodeScrapeFailed, fmt.Errorf("read page info: %w", err)
	}
	if loggedOutURL(info.URL) {
		return scrape.CodeAuthRequired, fmt.Errorf("session expired, run login first")
	}
	if strings.Contains(info.URL, "challenge") || strings.Contains(info.URL, "checkpoint") {
		return scrape.CodeRateLimited, fmt.Errorf("verification required, try again later or re-login")
	}
	return "", nil
}

func loggedOutURL(u string) bool {
	return strings.Contains(u, "login") || strings.Contains(u, "signup")
}

func scrollJobList(ctx context.Context, page *rod.Page, rounds int) {
	for i := 0; i < rounds; i++ {
		res, err := page.Context(ctx).Eval(scrollJS)
		if err != nil || !res.Value.Bool() {
			return
		}
		time.Sleep(scrollSettle)
	}
}

// collectCards runs the extraction plan against every card currently in
// the DOM. Cards without a recognizable job link are skipped.
func collectCards(ctx context.Context, page *rod.Page, plan scrapecfg.ExtractionPlan) ([]domain.RawCard, error) {
	idRe, err := regexp.Compile(plan.JobIDRegex)
	if err != nil {
		return nil, fmt.Errorf("job ID pattern %q: %w", plan.JobIDRegex, err)
	}
	els, err := page.Context(ctx).Elements(plan.Card)
	if err != nil {
		return nil, fmt.Errorf("query cards %q: %w", plan.Card, err)
	}

	var cards []domain.RawCard
	for _, el := range els {
		if card, ok := extractCard(el, plan, idRe); ok {
			cards = append(cards, card)
		}
	}
	return cards, nil
}

func collectAltCards(ctx context.Context, page *rod.Page) []domain.RawCard {
	idRe := regexp.MustCompile(altPlan.JobIDRegex)
	for _, cardSelector := range altCardSelectors {
		els, err := page.Context(ctx).Elements(cardSelector)
		if err != nil || len(els) == 0 {
			continue
		}
		var cards []domain.RawCard
		for _, el := range els {
			if card, ok := extractCard(el, altPlan, idRe); ok {
				cards = append(cards, card)
			}
		}
		if len(cards) > 0 {
			return cards
		}
	}
	return nil
}

func extractCard(el *rod.Element, plan scrapecfg.ExtractionPlan, idRe *regexp.Regexp) (domain.RawCard, bool) {
	href, ok := browser.Attr(el, `a[href*="/jobs/view/"]`, "href")
	if !ok {
		return domain.RawCard{}, false
	}
	m := idRe.FindStringSubmatch(href)
	if m == nil {
		return domain.RawCard{}, false
	}
	id := m[1]

	title, ok := fieldText(el, plan.Title)
	if !ok {
		// The link text carries the title when no dedicated element does
		title, _ = browser.Text(el, `a[href*="/jobs/view/"]`)
	}
	title = CleanTitle(title)

	company, _ := fieldText(el, plan.Company)
	location, _ := fieldText(el, plan.Location)

	postedText, _ := fieldText(el, plan.Posted)
	if postedText == "" {
		postedText = postedFromFooter(el)
	}

	return domain.RawCard{
		JobID:      id,
		Title:      title,
		Company:    company,
		Location:   location,
		URL:        "https://www.linkedin.com/jobs/view/" + id + "/",
		PostedText: postedText,
	}, true
}

func fieldText(el *rod.Element, src scrapecfg.FieldSource) (string, bool) {
	if src.Selector == "" {
		return "", false
	}
	if src.Attr != "" {
		return browser.Attr(el, src.Selector, src.Attr)
	}
	return browser.Text(el, src.Selector)
}

func postedFromFooter(el *rod.Element) string {
	for _, selector := range postedFallbackSelectors {
		text, ok := browser.Text(el, selector)
		if !ok {
			continue
		}
		lower := strings.ToLower(text)
		for _, word := range agoWords {
			if strings.Contains(lower, word) {
				return text
			}
		}
	}
	return ""
}

// CleanTitle keeps the first line of a card title and drops the
// verification badge text the link text carries.
func CleanTitle(title string) string {
	title = strings.TrimSpace(strings.SplitN(title, "\n", 2)[0])
	title = strings.TrimSpace(strings.ReplaceAll(title, " with verification", ""))
	return title
}

func (s *Scraper) enrich(cards []domain.RawCard) []domain.Job {
	jobs := make([]domain.Job, 0, len(cards))
	for _, card := range cards {
		job := domain.Job{
			JobID:    jobid.Canonical(jobid.PrefixLinkedIn, card.JobID),
			Title:    card.Title,
			Company:  card.Company,
			Location: card.Location,
			URL:      card.URL,
			Source:   string(domain.SourceLinkedIn),
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

func clickNextPage(page *rod.Page, selector string) bool {
	ok, el, err := page.Has(selector)
	if err != nil || !ok {
		return false
	}
	// A disabled next button means the last page
	if disabled, err := el.Attribute("disabled"); err != nil || disabled != nil {
		return false
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false
	}
	return true
}
