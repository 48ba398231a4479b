// Package startupjobs scrapes startupjobs.cz. Search talks to the site's
// public JSON API; job descriptions come from the server-rendered detail
// pages with the Nuxt payload as a fallback.
package startupjobs

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
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

const (
	defaultAPIURL      = "https://core.startupjobs.cz/api/search/offers"
	defaultURLTemplate = "https://www.startupjobs.cz/nabidka/{id}/{slug}"
)

// WorkModes are the accepted remote-filter values.
var WorkModes = map[string]string{
	"remote": "remote",
	"hybrid": "hybrid",
	"onsite": "onsite",
}

// SeniorityMap are the accepted seniority-filter values.
var SeniorityMap = map[string]string{
	"junior": "junior",
	"medior": "medior",
	"senior": "senior",
}

// QueryAliases map common search terms to the site's profession slugs.
var QueryAliases = map[string]string{
	"pm":              "product-manager",
	"product":         "product-manager",
	"product manager": "product-manager",
	"program manager": "program-manager",
	"project manager": "project-manager",
	"data scientist":  "data-scientist",
	"data analyst":    "data-analyst",
	"ux":              "ux-designer",
	"ui":              "ui-designer",
	"frontend":        "frontend-developer",
	"backend":         "backend-developer",
	"fullstack":       "fullstack-developer",
	"devops":          "devops",
	"qa":              "qa-engineer",
	"marketing":       "marketing",
	"sales":           "sales",
}

// Scraper scrapes startupjobs.cz.
type Scraper struct {
	Env    *scrape.Env
	Client *http.Client
	// APIURL and URLTemplate override config and defaults, for tests.
	APIURL      string
	URLTemplate string
}

// SearchParams selects what to search for.
type SearchParams struct {
	Query     string
	Location  string
	Remote    string
	Seniority string
	Limit     int
	Filter    filter.Options
}

func (s *Scraper) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (s *Scraper) endpoints() (apiURL, urlTemplate string) {
	cfg := scrapecfg.Load(s.Env.ConfigDir, "startupjobs")
	apiURL = cfg.StringValue("api_url", defaultAPIURL)
	urlTemplate = cfg.StringValue("url_pattern.job_url_template", defaultURLTemplate)
	if s.APIURL != "" {
		apiURL = s.APIURL
	}
	if s.URLTemplate != "" {
		urlTemplate = s.URLTemplate
	}
	return apiURL, urlTemplate
}

// Search queries the offers API, enriches and filters the results, and
// caches them under a new search ID.
func (s *Scraper) Search(params SearchParams) scrape.SearchResult {
	if params.Limit == 0 {
		params.Limit = 50
	}
	apiURL, urlTemplate := s.endpoints()

	reqURL := buildAPIURL(apiURL, params)
	log.Printf("[StartupJobs] Querying %s", reqURL)

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return scrape.SearchError(err, scrape.CodeScrapeFailed, 1)
	}
	s.setHeaders(req)

	resp, err := s.client().Do(req)
	if err != nil {
		return scrape.SearchError(err, scrape.CodeScrapeFailed, 1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return scrape.SearchError(fmt.Errorf("api returned status %d", resp.StatusCode), scrape.CodeScrapeFailed, 1)
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return scrape.SearchError(fmt.Errorf("invalid json: %w", err), scrape.CodeScrapeFailed, 1)
	}

	offers := memberList(payload)
	enriched := make([]domain.Job, 0, len(offers))
	for _, offer := range offers {
		item, ok := offer.(map[string]any)
		if !ok {
			continue
		}
		enriched = append(enriched, s.normalizeOffer(item, urlTemplate))
	}

	kept, filteredOut := filter.Apply(enriched, params.Filter)
	if len(kept) > params.Limit {
		kept = kept[:params.Limit]
	}

	store := &searchcache.Store{Dir: s.Env.CacheDir, Clock: s.Env.Now()}
	searchID := store.NewSearchID(jobid.PrefixStartupJobs)
	rec := &searchcache.Record{
		SearchID: searchID,
		Query:    params.Query,
		Location: params.Location,
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
		return scrape.SearchError(err, scrape.CodeScrapeFailed, 1)
	}

	return scrape.SearchResult{
		Status:         "ok",
		SearchID:       searchID,
		Jobs:           kept,
		JobCount:       len(kept),
		FilteredOut:    filteredOut,
		PagesFetched:   1,
		PagesRequested: 1,
	}
}

func buildAPIURL(apiURL string, params SearchParams) string {
	q := url.Values{}
	q.Set("page", "1")
	q.Set("startupOnly", "false")

	if params.Query != "" {
		query := strings.ToLower(strings.TrimSpace(params.Query))
		slug, ok := QueryAliases[query]
		if !ok {
			slug = strings.ReplaceAll(query, " ", "-")
		}
		q.Add("fields[]", slug)
	}
	if params.Location != "" {
		loc := strings.ToLower(params.Location)
		switch loc {
		case "prague":
			loc = "praha"
		case "pilsen":
			loc = "plzen"
		}
		q.Add("location[]", capitalize(loc))
	}
	if params.Remote != "" {
		mode, ok := WorkModes[strings.ToLower(params.Remote)]
		if !ok {
			mode = params.Remote
		}
		q.Add("workingModel[]", mode)
	}
	if params.Seniority != "" {
		sen, ok := SeniorityMap[strings.ToLower(params.Seniority)]
		if !ok {
			sen = params.Seniority
		}
		q.Add("seniority[]", sen)
	}
	return apiURL + "?" + q.Encode()
}

func (s *Scraper) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", s.Env.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "cs,en;q=0.9")
}

// memberList unwraps the API response, which is either a bare array or a
// JSON-LD collection with a "member" array.
func memberList(payload any) []any {
	switch v := payload.(type) {
	case []any:
		return v
	case map[string]any:
		if member, ok := v["member"].([]any); ok {
			return member
		}
	}
	return nil
}

func (s *Scraper) normalizeOffer(item map[string]any, urlTemplate string) domain.Job {
	displayID := stringOf(item["displayId"])
	if displayID == "" {
		displayID = stringOf(item["id"])
	}

	title := localizedString(item["title"])
	company := ""
	if c, ok := item["company"].(map[string]any); ok {
		company = stringOf(c["name"])
	} else {
		company = stringOf(item["company"])
	}

	location := joinLocations(item)
	workingModels, _ := item["workingModel"].([]any)
	isRemote := false
	for _, m := range workingModels {
		if stringOf(m) == "remote" {
			isRemote = true
		}
	}
	switch {
	case isRemote && location != "":
		location += " (Remote)"
	case isRemote:
		location = "Remote"
	}

	salary := ""
	if sal, ok := item["salary"].(map[string]any); ok {
		salary = formatSalary(sal)
	}

	fullURL := ""
	if displayID != "" {
		fullURL = strings.NewReplacer("{id}", displayID, "{slug}", stringOf(item["slug"])).Replace(urlTemplate)
	}

	job := domain.Job{
		JobID:    jobid.Canonical(jobid.PrefixStartupJobs, displayID),
		Title:    title,
		Company:  company,
		Location: location,
		Salary:   salary,
		URL:      fullURL,
		Source:   string(domain.SourceStartupJobs),
		Level:    domain.CategorizeLevel(title),
		AIFocus:  domain.HasAIFocus(title),
	}

	if posted := stringOf(item["boostedAt"]); posted != "" {
		job.Posted = posted
		if days, ok := dateparse.ParseISODate(posted, s.Env.Now()); ok {
			job.DaysAgo = &days
		}
	}
	return job
}

// localizedString unwraps {cs: ..., en: ...} objects, preferring Czech.
func localizedString(v any) string {
	if m, ok := v.(map[string]any); ok {
		if cs := stringOf(m["cs"]); cs != "" {
			return cs
		}
		return stringOf(m["en"])
	}
	return stringOf(v)
}

// joinLocations flattens the locations array, which has appeared in two
// shapes: [{cs, en}] and [{name: {cs, en}}].
func joinLocations(item map[string]any) string {
	arr, ok := item["locations"].([]any)
	if !ok {
		arr, _ = item["location"].([]any)
	}
	var names []string
	for _, entry := range arr {
		m, ok := entry.(map[string]any)
		if !ok {
			if s := stringOf(entry); s != "" {
				names = append(names, s)
			}
			continue
		}
		if _, hasCS := m["cs"]; hasCS {
			names = append(names, localizedString(m))
		} else if _, hasEN := m["en"]; hasEN {
			names = append(names, localizedString(m))
		} else if name, ok := m["name"]; ok {
			names = append(names, localizedString(name))
		}
	}
	var nonEmpty []string
	for _, n := range names {
		if n != "" {
			nonEmpty = append(nonEmpty, n)
		}
	}
	return strings.Join(nonEmpty, ", ")
}

func formatSalary(sal map[string]any) string {
	minSal := intOf(sal["min"])
	maxSal := intOf(sal["max"])
	currency := stringOf(sal["currency"])
	if currency == "" {
		currency = "CZK"
	}
	measure := stringOf(sal["measure"])
	if measure == "" {
		measure = "month"
	}

	switch {
	case minSal > 0 && maxSal > 0:
		return fmt.Sprintf("%s - %s %s/%s", groupThousands(minSal), groupThousands(maxSal), currency, measure)
	case minSal > 0:
		return fmt.Sprintf("from %s %s/%s", groupThousands(minSal), currency, measure)
	case maxSal > 0:
		return fmt.Sprintf("up to %s %s/%s", groupThousands(maxSal), currency, measure)
	}
	return ""
}

func groupThousands(n int) string {
	s := fmt.Sprint(n)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func stringOf(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		if s == float64(int64(s)) {
			return fmt.Sprint(int64(s))
		}
		return fmt.Sprint(s)
	case nil:
		return ""
	}
	return ""
}

func intOf(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		var i int
		fmt.Sscanf(n, "%d", &i)
		return i
	}
	return 0
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
