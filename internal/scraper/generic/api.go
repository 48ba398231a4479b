package generic

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/project-hledam/go-scraper/internal/domain"
	"github.com/project-hledam/go-scraper/internal/scrapecfg"
)

// Response keys probed for the item list when the API wraps it in an
// object instead of returning a bare array.
var apiListKeys = []string{"results", "jobs", "member"}

// scrapeAPI pages through a JSON API, mapping response fields to cards
// via the config's api_fields paths.
func (s *Scraper) scrapeAPI(src *source, params SearchParams) ([]domain.RawCard, int, error) {
	apiURL := src.cfg.StringValue("api_url", src.baseURL)
	if apiURL == "" {
		return nil, 0, fmt.Errorf("config has neither api_url nor base_url")
	}

	client := &http.Client{Timeout: 30 * time.Second}

	var (
		cards        []domain.RawCard
		pagesFetched int
	)
	for page := 1; page <= params.MaxPages; page++ {
		q := url.Values{}
		q.Set("q", params.Query)
		if params.Location != "" {
			q.Set("location", params.Location)
		}
		q.Set("page", strconv.Itoa(page))
		pageURL := apiURL + "?" + q.Encode()
		log.Printf("[Generic:%s] Fetching page %d: %s", src.name, page, pageURL)

		items, err := s.fetchAPIPage(client, pageURL)
		if err != nil {
			return nil, pagesFetched, err
		}
		pagesFetched++
		if len(items) == 0 {
			break
		}

		for _, item := range items {
			cards = append(cards, mapAPIItem(src.cfg, item))
		}

		if page < params.MaxPages {
			time.Sleep(src.delay)
		}
	}
	return cards, pagesFetched, nil
}

func (s *Scraper) fetchAPIPage(client *http.Client, pageURL string) ([]any, error) {
	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.Env.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	var data any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	switch v := data.(type) {
	case []any:
		return v, nil
	case map[string]any:
		for _, key := range apiListKeys {
			if list, ok := v[key].([]any); ok {
				return list, nil
			}
		}
	}
	return nil, nil
}

// mapAPIItem resolves the configured field paths against one response
// item. Every mapping has a conventional default, so a minimal config
// works against APIs that use the common field names.
func mapAPIItem(cfg *scrapecfg.Config, item any) domain.RawCard {
	field := func(name, def string) string {
		path := cfg.StringValue("api_fields."+name, def)
		if path == "" {
			return ""
		}
		v, ok := scrapecfg.GetNested(item, path)
		if !ok {
			return ""
		}
		return stringify(v)
	}

	salaryMin := field("salary_min", "")
	salaryMax := field("salary_max", "")
	salary := ""
	switch {
	case salaryMin != "" && salaryMax != "":
		salary = salaryMin + " - " + salaryMax
	case salaryMin != "":
		salary = "from " + salaryMin
	}

	return domain.RawCard{
		JobID:      field("job_id", "id"),
		Title:      field("title", "title"),
		Company:    field("company", "company"),
		Location:   field("location", "location"),
		Salary:     salary,
		URL:        field("url", "url"),
		PostedText: field("posted", "posted"),
	}
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// JSON numbers decode as float64; render integers without decimals
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}
