package startupjobs

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-hledam/go-scraper/internal/filter"
	"github.com/project-hledam/go-scraper/internal/scrape"
)

const offersResponse = `{
  "member": [
    {
      "displayId": 98765,
      "slug": "senior-golang-developer",
      "title": {"cs": "Senior Go vývojář", "en": "Senior Go Developer"},
      "company": {"name": "Acme Labs"},
      "locations": [{"cs": "Praha", "en": "Prague"}],
      "workingModel": ["remote", "hybrid"],
      "salary": {"min": 90000, "max": 140000, "currency": "CZK", "measure": "month"},
      "boostedAt": "2025-06-10T08:00:00Z"
    },
    {
      "id": 11111,
      "slug": "marketing-specialist",
      "title": {"en": "Marketing Specialist"},
      "company": {"name": "Globex"},
      "locations": [{"name": {"cs": "Brno"}}],
      "workingModel": ["onsite"],
      "salary": {"min": 50000}
    }
  ]
}`

func testScraper(t *testing.T, apiURL string) *Scraper {
	fixed := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return &Scraper{
		Env: &scrape.Env{
			CacheDir:  t.TempDir(),
			ConfigDir: t.TempDir(),
			Clock:     func() time.Time { return fixed },
			UserAgent: "test-agent",
		},
		APIURL:      apiURL,
		URLTemplate: "https://www.startupjobs.cz/nabidka/{id}/{slug}",
	}
}

func TestSearch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, offersResponse)
	}))
	t.Cleanup(srv.Close)

	s := testScraper(t, srv.URL)
	res := s.Search(SearchParams{Query: "backend", Location: "prague", Remote: "remote"})
	require.Equal(t, "ok", res.Status, res.Error)
	require.Equal(t, 2, res.JobCount)

	assert.Contains(t, gotQuery, "fields%5B%5D=backend-developer")
	assert.Contains(t, gotQuery, "location%5B%5D=Praha")
	assert.Contains(t, gotQuery, "workingModel%5B%5D=remote")

	first := res.Jobs[0]
	assert.Equal(t, "job_sj_98765", first.JobID)
	assert.Equal(t, "Senior Go vývojář", first.Title)
	assert.Equal(t, "Acme Labs", first.Company)
	assert.Equal(t, "Praha (Remote)", first.Location)
	assert.Equal(t, "90,000 - 140,000 CZK/month", first.Salary)
	assert.Equal(t, "https://www.startupjobs.cz/nabidka/98765/senior-golang-developer", first.URL)
	assert.Equal(t, "startupjobs.cz", first.Source)
	assert.Equal(t, "senior", first.Level)
	require.NotNil(t, first.DaysAgo)
	assert.Equal(t, 5, *first.DaysAgo)
	assert.Equal(t, "2025-06-10T08:00:00Z", first.Posted)

	second := res.Jobs[1]
	// Falls back to id when displayId is absent, en title when cs is absent
	assert.Equal(t, "job_sj_11111", second.JobID)
	assert.Equal(t, "Marketing Specialist", second.Title)
	assert.Equal(t, "Brno", second.Location)
	assert.Equal(t, "from 50,000 CZK/month", second.Salary)
	assert.Nil(t, second.DaysAgo)
}

func TestSearchBareArrayResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"displayId": 7, "title": {"cs": "Tester"}, "company": {"name": "QA House"}}]`)
	}))
	t.Cleanup(srv.Close)

	s := testScraper(t, srv.URL)
	res := s.Search(SearchParams{Query: "qa"})
	require.Equal(t, "ok", res.Status)
	assert.Equal(t, 1, res.JobCount)
	assert.Equal(t, "job_sj_7", res.Jobs[0].JobID)
}

func TestSearchFiltersAndLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, offersResponse)
	}))
	t.Cleanup(srv.Close)

	s := testScraper(t, srv.URL)
	res := s.Search(SearchParams{
		Query:  "backend",
		Filter: filter.Options{ExcludeCompanies: []string{"globex"}},
	})
	require.Equal(t, "ok", res.Status)
	assert.Equal(t, 1, res.JobCount)
	assert.Equal(t, 1, res.FilteredOut)

	res = s.Search(SearchParams{Query: "backend", Limit: 1})
	require.Equal(t, "ok", res.Status)
	assert.Equal(t, 1, res.JobCount)
	assert.Equal(t, 0, res.FilteredOut)
}

func TestSearchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	s := testScraper(t, srv.URL)
	res := s.Search(SearchParams{Query: "qa"})
	assert.Equal(t, "error", res.Status)
	assert.Equal(t, scrape.CodeScrapeFailed, res.Code)
}

func TestBuildAPIURL(t *testing.T) {
	u := buildAPIURL("https://api.example.com/offers", SearchParams{
		Query:     "product manager",
		Location:  "pilsen",
		Seniority: "senior",
	})
	assert.Contains(t, u, "fields%5B%5D=product-manager")
	assert.Contains(t, u, "location%5B%5D=Plzen")
	assert.Contains(t, u, "seniority%5B%5D=senior")
	assert.Contains(t, u, "startupOnly=false")

	// Unaliased queries slugify
	u = buildAPIURL("https://api.example.com/offers", SearchParams{Query: "site reliability engineer"})
	assert.Contains(t, u, "fields%5B%5D=site-reliability-engineer")
}
