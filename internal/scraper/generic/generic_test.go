package generic

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-hledam/go-scraper/internal/filter"
	"github.com/project-hledam/go-scraper/internal/scrape"
	"github.com/project-hledam/go-scraper/internal/searchcache"
)

func testScraper(t *testing.T) *Scraper {
	fixed := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return &Scraper{
		Env: &scrape.Env{
			CacheDir:  t.TempDir(),
			ConfigDir: t.TempDir(),
			Clock:     func() time.Time { return fixed },
			UserAgent: "test-agent",
		},
	}
}

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(content), 0o644))
}

func TestSearchConfigNotFound(t *testing.T) {
	s := testScraper(t)
	res := s.Search(t.Context(), SearchParams{Name: "nosuchboard", Query: "go"})
	assert.Equal(t, "error", res.Status)
	assert.Equal(t, scrape.CodeConfigNotFound, res.Code)
}

func TestSearchUnknownEngine(t *testing.T) {
	s := testScraper(t)
	writeConfig(t, s.Env.ConfigDir, "weird", `{"engine": "telnet", "id_prefix": "wd_"}`)

	res := s.Search(t.Context(), SearchParams{Name: "weird", Query: "go"})
	assert.Equal(t, "error", res.Status)
	assert.Equal(t, scrape.CodeInvalidParam, res.Code)
}

const boardPage = `<html><body>
<div class="listing">
  <div class="posting">
    <a class="posting-title" href="/job/abc123/">Senior Platform Engineer</a>
    <span class="posting-company">Initech</span>
    <span class="posting-place">Amsterdam</span>
    <time>3 days ago</time>
  </div>
  <div class="posting">
    <a class="posting-title" href="/job/def456/">Junior Developer</a>
    <span class="posting-company">Hooli</span>
    <span class="posting-place">Berlin</span>
  </div>
  <div class="posting">
    <a class="posting-title" href="/about/">Not a job</a>
  </div>
</div>
</body></html>`

func staticConfig(baseURL, prefix string) string {
	return fmt.Sprintf(`{
	  "engine": "beautifulsoup",
	  "id_prefix": "`+prefix+`_",
	  "base_url": %q,
	  "search_url": {"pattern": %q},
	  "pagination": {"type": "url_param", "param": "start", "increment": 10},
	  "delay_ms": 1,
	  "selectors": {
	    "card": ".posting",
	    "title": "a.posting-title",
	    "company": ".posting-company",
	    "location": ".posting-place",
	    "posted": "time"
	  },
	  "url_pattern": {"job_id_regex": "/job/(\\w+)"}
	}`, baseURL, baseURL+"/search?q={query}&l={location}")
}

func TestSearchStaticEngine(t *testing.T) {
	var gotPaths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.URL.String())
		fmt.Fprint(w, boardPage)
	}))
	t.Cleanup(srv.Close)

	s := testScraper(t)
	writeConfig(t, s.Env.ConfigDir, "testboard", staticConfig(srv.URL, "tb"))

	res := s.Search(t.Context(), SearchParams{
		Name:     "testboard",
		Query:    "platform engineer",
		Location: "remote eu",
		MaxPages: 2,
	})
	require.Equal(t, "ok", res.Status, res.Error)
	require.Equal(t, 2, res.JobCount)
	assert.Equal(t, 2, res.PagesFetched)

	first := res.Jobs[0]
	assert.Equal(t, "job_tb_abc123", first.JobID)
	assert.Equal(t, "Senior Platform Engineer", first.Title)
	assert.Equal(t, "Initech", first.Company)
	assert.Equal(t, "Amsterdam", first.Location)
	assert.Equal(t, "testboard", first.Source)
	assert.Equal(t, "senior", first.Level)
	assert.Equal(t, srv.URL+"/job/abc123/", first.URL)
	require.NotNil(t, first.DaysAgo)
	assert.Equal(t, 3, *first.DaysAgo)

	assert.Contains(t, res.SearchID, "search_tb_")

	// The query is slotted into the pattern and page 2 gets the offset.
	// gotPaths may also contain a robots.txt probe.
	assert.Contains(t, gotPaths, "/search?q=platform+engineer&l=remote+eu")
	assert.Contains(t, gotPaths, "/search?q=platform+engineer&l=remote+eu&start=10")

	store := &searchcache.Store{Dir: s.Env.CacheDir}
	rec, err := store.Get(res.SearchID)
	require.NoError(t, err)
	assert.Len(t, rec.AllJobs, 2)
}

func TestSearchStaticEngineFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, boardPage)
	}))
	t.Cleanup(srv.Close)

	s := testScraper(t)
	writeConfig(t, s.Env.ConfigDir, "testboard2", staticConfig(srv.URL, "t2"))

	res := s.Search(t.Context(), SearchParams{
		Name:     "testboard2",
		Query:    "dev",
		MaxPages: 1,
		Filter:   filter.Options{ExcludeCompanies: []string{"hooli"}},
	})
	require.Equal(t, "ok", res.Status, res.Error)
	assert.Equal(t, 1, res.JobCount)
	assert.Equal(t, 1, res.FilteredOut)
}

func TestSearchStaticEngineDiagnostics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, boardPage)
	}))
	t.Cleanup(srv.Close)

	s := testScraper(t)
	writeConfig(t, s.Env.ConfigDir, "diagboard", fmt.Sprintf(`{
	  "engine": "beautifulsoup",
	  "id_prefix": "dg_",
	  "base_url": %q,
	  "search_url": {"pattern": %q},
	  "delay_ms": 1,
	  "selectors": {
	    "card": ".posting",
	    "title": "a.posting-title",
	    "company": ".no-such-class"
	  },
	  "url_pattern": {"job_id_regex": "/job/(\\w+)"}
	}`, srv.URL, srv.URL+"/search?q={query}"))

	res := s.Search(t.Context(), SearchParams{
		Name:        "diagboard",
		Query:       "dev",
		MaxPages:    1,
		Diagnostics: true,
	})
	require.Equal(t, "ok", res.Status, res.Error)
	require.NotNil(t, res.Diagnostics)
	assert.Equal(t, "static", res.Diagnostics.Engine)
	assert.Equal(t, 3, res.Diagnostics.SelectorMatches["card"])
	assert.Equal(t, 3, res.Diagnostics.SelectorMatches["title"])
	// A selector matching nothing reports zero instead of erroring
	assert.Equal(t, 0, res.Diagnostics.SelectorMatches["company"])

	// Without the flag the envelope omits diagnostics
	res = s.Search(t.Context(), SearchParams{Name: "diagboard", Query: "dev", MaxPages: 1})
	require.Equal(t, "ok", res.Status, res.Error)
	assert.Nil(t, res.Diagnostics)
}

func TestSearchStaticEngineHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	s := testScraper(t)
	writeConfig(t, s.Env.ConfigDir, "downboard", staticConfig(srv.URL, "db"))

	res := s.Search(t.Context(), SearchParams{Name: "downboard", Query: "dev"})
	assert.Equal(t, "error", res.Status)
	assert.Equal(t, scrape.CodeScrapeFailed, res.Code)
}

const apiResponse = `{
  "results": [
    {
      "id": 9001,
      "attributes": {"name": "Staff Backend Engineer"},
      "employer": {"name": "Globex"},
      "offices": [{"city": "Rotterdam"}],
      "pay": {"min": 80000, "max": 110000},
      "links": {"self": "https://api.example.com/jobs/9001"},
      "published": "5 days ago"
    }
  ]
}`

func TestSearchAPIEngine(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, apiResponse)
			return
		}
		fmt.Fprint(w, `{"results": []}`)
	}))
	t.Cleanup(srv.Close)

	s := testScraper(t)
	writeConfig(t, s.Env.ConfigDir, "apiboard", fmt.Sprintf(`{
	  "engine": "api",
	  "id_prefix": "ab_",
	  "api_url": %q,
	  "delay_ms": 1,
	  "api_fields": {
	    "job_id": "id",
	    "title": "attributes.name",
	    "company": "employer.name",
	    "location": "offices[0].city",
	    "url": "links.self",
	    "posted": "published",
	    "salary_min": "pay.min",
	    "salary_max": "pay.max"
	  }
	}`, srv.URL))

	res := s.Search(t.Context(), SearchParams{Name: "apiboard", Query: "backend", MaxPages: 3})
	require.Equal(t, "ok", res.Status, res.Error)
	require.Equal(t, 1, res.JobCount)
	// The empty second page stops the loop before page 3
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, res.PagesFetched)

	job := res.Jobs[0]
	assert.Equal(t, "job_ab_9001", job.JobID)
	assert.Equal(t, "Staff Backend Engineer", job.Title)
	assert.Equal(t, "Globex", job.Company)
	assert.Equal(t, "Rotterdam", job.Location)
	assert.Equal(t, "80000 - 110000", job.Salary)
	assert.Equal(t, "https://api.example.com/jobs/9001", job.URL)
	assert.Equal(t, "staff", job.Level)
	require.NotNil(t, job.DaysAgo)
	assert.Equal(t, 5, *job.DaysAgo)
}

func TestSearchAPIEngineBareList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, `[{"id": "x1", "title": "QA Engineer", "company": "Acme", "location": "Prague", "url": "https://jobs.acme.test/x1"}]`)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	t.Cleanup(srv.Close)

	s := testScraper(t)
	writeConfig(t, s.Env.ConfigDir, "bareboard", fmt.Sprintf(`{"engine": "api", "id_prefix": "bl_", "api_url": %q, "delay_ms": 1}`, srv.URL))

	res := s.Search(t.Context(), SearchParams{Name: "bareboard", Query: "qa"})
	require.Equal(t, "ok", res.Status, res.Error)
	require.Equal(t, 1, res.JobCount)
	assert.Equal(t, "job_bl_x1", res.Jobs[0].JobID)
}

func TestRawID(t *testing.T) {
	src := &source{idPrefix: "tb"}
	assert.Equal(t, "abc123", src.rawID("job_tb_abc123"))
	assert.Equal(t, "abc123", src.rawID("tb_abc123"))
	assert.Equal(t, "abc123", src.rawID("abc123"))
}

func TestLoadJDSourceMissingTemplate(t *testing.T) {
	s := testScraper(t)
	writeConfig(t, s.Env.ConfigDir, "notemplate", `{"engine": "api", "id_prefix": "nt_"}`)

	_, code, err := s.loadJDSource("notemplate")
	assert.Error(t, err)
	assert.Equal(t, scrape.CodeConfigMissing, code)

	_, code, err = s.loadJDSource("missing")
	assert.Error(t, err)
	assert.Equal(t, scrape.CodeConfigNotFound, code)
}

func TestBuildSearchURLNoPagination(t *testing.T) {
	s := testScraper(t)
	writeConfig(t, s.Env.ConfigDir, "plain", `{
	  "engine": "api",
	  "id_prefix": "pl_",
	  "base_url": "https://plain.test",
	  "search_url": {"pattern": "https://plain.test/find?kw={query}"}
	}`)
	src, err := s.loadSource("plain")
	require.NoError(t, err)

	assert.Equal(t, "https://plain.test/find?kw=go+dev", buildSearchURL(src, "go dev", "", 1))
	// Page 2 without url_param pagination keeps the same URL
	assert.Equal(t, "https://plain.test/find?kw=go+dev", buildSearchURL(src, "go dev", "", 2))
}
