package linkedin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-hledam/go-scraper/internal/domain"
	"github.com/project-hledam/go-scraper/internal/scrape"
)

func testScraper(t *testing.T) *Scraper {
	fixed := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return &Scraper{
		Env: &scrape.Env{
			CacheDir:   t.TempDir(),
			ConfigDir:  t.TempDir(),
			ProfileDir: t.TempDir(),
			Clock:      func() time.Time { return fixed },
		},
	}
}

func boolPtr(b bool) *bool { return &b }

func TestScrapeJDsWithoutProfile(t *testing.T) {
	s := testScraper(t)
	s.Env.ProfileDir = ""

	batch := s.ScrapeJDs(t.Context(), []string{"job_li_111", "job_li_222"})
	assert.Equal(t, "error", batch.Status)
	// The envelope carries the cause even when no item ran
	assert.Equal(t, scrape.CodeAuthRequired, batch.Code)
	assert.NotEmpty(t, batch.Error)
	assert.Empty(t, batch.Items)
	assert.Zero(t, batch.Succeeded)
	assert.Zero(t, batch.Failed)
}

func TestResolveGeoPresets(t *testing.T) {
	geo := resolveGeo(SearchParams{Region: "eu_remote"})
	assert.Equal(t, "100506914", geo.GeoID)
	assert.True(t, geo.Remote)
	assert.Empty(t, geo.PreferredGeoID)

	geo = resolveGeo(SearchParams{Region: "prague"})
	assert.Equal(t, "100506914", geo.GeoID)
	assert.Equal(t, "106978326", geo.PreferredGeoID)
	assert.Equal(t, 25, geo.Distance)
	assert.False(t, geo.Remote)

	// Explicit geoId disables the preset
	geo = resolveGeo(SearchParams{Region: "prague", GeoID: "104508036"})
	assert.Equal(t, "104508036", geo.GeoID)
	assert.Empty(t, geo.PreferredGeoID)
	assert.Zero(t, geo.Distance)

	// Explicit remote override survives the preset
	geo = resolveGeo(SearchParams{Region: "germany", Remote: boolPtr(false)})
	assert.Equal(t, "101282230", geo.GeoID)
	assert.False(t, geo.Remote)
}

func TestBuildSearchURL(t *testing.T) {
	s := testScraper(t)

	u := s.buildSearchURL("staff engineer", resolveGeo(SearchParams{Region: "eu_remote"}), 7)
	assert.Contains(t, u, "https://www.linkedin.com/jobs/search/?")
	assert.Contains(t, u, "keywords=staff+engineer")
	assert.Contains(t, u, "f_TPR=r604800")
	assert.Contains(t, u, "geoId=100506914")
	assert.Contains(t, u, "f_WT=2")
	assert.NotContains(t, u, "f_PP=")

	u = s.buildSearchURL("pm", resolveGeo(SearchParams{Region: "prague"}), 30)
	assert.Contains(t, u, "f_PP=106978326")
	assert.Contains(t, u, "distance=25")
	assert.Contains(t, u, "f_TPR=r2592000")
	assert.NotContains(t, u, "f_WT=")

	u = s.buildSearchURL("pm", searchGeo{}, 0)
	assert.NotContains(t, u, "f_TPR=")
}

func TestExtractJobIDVariants(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"job_li_4242424242", "4242424242", false},
		{"li_4242424242", "4242424242", false},
		{"4242424242", "4242424242", false},
		{"https://www.linkedin.com/jobs/view/4242424242/?refId=x", "4242424242", false},
		{"https://example.com/careers/123-title", "", true},
	}
	for _, tt := range tests {
		got, err := ExtractJobID(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ExtractJobID(%q)", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "Staff Engineer", CleanTitle("Staff Engineer with verification"))
	assert.Equal(t, "Staff Engineer", CleanTitle("Staff Engineer\nAcme Corp\nRemote"))
	assert.Equal(t, "Staff Engineer", CleanTitle("  Staff Engineer  "))
}

func TestEnrich(t *testing.T) {
	s := testScraper(t)
	jobs := s.enrich([]domain.RawCard{
		{
			JobID:      "4242424242",
			Title:      "Senior ML Engineer",
			Company:    "Acme",
			Location:   "Prague, Czechia (Remote)",
			URL:        "https://www.linkedin.com/jobs/view/4242424242/",
			PostedText: "2 weeks ago",
		},
		{JobID: "1", Title: "Barista", URL: "https://www.linkedin.com/jobs/view/1/"},
	})
	require.Len(t, jobs, 2)

	first := jobs[0]
	assert.Equal(t, "job_li_4242424242", first.JobID)
	assert.Equal(t, "linkedin", first.Source)
	assert.Equal(t, "senior", first.Level)
	assert.True(t, first.AIFocus)
	require.NotNil(t, first.DaysAgo)
	assert.Equal(t, 14, *first.DaysAgo)
	assert.Equal(t, "2025-06-01", first.Posted[:10])

	second := jobs[1]
	assert.Equal(t, "other", second.Level)
	assert.Nil(t, second.DaysAgo)
	assert.Empty(t, second.Posted)
}
