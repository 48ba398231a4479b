package startupjobs

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longParagraphs(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "<p>Paragraph %d: we are looking for an engineer who enjoys building data pipelines and reliable services.</p>", i)
	}
	return b.String()
}

func TestExtractJobIDVariants(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"job_sj_98765", "98765", false},
		{"sj_98765", "98765", false},
		{"98765", "98765", false},
		{"https://www.startupjobs.cz/nabidka/98765/senior-dev", "98765", false},
		{"https://example.com/other", "", true},
	}
	for _, tt := range tests {
		got, err := ExtractJobID(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ExtractJobID(%q)", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestScrapeJDFromSelectors(t *testing.T) {
	page := `<html><body>
	<article>
	  <nav>breadcrumbs</nav>
	  <h1>Senior Go Developer</h1>` + longParagraphs(4) + `
	</article>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	t.Cleanup(srv.Close)

	s := testScraper(t, "http://unused")
	s.URLTemplate = srv.URL + "/nabidka/{id}/{slug}"

	res := s.ScrapeJD("sj_98765")
	require.Equal(t, "ok", res.Status, res.Error)
	assert.Equal(t, "job_sj_98765", res.JobID)
	assert.Contains(t, res.JDText, "# Senior Go Developer")
	assert.Contains(t, res.JDText, "data pipelines")
	assert.NotContains(t, res.JDText, "breadcrumbs")
}

func TestScrapeJDSanitizesMarkup(t *testing.T) {
	page := `<html><body>
	<article>
	  <h1>Data Engineer</h1>` + longParagraphs(4) + `
	  <script>window.track("jd-view")</script>
	  <p onclick="steal()">Apply via <a href="javascript:alert(1)">this link</a>.</p>
	</article>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	t.Cleanup(srv.Close)

	s := testScraper(t, "http://unused")
	s.URLTemplate = srv.URL + "/nabidka/{id}/{slug}"

	res := s.ScrapeJD("sj_7")
	require.Equal(t, "ok", res.Status, res.Error)
	assert.Contains(t, res.JDText, "# Data Engineer")
	// Script bodies, event handlers and javascript: links never reach
	// the markdown output
	assert.NotContains(t, res.JDText, "window.track")
	assert.NotContains(t, res.JDText, "onclick")
	assert.NotContains(t, res.JDText, "javascript:")
}

func TestScrapeJDNuxtFallback(t *testing.T) {
	desc := longParagraphs(4)
	// Nuxt's serializer escapes angle brackets inside the inline JSON
	encoded := strings.ReplaceAll(fmt.Sprintf("%q", desc), "<", `\u003c`)
	payload := fmt.Sprintf(`["meta", %s, 42]`, encoded)
	page := `<html><body>
	<div id="app"></div>
	<script type="application/json" id="__NUXT_DATA__">` + payload + `</script>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	t.Cleanup(srv.Close)

	s := testScraper(t, "http://unused")
	s.URLTemplate = srv.URL + "/nabidka/{id}/{slug}"

	res := s.ScrapeJD("98765")
	require.Equal(t, "ok", res.Status, res.Error)
	assert.Contains(t, res.JDText, "Paragraph 0")
}

func TestScrapeJDTooShort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><article><p>Short teaser.</p></article></body></html>`)
	}))
	t.Cleanup(srv.Close)

	s := testScraper(t, "http://unused")
	s.URLTemplate = srv.URL + "/nabidka/{id}/{slug}"

	res := s.ScrapeJD("12345")
	assert.Equal(t, "error", res.Status)
	assert.Equal(t, "job_sj_12345", res.JobID)
}

func TestScrapeJDsPartialFailure(t *testing.T) {
	page := `<html><body><article>` + longParagraphs(4) + `</article></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/nabidka/500") {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		fmt.Fprint(w, page)
	}))
	t.Cleanup(srv.Close)

	s := testScraper(t, "http://unused")
	s.URLTemplate = srv.URL + "/nabidka/{id}/{slug}"

	batch := s.ScrapeJDs([]string{"sj_1", "sj_500", "sj_2"})
	assert.Equal(t, "ok", batch.Status)
	assert.Equal(t, 2, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)
	require.Len(t, batch.Items, 3)
	assert.Equal(t, "ok", batch.Items[0].Status)
	assert.Equal(t, "error", batch.Items[1].Status)
	// The failure does not stop the remaining jobs
	assert.Equal(t, "ok", batch.Items[2].Status)
}

func TestScrapeJDInvalidID(t *testing.T) {
	s := testScraper(t, "http://unused")
	res := s.ScrapeJD("not-a-valid-id")
	assert.Equal(t, "error", res.Status)
	assert.Equal(t, "INVALID_PARAM", res.Code)
}
