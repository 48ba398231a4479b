package scrapecfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(content), 0o644))
}

func TestLoadMissingOrInvalid(t *testing.T) {
	dir := t.TempDir()
	assert.Nil(t, Load(dir, "nope"))

	writeConfig(t, dir, "broken", "{not json")
	assert.Nil(t, Load(dir, "broken"))
}

func TestNilConfigFallsBack(t *testing.T) {
	var c *Config
	assert.Equal(t, ".job-card", c.Selector("card", ".job-card"))
	assert.Equal(t, "browser", c.StringValue("engine", "browser"))
	assert.Equal(t, 3, c.IntValue("pagination.max_pages", 3))
	assert.True(t, c.BoolValue("jd.use_jsonld", true))
	assert.Nil(t, c.Strings("jd.selectors"))
	assert.Nil(t, c.Value("anything.at.all"))
}

func TestAccessors(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "site", `{
		"engine": "static",
		"selectors": {"card": ".result", "title": "h2 a", "empty": ""},
		"pagination": {"type": "url_param", "max_pages": 5},
		"jd": {"use_jsonld": false, "selectors": [".jd-body", "article"]},
		"headers": {"Accept-Language": "en"}
	}`)

	c := Load(dir, "site")
	require.NotNil(t, c)

	assert.Equal(t, ".result", c.Selector("card", ".fallback"))
	assert.Equal(t, "h2 a", c.Selector("title", "a"))
	// Empty string falls back, same as missing
	assert.Equal(t, "time", c.Selector("empty", "time"))
	assert.Equal(t, "time", c.Selector("missing", "time"))

	assert.Equal(t, "static", c.StringValue("engine", "browser"))
	assert.Equal(t, "url_param", c.StringValue("pagination.type", "scroll"))
	assert.Equal(t, 5, c.IntValue("pagination.max_pages", 3))
	assert.Equal(t, 9, c.IntValue("pagination.missing", 9))
	assert.False(t, c.BoolValue("jd.use_jsonld", true))
	assert.Equal(t, []string{".jd-body", "article"}, c.Strings("jd.selectors"))
	assert.Equal(t, map[string]string{"Accept-Language": "en"}, c.StringMap("headers"))

	// Traversing through a non-object returns the default
	assert.Equal(t, "x", c.StringValue("engine.deeper", "x"))
}

func TestBuildPlanFallbacks(t *testing.T) {
	def := ExtractionPlan{
		Card:       ".job-card",
		Title:      FieldSource{Selector: "a.title"},
		Company:    FieldSource{Selector: ".employer"},
		Location:   FieldSource{Selector: ".place"},
		Posted:     FieldSource{Selector: "time", Attr: "datetime"},
		JobIDRegex: `/position/(\d+)`,
	}

	// No config at all keeps the default plan
	assert.Equal(t, def, BuildPlan(nil, def))

	// Config without a card selector keeps the default plan
	dir := t.TempDir()
	writeConfig(t, dir, "partial", `{"selectors": {"title": "h3"}}`)
	assert.Equal(t, def, BuildPlan(Load(dir, "partial"), def))

	// Full override builds from config with per-field defaults
	writeConfig(t, dir, "full", `{
		"selectors": {"card": ".listing", "title": "h2 > a", "company": ".org"},
		"url_pattern": {"job_id_regex": "/offers/([a-z0-9-]+)"}
	}`)
	plan := BuildPlan(Load(dir, "full"), def)
	assert.Equal(t, ".listing", plan.Card)
	assert.Equal(t, "h2 > a", plan.Title.Selector)
	assert.Equal(t, ".org", plan.Company.Selector)
	assert.Equal(t, ".location", plan.Location.Selector)
	assert.Equal(t, "time", plan.Posted.Selector)
	assert.Equal(t, "/offers/([a-z0-9-]+)", plan.JobIDRegex)
}

func TestBuildPlanKeepsQuotedSelectors(t *testing.T) {
	// Selectors with quotes must survive verbatim
	dir := t.TempDir()
	writeConfig(t, dir, "quoted", `{
		"selectors": {"card": "div[data-test='job-card']", "title": "a[href*=\"detail\"]"}
	}`)
	plan := BuildPlan(Load(dir, "quoted"), ExtractionPlan{Card: ".x"})
	assert.Equal(t, `div[data-test='job-card']`, plan.Card)
	assert.Equal(t, `a[href*="detail"]`, plan.Title.Selector)
}

func TestGetNested(t *testing.T) {
	var doc any = map[string]any{
		"data": map[string]any{
			"jobs": []any{
				map[string]any{"title": "Engineer", "company": map[string]any{"name": "Acme"}},
				map[string]any{"title": "Designer"},
			},
			"total": float64(2),
		},
	}

	v, ok := GetNested(doc, "data.total")
	require.True(t, ok)
	assert.Equal(t, float64(2), v)

	v, ok = GetNested(doc, "data.jobs[0].company.name")
	require.True(t, ok)
	assert.Equal(t, "Acme", v)

	v, ok = GetNested(doc, "data.jobs[1].title")
	require.True(t, ok)
	assert.Equal(t, "Designer", v)

	_, ok = GetNested(doc, "data.jobs[5].title")
	assert.False(t, ok)
	_, ok = GetNested(doc, "data.missing")
	assert.False(t, ok)
	_, ok = GetNested(doc, "data.total.deeper")
	assert.False(t, ok)
}
