// Package linkedin scrapes LinkedIn job search, recommendations and job
// descriptions through an authenticated persistent browser profile.
package linkedin

import (
	"net/url"
	"strconv"

	"github.com/project-hledam/go-scraper/internal/scrape"
	"github.com/project-hledam/go-scraper/internal/scrapecfg"
)

// Scraper scrapes linkedin.com. All operations need a logged-in profile
// except Login itself.
type Scraper struct {
	Env *scrape.Env
	// BaseURL overrides the site root, for tests.
	BaseURL string
}

// GeoIDs maps region and country names to LinkedIn geoId codes, used
// directly in the geoId URL parameter.
var GeoIDs = map[string]string{
	"europe":      "100506914",
	"czechia":     "104508036",
	"prague":      "106978326",
	"netherlands": "102890719",
	"germany":     "101282230",
	"france":      "105015875",
	"spain":       "105646813",
	"italy":       "103350119",
	"poland":      "105072130",
	"portugal":    "100364837",
	"ireland":     "104738515",
	"belgium":     "100565514",
	"switzerland": "106693272",
	"sweden":      "105117694",
}

// RegionPreset bundles the geo parameters one region name expands to.
type RegionPreset struct {
	GeoID string
	// PreferredGeoID feeds f_PP, narrowing results toward one city.
	PreferredGeoID string
	// Distance is the search radius in km around the preferred location.
	Distance int
	Remote   bool
}

// RegionPresets are the supported region shortcuts. The prague preset
// searches Europe-wide but prefers Prague-area postings.
var RegionPresets = map[string]RegionPreset{
	"eu_remote":   {GeoID: GeoIDs["europe"], Remote: true},
	"prague":      {GeoID: GeoIDs["europe"], PreferredGeoID: GeoIDs["prague"], Distance: 25},
	"netherlands": {GeoID: GeoIDs["netherlands"], Remote: true},
	"germany":     {GeoID: GeoIDs["germany"], Remote: true},
	"spain":       {GeoID: GeoIDs["spain"], Remote: true},
	"france":      {GeoID: GeoIDs["france"], Remote: true},
	"italy":       {GeoID: GeoIDs["italy"], Remote: true},
	"poland":      {GeoID: GeoIDs["poland"], Remote: true},
	"ireland":     {GeoID: GeoIDs["ireland"], Remote: true},
	"portugal":    {GeoID: GeoIDs["portugal"], Remote: true},
	"czechia":     {GeoID: GeoIDs["czechia"], Remote: true},
}

var defaultPlan = scrapecfg.ExtractionPlan{
	Card:       ".job-card-container",
	Title:      scrapecfg.FieldSource{Selector: `a[href*="/jobs/view/"]`},
	Company:    scrapecfg.FieldSource{Selector: ".artdeco-entity-lockup__subtitle"},
	Location:   scrapecfg.FieldSource{Selector: ".artdeco-entity-lockup__caption"},
	Posted:     scrapecfg.FieldSource{Selector: "time"},
	JobIDRegex: `/jobs/view/(\d+)`,
}

const defaultNextPageSelector = `button[aria-label="View next page"]`

func (s *Scraper) baseURL() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return "https://www.linkedin.com"
}

// searchGeo is the resolved set of geo parameters for one search.
type searchGeo struct {
	GeoID          string
	PreferredGeoID string
	Distance       int
	Remote         bool
}

// resolveGeo applies the region preset unless explicit geo params
// override it. An explicit GeoID disables the preset entirely.
func resolveGeo(params SearchParams) searchGeo {
	geo := searchGeo{
		GeoID:          params.GeoID,
		PreferredGeoID: params.PreferredGeoID,
		Distance:       params.Distance,
		Remote:         params.Remote != nil && *params.Remote,
	}
	if params.GeoID != "" {
		return geo
	}
	preset, ok := RegionPresets[params.Region]
	if !ok {
		return geo
	}
	geo.GeoID = preset.GeoID
	if params.PreferredGeoID == "" {
		geo.PreferredGeoID = preset.PreferredGeoID
	}
	if params.Distance == 0 {
		geo.Distance = preset.Distance
	}
	if params.Remote == nil {
		geo.Remote = preset.Remote
	}
	return geo
}

// buildSearchURL builds a job search URL. The f_TPR parameter filters by
// posting age in seconds.
func (s *Scraper) buildSearchURL(query string, geo searchGeo, days int) string {
	q := url.Values{}
	q.Set("keywords", query)
	if days > 0 {
		q.Set("f_TPR", "r"+strconv.Itoa(days*24*60*60))
	}
	if geo.GeoID != "" {
		q.Set("geoId", geo.GeoID)
	}
	if geo.PreferredGeoID != "" {
		q.Set("f_PP", geo.PreferredGeoID)
	}
	if geo.Distance > 0 {
		q.Set("distance", strconv.Itoa(geo.Distance))
	}
	if geo.Remote {
		q.Set("f_WT", "2")
	}
	return s.baseURL() + "/jobs/search/?" + q.Encode()
}
