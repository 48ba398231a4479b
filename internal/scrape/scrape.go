// Package scrape holds the shared surface of all scrapers: the runtime
// environment handed to each one, the result envelopes they return, and
// the error code taxonomy callers branch on.
package scrape

import (
	"github.com/project-hledam/go-scraper/internal/dateparse"
	"github.com/project-hledam/go-scraper/internal/domain"
)

// Error codes returned in result envelopes.
const (
	CodeScrapeFailed   = "SCRAPE_FAILED"
	CodeAuthRequired   = "AUTH_REQUIRED"
	CodeRateLimited    = "RATE_LIMITED"
	CodeBotBlocked     = "BOT_BLOCKED"
	CodeConfigNotFound = "CONFIG_NOT_FOUND"
	CodeConfigMissing  = "CONFIG_MISSING"
	CodeInvalidParam   = "INVALID_PARAM"
	CodeSelectorBroken = "SELECTOR_BROKEN"
	CodeJDNotFound     = "JD_NOT_FOUND"
	CodeSearchNotFound = "SEARCH_NOT_FOUND"
)

// Env carries the runtime context every scraper needs. One value is built
// at startup and passed down; nothing reads globals.
type Env struct {
	// CacheDir holds search result JSON files.
	CacheDir string
	// ProfileDir holds persistent browser profiles for authenticated
	// sources.
	ProfileDir string
	// ConfigDir holds per-source scraper config JSON files.
	ConfigDir string
	// DebugDir receives failure screenshots. Empty disables them.
	DebugDir string
	// Clock supplies the current time; tests freeze it.
	Clock dateparse.Clock
	// UserAgent is sent on plain HTTP requests.
	UserAgent string
}

// Now returns the env's current time, defaulting to the system clock.
func (e *Env) Now() dateparse.Clock {
	if e.Clock != nil {
		return e.Clock
	}
	return dateparse.SystemClock
}

// SearchResult is the envelope every search operation returns.
type SearchResult struct {
	Status         string       `json:"status"`
	SearchID       string       `json:"search_id,omitempty"`
	Jobs           []domain.Job `json:"jobs"`
	JobCount       int          `json:"job_count"`
	FilteredOut    int          `json:"filtered_out"`
	PagesFetched   int          `json:"pages_fetched"`
	PagesRequested int          `json:"pages_requested"`
	Error          string       `json:"error,omitempty"`
	Code           string       `json:"code,omitempty"`
	Diagnostics    *Diagnostics `json:"diagnostics,omitempty"`
}

// JDResult is the envelope for a single job description scrape.
type JDResult struct {
	Status  string `json:"status"`
	JobID   string `json:"job_id,omitempty"`
	URL     string `json:"url,omitempty"`
	JDText  string `json:"jd_text,omitempty"`
	Posted  string `json:"posted,omitempty"`
	DaysAgo *int   `json:"days_ago,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// JDBatch is the envelope for a batch job description scrape. Items keep
// per-job outcomes; a failed item never fails the batch. Error and Code
// are set only when the batch fails before any item runs.
type JDBatch struct {
	Status    string     `json:"status"`
	Items     []JDResult `json:"items"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Error     string     `json:"error,omitempty"`
	Code      string     `json:"code,omitempty"`
}

// Diagnostics reports per-selector match counts from the first page of a
// config-driven search, so broken selectors are visible without reading
// page source. A count of -1 means the selector itself did not parse.
type Diagnostics struct {
	Engine          string         `json:"engine"`
	URL             string         `json:"url"`
	SelectorMatches map[string]int `json:"selector_matches"`
}

// SearchError builds an error envelope for a failed search. Jobs is an
// empty list, not null, so consumers can always range over it.
func SearchError(err error, code string, pagesRequested int) SearchResult {
	return SearchResult{
		Status:         "error",
		Jobs:           []domain.Job{},
		Error:          err.Error(),
		Code:           code,
		PagesRequested: pagesRequested,
	}
}

// JDError builds an error envelope for a failed JD scrape.
func JDError(jobID string, err error, code string) JDResult {
	return JDResult{Status: "error", JobID: jobID, Error: err.Error(), Code: code}
}

// JDBatchError builds an error envelope for a batch that failed before
// any job was attempted.
func JDBatchError(err error, code string) JDBatch {
	return JDBatch{Status: "error", Items: []JDResult{}, Error: err.Error(), Code: code}
}
