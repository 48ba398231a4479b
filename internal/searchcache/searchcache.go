// Package searchcache persists search results as one immutable JSON file
// per search. Files are never rewritten; a new search gets a new ID.
package searchcache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/project-hledam/go-scraper/internal/dateparse"
	"github.com/project-hledam/go-scraper/internal/domain"
)

// Store reads and writes search cache files under Dir.
type Store struct {
	Dir   string
	Clock dateparse.Clock
}

// Filters snapshots the filter options a search ran with.
type Filters struct {
	ExcludeLocations []string `json:"exclude_locations"`
	ExcludeCompanies []string `json:"exclude_companies"`
	MinLevel         string   `json:"min_level,omitempty"`
	AIOnly           bool     `json:"ai_only"`
}

// Record is the cached form of one completed search. Jobs holds the
// post-filter set, AllJobs everything enriched before filtering.
type Record struct {
	SearchID  string       `json:"search_id"`
	Query     string       `json:"query"`
	Location  string       `json:"location,omitempty"`
	Days      int          `json:"days"`
	MaxPages  int          `json:"max_pages"`
	Filters   Filters      `json:"filters"`
	Jobs      []domain.Job `json:"jobs"`
	AllJobs   []domain.Job `json:"all_jobs"`
	CreatedAt string       `json:"created_at"`
}

// NewSearchID builds a unique search ID carrying the source's short
// prefix: search_<prefix>_<hash>.
func (s *Store) NewSearchID(prefix string) string {
	sum := md5.Sum([]byte(dateparse.NowISO(s.Clock)))
	return fmt.Sprintf("search_%s_%s", prefix, hex.EncodeToString(sum[:])[:8])
}

// Write persists a completed search. The record's CreatedAt is stamped
// here so every file carries the same clock the ID was minted from.
func (s *Store) Write(rec *Record) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	rec.CreatedAt = dateparse.NowISO(s.Clock)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal search %s: %w", rec.SearchID, err)
	}
	path := filepath.Join(s.Dir, rec.SearchID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write search cache: %w", err)
	}
	return nil
}

// Get loads a cached search by ID. Returns os.ErrNotExist when no file
// matches, so callers can map it to a not-found envelope.
func (s *Store) Get(searchID string) (*Record, error) {
	if searchID == "" || strings.ContainsAny(searchID, `/\`) {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, searchID+".json"))
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse search cache %s: %w", searchID, err)
	}
	return &rec, nil
}
