// Package jobid owns the canonical job ID format shared by every scraper:
// job_<prefix>_<raw>, where the prefix identifies the source. The registry
// here is the single place prefixes are defined; config-driven sources
// register theirs at load time.
package jobid

import (
	"fmt"
	"strings"
	"sync"
)

// Built-in source prefixes.
const (
	PrefixLinkedIn     = "li"
	PrefixJobsCZ       = "cz"
	PrefixStartupJobs  = "sj"
	PrefixEURemoteJobs = "er"
)

var (
	mu       sync.RWMutex
	registry = map[string]string{
		PrefixLinkedIn:     "linkedin",
		PrefixJobsCZ:       "jobs.cz",
		PrefixStartupJobs:  "startupjobs.cz",
		PrefixEURemoteJobs: "euremotejobs.com",
	}
)

// Register adds a prefix for a config-driven source. Registering an existing
// prefix with a different source is an error; re-registering the same pair
// is a no-op so config reloads stay idempotent.
func Register(prefix, source string) error {
	if prefix == "" || source == "" {
		return fmt.Errorf("jobid: empty prefix or source")
	}
	mu.Lock()
	defer mu.Unlock()
	if existing, ok := registry[prefix]; ok && existing != source {
		return fmt.Errorf("jobid: prefix %q already registered for %q", prefix, existing)
	}
	registry[prefix] = source
	return nil
}

// Canonical builds a full job ID from a prefix and raw source ID.
func Canonical(prefix, raw string) string {
	return fmt.Sprintf("job_%s_%s", prefix, raw)
}

// Normalize expands short IDs to the full format: li_123 -> job_li_123.
// Full IDs pass through, bare digits are assumed to be LinkedIn, and
// anything unrecognized is returned unchanged.
func Normalize(id string) string {
	if id == "" {
		return id
	}
	if strings.HasPrefix(id, "job_") {
		return id
	}
	if prefix, _, ok := strings.Cut(id, "_"); ok && known(prefix) {
		return "job_" + id
	}
	if isDigits(id) {
		return Canonical(PrefixLinkedIn, id)
	}
	return id
}

// Split breaks a canonical ID into its prefix and raw source ID.
// Returns ok=false when the ID is not in canonical form or the prefix
// is not registered.
func Split(id string) (prefix, raw string, ok bool) {
	rest, found := strings.CutPrefix(id, "job_")
	if !found {
		return "", "", false
	}
	prefix, raw, found = strings.Cut(rest, "_")
	if !found || raw == "" || !known(prefix) {
		return "", "", false
	}
	return prefix, raw, true
}

// Short converts a canonical ID to its short form: job_li_123 -> li_123.
// Non-canonical input passes through unchanged.
func Short(id string) string {
	if prefix, raw, ok := Split(id); ok {
		return prefix + "_" + raw
	}
	return id
}

// SourceFor resolves a prefix to its source name.
func SourceFor(prefix string) (string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	source, ok := registry[prefix]
	return source, ok
}

func known(prefix string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := registry[prefix]
	return ok
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
