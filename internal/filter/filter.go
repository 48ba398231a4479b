// Package filter applies post-scrape filters to enriched jobs. Every
// search scraper runs the same chain in the same order, so the
// filtered_out count means the same thing across sources.
package filter

import (
	"strings"

	"github.com/project-hledam/go-scraper/internal/domain"
)

// Options selects which jobs survive a search.
type Options struct {
	// Days drops jobs older than N days. Only applies when the job's
	// posting age is known; 0 disables the check.
	Days int
	// ExcludeLocations drops jobs whose location contains any entry
	// (case-insensitive substring).
	ExcludeLocations []string
	// ExcludeCompanies drops jobs whose company contains any entry.
	ExcludeCompanies []string
	// MinLevel drops jobs ranked below this level.
	MinLevel string
	// AIOnly keeps only jobs flagged ai_focus.
	AIOnly bool
}

// Apply runs the filter chain over enriched jobs. Checks run in a fixed
// order (staleness, location, company, level, AI) and a rejected job
// counts once toward filteredOut no matter how many checks it fails.
func Apply(jobs []domain.Job, opts Options) (kept []domain.Job, filteredOut int) {
	kept = make([]domain.Job, 0, len(jobs))

	for _, job := range jobs {
		if opts.Days > 0 && job.DaysAgo != nil && *job.DaysAgo > opts.Days {
			filteredOut++
			continue
		}

		if containsAny(job.Location, opts.ExcludeLocations) {
			filteredOut++
			continue
		}

		if containsAny(job.Company, opts.ExcludeCompanies) {
			filteredOut++
			continue
		}

		if opts.MinLevel != "" && domain.LevelRank(job.Level) < domain.LevelRank(opts.MinLevel) {
			filteredOut++
			continue
		}

		if opts.AIOnly && !job.AIFocus {
			filteredOut++
			continue
		}

		kept = append(kept, job)
	}

	return kept, filteredOut
}

func containsAny(value string, needles []string) bool {
	if len(needles) == 0 {
		return false
	}
	v := strings.ToLower(value)
	for _, needle := range needles {
		if needle != "" && strings.Contains(v, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}
