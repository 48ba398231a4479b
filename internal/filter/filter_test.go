package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-hledam/go-scraper/internal/domain"
)

func intPtr(n int) *int { return &n }

func job(title, company, location string, daysAgo *int) domain.Job {
	return domain.Job{
		JobID:    "job_li_1",
		Title:    title,
		Company:  company,
		Location: location,
		Level:    domain.CategorizeLevel(title),
		AIFocus:  domain.HasAIFocus(title),
		DaysAgo:  daysAgo,
	}
}

func TestApplyDaysFilter(t *testing.T) {
	jobs := []domain.Job{
		job("Engineer", "Acme", "Prague", intPtr(5)),
		job("Engineer", "Acme", "Prague", intPtr(40)),
		// Unknown age is never filtered by days
		job("Engineer", "Acme", "Prague", nil),
	}

	kept, filteredOut := Apply(jobs, Options{Days: 30})
	assert.Len(t, kept, 2)
	assert.Equal(t, 1, filteredOut)

	// Days of zero disables the check
	kept, filteredOut = Apply(jobs, Options{})
	assert.Len(t, kept, 3)
	assert.Equal(t, 0, filteredOut)
}

func TestApplyExcludes(t *testing.T) {
	jobs := []domain.Job{
		job("Engineer", "Acme", "Prague, Czechia", nil),
		job("Engineer", "Initech", "Berlin, Germany", nil),
		job("Engineer", "Globex", "Remote", nil),
	}

	kept, filteredOut := Apply(jobs, Options{ExcludeLocations: []string{"berlin"}})
	require.Len(t, kept, 2)
	assert.Equal(t, 1, filteredOut)

	kept, filteredOut = Apply(jobs, Options{ExcludeCompanies: []string{"GLOBEX"}})
	require.Len(t, kept, 2)
	assert.Equal(t, 1, filteredOut)
}

func TestApplyLevelAndAI(t *testing.T) {
	jobs := []domain.Job{
		job("Junior Developer", "Acme", "", nil),
		job("Senior ML Engineer", "Acme", "", nil),
		job("Staff Engineer", "Acme", "", nil),
	}

	kept, filteredOut := Apply(jobs, Options{MinLevel: domain.LevelSenior})
	require.Len(t, kept, 2)
	assert.Equal(t, 1, filteredOut)

	kept, filteredOut = Apply(jobs, Options{AIOnly: true})
	require.Len(t, kept, 1)
	assert.Equal(t, "Senior ML Engineer", kept[0].Title)
	assert.Equal(t, 2, filteredOut)
}

func TestRejectedJobCountsOnce(t *testing.T) {
	// Fails days, location, company, level and AI checks at once
	jobs := []domain.Job{
		job("Junior Developer", "Globex", "Berlin", intPtr(90)),
	}

	kept, filteredOut := Apply(jobs, Options{
		Days:             30,
		ExcludeLocations: []string{"berlin"},
		ExcludeCompanies: []string{"globex"},
		MinLevel:         domain.LevelSenior,
		AIOnly:           true,
	})
	assert.Empty(t, kept)
	assert.Equal(t, 1, filteredOut)
}

func TestFilterOrderPreservesJobs(t *testing.T) {
	jobs := []domain.Job{
		job("Staff AI Engineer", "Acme", "Prague", intPtr(2)),
		job("Principal ML Engineer", "Initech", "Remote", intPtr(1)),
	}

	kept, filteredOut := Apply(jobs, Options{Days: 30, MinLevel: domain.LevelSenior, AIOnly: true})
	require.Len(t, kept, 2)
	assert.Equal(t, 0, filteredOut)
	// Input order is preserved
	assert.Equal(t, "Staff AI Engineer", kept[0].Title)
}
