package domain

import "strings"

// Seniority levels in ascending rank order.
const (
	LevelOther      = "other"
	LevelSenior     = "senior"
	LevelLead       = "lead"
	LevelStaff      = "staff"
	LevelPrincipal  = "principal"
	LevelLeadership = "leadership"
)

var levelRanks = map[string]int{
	LevelOther:      0,
	LevelSenior:     1,
	LevelLead:       2,
	LevelStaff:      3,
	LevelPrincipal:  4,
	LevelLeadership: 5,
}

// CategorizeLevel classifies a job title into a seniority level.
// Staff, principal and leadership markers win over a "senior" in the same
// title, so "Senior Staff Engineer" classifies as staff.
func CategorizeLevel(title string) string {
	t := strings.ToLower(title)
	if strings.Contains(t, "staff") {
		return LevelStaff
	}
	if strings.Contains(t, "principal") {
		return LevelPrincipal
	}
	if strings.Contains(t, "director") || strings.Contains(t, "head of") ||
		strings.Contains(t, "vp ") || strings.Contains(t, "vice president") {
		return LevelLeadership
	}
	if strings.Contains(t, "senior") || strings.Contains(t, "sr.") || strings.Contains(t, "sr ") {
		return LevelSenior
	}
	if strings.Contains(t, "lead") {
		return LevelLead
	}
	return LevelOther
}

// LevelRank maps a level name to its numeric rank. Unknown levels rank 0.
func LevelRank(level string) int {
	return levelRanks[level]
}

var aiKeywords = []string{
	"ai", "ml", "machine learning", "llm", "genai", "generative", "gpt", "agent", "automation",
}

// HasAIFocus reports whether a title suggests AI/ML work.
// Matching is plain substring, so "email" matches "ai"; callers use this as a
// coarse signal, not a classifier.
func HasAIFocus(title string) bool {
	t := strings.ToLower(title)
	for _, kw := range aiKeywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}
