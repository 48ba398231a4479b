package research

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-rod/rod"

	"github.com/project-hledam/go-scraper/internal/browser"
)

// EmployerReviews is the employee-sentiment picture of one company.
type EmployerReviews struct {
	Source              string             `json:"source"`
	URL                 string             `json:"url"`
	Rating              float64            `json:"rating,omitempty"`
	ReviewCount         int                `json:"review_count,omitempty"`
	Ratings             map[string]float64 `json:"ratings,omitempty"`
	CEOApproval         string             `json:"ceo_approval,omitempty"`
	RecommendPct        string             `json:"recommend_pct,omitempty"`
	Pros                []string           `json:"pros,omitempty"`
	Cons                []string           `json:"cons,omitempty"`
	InterviewDifficulty float64            `json:"interview_difficulty,omitempty"`
	Error               string             `json:"error,omitempty"`
}

var glassdoorRatingSelectors = []string{
	`[data-test="rating-headline"]`,
	`[class*="ratingNumber"]`,
	`[class*="rating-headline"]`,
}

// Rating breakdown categories paired with the phrases the page uses.
var glassdoorCategories = map[string]string{
	"culture":              "Culture & Values",
	"work_life_balance":    "Work/Life Balance",
	"diversity":            "Diversity & Inclusion",
	"compensation":         "Compensation and Benefits",
	"senior_management":    "Senior Management",
	"career_opportunities": "Career Opportunities",
}

var (
	reviewCountRe   = regexp.MustCompile(`(?i)([\d,]+)\s*reviews?`)
	ceoApprovalRe   = regexp.MustCompile(`(?is)(\d+)%\s*(?:approve|approval).{0,20}CEO`)
	recommendRe     = regexp.MustCompile(`(?i)(\d+)%\s*(?:would )?recommend`)
	difficultyRe    = regexp.MustCompile(`(?i)(?:interview\s+)?difficulty[:\s]*(\d\.?\d?)`)
	leadingFloatRe  = regexp.MustCompile(`^(\d\.?\d?)`)
	categoryScoreRe = `(?is)%s.{0,80}?(\d\.\d)`
)

// Glassdoor extracts ratings and review highlights from a Glassdoor
// employer page.
func (c *Client) Glassdoor(ctx context.Context, url string) EmployerReviews {
	reviews := EmployerReviews{Source: "glassdoor", URL: url}

	sess, page, err := c.open(ctx, url)
	if err != nil {
		reviews.Error = err.Error()
		return reviews
	}
	defer sess.Close()

	if m, ok := c.evalSnippet(ctx, page, "glassdoor"); ok {
		reviews.Rating = snippetFloat(m, "rating")
		reviews.ReviewCount = snippetInt(m, "review_count")
		reviews.CEOApproval = snippetString(m, "ceo_approval")
		reviews.RecommendPct = snippetString(m, "recommend_pct")
		reviews.Pros = snippetStrings(m, "pros")
		reviews.Cons = snippetStrings(m, "cons")
		if reviews.Rating > 0 || reviews.ReviewCount > 0 {
			return reviews
		}
	}

	c.glassdoorFallback(page, &reviews)
	return reviews
}

func (c *Client) glassdoorFallback(page *rod.Page, reviews *EmployerReviews) {
	for _, selector := range glassdoorRatingSelectors {
		text, ok := browser.Text(page, selector)
		if !ok {
			continue
		}
		if rating, ok := parseLeadingFloat(text); ok {
			reviews.Rating = rating
			break
		}
	}

	content := pageContent(page)
	if m := reviewCountRe.FindStringSubmatch(content); m != nil {
		reviews.ReviewCount = parseCount(m[1])
	}

	breakdown := map[string]float64{}
	for key, phrase := range glassdoorCategories {
		re := regexp.MustCompile(fmt.Sprintf(categoryScoreRe, regexp.QuoteMeta(phrase)))
		if m := re.FindStringSubmatch(content); m != nil {
			if score, err := strconv.ParseFloat(m[1], 64); err == nil && score <= 5 {
				breakdown[key] = score
			}
		}
	}
	if len(breakdown) > 0 {
		reviews.Ratings = breakdown
	}

	if m := ceoApprovalRe.FindStringSubmatch(content); m != nil {
		reviews.CEOApproval = m[1] + "%"
	}
	if m := recommendRe.FindStringSubmatch(content); m != nil {
		reviews.RecommendPct = m[1] + "%"
	}
	if m := difficultyRe.FindStringSubmatch(content); m != nil {
		if diff, err := strconv.ParseFloat(m[1], 64); err == nil && diff <= 5 {
			reviews.InterviewDifficulty = diff
		}
	}

	reviews.Pros = reviewBlurbs(page, `[data-test="pros"]`)
	reviews.Cons = reviewBlurbs(page, `[data-test="cons"]`)
}

// reviewBlurbs pulls the first few review excerpts for a selector,
// trimmed to a readable length.
func reviewBlurbs(page *rod.Page, selector string) []string {
	var blurbs []string
	for _, text := range allText(page, selector, maxListExtractions) {
		blurbs = append(blurbs, truncate(text, 200))
	}
	return blurbs
}

func parseLeadingFloat(text string) (float64, bool) {
	m := leadingFloatRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil || f > 5 {
		return 0, false
	}
	return f, true
}

func parseCount(text string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(text, ",", ""))
	if err != nil {
		return 0
	}
	return n
}
