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

// ProductReviews is the market picture of one company's product.
type ProductReviews struct {
	Source       string            `json:"source"`
	URL          string            `json:"url"`
	Product      string            `json:"product,omitempty"`
	Rating       float64           `json:"rating,omitempty"`
	ReviewCount  int               `json:"review_count,omitempty"`
	Rank         string            `json:"rank,omitempty"`
	Badges       []string          `json:"badges,omitempty"`
	Satisfaction map[string]string `json:"satisfaction,omitempty"`
	Pros         []string          `json:"pros,omitempty"`
	Cons         []string          `json:"cons,omitempty"`
	Alternatives []string          `json:"alternatives,omitempty"`
	Error        string            `json:"error,omitempty"`
}

var g2NameSelectors = []string{
	`h1[class*="product"]`,
	`[itemprop="name"]`,
	"h1",
}

// Satisfaction categories paired with the labels G2 renders.
var g2Categories = map[string]string{
	"ease_of_use":        "Ease of Use",
	"quality_support":    "Quality of Support",
	"ease_of_setup":      "Ease of Setup",
	"ease_of_admin":      "Ease of Admin",
	"meets_requirements": "Meets Requirements",
}

var (
	ratingValueRe = regexp.MustCompile(`(?i)ratingValue["\s:]+(\d\.?\d?)`)
	g2RankRe      = regexp.MustCompile(`#(\d+)\s+in\s+([^<\n]+)`)
	g2ScoreRe     = `(?is)%s.{0,80}?(\d+(?:\.\d)?)\s*(/\s*10|%%)`
	likeHeaderRe  = regexp.MustCompile(`(?i)what do you (like|dislike)`)
)

// G2 extracts product ratings and competitive standing from a G2
// product page.
func (c *Client) G2(ctx context.Context, url string) ProductReviews {
	reviews := ProductReviews{Source: "g2", URL: url}

	sess, page, err := c.open(ctx, url)
	if err != nil {
		reviews.Error = err.Error()
		return reviews
	}
	defer sess.Close()

	if m, ok := c.evalSnippet(ctx, page, "g2"); ok {
		reviews.Product = snippetString(m, "product")
		reviews.Rating = snippetFloat(m, "rating")
		reviews.ReviewCount = snippetInt(m, "review_count")
		reviews.Rank = snippetString(m, "rank")
		reviews.Pros = snippetStrings(m, "pros")
		reviews.Cons = snippetStrings(m, "cons")
		reviews.Alternatives = snippetStrings(m, "alternatives")
		if reviews.Rating > 0 || reviews.Product != "" {
			return reviews
		}
	}

	c.g2Fallback(page, &reviews)
	return reviews
}

func (c *Client) g2Fallback(page *rod.Page, reviews *ProductReviews) {
	for _, selector := range g2NameSelectors {
		text, ok := browser.Text(page, selector)
		if ok {
			if name := strings.TrimSpace(text); name != "" && len(name) < 100 {
				reviews.Product = name
				break
			}
		}
	}

	content := pageContent(page)

	if rating, ok := g2Rating(page); ok {
		reviews.Rating = rating
	} else if m := ratingValueRe.FindStringSubmatch(content); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil && f <= 5 {
			reviews.Rating = f
		}
	}

	if m := reviewCountRe.FindStringSubmatch(content); m != nil {
		reviews.ReviewCount = parseCount(m[1])
	}

	if m := g2RankRe.FindStringSubmatch(content); m != nil {
		reviews.Rank = "#" + m[1] + " in " + strings.TrimSpace(m[2])
	}
	reviews.Badges = dedupeShort(allText(page, `[class*="badge"] [class*="title"]`, maxListExtractions*2), 2, 60, maxListExtractions)

	satisfaction := map[string]string{}
	for key, label := range g2Categories {
		re := regexp.MustCompile(fmt.Sprintf(g2ScoreRe, regexp.QuoteMeta(label)))
		if m := re.FindStringSubmatch(content); m != nil {
			if strings.HasPrefix(strings.TrimSpace(m[2]), "/") {
				satisfaction[key] = m[1] + "/10"
			} else {
				satisfaction[key] = m[1] + "%"
			}
		}
	}
	if len(satisfaction) > 0 {
		reviews.Satisfaction = satisfaction
	}

	reviews.Pros = g2ReviewAnswers(page, `[id*="like"], [class*="review-like"]`)
	reviews.Cons = g2ReviewAnswers(page, `[id*="dislike"], [class*="review-dislike"]`)

	names := allText(page, `[class*="alternative"] a, [class*="competitor"] a`, maxListExtractions*3)
	reviews.Alternatives = dedupeShort(names, 2, 50, maxListExtractions)
}

// g2Rating reads the star widget, validating the 0-5 range so a
// redesigned page cannot produce a nonsense score.
func g2Rating(page *rod.Page) (float64, bool) {
	for _, selector := range []string{`[class*="fw-semibold"][class*="rating"]`, `[itemprop="ratingValue"]`} {
		text, ok := browser.Text(page, selector)
		if !ok {
			continue
		}
		if rating, ok := parseLeadingFloat(text); ok {
			return rating, true
		}
	}
	return 0, false
}

// g2ReviewAnswers collects review answers, skipping the question
// headers that share the same containers.
func g2ReviewAnswers(page *rod.Page, selector string) []string {
	var answers []string
	for _, text := range allText(page, selector, maxListExtractions*2) {
		if likeHeaderRe.MatchString(text) || len(text) < 20 {
			continue
		}
		answers = append(answers, truncate(text, 200))
		if len(answers) == maxListExtractions {
			break
		}
	}
	return answers
}
