package cleaner

import (
	"github.com/microcosm-cc/bluemonday"
)

// Cleaner sanitizes job description HTML using Bluemonday
type Cleaner struct {
	policy *bluemonday.Policy
}

// NewCleaner creates an HTML cleaner that keeps the formatting markdown
// conversion understands and strips everything else
func NewCleaner() *Cleaner {
	policy := bluemonday.NewPolicy()

	// Basic text formatting
	policy.AllowElements("p", "br", "div", "span")
	policy.AllowElements("strong", "b", "em", "i", "u")
	policy.AllowElements("ul", "ol", "li")
	policy.AllowElements("h1", "h2", "h3", "h4", "h5", "h6")
	policy.AllowElements("table", "thead", "tbody", "tr", "th", "td")

	// Links without javascript:
	policy.AllowAttrs("href").OnElements("a")
	policy.AllowRelativeURLs(true)
	policy.RequireParseableURLs(true)
	policy.AllowURLSchemes("http", "https", "mailto")

	return &Cleaner{policy: policy}
}

// Clean sanitizes HTML content
func (c *Cleaner) Clean(html string) string {
	return c.policy.Sanitize(html)
}
