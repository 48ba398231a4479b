// Package research extracts company intelligence from public profile
// pages (funding, reviews, headcount) to evaluate employers, not jobs.
// The target sites sit behind aggressive anti-bot walls, so extraction
// runs in a persistent-profile browser with a manual-solve escape hatch.
package research

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"github.com/project-hledam/go-scraper/internal/browser"
	"github.com/project-hledam/go-scraper/internal/scrape"
)

// Client runs research extractions. Snippets is optional; without it
// every extractor goes straight to its built-in fallback parsing.
type Client struct {
	Env      *scrape.Env
	Snippets *Snippets
	// ProfileDir persists the solved-challenge cookies between runs.
	// Defaults to a "research" profile next to the env's profile dir.
	ProfileDir string
}

const (
	settleDelay        = 2 * time.Second
	interstitialWait   = 2 * time.Minute
	interstitialPoll   = time.Second
	postSolveSettle    = time.Second
	maxListExtractions = 5
)

func (c *Client) profileDir() string {
	if c.ProfileDir != "" {
		return c.ProfileDir
	}
	return c.Env.ProfileDir
}

// open navigates to url, solving anti-bot interstitials by reopening
// the browser visibly and waiting for the user. The returned session
// must be closed by the caller.
func (c *Client) open(ctx context.Context, url string) (*browser.Session, *rod.Page, error) {
	sess, page, err := c.launch(ctx, url, true)
	if err != nil {
		return nil, nil, err
	}

	if !isInterstitial(page) {
		return sess, page, nil
	}
	sess.Close()

	log.Printf("[Research] Challenge detected at %s, waiting for manual solve", url)
	sess, page, err = c.launch(ctx, url, false)
	if err != nil {
		return nil, nil, err
	}
	waitForInterstitial(ctx, page)
	return sess, page, nil
}

func (c *Client) launch(ctx context.Context, url string, headless bool) (*browser.Session, *rod.Page, error) {
	sess, err := browser.Open(browser.Options{Headless: headless, ProfileDir: c.profileDir()})
	if err != nil {
		return nil, nil, err
	}
	page, err := sess.Page(ctx, url)
	if err != nil {
		sess.Close()
		return nil, nil, err
	}
	time.Sleep(settleDelay)
	return sess, page, nil
}

// isInterstitial reports whether the page is an anti-bot challenge
// rather than the real content.
func isInterstitial(page *rod.Page) bool {
	info, err := page.Info()
	if err != nil {
		return false
	}
	title := strings.ToLower(info.Title)
	if strings.Contains(title, "just a moment") || strings.Contains(title, "cloudflare") {
		return true
	}
	html, err := page.HTML()
	if err != nil {
		return false
	}
	content := strings.ToLower(html)
	return strings.Contains(content, "cf-challenge") || strings.Contains(content, "checking your browser")
}

func waitForInterstitial(ctx context.Context, page *rod.Page) {
	deadline := time.Now().Add(interstitialWait)
	for time.Now().Before(deadline) {
		if !isInterstitial(page) {
			time.Sleep(postSolveSettle)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interstitialPoll):
		}
	}
	log.Printf("[Research] Challenge wait timed out, extracting anyway")
}

// pageContent returns the page HTML, or "" when the page is gone.
func pageContent(page *rod.Page) string {
	html, err := page.HTML()
	if err != nil {
		return ""
	}
	return html
}

// allText returns the trimmed text of up to limit selector matches.
func allText(page *rod.Page, selector string, limit int) []string {
	els, err := page.Elements(selector)
	if err != nil {
		return nil
	}
	var out []string
	for _, el := range els {
		if len(out) >= limit {
			break
		}
		text, err := el.Text()
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// dedupeShort lowercase-dedupes a list, dropping entries outside the
// (min, max) length window, keeping at most limit.
func dedupeShort(items []string, minLen, maxLen, limit int) []string {
	seen := map[string]bool{}
	var clean []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" || seen[key] || len(item) <= minLen || (maxLen > 0 && len(item) >= maxLen) {
			continue
		}
		seen[key] = true
		clean = append(clean, item)
		if len(clean) == limit {
			break
		}
	}
	return clean
}

// truncate caps a blurb, marking the cut.
func truncate(text string, max int) string {
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}

// evalSnippet runs a remotely fetched extraction function in the page.
// Returns ok=false when no snippet is available or it fails, in which
// case the caller falls back to its built-in parsing.
func (c *Client) evalSnippet(ctx context.Context, page *rod.Page, source string) (map[string]any, bool) {
	if c.Snippets == nil {
		return nil, false
	}
	js, err := c.Snippets.Get(source)
	if err != nil {
		log.Printf("[Research] No %s snippet: %v", source, err)
		return nil, false
	}
	res, err := page.Context(ctx).Eval(js)
	if err != nil {
		log.Printf("[Research] %s snippet failed: %v", source, err)
		return nil, false
	}
	m, ok := res.Value.Val().(map[string]any)
	if !ok {
		return nil, false
	}
	return m, true
}

func snippetString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func snippetStrings(m map[string]any, key string) []string {
	list, ok := m[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func snippetFloat(m map[string]any, key string) float64 {
	f, _ := m[key].(float64)
	return f
}

func snippetInt(m map[string]any, key string) int {
	f, ok := m[key].(float64)
	if !ok {
		return 0
	}
	return int(f)
}
