// Package browser wraps Rod with the session shapes scrapers need:
// ephemeral headless sessions, persistent-profile sessions for
// authenticated sources, and headful sessions for manual steps.
package browser

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// NavTimeout bounds a single navigation including the load event.
const NavTimeout = 30 * time.Second

// Options configures a browser session.
type Options struct {
	// Headless runs Chrome without a window. Manual steps (login,
	// challenge solving) need it false.
	Headless bool
	// ProfileDir persists cookies and local storage between sessions.
	// Empty launches with a throwaway profile.
	ProfileDir string
	// Stealth applies evasion patches to every new page.
	Stealth bool
}

// Session owns one Chrome process.
type Session struct {
	browser *rod.Browser
	lnch    *launcher.Launcher
	opts    Options
}

// Open launches Chrome and connects to it. Persistent profiles get their
// stale singleton lock cleared first, so a crashed previous run cannot
// wedge the launch.
func Open(opts Options) (*Session, error) {
	if opts.ProfileDir != "" {
		ClearStaleLock(opts.ProfileDir)
	}

	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled")
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}

	wsURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect chrome: %w", err)
	}

	return &Session{browser: b, lnch: l, opts: opts}, nil
}

// Close shuts down Chrome and cleans up the launcher.
func (s *Session) Close() {
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			log.Printf("[Browser] Close: %v", err)
		}
	}
	if s.lnch != nil {
		s.lnch.Cleanup()
	}
}

// Page opens a new page and navigates it to url. Stealth sessions get the
// evasion patches before navigation.
func (s *Session) Page(ctx context.Context, url string) (*rod.Page, error) {
	var page *rod.Page
	var err error
	if s.opts.Stealth {
		page, err = stealth.Page(s.browser)
	} else {
		page, err = s.browser.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	if err := Navigate(ctx, page, url); err != nil {
		page.Close()
		return nil, err
	}
	return page, nil
}

// Navigate loads url in an existing page, bounded by NavTimeout. A load
// event that never fires is tolerated; the navigation itself failing is
// not.
func Navigate(ctx context.Context, page *rod.Page, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, NavTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		log.Printf("[Browser] Load event timeout for %s: %v", url, err)
	}
	return nil
}

// ClearStaleLock removes Chrome's singleton lock files from a profile
// directory. Chrome refuses to start on a profile whose previous owner
// died without releasing them.
func ClearStaleLock(profileDir string) {
	for _, name := range []string{"SingletonLock", "SingletonCookie", "SingletonSocket"} {
		os.Remove(filepath.Join(profileDir, name))
	}
}

// WaitFor blocks until selector matches or the timeout passes.
func WaitFor(ctx context.Context, page *rod.Page, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := page.Context(waitCtx).Element(selector)
	if err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	return nil
}

// ScrollToBottom scrolls until the document height stops growing, so
// lazy-loaded lists finish filling in. Bounded by maxRounds.
func ScrollToBottom(ctx context.Context, page *rod.Page, maxRounds int, settle time.Duration) {
	lastHeight := -1
	for round := 0; round < maxRounds; round++ {
		res, err := page.Context(ctx).Eval(`() => {
			window.scrollTo(0, document.body.scrollHeight);
			return document.body.scrollHeight;
		}`)
		if err != nil {
			return
		}
		height := res.Value.Int()
		if height == lastHeight {
			return
		}
		lastHeight = height

		select {
		case <-ctx.Done():
			return
		case <-time.After(settle):
		}
	}
}

// Scope is the part of rod's Page and Element APIs the extraction helpers
// need: a non-waiting existence probe.
type Scope interface {
	Has(selector string) (bool, *rod.Element, error)
}

// Text returns the trimmed text of the first selector match, reporting
// whether anything matched. It never waits.
func Text(scope Scope, selector string) (string, bool) {
	ok, el, err := scope.Has(selector)
	if err != nil || !ok {
		return "", false
	}
	text, err := el.Text()
	if err != nil {
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}

// Attr returns an attribute of the first selector match.
func Attr(scope Scope, selector, attr string) (string, bool) {
	ok, el, err := scope.Has(selector)
	if err != nil || !ok {
		return "", false
	}
	val, err := el.Attribute(attr)
	if err != nil || val == nil {
		return "", false
	}
	return *val, true
}

// HTML returns the outer HTML of the first selector match.
func HTML(scope Scope, selector string) (string, bool) {
	ok, el, err := scope.Has(selector)
	if err != nil || !ok {
		return "", false
	}
	html, err := el.HTML()
	if err != nil {
		return "", false
	}
	return html, true
}

// Screenshot captures the page into dir, named <label>_<stamp>.png.
// Failures only log; a missing screenshot never fails a scrape.
func Screenshot(page *rod.Page, dir, label string) {
	if dir == "" {
		return
	}
	data, err := page.Screenshot(true, nil)
	if err != nil {
		log.Printf("[Browser] Screenshot failed: %v", err)
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return
	}
	name := fmt.Sprintf("%s_%s.png", label, time.Now().UTC().Format("20060102_150405"))
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		log.Printf("[Browser] Write screenshot: %v", err)
	}
}
