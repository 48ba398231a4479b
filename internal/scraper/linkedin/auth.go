package linkedin

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/project-hledam/go-scraper/internal/browser"
	"github.com/project-hledam/go-scraper/internal/scrape"
)

// AuthStatus is the envelope for auth checks and login.
type AuthStatus struct {
	Status        string `json:"status"`
	Authenticated bool   `json:"authenticated"`
	Error         string `json:"error,omitempty"`
	Code          string `json:"code,omitempty"`
}

const (
	authCheckSettle = 2 * time.Second
	loginTimeout    = 2 * time.Minute
	loginPoll       = time.Second
)

// CheckAuthStatus probes the feed page with the stored profile. Three
// outcomes: not authenticated, authenticated, or the probe selector no
// longer matches the page, which is a scraper defect rather than an
// auth failure.
func (s *Scraper) CheckAuthStatus(ctx context.Context) AuthStatus {
	if s.Env.ProfileDir == "" {
		return AuthStatus{Status: "ok", Authenticated: false}
	}
	if _, err := os.Stat(s.Env.ProfileDir); err != nil {
		return AuthStatus{Status: "ok", Authenticated: false}
	}

	sess, err := browser.Open(browser.Options{Headless: true, ProfileDir: s.Env.ProfileDir})
	if err != nil {
		return AuthStatus{Status: "error", Error: err.Error(), Code: scrape.CodeScrapeFailed}
	}
	defer sess.Close()

	page, err := sess.Page(ctx, s.baseURL()+"/feed/")
	if err != nil {
		return AuthStatus{Status: "error", Error: err.Error(), Code: scrape.CodeScrapeFailed}
	}
	defer page.Close()
	time.Sleep(authCheckSettle)

	info, err := page.Info()
	if err != nil {
		return AuthStatus{Status: "error", Error: err.Error(), Code: scrape.CodeScrapeFailed}
	}
	if loggedOutURL(info.URL) {
		return AuthStatus{Status: "ok", Authenticated: false}
	}

	if ok, _, err := page.Has("nav"); err == nil && ok {
		return AuthStatus{Status: "ok", Authenticated: true}
	}
	return AuthStatus{
		Status: "error",
		Error:  fmt.Sprintf("auth check failed: on %s but nav element not found", info.URL),
		Code:   scrape.CodeSelectorBroken,
	}
}

// Login opens a visible browser on the login page and polls until the
// user finishes logging in, storing the session in the profile dir.
func (s *Scraper) Login(ctx context.Context) AuthStatus {
	if s.Env.ProfileDir == "" {
		return AuthStatus{Status: "error", Error: "no browser profile configured", Code: scrape.CodeAuthRequired}
	}
	if err := os.MkdirAll(s.Env.ProfileDir, 0o755); err != nil {
		return AuthStatus{Status: "error", Error: err.Error(), Code: scrape.CodeScrapeFailed}
	}

	sess, err := browser.Open(browser.Options{Headless: false, ProfileDir: s.Env.ProfileDir})
	if err != nil {
		return AuthStatus{Status: "error", Error: err.Error(), Code: scrape.CodeScrapeFailed}
	}
	defer sess.Close()

	page, err := sess.Page(ctx, s.baseURL()+"/login")
	if err != nil {
		return AuthStatus{Status: "error", Error: err.Error(), Code: scrape.CodeScrapeFailed}
	}
	defer page.Close()

	log.Printf("[LinkedIn] Waiting for manual login (up to %s)", loginTimeout)
	deadline := time.Now().Add(loginTimeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return AuthStatus{Status: "error", Error: ctx.Err().Error(), Code: scrape.CodeAuthRequired}
		case <-time.After(loginPoll):
		}

		info, err := page.Info()
		if err != nil {
			continue
		}
		if strings.Contains(info.URL, "/feed") || strings.Contains(info.URL, "/jobs") || strings.Contains(info.URL, "/mynetwork") {
			return AuthStatus{Status: "ok", Authenticated: true}
		}
	}
	return AuthStatus{Status: "error", Error: "login timeout", Code: scrape.CodeAuthRequired}
}
