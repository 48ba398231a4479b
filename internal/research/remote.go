package research

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	snippetTTL     = time.Hour
	snippetTimeout = 10 * time.Second
)

// Snippets fetches per-source extraction functions from a remote base
// URL and caches them on disk. The snippets live outside the binary so
// selector churn on the research sites can be fixed without a release.
type Snippets struct {
	// BaseURL serves <BaseURL>/<source>.js
	BaseURL string
	// Dir holds the on-disk cache
	Dir string
	// TTL overrides the default one hour cache lifetime
	TTL time.Duration
	// Client overrides the default HTTP client
	Client *http.Client
}

func (s *Snippets) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return snippetTTL
}

func (s *Snippets) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return &http.Client{Timeout: snippetTimeout}
}

func (s *Snippets) cachePath(source string) string {
	return filepath.Join(s.Dir, source+".js")
}

// Get returns the extraction snippet for a source, from cache when
// fresh. A fetch failure falls back to a stale cached copy.
func (s *Snippets) Get(source string) (string, error) {
	if s.BaseURL == "" {
		return "", fmt.Errorf("no snippet base URL configured")
	}

	path := s.cachePath(source)
	if info, err := os.Stat(path); err == nil && time.Since(info.ModTime()) < s.ttl() {
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), nil
		}
	}

	js, err := s.fetch(source)
	if err != nil {
		// Serve a stale copy rather than nothing
		if data, readErr := os.ReadFile(path); readErr == nil {
			log.Printf("[Research] Snippet fetch failed, using stale cache for %s: %v", source, err)
			return string(data), nil
		}
		return "", err
	}

	if err := os.MkdirAll(s.Dir, 0o755); err == nil {
		if err := os.WriteFile(path, []byte(js), 0o644); err != nil {
			log.Printf("[Research] Cannot cache %s snippet: %v", source, err)
		}
	}
	return js, nil
}

func (s *Snippets) fetch(source string) (string, error) {
	url := strings.TrimSuffix(s.BaseURL, "/") + "/" + source + ".js"
	resp, err := s.client().Get(url)
	if err != nil {
		return "", fmt.Errorf("fetch snippet %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch snippet %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read snippet %s: %w", url, err)
	}
	js := strings.TrimSpace(string(data))
	if js == "" {
		return "", fmt.Errorf("snippet %s is empty", url)
	}
	return js, nil
}

// ClearCache removes the cached snippet for one source, or all of them
// when source is empty.
func (s *Snippets) ClearCache(source string) error {
	if source != "" {
		err := os.Remove(s.cachePath(source))
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".js") {
			if err := os.Remove(filepath.Join(s.Dir, entry.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}
