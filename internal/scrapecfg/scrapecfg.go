// Package scrapecfg loads per-source scraper configs from JSON files.
// Configs are optional overrides: a missing or unparseable file is not an
// error, and every accessor falls back to a caller-supplied default, so a
// broken config can never produce a broken scraper.
package scrapecfg

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds one source's parsed config file. A nil *Config is valid
// and behaves as "no overrides".
type Config struct {
	data map[string]any
}

// Load reads <dir>/<name>.json. Missing or invalid files return nil.
func Load(dir, name string) *Config {
	raw, err := os.ReadFile(filepath.Join(dir, name+".json"))
	if err != nil {
		return nil
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}
	return &Config{data: data}
}

// Selector returns selectors.<key>, or the default when absent or empty.
func (c *Config) Selector(key, defaultVal string) string {
	if c == nil {
		return defaultVal
	}
	selectors, _ := c.data["selectors"].(map[string]any)
	if s, _ := selectors[key].(string); s != "" {
		return s
	}
	return defaultVal
}

// Value returns the raw value at a dot-separated path, or nil.
func (c *Config) Value(path string) any {
	if c == nil {
		return nil
	}
	var value any = c.data
	for _, part := range strings.Split(path, ".") {
		m, ok := value.(map[string]any)
		if !ok {
			return nil
		}
		value = m[part]
		if value == nil {
			return nil
		}
	}
	return value
}

// StringValue returns the string at a dot path, or the default.
func (c *Config) StringValue(path, defaultVal string) string {
	if s, ok := c.Value(path).(string); ok && s != "" {
		return s
	}
	return defaultVal
}

// IntValue returns the integer at a dot path, or the default.
// JSON numbers decode as float64; whole floats are accepted.
func (c *Config) IntValue(path string, defaultVal int) int {
	switch v := c.Value(path).(type) {
	case float64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

// BoolValue returns the boolean at a dot path, or the default.
func (c *Config) BoolValue(path string, defaultVal bool) bool {
	if b, ok := c.Value(path).(bool); ok {
		return b
	}
	return defaultVal
}

// Strings returns the string list at a dot path, or nil.
func (c *Config) Strings(path string) []string {
	list, ok := c.Value(path).([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// StringMap returns the string-to-string map at a dot path, or nil.
func (c *Config) StringMap(path string) map[string]string {
	m, ok := c.Value(path).(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// GetNested walks a decoded JSON value by a path like "data.jobs[0].title".
// Dot segments traverse objects; a [n] suffix indexes arrays. Returns
// ok=false for any missing or mistyped step.
func GetNested(value any, path string) (any, bool) {
	for _, part := range strings.Split(path, ".") {
		key := part
		index := -1
		if open := strings.IndexByte(part, '['); open >= 0 && strings.HasSuffix(part, "]") {
			idx, err := strconv.Atoi(part[open+1 : len(part)-1])
			if err != nil {
				return nil, false
			}
			key = part[:open]
			index = idx
		}

		if key != "" {
			m, ok := value.(map[string]any)
			if !ok {
				return nil, false
			}
			value = m[key]
		}

		if index >= 0 {
			list, ok := value.([]any)
			if !ok || index >= len(list) {
				return nil, false
			}
			value = list[index]
		}

		if value == nil {
			return nil, false
		}
	}
	return value, true
}
