package scrape

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-hledam/go-scraper/internal/domain"
)

func TestSearchResultJSONAlwaysHasJobs(t *testing.T) {
	// A search where every job was filtered out still carries the list
	res := SearchResult{Status: "ok", SearchID: "search_li_abc12345", Jobs: []domain.Job{}}
	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"jobs":[]`)

	data, err = json.Marshal(SearchError(fmt.Errorf("boom"), CodeScrapeFailed, 3))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"jobs":[]`)
	assert.Contains(t, string(data), `"code":"SCRAPE_FAILED"`)
}

func TestJDBatchError(t *testing.T) {
	batch := JDBatchError(fmt.Errorf("no browser profile configured"), CodeAuthRequired)
	assert.Equal(t, "error", batch.Status)
	assert.Equal(t, "no browser profile configured", batch.Error)
	assert.Equal(t, CodeAuthRequired, batch.Code)
	assert.Zero(t, batch.Succeeded)
	assert.Zero(t, batch.Failed)

	data, err := json.Marshal(batch)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"items":[]`)
	assert.Contains(t, string(data), `"error":"no browser profile configured"`)
}
