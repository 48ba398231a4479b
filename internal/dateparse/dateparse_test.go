package dateparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frozenClock() Clock {
	fixed := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return fixed }
}

func TestDaysAgoEN(t *testing.T) {
	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{"", 0, false},
		{"Just now", 0, true},
		{"Posted today", 0, true},
		{"3 hours ago", 0, true},
		{"Yesterday", 1, true},
		{"1 day ago", 1, true},
		{"5 days ago", 5, true},
		{"2 weeks ago", 14, true},
		{"1 month ago", 30, true},
		{"3 months ago", 90, true},
		{"Reposted 4 days ago", 4, true},
		{"no date here", 0, false},
	}

	for _, tt := range tests {
		got, ok := DaysAgoEN(tt.text)
		assert.Equal(t, tt.ok, ok, "DaysAgoEN(%q) ok", tt.text)
		if tt.ok {
			assert.Equal(t, tt.want, got, "DaysAgoEN(%q)", tt.text)
		}
	}
}

func TestDaysAgoCS(t *testing.T) {
	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{"", 0, false},
		{"Zveřejněno dnes", 0, true},
		{"včera", 1, true},
		{"před týdnem", 7, true},
		{"před 3 dny", 3, true},
		{"před 14 dny", 14, true},
		{"před 2 týdny", 14, true},
		// English fallback for mixed-language pages
		{"2 days ago", 2, true},
		{"žádné datum", 0, false},
	}

	for _, tt := range tests {
		got, ok := DaysAgoCS(tt.text)
		assert.Equal(t, tt.ok, ok, "DaysAgoCS(%q) ok", tt.text)
		if tt.ok {
			assert.Equal(t, tt.want, got, "DaysAgoCS(%q)", tt.text)
		}
	}
}

func TestMissingDateIsNotZero(t *testing.T) {
	// An unparseable date must be reported as absent, not as "posted today".
	_, ok := DaysAgoEN("competitive salary")
	assert.False(t, ok)
	_, ok = DaysAgoCS("konkurenční plat")
	assert.False(t, ok)
}

func TestDaysToISO(t *testing.T) {
	clock := frozenClock()
	assert.Equal(t, "2025-06-15T12:00:00Z", DaysToISO(0, clock))
	assert.Equal(t, "2025-06-10T12:00:00Z", DaysToISO(5, clock))
}

func TestNowISO(t *testing.T) {
	assert.Equal(t, "2025-06-15T12:00:00Z", NowISO(frozenClock()))
}

func TestParseISODate(t *testing.T) {
	clock := frozenClock()

	days, ok := ParseISODate("2025-06-10", clock)
	require.True(t, ok)
	assert.Equal(t, 5, days)

	days, ok = ParseISODate("2025-06-01T09:30:00Z", clock)
	require.True(t, ok)
	assert.Equal(t, 14, days)

	// Future dates clamp to zero
	days, ok = ParseISODate("2025-07-01", clock)
	require.True(t, ok)
	assert.Equal(t, 0, days)

	_, ok = ParseISODate("", clock)
	assert.False(t, ok)
	_, ok = ParseISODate("not-a-date", clock)
	assert.False(t, ok)
}
