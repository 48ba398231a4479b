package jobid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"job_li_4012345678", "job_li_4012345678"},
		{"li_4012345678", "job_li_4012345678"},
		{"cz_2000123456", "job_cz_2000123456"},
		{"sj_98765", "job_sj_98765"},
		{"er_senior-platform-engineer", "job_er_senior-platform-engineer"},
		// Bare digits default to LinkedIn
		{"4012345678", "job_li_4012345678"},
		// Unknown prefixes pass through untouched
		{"xx_123", "xx_123"},
		{"not-an-id", "not-an-id"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestShortRoundTrip(t *testing.T) {
	ids := []string{"li_123", "cz_456", "sj_789", "er_some-slug-2024"}
	for _, short := range ids {
		full := Normalize(short)
		assert.Equal(t, "job_"+short, full)
		assert.Equal(t, short, Short(full))
		// Normalizing twice changes nothing
		assert.Equal(t, full, Normalize(full))
	}
}

func TestShortPassthrough(t *testing.T) {
	assert.Equal(t, "garbage", Short("garbage"))
	assert.Equal(t, "job_zz_1", Short("job_zz_1"))
	assert.Equal(t, "job_li_", Short("job_li_"))
}

func TestSplit(t *testing.T) {
	prefix, raw, ok := Split("job_er_senior-platform-engineer")
	require.True(t, ok)
	assert.Equal(t, "er", prefix)
	assert.Equal(t, "senior-platform-engineer", raw)

	_, _, ok = Split("er_slug")
	assert.False(t, ok)
	_, _, ok = Split("job_unknown_1")
	assert.False(t, ok)
}

func TestRegister(t *testing.T) {
	require.NoError(t, Register("wk", "weworkremotely.com"))
	// Idempotent re-register
	require.NoError(t, Register("wk", "weworkremotely.com"))
	// Conflicting source rejected
	assert.Error(t, Register("wk", "othersite.com"))
	assert.Error(t, Register("", "x"))

	assert.Equal(t, "job_wk_555", Normalize("wk_555"))
	source, ok := SourceFor("wk")
	require.True(t, ok)
	assert.Equal(t, "weworkremotely.com", source)
}
