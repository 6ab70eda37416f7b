package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"go duration", "90s", 90 * time.Second},
		{"plain seconds", "240", 240 * time.Second},
		{"garbage", "soon", time.Minute},
		{"empty", "", time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_TIMEOUT", tt.value)
			assert.Equal(t, tt.want, getEnvAsDuration("TEST_TIMEOUT", time.Minute))
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("PIPELINE_HISTORY_LIMIT", "4")
	t.Setenv("PIPELINE_REQUIRE_HISTORY", "true")
	t.Setenv("ORG_UNKNOWN_POLICY", "reject")
	t.Setenv("KB_TOP_K", "not-a-number")

	cfg := Load()
	assert.Equal(t, 4, cfg.Pipeline.HistoryLimit)
	assert.True(t, cfg.Pipeline.RequireHistory)
	assert.Equal(t, "reject", cfg.Pipeline.UnknownOrgPolicy)
	assert.Equal(t, 3, cfg.Knowledge.TopK)
}
