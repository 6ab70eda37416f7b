package markers

import (
	"context"
	"errors"
	"testing"

	"clinical-intelligence-be/internal/pkg/logger"
	"clinical-intelligence-be/pkg/clinical"
	"clinical-intelligence-be/pkg/llm/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  clinical.MarkerSet
	}{
		{
			name:  "valid",
			reply: `{"primary_themes":["grief","sleep","work"],"emotional_intensity":7,"goal_progress":3,"risk_score":2}`,
			want: clinical.MarkerSet{
				PrimaryThemes:      []string{"grief", "sleep", "work"},
				EmotionalIntensity: 7,
				GoalProgress:       3,
				RiskScore:          2,
			},
		},
		{
			name:  "fenced",
			reply: "```json\n{\"primary_themes\":[\"grief\"],\"emotional_intensity\":7,\"goal_progress\":3,\"risk_score\":2}\n```",
			want: clinical.MarkerSet{
				PrimaryThemes:      []string{"grief"},
				EmotionalIntensity: 7,
				GoalProgress:       3,
				RiskScore:          2,
			},
		},
		{name: "prose", reply: "The main themes were grief and sleep.", want: clinical.SentinelMarkers()},
		{name: "out of range", reply: `{"primary_themes":["grief"],"emotional_intensity":70,"goal_progress":3,"risk_score":2}`, want: clinical.SentinelMarkers()},
		{name: "missing field", reply: `{"primary_themes":["grief"],"emotional_intensity":7}`, want: clinical.SentinelMarkers()},
		{name: "empty", reply: "", want: clinical.SentinelMarkers()},
		{name: "backend error", err: errors.New("connection refused"), want: clinical.SentinelMarkers()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := mock.NewScriptedProvider(mock.Rule{Match: AnalystHeader, Reply: tt.reply, Err: tt.err})
			e := NewExtractor(provider, logger.NewNopLogger())

			got := e.Extract(context.Background(), `{"subjective":"s"}`)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_CancelledContextYieldsSentinel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewExtractor(mock.BlockingProvider{}, logger.NewNopLogger())
	assert.True(t, e.Extract(ctx, "draft").IsSentinel())
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("DRAFT-TEXT")
	require.Contains(t, prompt, AnalystHeader)
	assert.Contains(t, prompt, "DRAFT-TEXT")
	for _, field := range []string{"primary_themes", "emotional_intensity", "goal_progress", "risk_score"} {
		assert.Contains(t, prompt, field)
	}
}
