package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	log := NewIsolatedLogger(path)

	log.Info("PIPELINE", "Pipeline run completed", map[string]interface{}{"client_id": "c1"})
	log.Warn("PIPELINE", "Pipeline produced a degraded result", nil)
	log.Info("SESSION_SERVICE", "Session saved", nil)
	require.NoError(t, log.Sync())

	all, err := log.GetLogs(LogQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Session saved", all[0].Message, "newest first")

	warn, err := log.GetLogs(LogQuery{Level: "warn"})
	require.NoError(t, err)
	require.Len(t, warn, 1)
	assert.Equal(t, "PIPELINE", warn[0].Module)

	pipeline, err := log.GetLogs(LogQuery{Module: "pipeline", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, pipeline, 1)
	assert.Equal(t, "Pipeline run completed", pipeline[0].Message)
	assert.Equal(t, "c1", pipeline[0].Details["client_id"])

	found, err := log.GetLogById(pipeline[0].Id)
	require.NoError(t, err)
	assert.Equal(t, pipeline[0].Message, found.Message)

	_, err = log.GetLogById("nope")
	assert.ErrorIs(t, err, ErrLogNotFound)
}

func TestGetLogs_MissingFile(t *testing.T) {
	log := NewIsolatedLogger(filepath.Join(t.TempDir(), "never-written.log"))
	entries, err := log.GetLogs(LogQuery{})
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = NewNopLogger().GetLogs(LogQuery{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLogQueryPage(t *testing.T) {
	entries := []LogEntry{{Id: "a"}, {Id: "b"}, {Id: "c"}}
	tests := []struct {
		name string
		q    LogQuery
		want int
	}{
		{"no limit", LogQuery{}, 3},
		{"first page", LogQuery{Limit: 2}, 2},
		{"last page", LogQuery{Limit: 2, Offset: 2}, 1},
		{"past end", LogQuery{Limit: 2, Offset: 5}, 0},
		{"negative offset", LogQuery{Offset: -1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.q.Page(entries), tt.want)
		})
	}
}
