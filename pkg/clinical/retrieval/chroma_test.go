package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chromaRow struct {
	id       chromago.DocumentID
	metadata map[string]string
}

// memCollection keeps rows in memory and evaluates $eq and $and where filters the
// way the Chroma server does for string metadata.
type memCollection struct {
	chromago.Collection
	rows []chromaRow
}

func (m *memCollection) Add(_ context.Context, opts ...chromago.CollectionAddOption) error {
	op := &chromago.CollectionAddOp{}
	for _, opt := range opts {
		if err := opt(op); err != nil {
			return err
		}
	}
	for i, id := range op.Ids {
		for _, r := range m.rows {
			if r.id == id {
				return fmt.Errorf("duplicate id %s", id)
			}
		}
		md := map[string]string{}
		for _, key := range []string{"client_id", "session_id"} {
			if v, ok := op.Metadatas[i].GetString(key); ok {
				md[key] = v
			}
		}
		m.rows = append(m.rows, chromaRow{id: id, metadata: md})
	}
	return nil
}

func (m *memCollection) Delete(_ context.Context, opts ...chromago.CollectionDeleteOption) error {
	op, err := chromago.NewCollectionDeleteOp(opts...)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(op.Where)
	if err != nil {
		return err
	}
	kept := m.rows[:0]
	for _, r := range m.rows {
		match, err := matchWhere(raw, r.metadata)
		if err != nil {
			return err
		}
		if !match {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

func matchWhere(raw json.RawMessage, md map[string]string) (bool, error) {
	var clause map[string]json.RawMessage
	if err := json.Unmarshal(raw, &clause); err != nil {
		return false, err
	}
	for key, val := range clause {
		if key == "$and" {
			var parts []json.RawMessage
			if err := json.Unmarshal(val, &parts); err != nil {
				return false, err
			}
			for _, p := range parts {
				ok, err := matchWhere(p, md)
				if err != nil || !ok {
					return false, err
				}
			}
			continue
		}
		var cond map[string]string
		if err := json.Unmarshal(val, &cond); err != nil {
			return false, err
		}
		if md[key] != cond["$eq"] {
			return false, nil
		}
	}
	return true, nil
}

func (m *memCollection) count(clientId string) int {
	n := 0
	for _, r := range m.rows {
		if r.metadata["client_id"] == clientId {
			n++
		}
	}
	return n
}

func TestChromaIndex_ReplaceSessionIsScopedByClient(t *testing.T) {
	ctx := context.Background()
	col := &memCollection{}
	idx := &ChromaIndex{collections: map[string]chromago.Collection{"org-1": col}}

	entries := func(texts ...string) []Entry {
		out := make([]Entry, len(texts))
		for i, text := range texts {
			out[i] = Entry{ChunkIndex: i, Text: text, Vector: []float32{1, 0}}
		}
		return out
	}

	require.NoError(t, idx.ReplaceSession(ctx, "org-1", "client-b", "s1", entries("b one", "b two")))
	require.NoError(t, idx.ReplaceSession(ctx, "org-1", "client-a", "s1", entries("a one")))
	assert.Equal(t, 2, col.count("client-b"))
	assert.Equal(t, 1, col.count("client-a"))

	// Re-indexing client-a's session replaces only its own chunks.
	require.NoError(t, idx.ReplaceSession(ctx, "org-1", "client-a", "s1", entries("a one v2", "a two v2")))
	assert.Equal(t, 2, col.count("client-b"))
	assert.Equal(t, 2, col.count("client-a"))
}

func TestChunkID(t *testing.T) {
	assert.NotEqual(t, ChunkID("client-a", "s1", 0), ChunkID("client-b", "s1", 0))
	assert.Equal(t, chromago.DocumentID("client-a/s1-chunk2"), ChunkID("client-a", "s1", 2))
}
