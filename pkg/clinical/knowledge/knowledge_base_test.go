package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"clinical-intelligence-be/internal/pkg/logger"
	"clinical-intelligence-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder maps text onto a few keyword dimensions so ranking is predictable.
type keywordEmbedder struct {
	calls atomic.Int64
	delay time.Duration
}

var keywords = []string{"risk", "documentation", "billing", "parking"}

func (e *keywordEmbedder) Generate(ctx context.Context, text string, _ string) (*embedding.EmbeddingResponse, error) {
	e.calls.Add(1)
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	lower := strings.ToLower(text)
	vec := make([]float32, len(keywords)+1)
	for i, k := range keywords {
		vec[i] = float32(strings.Count(lower, k))
	}
	vec[len(keywords)] = 0.01
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: vec}}, nil
}

type staticLoader struct {
	docs  map[string][]Document
	loads atomic.Int64
}

func (l *staticLoader) Load(_ context.Context, orgId string) ([]Document, error) {
	l.loads.Add(1)
	return l.docs[orgId], nil
}

func newKB(loader DocumentLoader, index IndexStore, embedder embedding.EmbeddingProvider) *KnowledgeBase {
	return NewKnowledgeBase(loader, index, embedder, nil, logger.NewNopLogger(), DefaultConfig())
}

func TestGetPolicyContext_NoDocuments(t *testing.T) {
	index := NewMemoryIndex()
	kb := newKB(NewDirectoryLoader(t.TempDir()), index, &keywordEmbedder{})

	policy, ok, err := kb.GetPolicyContext(context.Background(), "org-without-docs")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, policy)
	assert.Equal(t, 0, index.Writes("org-without-docs"))
}

func TestGetPolicyContext_RanksRelevantChunks(t *testing.T) {
	loader := &staticLoader{docs: map[string][]Document{
		"org-1": {
			{Source: "risk.md", Text: "Risk documentation: every session requires a risk assessment and documentation of safety plans."},
			{Source: "parking.md", Text: "Parking is available behind the building."},
		},
	}}
	kb := newKB(loader, NewMemoryIndex(), &keywordEmbedder{})

	policy, ok, err := kb.GetPolicyContext(context.Background(), "org-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(policy, "Risk documentation"))
}

func TestGetPolicyContext_BuildsOnceUnderConcurrency(t *testing.T) {
	loader := &staticLoader{docs: map[string][]Document{
		"org-1": {{Source: "policy.txt", Text: "Documentation of risk is mandatory."}},
		"org-2": {{Source: "policy.txt", Text: "Billing codes must be documented."}},
	}}
	index := NewMemoryIndex()
	kb := newKB(loader, index, &keywordEmbedder{delay: 10 * time.Millisecond})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		org := "org-1"
		if i%2 == 1 {
			org = "org-2"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := kb.GetPolicyContext(context.Background(), org)
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, index.Writes("org-1"))
	assert.Equal(t, 1, index.Writes("org-2"))
	assert.Equal(t, int64(2), loader.loads.Load())
}

func TestRebuild(t *testing.T) {
	loader := &staticLoader{docs: map[string][]Document{
		"org-1": {{Source: "policy.txt", Text: "Documentation of risk is mandatory."}},
	}}
	index := NewMemoryIndex()
	kb := newKB(loader, index, &keywordEmbedder{})

	_, _, err := kb.GetPolicyContext(context.Background(), "org-1")
	require.NoError(t, err)

	n, err := kb.Rebuild(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, index.Writes("org-1"))
}

func TestRebuild_ClearsRemovedDocuments(t *testing.T) {
	loader := &staticLoader{docs: map[string][]Document{
		"org-1": {{Source: "policy.txt", Text: "Risk documentation policy: old rule"}},
	}}
	index := NewMemoryIndex()
	kb := newKB(loader, index, &keywordEmbedder{})

	policy, ok, err := kb.GetPolicyContext(context.Background(), "org-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, policy, "old rule")

	loader.docs["org-1"] = nil
	n, err := kb.Rebuild(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	policy, ok, err = kb.GetPolicyContext(context.Background(), "org-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, policy)

	has, err := index.HasIndex(context.Background(), "org-1")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()

	unlock, err := l.Lock(context.Background(), "org-1")
	require.NoError(t, err)

	// Another organization is independent.
	unlockOther, err := l.Lock(context.Background(), "org-2")
	require.NoError(t, err)
	unlockOther()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "org-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()

	again, err := l.Lock(context.Background(), "org-1")
	require.NoError(t, err)
	again()
}

func TestDirectoryLoader(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "org-1")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("second"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("first"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.txt"), []byte("nested"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), []byte("  "), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte("binary"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.txt"), []byte("hidden"), 0o644))

	l := NewDirectoryLoader(root)

	docs, err := l.Load(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "a.txt", docs[0].Source)
	assert.Equal(t, "b.md", docs[1].Source)
	assert.Equal(t, "sub/c.txt", docs[2].Source)

	docs, err = l.Load(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, docs)

	_, err = l.Load(context.Background(), "../etc")
	assert.Error(t, err)
}
