package knowledge

import (
	"context"
	"sort"
	"sync"

	"clinical-intelligence-be/pkg/utils"
)

// MemoryIndex keeps indexes in process memory. Used offline and in tests.
type MemoryIndex struct {
	mu      sync.RWMutex
	indexes map[string][]Chunk
	writes  map[string]int
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		indexes: make(map[string][]Chunk),
		writes:  make(map[string]int),
	}
}

func (m *MemoryIndex) HasIndex(_ context.Context, orgId string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.indexes[orgId]) > 0, nil
}

func (m *MemoryIndex) ReplaceIndex(_ context.Context, orgId string, chunks []Chunk) error {
	cp := make([]Chunk, len(chunks))
	copy(cp, chunks)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexes[orgId] = cp
	m.writes[orgId]++
	return nil
}

func (m *MemoryIndex) Search(_ context.Context, orgId string, vector []float32, limit int) ([]Chunk, error) {
	m.mu.RLock()
	chunks := make([]Chunk, len(m.indexes[orgId]))
	copy(chunks, m.indexes[orgId])
	m.mu.RUnlock()

	sort.SliceStable(chunks, func(i, j int) bool {
		return utils.CosineSimilarity(chunks[i].Vector, vector) > utils.CosineSimilarity(chunks[j].Vector, vector)
	})
	if limit > 0 && len(chunks) > limit {
		chunks = chunks[:limit]
	}
	return chunks, nil
}

// Writes reports how many times the organization's index was replaced.
func (m *MemoryIndex) Writes(orgId string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes[orgId]
}
