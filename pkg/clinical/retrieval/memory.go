package retrieval

import (
	"context"
	"sort"
	"sync"

	"clinical-intelligence-be/pkg/utils"
)

type scope struct {
	orgId    string
	clientId string
}

// MemoryIndex partitions entries by (organization, client) so a search can only
// ever see one client's sessions.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[scope][]Entry
}

var _ VectorIndex = &MemoryIndex{}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[scope][]Entry)}
}

func (m *MemoryIndex) ReplaceSession(_ context.Context, orgId, clientId, sessionId string, entries []Entry) error {
	if err := validScope(orgId, clientId); err != nil {
		return err
	}
	key := scope{orgId, clientId}

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[key][:0:0]
	for _, e := range m.entries[key] {
		if e.SessionId != sessionId {
			kept = append(kept, e)
		}
	}
	for _, e := range entries {
		e.OrganizationId = orgId
		e.ClientId = clientId
		e.SessionId = sessionId
		kept = append(kept, e)
	}
	m.entries[key] = kept
	return nil
}

func (m *MemoryIndex) Search(_ context.Context, orgId, clientId string, vector []float32, limit int) ([]Entry, error) {
	if err := validScope(orgId, clientId); err != nil {
		return nil, err
	}

	m.mu.RLock()
	candidates := make([]Entry, len(m.entries[scope{orgId, clientId}]))
	copy(candidates, m.entries[scope{orgId, clientId}])
	m.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		return utils.CosineSimilarity(candidates[i].Vector, vector) > utils.CosineSimilarity(candidates[j].Vector, vector)
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
