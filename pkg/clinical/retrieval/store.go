// Package retrieval searches a client's previously stored sessions. Every lookup is
// scoped to one organization and one client.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clinical-intelligence-be/pkg/clinical"
	"clinical-intelligence-be/pkg/embedding"
	"clinical-intelligence-be/pkg/utils"
)

// Entry is one stored chunk of a session.
type Entry struct {
	OrganizationId string
	ClientId       string
	SessionId      string
	ChunkIndex     int
	Text           string
	Vector         []float32
}

// VectorIndex is the storage behind a Store. Search must only return entries whose
// OrganizationId and ClientId equal the arguments.
type VectorIndex interface {
	// ReplaceSession swaps all chunks of one session.
	ReplaceSession(ctx context.Context, orgId, clientId, sessionId string, entries []Entry) error
	Search(ctx context.Context, orgId, clientId string, vector []float32, limit int) ([]Entry, error)
}

// Store embeds queries and session text and delegates storage to a VectorIndex.
type Store struct {
	embedder embedding.EmbeddingProvider
	index    VectorIndex
}

func NewStore(embedder embedding.EmbeddingProvider, index VectorIndex) *Store {
	return &Store{embedder: embedder, index: index}
}

// Query returns up to limit excerpts of the client's history, most relevant first.
// Failures of the embedder or index are reported as clinical.ErrRetrievalUnavailable.
func (s *Store) Query(ctx context.Context, orgId, clientId, queryText string, limit int) (clinical.RetrievedHistory, error) {
	if limit <= 0 {
		return clinical.RetrievedHistory{}, nil
	}

	res, err := s.embedder.Generate(ctx, queryText, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, unavailable("embed query", err)
	}

	entries, err := s.index.Search(ctx, orgId, clientId, res.Embedding.Values, limit)
	if err != nil {
		return nil, unavailable("search history", err)
	}

	history := make(clinical.RetrievedHistory, 0, len(entries))
	for _, e := range entries {
		// The index contract already scopes results; this guards against a faulty backend.
		if e.OrganizationId != orgId || e.ClientId != clientId {
			continue
		}
		history = append(history, e.Text)
	}
	return history, nil
}

// Index chunks, embeds and stores one session so later runs can retrieve it.
func (s *Store) Index(ctx context.Context, orgId, clientId, sessionId, text string) (int, error) {
	texts, err := utils.SplitText(text, utils.SessionChunkSize, utils.SessionChunkOverlap)
	if err != nil {
		return 0, fmt.Errorf("split session: %w", err)
	}

	entries := make([]Entry, 0, len(texts))
	for i, t := range texts {
		res, err := s.embedder.Generate(ctx, t, embedding.TaskRetrievalDocument)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		entries = append(entries, Entry{
			OrganizationId: orgId,
			ClientId:       clientId,
			SessionId:      sessionId,
			ChunkIndex:     i,
			Text:           t,
			Vector:         res.Embedding.Values,
		})
	}

	if err := s.index.ReplaceSession(ctx, orgId, clientId, sessionId, entries); err != nil {
		return 0, fmt.Errorf("store session chunks: %w", err)
	}
	return len(entries), nil
}

func unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", clinical.ErrRetrievalUnavailable, op, err)
}

func validScope(orgId, clientId string) error {
	if strings.TrimSpace(orgId) == "" || strings.TrimSpace(clientId) == "" {
		return errors.New("organization and client are required")
	}
	return nil
}
