// Package adapter exposes the gorm repositories as the storage interfaces of the
// retrieval store and the knowledge base.
package adapter

import (
	"context"
	"errors"
	"strings"

	"clinical-intelligence-be/internal/entity"
	"clinical-intelligence-be/internal/repository/unitofwork"
	"clinical-intelligence-be/pkg/clinical/retrieval"

	"github.com/google/uuid"
)

// SessionIndex stores session chunks in the session_embeddings table.
type SessionIndex struct {
	factory unitofwork.RepositoryFactory
}

var _ retrieval.VectorIndex = &SessionIndex{}

func NewSessionIndex(factory unitofwork.RepositoryFactory) *SessionIndex {
	return &SessionIndex{factory: factory}
}

func (s *SessionIndex) ReplaceSession(ctx context.Context, orgId, clientId, sessionId string, entries []retrieval.Entry) (err error) {
	if strings.TrimSpace(sessionId) == "" {
		return errors.New("session id is required")
	}

	uow := s.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = uow.Rollback()
		}
	}()

	repo := uow.SessionEmbeddingRepository()
	if err = repo.DeleteBySessionId(ctx, orgId, clientId, sessionId); err != nil {
		return err
	}

	embeddings := make([]*entity.SessionEmbedding, 0, len(entries))
	for _, e := range entries {
		embeddings = append(embeddings, &entity.SessionEmbedding{
			Id:             uuid.New(),
			OrganizationId: orgId,
			ClientId:       clientId,
			SessionId:      sessionId,
			Document:       e.Text,
			EmbeddingValue: e.Vector,
			ChunkIndex:     e.ChunkIndex,
		})
	}
	if err = repo.CreateBulk(ctx, embeddings); err != nil {
		return err
	}
	return uow.Commit()
}

func (s *SessionIndex) Search(ctx context.Context, orgId, clientId string, vector []float32, limit int) ([]retrieval.Entry, error) {
	uow := s.factory.NewUnitOfWork(ctx)
	rows, err := uow.SessionEmbeddingRepository().SearchSimilar(ctx, vector, limit, orgId, clientId)
	if err != nil {
		return nil, err
	}

	entries := make([]retrieval.Entry, len(rows))
	for i, r := range rows {
		entries[i] = retrieval.Entry{
			OrganizationId: r.OrganizationId,
			ClientId:       r.ClientId,
			SessionId:      r.SessionId,
			ChunkIndex:     r.ChunkIndex,
			Text:           r.Document,
			Vector:         r.EmbeddingValue,
		}
	}
	return entries, nil
}
