package adapter

import (
	"context"

	"clinical-intelligence-be/internal/entity"
	"clinical-intelligence-be/internal/repository/unitofwork"
	"clinical-intelligence-be/pkg/clinical/knowledge"

	"github.com/google/uuid"
)

// PolicyIndex stores knowledge base chunks in the policy_chunks table, one
// partition per organization.
type PolicyIndex struct {
	factory unitofwork.RepositoryFactory
}

var _ knowledge.IndexStore = &PolicyIndex{}

func NewPolicyIndex(factory unitofwork.RepositoryFactory) *PolicyIndex {
	return &PolicyIndex{factory: factory}
}

func (p *PolicyIndex) HasIndex(ctx context.Context, orgId string) (bool, error) {
	n, err := p.factory.NewUnitOfWork(ctx).PolicyChunkRepository().CountByOrganizationId(ctx, orgId)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReplaceIndex swaps the organization's chunks in one transaction, so a concurrent
// Search sees either the old index or the new one.
func (p *PolicyIndex) ReplaceIndex(ctx context.Context, orgId string, chunks []knowledge.Chunk) (err error) {
	uow := p.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = uow.Rollback()
		}
	}()

	repo := uow.PolicyChunkRepository()
	if err = repo.DeleteByOrganizationId(ctx, orgId); err != nil {
		return err
	}

	rows := make([]*entity.PolicyChunk, len(chunks))
	for i, c := range chunks {
		rows[i] = &entity.PolicyChunk{
			Id:             uuid.New(),
			OrganizationId: orgId,
			Source:         c.Source,
			ChunkIndex:     c.ChunkIndex,
			Document:       c.Text,
			EmbeddingValue: c.Vector,
		}
	}
	if err = repo.CreateBulk(ctx, rows); err != nil {
		return err
	}
	return uow.Commit()
}

func (p *PolicyIndex) Search(ctx context.Context, orgId string, vector []float32, limit int) ([]knowledge.Chunk, error) {
	rows, err := p.factory.NewUnitOfWork(ctx).PolicyChunkRepository().SearchSimilar(ctx, vector, limit, orgId)
	if err != nil {
		return nil, err
	}
	chunks := make([]knowledge.Chunk, len(rows))
	for i, r := range rows {
		chunks[i] = knowledge.Chunk{
			Source:     r.Source,
			ChunkIndex: r.ChunkIndex,
			Text:       r.Document,
			Vector:     r.EmbeddingValue,
		}
	}
	return chunks, nil
}
