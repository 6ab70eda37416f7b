package mapper

import (
	"clinical-intelligence-be/internal/entity"
	"clinical-intelligence-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type SessionEmbeddingMapper struct{}

func NewSessionEmbeddingMapper() *SessionEmbeddingMapper {
	return &SessionEmbeddingMapper{}
}

func (m *SessionEmbeddingMapper) ToEntity(e *model.SessionEmbedding) *entity.SessionEmbedding {
	if e == nil {
		return nil
	}
	return &entity.SessionEmbedding{
		Id:             e.Id,
		OrganizationId: e.OrganizationId,
		ClientId:       e.ClientId,
		SessionId:      e.SessionId,
		Document:       e.Document,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		ChunkIndex:     e.ChunkIndex,
		CreatedAt:      e.CreatedAt,
	}
}

func (m *SessionEmbeddingMapper) ToModel(e *entity.SessionEmbedding) *model.SessionEmbedding {
	if e == nil {
		return nil
	}
	return &model.SessionEmbedding{
		Id:             e.Id,
		OrganizationId: e.OrganizationId,
		ClientId:       e.ClientId,
		SessionId:      e.SessionId,
		Document:       e.Document,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		ChunkIndex:     e.ChunkIndex,
		CreatedAt:      e.CreatedAt,
	}
}

func (m *SessionEmbeddingMapper) ToEntities(embeddings []*model.SessionEmbedding) []*entity.SessionEmbedding {
	entities := make([]*entity.SessionEmbedding, len(embeddings))
	for i, e := range embeddings {
		entities[i] = m.ToEntity(e)
	}
	return entities
}

func (m *SessionEmbeddingMapper) ToModels(embeddings []*entity.SessionEmbedding) []*model.SessionEmbedding {
	models := make([]*model.SessionEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = m.ToModel(e)
	}
	return models
}

type PolicyChunkMapper struct{}

func NewPolicyChunkMapper() *PolicyChunkMapper {
	return &PolicyChunkMapper{}
}

func (m *PolicyChunkMapper) ToEntity(c *model.PolicyChunk) *entity.PolicyChunk {
	if c == nil {
		return nil
	}
	return &entity.PolicyChunk{
		Id:             c.Id,
		OrganizationId: c.OrganizationId,
		Source:         c.Source,
		ChunkIndex:     c.ChunkIndex,
		Document:       c.Document,
		EmbeddingValue: c.EmbeddingValue.Slice(),
		CreatedAt:      c.CreatedAt,
	}
}

func (m *PolicyChunkMapper) ToModel(c *entity.PolicyChunk) *model.PolicyChunk {
	if c == nil {
		return nil
	}
	return &model.PolicyChunk{
		Id:             c.Id,
		OrganizationId: c.OrganizationId,
		Source:         c.Source,
		ChunkIndex:     c.ChunkIndex,
		Document:       c.Document,
		EmbeddingValue: pgvector.NewVector(c.EmbeddingValue),
		CreatedAt:      c.CreatedAt,
	}
}
