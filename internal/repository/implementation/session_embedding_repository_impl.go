package implementation

import (
	"context"

	"clinical-intelligence-be/internal/entity"
	"clinical-intelligence-be/internal/mapper"
	"clinical-intelligence-be/internal/model"
	"clinical-intelligence-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

const defaultSearchLimit = 5

type SessionEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionEmbeddingMapper
}

func NewSessionEmbeddingRepository(db *gorm.DB) contract.SessionEmbeddingRepository {
	return &SessionEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionEmbeddingMapper(),
	}
}

func (r *SessionEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.SessionEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := r.mapper.ToModels(embeddings)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

// DeleteBySessionId is scoped by organization and client because session ids are
// chosen by callers and only unique within a client.
func (r *SessionEmbeddingRepositoryImpl) DeleteBySessionId(ctx context.Context, orgId, clientId, sessionId string) error {
	return r.db.WithContext(ctx).
		Where("organization_id = ? AND client_id = ? AND session_id = ?", orgId, clientId, sessionId).
		Delete(&model.SessionEmbedding{}).Error
}

func (r *SessionEmbeddingRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, orgId, clientId string) ([]*entity.SessionEmbedding, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	var models []*model.SessionEmbedding

	// Cosine distance; the scope filter is part of the query, never applied afterwards.
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgId).
		Where("client_id = ?", clientId).
		Order(gorm.Expr("embedding_value <=> ?", pgvector.NewVector(embedding))).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

type PolicyChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PolicyChunkMapper
}

func NewPolicyChunkRepository(db *gorm.DB) contract.PolicyChunkRepository {
	return &PolicyChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewPolicyChunkMapper(),
	}
}

func (r *PolicyChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.PolicyChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.PolicyChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}
	return r.db.WithContext(ctx).CreateInBatches(models, 100).Error
}

func (r *PolicyChunkRepositoryImpl) DeleteByOrganizationId(ctx context.Context, orgId string) error {
	return r.db.WithContext(ctx).Where("organization_id = ?", orgId).Delete(&model.PolicyChunk{}).Error
}

func (r *PolicyChunkRepositoryImpl) CountByOrganizationId(ctx context.Context, orgId string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PolicyChunk{}).Where("organization_id = ?", orgId).Count(&count).Error
	return count, err
}

func (r *PolicyChunkRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, orgId string) ([]*entity.PolicyChunk, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	var models []*model.PolicyChunk
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgId).
		Order(gorm.Expr("embedding_value <=> ?", pgvector.NewVector(embedding))).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	chunks := make([]*entity.PolicyChunk, len(models))
	for i, m := range models {
		chunks[i] = r.mapper.ToEntity(m)
	}
	return chunks, nil
}
