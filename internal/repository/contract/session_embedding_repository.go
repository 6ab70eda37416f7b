package contract

import (
	"context"

	"clinical-intelligence-be/internal/entity"
)

type SessionEmbeddingRepository interface {
	CreateBulk(ctx context.Context, embeddings []*entity.SessionEmbedding) error
	DeleteBySessionId(ctx context.Context, orgId, clientId, sessionId string) error
	// SearchSimilar only ever returns rows of the given organization and client.
	SearchSimilar(ctx context.Context, embedding []float32, limit int, orgId, clientId string) ([]*entity.SessionEmbedding, error)
}

type PolicyChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.PolicyChunk) error
	DeleteByOrganizationId(ctx context.Context, orgId string) error
	CountByOrganizationId(ctx context.Context, orgId string) (int64, error)
	SearchSimilar(ctx context.Context, embedding []float32, limit int, orgId string) ([]*entity.PolicyChunk, error)
}
