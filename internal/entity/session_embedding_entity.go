package entity

import (
	"time"

	"github.com/google/uuid"
)

type SessionEmbedding struct {
	Id             uuid.UUID
	OrganizationId string
	ClientId       string
	SessionId      string
	Document       string
	EmbeddingValue []float32
	ChunkIndex     int
	CreatedAt      time.Time
}

type PolicyChunk struct {
	Id             uuid.UUID
	OrganizationId string
	Source         string
	ChunkIndex     int
	Document       string
	EmbeddingValue []float32
	CreatedAt      time.Time
}
