package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type SessionEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationId string          `gorm:"type:varchar(128);not null;index:idx_session_embeddings_scope"`
	ClientId       string          `gorm:"type:varchar(128);not null;index:idx_session_embeddings_scope"`
	SessionId      string          `gorm:"type:varchar(128);not null;index"`
	Document       string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text and text-embedding-004 are both 768-d
	ChunkIndex     int             `gorm:"default:0"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (SessionEmbedding) TableName() string {
	return "session_embeddings"
}

type PolicyChunk struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationId string          `gorm:"type:varchar(128);not null;index"`
	Source         string          `gorm:"type:text"`
	ChunkIndex     int             `gorm:"default:0"`
	Document       string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (PolicyChunk) TableName() string {
	return "policy_chunks"
}
