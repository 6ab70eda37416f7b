package unitofwork

import (
	"context"

	"clinical-intelligence-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SessionRecordRepository() contract.SessionRecordRepository
	SessionEmbeddingRepository() contract.SessionEmbeddingRepository
	PolicyChunkRepository() contract.PolicyChunkRepository
}
