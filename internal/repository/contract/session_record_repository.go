package contract

import (
	"context"

	"clinical-intelligence-be/internal/entity"
	"clinical-intelligence-be/internal/repository/specification"
)

type SessionRecordRepository interface {
	Create(ctx context.Context, record *entity.SessionRecord) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SessionRecord, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SessionRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
