package implementation

import (
	"context"
	"errors"

	"clinical-intelligence-be/internal/entity"
	"clinical-intelligence-be/internal/mapper"
	"clinical-intelligence-be/internal/model"
	"clinical-intelligence-be/internal/repository/contract"
	"clinical-intelligence-be/internal/repository/specification"

	"gorm.io/gorm"
)

type SessionRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionRecordMapper
}

func NewSessionRecordRepository(db *gorm.DB) contract.SessionRecordRepository {
	return &SessionRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionRecordMapper(),
	}
}

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SessionRecordRepositoryImpl) Create(ctx context.Context, record *entity.SessionRecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *SessionRecordRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SessionRecord, error) {
	var m model.SessionRecord
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SessionRecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SessionRecord, error) {
	var models []*model.SessionRecord
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SessionRecordRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.SessionRecord{}).Count(&count).Error
	return count, err
}
