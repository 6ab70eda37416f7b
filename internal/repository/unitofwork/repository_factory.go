package unitofwork

import "context"

// RepositoryFactory hands out units of work. Services depend on it rather than on
// *gorm.DB.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
