package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// GormStore is a GORM implementation of Store
type GormStore struct {
	db *gorm.DB
}

// New creates a Store backed by db
func New(db *gorm.DB) Store {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepository {
	return &GormUserRepository{db: s.db}
}

func (s *GormStore) Tasks() TaskRepository {
	return &GormTaskRepository{db: s.db}
}

func (s *GormStore) Groups() GroupRepository {
	return &GormGroupRepository{db: s.db}
}

func (s *GormStore) RevokedTokens() RevokedTokenRepository {
	return &GormRevokedTokenRepository{db: s.db}
}

// Transaction runs fn inside a database transaction
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// notFound maps gorm.ErrRecordNotFound to ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
