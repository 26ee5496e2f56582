package login

import (
	"context"

	"gorm.io/gorm"

	"github.com/aserdan/citadel/internal/core/data"
)

// UserStore is the storage collaborator the login flow authenticates against.
// All methods distinguish "not found" (nil result, nil error) from storage
// failures.
type UserStore interface {
	FindAccountByUsername(ctx context.Context, username string) (*data.Account, error)
	FindProfileByAccountID(ctx context.Context, accountID uint64) (*data.Profile, error)
	DisplayNameTaken(ctx context.Context, displayName string) (bool, error)
	UpdateDisplayName(ctx context.Context, accountID uint64, displayName string) error
}

// GormStore adapts the data package's query helpers to the UserStore contract.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindAccountByUsername(ctx context.Context, username string) (*data.Account, error) {
	return data.FindAccountByUsername(s.db.WithContext(ctx), username)
}

func (s *GormStore) FindProfileByAccountID(ctx context.Context, accountID uint64) (*data.Profile, error) {
	return data.FindProfileByAccountID(s.db.WithContext(ctx), accountID)
}

func (s *GormStore) DisplayNameTaken(ctx context.Context, displayName string) (bool, error) {
	return data.DisplayNameTaken(s.db.WithContext(ctx), displayName)
}

func (s *GormStore) UpdateDisplayName(ctx context.Context, accountID uint64, displayName string) error {
	return data.UpdateDisplayName(s.db.WithContext(ctx), accountID, displayName)
}
