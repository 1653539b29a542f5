package repository

import (
	"context"
	"errors"

	"user-management/internal/data/entity"
	"user-management/pkg/database"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

var (
	// ErrDuplicateEmail is returned by Create when the store's unique email
	// constraint rejects the insert.
	ErrDuplicateEmail = errors.New("duplicate email")

	// ErrDuplicatePhone is returned by Create or Update when the store's
	// unique phone constraint rejects the write.
	ErrDuplicatePhone = errors.New("duplicate phone number")
)

// UserRepository is the user store contract.
//
// Lookups return (nil, nil) when nothing matches. FindByID, FindByEmail and
// FindByPhoneNumber also return soft-deleted users so callers can tell a free
// identifier from one held by a removed account. Implementations must back
// email and phone uniqueness with a store-level constraint; the read-then-write
// check done by callers is not atomic.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByPhoneNumber(ctx context.Context, phone string) (*entity.User, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.User, error)
	CountAll(ctx context.Context) (int64, error)
	Update(ctx context.Context, id uuid.UUID, fields entity.UserUpdate) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	HardDelete(ctx context.Context, id uuid.UUID) (bool, error)
}

type Repository struct {
	User UserRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User: NewUserRepository(db, log),
	}
}

func NewMongoRepository(db *mongo.Database, log *zap.Logger) *Repository {
	return &Repository{
		User: NewUserMongoRepository(db, log),
	}
}
