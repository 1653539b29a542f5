package entity

import (
	"time"

	"github.com/google/uuid"
)

// Base holds the identity and timestamps every stored user carries.
// DeletedAt is set together with User.IsDeleted by a soft delete.
type Base struct {
	ID        uuid.UUID  `db:"id"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}
