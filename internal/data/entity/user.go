package entity

import "time"

// UserStatus is derived from the IsEnabled/IsDeleted pair.
type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusSuspended UserStatus = "suspended"
	StatusRemoved   UserStatus = "removed"
)

type User struct {
	Base
	Username     string     `db:"username"`
	Email        string     `db:"email"`
	PhoneNumber  *string    `db:"phone_number"`
	FirstName    string     `db:"first_name"`
	LastName     string     `db:"last_name"`
	DOB          *time.Time `db:"dob"`
	DisplayName  *string    `db:"display_name"`
	PasswordHash string     `db:"password_hash"`
	IsEnabled    bool       `db:"is_enabled"`
	IsDeleted    bool       `db:"is_deleted"`
}

func (u *User) Status() UserStatus {
	switch {
	case u.IsDeleted:
		return StatusRemoved
	case u.IsEnabled:
		return StatusActive
	default:
		return StatusSuspended
	}
}

// UserUpdate is a sparse patch. A nil field is left untouched.
// PhoneNumber or DisplayName set to "" and DOB set to the zero time clear the
// stored value.
// Identity fields (id, email, password hash, created_at, is_deleted) have no
// counterpart here and cannot be written through Update.
type UserUpdate struct {
	Username    *string
	FirstName   *string
	LastName    *string
	DisplayName *string
	PhoneNumber *string
	DOB         *time.Time
	IsEnabled   *bool
}

func (u UserUpdate) IsEmpty() bool {
	return u.Username == nil &&
		u.FirstName == nil &&
		u.LastName == nil &&
		u.DisplayName == nil &&
		u.PhoneNumber == nil &&
		u.DOB == nil &&
		u.IsEnabled == nil
}
