// Package validation holds the user business rules: input normalization,
// the field validators and the fail-fast pipeline that runs them.
package validation

import "errors"

// Kind identifies which rule rejected the input.
type Kind string

const (
	KindInvalidName                  Kind = "invalid_name"
	KindInvalidUsername              Kind = "invalid_username"
	KindUnderageUser                 Kind = "underage_user"
	KindInvalidDateOfBirth           Kind = "invalid_date_of_birth"
	KindWeakPassword                 Kind = "weak_password"
	KindPasswordContainsIdentifier   Kind = "password_contains_identifier"
	KindEmailInUse                   Kind = "email_in_use"
	KindEmailBelongsToDeletedAccount Kind = "email_belongs_to_deleted_account"
	KindPhoneInUse                   Kind = "phone_in_use"
	KindPhoneBelongsToDeletedAccount Kind = "phone_belongs_to_deleted_account"
	KindInvalidPhoneFormat           Kind = "invalid_phone_format"
)

// ErrValidationFailed matches every *Error through errors.Is.
var ErrValidationFailed = errors.New("validation failed")

// Error is a rejected business rule. Field names the offending input field
// when the rule is tied to one.
type Error struct {
	Kind    Kind
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches ErrValidationFailed and any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	if target == ErrValidationFailed {
		return true
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewError also serves rules enforced outside this package, such as a store
// unique constraint.
func NewError(kind Kind, field, msg string) *Error {
	return &Error{Kind: kind, Field: field, Message: msg}
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidName                  = &Error{Kind: KindInvalidName}
	ErrInvalidUsername              = &Error{Kind: KindInvalidUsername}
	ErrUnderageUser                 = &Error{Kind: KindUnderageUser}
	ErrInvalidDateOfBirth           = &Error{Kind: KindInvalidDateOfBirth}
	ErrWeakPassword                 = &Error{Kind: KindWeakPassword}
	ErrPasswordContainsIdentifier   = &Error{Kind: KindPasswordContainsIdentifier}
	ErrEmailInUse                   = &Error{Kind: KindEmailInUse}
	ErrEmailBelongsToDeletedAccount = &Error{Kind: KindEmailBelongsToDeletedAccount}
	ErrPhoneInUse                   = &Error{Kind: KindPhoneInUse}
	ErrPhoneBelongsToDeletedAccount = &Error{Kind: KindPhoneBelongsToDeletedAccount}
	ErrInvalidPhoneFormat           = &Error{Kind: KindInvalidPhoneFormat}
)

// IsConflict reports whether err is a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrEmailInUse) ||
		errors.Is(err, ErrEmailBelongsToDeletedAccount) ||
		errors.Is(err, ErrPhoneInUse) ||
		errors.Is(err, ErrPhoneBelongsToDeletedAccount)
}
