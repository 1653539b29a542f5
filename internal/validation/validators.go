package validation

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"user-management/internal/data/entity"
)

const (
	minNameLength     = 2
	maxNameLength     = 50
	minimumAge        = 13
	minPasswordLength = 10
	maxPasswordBytes  = 72
	passwordSymbols   = `!@#$%^&*(),.?":{}|<>`
	phoneSuffixDigits = 6
)

var (
	namePattern   = regexp.MustCompile(`^[A-Za-z\s\-']+$`)
	weakPasswords = []string{"password", "1234567890", "admin123", "password123"}
)

// Input carries the fields a validator may inspect. A nil field was not
// supplied by the caller and is skipped. Existing is the stored record when
// validating an update and nil on registration.
type Input struct {
	Email       *string
	Password    *string
	PhoneNumber *string
	FirstName   *string
	LastName    *string
	DOB         *string

	Existing *entity.User
}

// Validator checks the fields it governs and returns the first violated rule.
type Validator interface {
	Validate(ctx context.Context, in *Input) error
}

// UserLookup is the read side of the user store needed for uniqueness checks.
// Both lookups must return soft-deleted users as well.
type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByPhoneNumber(ctx context.Context, phone string) (*entity.User, error)
}

// ==================== NAME ====================

type NameValidator struct{}

func (NameValidator) Validate(_ context.Context, in *Input) error {
	if in.FirstName != nil {
		if err := validateName("firstName", "First name", *in.FirstName); err != nil {
			return err
		}
	}
	if in.LastName != nil {
		if err := validateName("lastName", "Last name", *in.LastName); err != nil {
			return err
		}
	}
	return nil
}

func validateName(field, label, raw string) error {
	name := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(name)
	if n < minNameLength || n > maxNameLength {
		return NewError(KindInvalidName, field,
			fmt.Sprintf("%s must be between %d and %d characters", label, minNameLength, maxNameLength))
	}
	if !namePattern.MatchString(name) {
		return NewError(KindInvalidName, field, label+" contains invalid characters")
	}
	return nil
}

// ==================== AGE ====================

type AgeValidator struct {
	now func() time.Time
}

func NewAgeValidator(now func() time.Time) *AgeValidator {
	if now == nil {
		now = time.Now
	}
	return &AgeValidator{now: now}
}

func (v *AgeValidator) Validate(_ context.Context, in *Input) error {
	if in.DOB == nil || strings.TrimSpace(*in.DOB) == "" {
		return nil
	}

	dob, err := ParseDate(*in.DOB)
	if err != nil {
		return err
	}

	if AgeOn(dob, v.now()) < minimumAge {
		return NewError(KindUnderageUser, "dob", fmt.Sprintf("User must be at least %d years old", minimumAge))
	}
	return nil
}

// AgeOn returns the number of whole years between dob and on, counting a
// year only once the birthday has been reached. Both are compared as UTC
// calendar dates, the zone ParseDate produces.
func AgeOn(dob, on time.Time) int {
	dob, on = dob.UTC(), on.UTC()
	years := on.Year() - dob.Year()
	if on.Month() < dob.Month() || (on.Month() == dob.Month() && on.Day() < dob.Day()) {
		years--
	}
	return years
}

// ==================== PASSWORD ====================

type PasswordValidator struct {
	normalizer *Normalizer
}

func NewPasswordValidator(normalizer *Normalizer) *PasswordValidator {
	return &PasswordValidator{normalizer: normalizer}
}

// Validate checks, in order: length bounds, complexity, email local part, phone
// suffix, common-password denylist.
func (v *PasswordValidator) Validate(_ context.Context, in *Input) error {
	if in.Password == nil {
		return nil
	}
	password := *in.Password
	lowered := strings.ToLower(password)

	if utf8.RuneCountInString(password) < minPasswordLength {
		return NewError(KindWeakPassword, "password",
			fmt.Sprintf("Password must be at least %d characters long", minPasswordLength))
	}
	// bcrypt rejects anything longer.
	if len(password) > maxPasswordBytes {
		return NewError(KindWeakPassword, "password",
			fmt.Sprintf("Password must be at most %d bytes long", maxPasswordBytes))
	}

	if !hasRequiredClasses(password) {
		return NewError(KindWeakPassword, "password",
			"Password must include uppercase, lowercase, number, and special character")
	}

	if local := v.emailLocalPart(in); local != "" && strings.Contains(lowered, local) {
		return NewError(KindPasswordContainsIdentifier, "password", "Password cannot contain your email identifier")
	}

	if suffix := v.phoneSuffix(in); suffix != "" && strings.Contains(password, suffix) {
		return NewError(KindPasswordContainsIdentifier, "password", "Password cannot contain part of your phone number")
	}

	for _, weak := range weakPasswords {
		if lowered == weak {
			return NewError(KindWeakPassword, "password", "Password is too common. Please choose a stronger one")
		}
	}
	return nil
}

func hasRequiredClasses(password string) bool {
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

func (v *PasswordValidator) emailLocalPart(in *Input) string {
	var email string
	switch {
	case in.Email != nil:
		email = v.normalizer.Email(*in.Email)
	case in.Existing != nil:
		email = in.Existing.Email
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

func (v *PasswordValidator) phoneSuffix(in *Input) string {
	var raw string
	switch {
	case in.PhoneNumber != nil:
		raw = *in.PhoneNumber
	case in.Existing != nil && in.Existing.PhoneNumber != nil:
		raw = *in.Existing.PhoneNumber
	}
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	digits := digitsOnly(raw)
	if canonical, err := v.normalizer.Phone(raw); err == nil {
		digits = digitsOnly(canonical)
	}
	if len(digits) > phoneSuffixDigits {
		digits = digits[len(digits)-phoneSuffixDigits:]
	}
	return digits
}

// ==================== EMAIL AVAILABILITY ====================

type EmailAvailability struct {
	users      UserLookup
	normalizer *Normalizer
}

func NewEmailAvailability(users UserLookup, normalizer *Normalizer) *EmailAvailability {
	return &EmailAvailability{users: users, normalizer: normalizer}
}

func (v *EmailAvailability) Validate(ctx context.Context, in *Input) error {
	if in.Email == nil {
		return nil
	}
	email := v.normalizer.Email(*in.Email)

	owner, err := v.users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check email availability: %w", err)
	}
	if owner == nil || isSameUser(owner, in.Existing) {
		return nil
	}
	if owner.IsDeleted {
		return NewError(KindEmailBelongsToDeletedAccount, "email",
			"This email belongs to a deleted account. Please contact an admin to restore it")
	}
	return NewError(KindEmailInUse, "email", "Email already in use")
}

// ==================== PHONE AVAILABILITY ====================

type PhoneAvailability struct {
	users      UserLookup
	normalizer *Normalizer
}

func NewPhoneAvailability(users UserLookup, normalizer *Normalizer) *PhoneAvailability {
	return &PhoneAvailability{users: users, normalizer: normalizer}
}

// Validate skips an empty phone (nothing to claim) and, on update, a phone
// equal to the one already stored.
func (v *PhoneAvailability) Validate(ctx context.Context, in *Input) error {
	if in.PhoneNumber == nil || strings.TrimSpace(*in.PhoneNumber) == "" {
		return nil
	}

	phone, err := v.normalizer.Phone(*in.PhoneNumber)
	if err != nil {
		return err
	}
	if in.Existing != nil && in.Existing.PhoneNumber != nil && *in.Existing.PhoneNumber == phone {
		return nil
	}

	owner, err := v.users.FindByPhoneNumber(ctx, phone)
	if err != nil {
		return fmt.Errorf("check phone availability: %w", err)
	}
	if owner == nil || isSameUser(owner, in.Existing) {
		return nil
	}
	if owner.IsDeleted {
		return NewError(KindPhoneBelongsToDeletedAccount, "phoneNumber",
			"This phone number belongs to a deleted account. Please contact an admin to restore it")
	}
	return NewError(KindPhoneInUse, "phoneNumber", "Phone number already in use")
}

func isSameUser(owner, existing *entity.User) bool {
	return existing != nil && owner.ID == existing.ID
}
