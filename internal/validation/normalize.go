package validation

import (
	"strings"
	"time"
	"unicode"
)

// PhonePolicy describes one national numbering plan. Only the Bangladesh
// plan is shipped; callers in other regions supply their own policy.
type PhonePolicy struct {
	// CountryPrefix is stripped from the leading digits when present.
	CountryPrefix string
	// TrunkPrefix is stripped after the country prefix when present.
	TrunkPrefix string
	// SubscriberDigits is the exact length of what remains.
	SubscriberDigits int
	// CanonicalPrefix is prepended to the subscriber digits.
	CanonicalPrefix string
}

// BangladeshPhonePolicy turns 01711223344, 8801711223344 and +880 1711-223344
// into +8801711223344.
var BangladeshPhonePolicy = PhonePolicy{
	CountryPrefix:    "88",
	TrunkPrefix:      "0",
	SubscriberDigits: 10,
	CanonicalPrefix:  "+880",
}

// Normalizer reduces raw input to canonical form.
type Normalizer struct {
	phone PhonePolicy
}

func NewNormalizer(policy PhonePolicy) *Normalizer {
	return &Normalizer{phone: policy}
}

func (n *Normalizer) Email(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func (n *Normalizer) Name(raw string) string {
	return strings.TrimSpace(raw)
}

// Phone returns the canonical phone number or ErrInvalidPhoneFormat.
func (n *Normalizer) Phone(raw string) (string, error) {
	digits := digitsOnly(raw)
	digits = strings.TrimPrefix(digits, n.phone.CountryPrefix)
	digits = strings.TrimPrefix(digits, n.phone.TrunkPrefix)

	if len(digits) != n.phone.SubscriberDigits {
		return "", NewError(KindInvalidPhoneFormat, "phoneNumber", "invalid phone number format")
	}
	return n.phone.CanonicalPrefix + digits, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano}

// ParseDate accepts a calendar date (YYYY-MM-DD) or an RFC 3339 timestamp and
// returns midnight UTC of that date.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, NewError(KindInvalidDateOfBirth, "dob", "date of birth must be a valid date (YYYY-MM-DD)")
}
