package validation

import (
	"context"
	"time"
)

// Pipeline runs validators in order and stops at the first failure.
type Pipeline struct {
	validators []Validator
}

func NewPipeline(validators ...Validator) *Pipeline {
	return &Pipeline{validators: validators}
}

// Run returns the first error unchanged, or nil when every validator passes.
func (p *Pipeline) Run(ctx context.Context, in *Input) error {
	for _, v := range p.validators {
		if err := v.Validate(ctx, in); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) Len() int {
	return len(p.validators)
}

// Rules owns one instance of every field validator and composes the
// per-operation pipelines from them.
type Rules struct {
	Name     NameValidator
	Age      *AgeValidator
	Password *PasswordValidator
	Email    *EmailAvailability
	Phone    *PhoneAvailability
}

func NewRules(users UserLookup, normalizer *Normalizer, now func() time.Time) *Rules {
	return &Rules{
		Name:     NameValidator{},
		Age:      NewAgeValidator(now),
		Password: NewPasswordValidator(normalizer),
		Email:    NewEmailAvailability(users, normalizer),
		Phone:    NewPhoneAvailability(users, normalizer),
	}
}

// Registration validates a full sign-up payload.
func (r *Rules) Registration() *Pipeline {
	return NewPipeline(r.Name, r.Age, r.Password, r.Email, r.Phone)
}

// Update validates the fields an update may carry. Email and password are
// not updatable, so their rules are left out.
func (r *Rules) Update() *Pipeline {
	return NewPipeline(r.Name, r.Age, r.Phone)
}
