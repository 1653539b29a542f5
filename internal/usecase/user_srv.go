package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"user-management/internal/data/entity"
	"user-management/internal/data/repository"
	"user-management/internal/dto/request"
	"user-management/internal/dto/response"
	"user-management/internal/validation"
	"user-management/pkg/mailer"
	"user-management/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const notifyTimeout = 30 * time.Second

type UserService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.UserResponse, error)
	Update(ctx context.Context, userID string, req *request.UpdateRequest) (*response.UserResponse, error)
	GetByID(ctx context.Context, userID string) (*response.UserResponse, error)
	ListUsers(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error)
	ToggleStatus(ctx context.Context, userID string) (bool, error)
	Delete(ctx context.Context, userID string) (bool, error)

	// Wait blocks until in-flight welcome notifications have finished.
	Wait()
}

type userService struct {
	userRepo   repository.UserRepository
	notifier   mailer.Notifier
	normalizer *validation.Normalizer
	register   *validation.Pipeline
	update     *validation.Pipeline
	hashCost   int
	now        func() time.Time
	log        *zap.Logger

	pending sync.WaitGroup
}

type Option func(*userService)

// WithClock replaces time.Now for age checks and creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *userService) { s.now = now }
}

// WithPhonePolicy replaces the default Bangladesh numbering plan.
func WithPhonePolicy(policy validation.PhonePolicy) Option {
	return func(s *userService) { s.normalizer = validation.NewNormalizer(policy) }
}

func NewUserService(
	userRepo repository.UserRepository,
	notifier mailer.Notifier,
	config *utils.Config,
	log *zap.Logger,
	opts ...Option,
) UserService {
	s := &userService{
		userRepo:   userRepo,
		notifier:   notifier,
		normalizer: validation.NewNormalizer(validation.BangladeshPhonePolicy),
		hashCost:   config.Security.BcryptCost,
		now:        time.Now,
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}

	rules := validation.NewRules(userRepo, s.normalizer, s.now)
	s.register = rules.Registration()
	s.update = rules.Update()

	return s
}

func (us *userService) Register(ctx context.Context, req *request.RegisterRequest) (*response.UserResponse, error) {
	// 1. business rules
	input := &validation.Input{
		Email:       &req.Email,
		Password:    &req.Password,
		PhoneNumber: req.PhoneNumber,
		FirstName:   &req.FirstName,
		LastName:    &req.LastName,
		DOB:         req.DOB,
	}
	if err := us.register.Run(ctx, input); err != nil {
		return nil, us.rejected("register", err)
	}

	// 2. normalize
	username, err := requireUsername(req.Username)
	if err != nil {
		return nil, us.rejected("register", err)
	}
	phone, err := us.normalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, us.rejected("register", err)
	}
	dob, err := parseOptionalDate(req.DOB)
	if err != nil {
		return nil, us.rejected("register", err)
	}

	// 3. hash
	hashedPassword, err := utils.HashPassword(req.Password, us.hashCost)
	if err != nil {
		us.log.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("process password: %w", err)
	}

	user := &entity.User{
		Base: entity.Base{
			CreatedAt: us.now(),
		},
		Username:     username,
		Email:        us.normalizer.Email(req.Email),
		PhoneNumber:  phone,
		FirstName:    us.normalizer.Name(req.FirstName),
		LastName:     us.normalizer.Name(req.LastName),
		DOB:          dob,
		DisplayName:  trimOptional(req.DisplayName),
		PasswordHash: hashedPassword,
		IsEnabled:    true,
		IsDeleted:    false,
	}

	// 4. persist
	if err := us.userRepo.Create(ctx, user); err != nil {
		if conflict := conflictError(err); conflict != nil {
			return nil, us.rejected("register", conflict)
		}
		return nil, storeError("create user", err)
	}

	usersRegistered.Inc()
	us.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))

	// 5. best-effort welcome
	us.sendWelcome(user)

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) Update(ctx context.Context, userID string, req *request.UpdateRequest) (*response.UserResponse, error) {
	existing, err := us.findActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	input := &validation.Input{
		PhoneNumber: req.PhoneNumber,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DOB:         req.DOB,
		Existing:    existing,
	}
	if err := us.update.Run(ctx, input); err != nil {
		return nil, us.rejected("update", err)
	}

	fields, err := us.buildUpdate(req)
	if err != nil {
		return nil, us.rejected("update", err)
	}

	if _, err := us.userRepo.Update(ctx, existing.ID, fields); err != nil {
		if conflict := conflictError(err); conflict != nil {
			return nil, us.rejected("update", conflict)
		}
		return nil, storeError("update user", err)
	}

	updated, err := us.findActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	us.log.Info("User updated", zap.String("user_id", updated.ID.String()))

	resp := response.UserToResponse(updated)
	return &resp, nil
}

// GetByID returns ErrUserNotFound for unknown and soft-deleted ids alike.
func (us *userService) GetByID(ctx context.Context, userID string) (*response.UserResponse, error) {
	user, err := us.findActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) ListUsers(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	if req.Page < 1 {
		req.Page = 1
	}
	req.PerPage = req.Limit()

	users, err := us.userRepo.FindAll(ctx, req.Limit(), req.Offset())
	if err != nil {
		return nil, storeError("list users", err)
	}

	total, err := us.userRepo.CountAll(ctx)
	if err != nil {
		return nil, storeError("count users", err)
	}

	us.log.Debug("Users retrieved",
		zap.Int("count", len(users)),
		zap.Int64("total", total),
		zap.Int("page", req.Page),
		zap.Int("per_page", req.PerPage),
		zap.Int("total_pages", utils.CalculateTotalPages(total, req.PerPage)),
	)

	return response.NewPaginatedResponse(response.UsersToResponse(users), req.Page, req.PerPage, total), nil
}

// ToggleStatus flips IsEnabled and reports whether the store changed the row.
func (us *userService) ToggleStatus(ctx context.Context, userID string) (bool, error) {
	user, err := us.findActive(ctx, userID)
	if err != nil {
		return false, err
	}

	enabled := !user.IsEnabled
	changed, err := us.userRepo.Update(ctx, user.ID, entity.UserUpdate{IsEnabled: &enabled})
	if err != nil {
		return false, storeError("toggle user status", err)
	}

	us.log.Info("User status changed",
		zap.String("user_id", user.ID.String()),
		zap.Bool("is_enabled", enabled),
		zap.Bool("changed", changed))
	return changed, nil
}

// Delete soft-deletes the user. The record stays in the store, flagged
// removed and disabled.
func (us *userService) Delete(ctx context.Context, userID string) (bool, error) {
	user, err := us.findActive(ctx, userID)
	if err != nil {
		return false, err
	}

	deleted, err := us.userRepo.Delete(ctx, user.ID)
	if err != nil {
		return false, storeError("delete user", err)
	}

	us.log.Info("User deleted", zap.String("user_id", user.ID.String()), zap.String("email", user.Email))
	return deleted, nil
}

func (us *userService) Wait() {
	us.pending.Wait()
}

// ==================== HELPERS ====================

// findActive loads a user that exists and is not soft-deleted. Malformed ids
// cannot match any user and are reported as not found.
func (us *userService) findActive(ctx context.Context, userID string) (*entity.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	user, err := us.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("find user", err)
	}
	if user == nil || user.IsDeleted {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// buildUpdate keeps only the fields present in the request. Email, password
// and lifecycle flags have no path into the patch.
func (us *userService) buildUpdate(req *request.UpdateRequest) (entity.UserUpdate, error) {
	var fields entity.UserUpdate

	if req.Username != nil {
		username, err := requireUsername(*req.Username)
		if err != nil {
			return fields, err
		}
		fields.Username = &username
	}
	if req.FirstName != nil {
		fields.FirstName = trimmed(us.normalizer.Name(*req.FirstName))
	}
	if req.LastName != nil {
		fields.LastName = trimmed(us.normalizer.Name(*req.LastName))
	}
	if req.DisplayName != nil {
		// "" clears the stored display name.
		fields.DisplayName = trimmed(*req.DisplayName)
	}
	if req.PhoneNumber != nil {
		phone, err := us.normalizePhone(req.PhoneNumber)
		if err != nil {
			return fields, err
		}
		if phone == nil {
			phone = new(string)
		}
		fields.PhoneNumber = phone
	}
	if req.DOB != nil {
		dob, err := parseOptionalDate(req.DOB)
		if err != nil {
			return fields, err
		}
		if dob == nil {
			dob = &time.Time{}
		}
		fields.DOB = dob
	}

	return fields, nil
}

// normalizePhone returns nil for an absent or blank phone.
func (us *userService) normalizePhone(raw *string) (*string, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	phone, err := us.normalizer.Phone(*raw)
	if err != nil {
		return nil, err
	}
	return &phone, nil
}

func (us *userService) sendWelcome(user *entity.User) {
	name := user.FirstName
	if user.DisplayName != nil && *user.DisplayName != "" {
		name = *user.DisplayName
	}

	us.pending.Add(1)
	go func(to, name string) {
		defer us.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := us.notifier.SendWelcome(ctx, to, name); err != nil {
			welcomeNotifications.WithLabelValues("failed").Inc()
			us.log.Warn("Failed to send welcome notification", zap.Error(err), zap.String("email", to))
			return
		}
		welcomeNotifications.WithLabelValues("sent").Inc()
	}(user.Email, name)
}

// rejected logs and counts a business-rule rejection. Errors that are not
// rule violations came from a store lookup inside a validator.
func (us *userService) rejected(operation string, err error) error {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		return storeError(operation, err)
	}
	validationRejections.WithLabelValues(operation, string(verr.Kind)).Inc()
	us.log.Warn("User "+operation+" rejected",
		zap.String("kind", string(verr.Kind)),
		zap.String("field", verr.Field))
	return err
}

// conflictError maps a store unique-constraint violation to the matching
// validation error, or returns nil.
func conflictError(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return validation.NewError(validation.KindEmailInUse, "email", "Email already in use")
	case errors.Is(err, repository.ErrDuplicatePhone):
		return validation.NewError(validation.KindPhoneInUse, "phoneNumber", "Phone number already in use")
	}
	return nil
}

func storeError(operation string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, operation, err)
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := validation.ParseDate(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func requireUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	if username == "" {
		return "", validation.NewError(validation.KindInvalidUsername, "username", "Username cannot be blank")
	}
	return username, nil
}

func trimmed(s string) *string {
	v := strings.TrimSpace(s)
	return &v
}
