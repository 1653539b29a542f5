package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"user-management/internal/dto/request"
	"user-management/internal/usecase"
	"user-management/internal/validation"
	"user-management/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type UserHandler struct {
	service usecase.UserService
	log     *zap.Logger
}

func NewUserHandler(service usecase.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log,
	}
}

// Register handles POST /api/users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	user, err := h.service.Register(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "register")
		return
	}

	utils.ResponseCreated(w, "User registered successfully", user)
}

// ListUsers handles GET /api/users?page=1&per_page=10
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), request.DefaultPerPage),
	}

	users, err := h.service.ListUsers(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, err, "list users")
		return
	}

	utils.ResponseSuccess(w, "Users retrieved successfully", users)
}

// GetUser handles GET /api/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "get user")
		return
	}

	utils.ResponseSuccess(w, "User retrieved successfully", user)
}

// UpdateUser handles PUT /api/users/{id}. The raw object is checked for
// forbidden keys before it is decoded into the typed request.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if forbidden := request.ForbiddenKeys(raw); len(forbidden) > 0 {
		errs := make(map[string]string, len(forbidden))
		for _, key := range forbidden {
			errs[key] = "This field cannot be updated"
		}
		h.log.Warn("Update rejected - forbidden fields", zap.Strings("fields", forbidden))
		utils.ResponseBadRequest(w, "Request contains fields that cannot be updated", errs)
		return
	}

	var req request.UpdateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	user, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, err, "update user")
		return
	}

	utils.ResponseSuccess(w, "User updated successfully", user)
}

// ToggleStatus handles PATCH /api/users/{id}/status
func (h *UserHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	changed, err := h.service.ToggleStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "toggle user status")
		return
	}

	utils.ResponseSuccess(w, "User status updated", map[string]bool{"updated": changed})
}

// DeleteUser handles DELETE /api/users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "delete user")
		return
	}

	utils.ResponseSuccess(w, "User deleted successfully", map[string]bool{"deleted": deleted})
}

func (h *UserHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	var verr *validation.Error

	switch {
	case errors.As(err, &verr) && validation.IsConflict(err):
		utils.ResponseConflict(w, verr.Error(), fieldError(verr))

	case errors.As(err, &verr):
		utils.ResponseBadRequest(w, verr.Error(), fieldError(verr))

	case errors.Is(err, usecase.ErrUserNotFound):
		utils.ResponseNotFound(w, "User not found")

	default:
		h.log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

func fieldError(verr *validation.Error) map[string]string {
	field := verr.Field
	if field == "" {
		field = string(verr.Kind)
	}
	return map[string]string{field: string(verr.Kind)}
}
