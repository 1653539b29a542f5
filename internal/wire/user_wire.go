package wire

import (
	"user-management/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireUser(r chi.Router, userHandler *adaptor.UserHandler) {
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", userHandler.Register)
		r.Get("/", userHandler.ListUsers) // GET /api/users?page=1&per_page=10
		r.Get("/{id}", userHandler.GetUser)
		r.Put("/{id}", userHandler.UpdateUser)
		r.Patch("/{id}/status", userHandler.ToggleStatus)
		r.Delete("/{id}", userHandler.DeleteUser) // soft delete
	})
}
