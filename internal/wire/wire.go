package wire

import (
	"net/http"

	"user-management/internal/adaptor"
	"user-management/internal/data/repository"
	"user-management/internal/usecase"
	"user-management/pkg/mailer"
	"user-management/pkg/middleware"
	"user-management/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the wired router and the services behind it.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

func Wiring(repo *repository.Repository, notifier mailer.Notifier, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(repo, notifier, config, logger)
	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router:  setupRouter(handler, config, logger),
		Service: service,
	}
}

func setupRouter(handler *adaptor.Handler, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(config.CORS.AllowedOrigins))

	wireUser(r, handler.User)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
