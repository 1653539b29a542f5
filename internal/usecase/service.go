package usecase

import (
	"user-management/internal/data/repository"
	"user-management/pkg/mailer"
	"user-management/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	User UserService
}

func NewService(repo *repository.Repository, notifier mailer.Notifier, config *utils.Config, log *zap.Logger) *Service {
	return &Service{
		User: NewUserService(repo.User, notifier, config, log),
	}
}
