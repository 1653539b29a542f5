package main

import (
	"context"
	"log"
	"time"

	"user-management/cmd"
	"user-management/internal/data/repository"
	"user-management/internal/wire"
	"user-management/pkg/database"
	"user-management/pkg/mailer"
	"user-management/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("store", config.Store),
		zap.Bool("debug", config.App.Debug),
	)

	repos, closeStore := openStore(config, logger)
	defer closeStore()

	notifier := mailer.New(config.Email, logger)
	if !config.Email.Enabled() {
		logger.Info("SMTP_HOST not set, welcome emails will only be logged")
	}

	app := wire.Wiring(repos, notifier, config, logger)

	if err := cmd.APIServer(app.Router, config.App.Port, config.App.ShutdownTimeout, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}

	app.Service.User.Wait()
	logger.Info("Server stopped")
}

// openStore connects the configured backend and returns its repositories and
// a close func.
func openStore(config *utils.Config, logger *zap.Logger) (*repository.Repository, func()) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch config.Store {
	case utils.StoreMongo:
		client, db, err := database.InitMongo(config.Mongo)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		if err := repository.EnsureUserIndexes(ctx, db); err != nil {
			logger.Fatal("Failed to create indexes", zap.Error(err))
		}
		logger.Info("MongoDB connected successfully", zap.String("database", config.Mongo.Database))

		return repository.NewMongoRepository(db, logger), func() {
			_ = client.Disconnect(context.Background())
		}

	default:
		db, err := database.InitDB(config.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		if config.Database.AutoMigrate {
			if err := database.EnsureSchema(ctx, db); err != nil {
				logger.Fatal("Failed to apply schema", zap.Error(err))
			}
			logger.Info("Database schema applied")
		}
		logger.Info("Database connected successfully")

		return repository.NewRepository(db, logger), db.Close
	}
}
