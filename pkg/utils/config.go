package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

type Config struct {
	App      AppConfig
	Store    string
	Database DatabaseConfig
	Mongo    MongoConfig
	Security SecurityConfig
	Email    EmailConfig
	CORS     CORSConfig
}

type AppConfig struct {
	Name            string
	Port            string
	Debug           bool
	LogPath         string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	MaxConns    int32
	AutoMigrate bool
}

type MongoConfig struct {
	URI         string
	Database    string
	MaxPoolSize uint64
}

type SecurityConfig struct {
	BcryptCost int
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled reports whether an SMTP relay is configured.
func (e EmailConfig) Enabled() bool {
	return e.Host != ""
}

type CORSConfig struct {
	AllowedOrigins []string
}

// LoadConfig reads .env from the working directory, then the environment.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(".env")
}

// LoadConfigFrom reads the given env file. A missing file is not an error;
// process environment variables always win.
func LoadConfigFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	v.SetDefault("APP_NAME", "user-management")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)
	v.SetDefault("STORE_DRIVER", StorePostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "user_management")
	v.SetDefault("MONGO_MAX_POOL_SIZE", 10)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:            v.GetString("APP_NAME"),
			Port:            v.GetString("PORT"),
			Debug:           v.GetBool("DEBUG"),
			LogPath:         v.GetString("LOG_PATH"),
			ShutdownTimeout: time.Duration(v.GetInt("SHUTDOWN_TIMEOUT_SECONDS")) * time.Second,
		},
		Store: strings.ToLower(v.GetString("STORE_DRIVER")),
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			Name:        v.GetString("DB_NAME"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASS"),
			MaxConns:    v.GetInt32("DB_MAX_CONNS"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		Mongo: MongoConfig{
			URI:         v.GetString("MONGO_URI"),
			Database:    v.GetString("MONGO_DB"),
			MaxPoolSize: v.GetUint64("MONGO_MAX_POOL_SIZE"),
		},
		Security: SecurityConfig{
			BcryptCost: v.GetInt("BCRYPT_COST"),
		},
		Email: EmailConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASS"),
			From:     v.GetString("EMAIL_FROM"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
	}

	if config.Store != StorePostgres && config.Store != StoreMongo {
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", config.Store)
	}

	return config, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
