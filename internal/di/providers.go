package di

import (
	"os"
	"strconv"

	"gorm.io/gorm"

	"palchat/internal/chat/handler"
	"palchat/internal/config"
	"palchat/internal/presence"
)

// Application bundles everything the chat-svc entrypoint needs.
type Application struct {
	Config      *config.Config
	DB          *gorm.DB
	Registry    *presence.Registry
	WSHandler   *handler.WSHandler
	HTTPHandler *handler.HTTPHandler
}

// ProvideConfig builds the config from the environment with development
// defaults.
func ProvideConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:         getEnvOrDefault("PORT", "8080"),
			MediaPort:    getEnvOrDefault("MEDIA_PORT", "8081"),
			Host:         getEnvOrDefault("HOST", "0.0.0.0"),
			ReadTimeout:  getEnvIntOrDefault("READ_TIMEOUT", 15),
			WriteTimeout: getEnvIntOrDefault("WRITE_TIMEOUT", 15),
			Environment:  getEnvOrDefault("ENVIRONMENT", "development"),
		},
		Database: config.DatabaseConfig{
			Host:         getEnvOrDefault("DB_HOST", "localhost"),
			Port:         getEnvOrDefault("DB_PORT", "3306"),
			Username:     getEnvOrDefault("DB_USER", "palchat_user"),
			Password:     getEnvOrDefault("DB_PASSWORD", ""),
			DatabaseName: getEnvOrDefault("DB_NAME", "palchat_db"),
			MaxOpenConns: getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		},
		MongoDB: config.MongoConfig{
			Host:     getEnvOrDefault("MONGO_HOST", "localhost"),
			Port:     getEnvOrDefault("MONGO_PORT", "27017"),
			Username: getEnvOrDefault("MONGO_USER", ""),
			Password: getEnvOrDefault("MONGO_PASSWORD", ""),
			Database: getEnvOrDefault("MONGO_DB", "palchat_media"),
		},
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
