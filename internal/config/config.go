package config

import (
	"fmt"
)

type Config struct {
	Server ServerConfig `json:"server"`

	// Database Configuration (MySQL, message store)
	Database DatabaseConfig `json:"database"`

	// MongoDB Configuration (GridFS attachment storage)
	MongoDB MongoConfig `json:"mongodb"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port           string `json:"port"`
	MediaPort      string `json:"media_port"`
	Host           string `json:"host"`
	ReadTimeout    int    `json:"read_timeout"`
	WriteTimeout   int    `json:"write_timeout"`
	Environment    string `json:"environment"` // development, staging, production
	AllowedOrigins string `json:"allowed_origins"`
}

// DatabaseConfig contains MySQL connection configuration
type DatabaseConfig struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	DatabaseName string `json:"database_name"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

// MongoConfig contains MongoDB connection configuration
type MongoConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"database"`
}

// DSN builds the MySQL connection string from the database section.
func (cfg *Config) DSN() string {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "3306"
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

// GetMongoURI builds the MongoDB connection URI.
func (cfg *Config) GetMongoURI() string {
	if cfg.MongoDB.Host == "" {
		cfg.MongoDB.Host = "localhost"
	}
	if cfg.MongoDB.Port == "" {
		cfg.MongoDB.Port = "27017"
	}

	if cfg.MongoDB.Username != "" && cfg.MongoDB.Password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%s",
			cfg.MongoDB.Username, cfg.MongoDB.Password, cfg.MongoDB.Host, cfg.MongoDB.Port)
	}
	return fmt.Sprintf("mongodb://%s:%s", cfg.MongoDB.Host, cfg.MongoDB.Port)
}
