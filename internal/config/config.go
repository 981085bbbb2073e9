package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Bootstrap BootstrapConfig
}

type ServerConfig struct {
	Host         string
	Port         string `validate:"required"`
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Environment  string `validate:"oneof=development test production"`
}

type DatabaseConfig struct {
	Host         string `validate:"required"`
	Port         int    `validate:"min=1,max=65535"`
	User         string `validate:"required"`
	Password     string
	Name         string `validate:"required"`
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

type StorageConfig struct {
	Type      StorageType `validate:"oneof=local s3"`
	LocalPath string
	S3Bucket  string
	S3Region  string
	// Timeout bounds every blob operation; failures past it surface as
	// transient errors to the caller.
	Timeout time.Duration
}

// BootstrapConfig seeds the one-time startup data. AdminPassword is hashed
// before it is stored; it exists only so a fresh deployment has a usable
// admin account.
type BootstrapConfig struct {
	AdminID       string `validate:"required"`
	AdminName     string
	AdminPassword string `validate:"required"`
	Departments   []string
}

func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnv("SERVER_PORT", "3001"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			Environment:  getEnv("SERVER_ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "password"),
			Name:         getEnv("DB_NAME", "docstack"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		},
		Storage: StorageConfig{
			Type:      StorageType(getEnv("STORAGE_TYPE", "local")),
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./uploads"),
			S3Bucket:  getEnv("STORAGE_S3_BUCKET", ""),
			S3Region:  getEnv("STORAGE_S3_REGION", ""),
			Timeout:   getEnvDuration("STORAGE_TIMEOUT", 30*time.Second),
		},
		Bootstrap: BootstrapConfig{
			AdminID:       getEnv("BOOTSTRAP_ADMIN_ID", "ADMIN001"),
			AdminName:     getEnv("BOOTSTRAP_ADMIN_NAME", "System Admin"),
			AdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", "123"),
			Departments:   []string{"Marketing", "Sales", "Finance"},
		},
	}
}

// Validate checks the assembled configuration before the process starts
// serving. S3 selection additionally requires bucket and region.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Storage.Type == StorageTypeS3 && (c.Storage.S3Bucket == "" || c.Storage.S3Region == "") {
		return fmt.Errorf("s3 storage requires STORAGE_S3_BUCKET and STORAGE_S3_REGION")
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
