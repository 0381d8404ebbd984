package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "foodgram-dev-secret"

// Config holds all configuration for the application
type Config struct {
	Environment Environment    `koanf:"-"`
	Server      ServerConfig   `koanf:"server"`
	Database    DatabaseConfig `koanf:"database"`
	Redis       RedisConfig    `koanf:"redis"`
	Auth        AuthConfig     `koanf:"auth"`
	Storage     StorageConfig  `koanf:"storage"`
	Logging     LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            string        `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	// RecipeCreateLimit is the number of recipes a user may publish per hour.
	RecipeCreateLimit int `koanf:"recipe_create_limit"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver      string        `koanf:"driver"`
	Host        string        `koanf:"host"`
	Port        string        `koanf:"port"`
	User        string        `koanf:"user"`
	Password    string        `koanf:"password"`
	Name        string        `koanf:"name"`
	SSLMode     string        `koanf:"ssl_mode"`
	Path        string        `koanf:"path"`
	MaxConns    int           `koanf:"max_conns"`
	MaxLifetime time.Duration `koanf:"max_lifetime"`
	AutoMigrate bool          `koanf:"auto_migrate"`
	Migrations  string        `koanf:"migrations"`
}

type RedisConfig struct {
	URL      string `koanf:"url"`
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

type StorageConfig struct {
	// Backend is "local" or "s3".
	Backend    string `koanf:"backend"`
	LocalDir   string `koanf:"local_dir"`
	PublicURL  string `koanf:"public_url"`
	Bucket     string `koanf:"bucket"`
	Region     string `koanf:"region"`
	Endpoint   string `koanf:"endpoint"`
	PathStyle  bool   `koanf:"path_style"`
	KeyPrefix  string `koanf:"key_prefix"`
	MaxImageMB int    `koanf:"max_image_mb"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Addr returns the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// DSN returns the postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// URL returns the postgres URL form used by database/sql + lib/pq.
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8000",
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"http://localhost:3000"},
			RecipeCreateLimit: 30,
		},
		Database: DatabaseConfig{
			Driver:      "postgres",
			Host:        "localhost",
			Port:        "5432",
			User:        "postgres",
			Name:        "foodgram",
			SSLMode:     "disable",
			Path:        "foodgram.db",
			MaxConns:    25,
			MaxLifetime: 5 * time.Minute,
			Migrations:  "migrations",
		},
		Redis: RedisConfig{
			Port: "6379",
		},
		Auth: AuthConfig{
			JWTSecret: DefaultJWTSecret,
			TokenTTL:  7 * 24 * time.Hour,
		},
		Storage: StorageConfig{
			Backend:    "local",
			LocalDir:   "media",
			KeyPrefix:  "recipes/images",
			MaxImageMB: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// envKeys maps environment variable names to koanf paths.
var envKeys = map[string]string{
	"SERVER_HOST":         "server.host",
	"SERVER_PORT":         "server.port",
	"SHUTDOWN_TIMEOUT":    "server.shutdown_timeout",
	"CORS_ORIGINS":        "server.cors_origins",
	"RECIPE_CREATE_LIMIT": "server.recipe_create_limit",
	"DB_DRIVER":           "database.driver",
	"DB_HOST":             "database.host",
	"DB_PORT":             "database.port",
	"DB_USER":             "database.user",
	"DB_PASSWORD":         "database.password",
	"DB_NAME":             "database.name",
	"DB_SSL_MODE":         "database.ssl_mode",
	"DB_PATH":             "database.path",
	"DB_MAX_CONNS":        "database.max_conns",
	"DB_AUTO_MIGRATE":     "database.auto_migrate",
	"DB_MIGRATIONS":       "database.migrations",
	"REDIS_URL":           "redis.url",
	"REDIS_HOST":          "redis.host",
	"REDIS_PORT":          "redis.port",
	"REDIS_PASSWORD":      "redis.password",
	"REDIS_DB":            "redis.db",
	"JWT_SECRET":          "auth.jwt_secret",
	"TOKEN_TTL":           "auth.token_ttl",
	"STORAGE_BACKEND":     "storage.backend",
	"MEDIA_DIR":           "storage.local_dir",
	"MEDIA_URL":           "storage.public_url",
	"S3_BUCKET_NAME":      "storage.bucket",
	"AWS_REGION":          "storage.region",
	"S3_ENDPOINT":         "storage.endpoint",
	"S3_PATH_STYLE":       "storage.path_style",
	"MAX_IMAGE_MB":        "storage.max_image_mb",
	"LOG_LEVEL":           "logging.level",
	"LOG_FORMAT":          "logging.format",
}

// secretKeys maps Docker secret file names to koanf paths.
var secretKeys = map[string]string{
	"db_user":        "database.user",
	"db_password":    "database.password",
	"jwt_secret":     "auth.jwt_secret",
	"redis_password": "redis.password",
	"aws_region":     "storage.region",
}

// LoadConfig builds the configuration from defaults, an optional YAML file,
// environment variables and, outside CI, Docker secrets.
func LoadConfig() (*Config, error) {
	environment := GetEnvironment()
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// CI receives everything through environment variables.
	if environment != CI {
		for name, path := range secretKeys {
			if value := readSecret(name); value != "" {
				if err := k.Set(path, value); err != nil {
					return nil, fmt.Errorf("failed to apply secret %s: %w", name, err)
				}
			}
		}
	}

	if origins, ok := k.Get("server.cors_origins").(string); ok {
		if err := k.Set("server.cors_origins", splitList(origins)); err != nil {
			return nil, fmt.Errorf("failed to parse CORS_ORIGINS: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Environment = environment

	// Local environments migrate on startup unless told otherwise.
	if _, set := os.LookupEnv("DB_AUTO_MIGRATE"); !set && (environment == Development || environment == Test) {
		cfg.Database.AutoMigrate = true
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// envTransform returns "" for variables the application does not read so
// koanf skips them.
func envTransform(key string) string {
	return envKeys[key]
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
