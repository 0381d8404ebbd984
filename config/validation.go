package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks if the configuration meets the requirements for its environment
func ValidateConfig(cfg *Config) error {
	var errs []ValidationError

	if cfg.Server.Port == "" {
		errs = append(errs, ValidationError{"server.port", "is required"})
	}

	switch cfg.Database.Driver {
	case "postgres":
		for field, value := range map[string]string{
			"database.host": cfg.Database.Host,
			"database.port": cfg.Database.Port,
			"database.user": cfg.Database.User,
			"database.name": cfg.Database.Name,
		} {
			if value == "" {
				errs = append(errs, ValidationError{field, "is required for the postgres driver"})
			}
		}
	case "sqlite":
		if cfg.Database.Path == "" {
			errs = append(errs, ValidationError{"database.path", "is required for the sqlite driver"})
		}
	default:
		errs = append(errs, ValidationError{"database.driver", fmt.Sprintf("unknown driver %q", cfg.Database.Driver)})
	}

	switch cfg.Storage.Backend {
	case "local":
		if cfg.Storage.LocalDir == "" {
			errs = append(errs, ValidationError{"storage.local_dir", "is required for the local backend"})
		}
	case "s3":
		if cfg.Storage.Bucket == "" {
			errs = append(errs, ValidationError{"storage.bucket", "is required for the s3 backend"})
		}
	default:
		errs = append(errs, ValidationError{"storage.backend", fmt.Sprintf("unknown backend %q", cfg.Storage.Backend)})
	}

	if cfg.Auth.JWTSecret == "" {
		errs = append(errs, ValidationError{"auth.jwt_secret", "is required"})
	}

	if cfg.Environment.RequiresSecrets() {
		if cfg.Database.Driver == "postgres" && cfg.Database.Password == "" {
			errs = append(errs, ValidationError{"database.password", "is required in " + string(cfg.Environment)})
		}
		if cfg.Auth.JWTSecret == DefaultJWTSecret {
			errs = append(errs, ValidationError{"auth.jwt_secret", "must not use the development default in " + string(cfg.Environment)})
		}
	}

	if len(errs) > 0 {
		lines := make([]string, len(errs))
		for i, e := range errs {
			lines[i] = e.Error()
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(lines, "\n"))
	}

	return nil
}
