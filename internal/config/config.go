package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds server configuration loaded from defaults, an optional YAML
// file and environment variables, in increasing order of precedence.
type Config struct {
	Port           string        `mapstructure:"port"`
	DBPath         string        `mapstructure:"db_path"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	UploadDir      string        `mapstructure:"upload_dir"`
	MaxAvatarBytes int64         `mapstructure:"max_avatar_bytes"`
	CORSOrigin     string        `mapstructure:"cors_origin"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	LogLevel       string        `mapstructure:"log_level"`
	LogPretty      bool          `mapstructure:"log_pretty"`
}

var envKeys = map[string]string{
	"port":             "PORT",
	"db_path":          "DB_PATH",
	"jwt_secret":       "JWT_SECRET",
	"token_ttl":        "TOKEN_TTL",
	"upload_dir":       "UPLOAD_DIR",
	"max_avatar_bytes": "MAX_AVATAR_BYTES",
	"cors_origin":      "CORS_ORIGIN",
	"send_buffer":      "SEND_BUFFER",
	"log_level":        "LOG_LEVEL",
	"log_pretty":       "LOG_PRETTY",
}

// Load reads configuration. path may be empty, in which case only defaults
// and the environment are used.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "agora.db")
	v.SetDefault("jwt_secret", "agora-dev-secret")
	v.SetDefault("token_ttl", time.Hour)
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("max_avatar_bytes", 5<<20)
	v.SetDefault("cors_origin", "*")
	v.SetDefault("send_buffer", 256)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)

	for key, env := range envKeys {
		_ = v.BindEnv(key, env)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	switch {
	case c.JWTSecret == "":
		return errors.New("jwt_secret is required (set JWT_SECRET or config file)")
	case c.TokenTTL <= 0:
		return errors.New("token_ttl must be positive")
	case c.SendBuffer <= 0:
		return errors.New("send_buffer must be positive")
	case c.MaxAvatarBytes <= 0:
		return errors.New("max_avatar_bytes must be positive")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}
