package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port      int    `yaml:"port"`
	BodyLimit int64  `yaml:"body_limit_bytes"`
	Env       string `yaml:"env"` // development | production
}

type JWTConfig struct {
	Secret       string `yaml:"secret"`
	ExpiresHours int    `yaml:"expires_hours"`
}

type CORSConfig struct {
	Origins []string `yaml:"origins"`
}

type Config struct {
	Server   ServerConfig `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		SupportEmail string `yaml:"support_email"`
	} `yaml:"email"`
	JWT  JWTConfig  `yaml:"jwt"`
	CORS CORSConfig `yaml:"cors"`
}

// TokenTTL is the session token lifetime, default one day.
func (c *Config) TokenTTL() time.Duration {
	if c.JWT.ExpiresHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.JWT.ExpiresHours) * time.Hour
}

func LoadConfig() *Config {
	path := os.Getenv("ICONBUZZER_CONFIG")
	if path == "" {
		path = "config/config.yaml"
	}

	f, err := os.Open(path)
	if err != nil {
		panic("Failed to open config: " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse config: " + err.Error())
	}

	if cfg.JWT.Secret == "" {
		panic("jwt.secret is required")
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.BodyLimit <= 0 {
		cfg.Server.BodyLimit = 1 << 20 // 1 MiB
	}
	return &cfg
}
