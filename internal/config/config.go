package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del subsistema.
type Config struct {
	App struct {
		// dev | staging | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Storage struct {
		// pg | mem
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MinConns        int    `yaml:"min_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Challenge struct {
		// memory | redis
		Backend string `yaml:"backend"`
		TTL     string `yaml:"ttl"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"challenge"`

	Reset struct {
		TTL string `yaml:"ttl"`
	} `yaml:"reset"`

	Password struct {
		MinLength     int  `yaml:"min_length"`
		RequireUpper  bool `yaml:"require_upper"`
		RequireLower  bool `yaml:"require_lower"`
		RequireDigit  bool `yaml:"require_digit"`
		RequireSymbol bool `yaml:"require_symbol"`
	} `yaml:"password"`

	OIDC []struct {
		Name     string `yaml:"name"`
		Issuer   string `yaml:"issuer"`
		ClientID string `yaml:"client_id"`
	} `yaml:"oidc"`

	SMTP struct {
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
		FromEmail string `yaml:"from_email"`
		Username  string `yaml:"username"`
		Password  string `yaml:"password"`
		TLSMode   string `yaml:"tls_mode"`
	} `yaml:"smtp"`
}

// Load lee el YAML (si existe), carga .env y aplica overrides de entorno.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	// Las duraciones van como strings en el YAML; se validan acá para que
	// un typo falle en el arranque y no en el primer uso.
	for _, d := range []string{cfg.Challenge.TTL, cfg.Reset.TTL, cfg.Storage.Postgres.ConnMaxLifetime} {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			return nil, fmt.Errorf("config: bad duration %q: %w", d, err)
		}
	}
	return cfg, nil
}

// ChallengeTTL retorna la vida útil configurada de los challenge tokens.
func (c *Config) ChallengeTTL() time.Duration {
	d, _ := time.ParseDuration(c.Challenge.TTL)
	return d
}

// ResetTTL retorna la ventana de validez configurada de los reset tokens.
func (c *Config) ResetTTL() time.Duration {
	d, _ := time.ParseDuration(c.Reset.TTL)
	return d
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.App.Env = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.App.LogLevel = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("CHALLENGE_BACKEND"); v != "" {
		cfg.Challenge.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Challenge.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Challenge.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Challenge.Redis.DB = n
		}
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.SMTP.Password = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Env == "" {
		cfg.App.Env = "dev"
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "pg"
	}
	if cfg.Challenge.Backend == "" {
		cfg.Challenge.Backend = "memory"
	}
	if cfg.Challenge.TTL == "" {
		cfg.Challenge.TTL = "5m"
	}
	if cfg.Reset.TTL == "" {
		cfg.Reset.TTL = "30m"
	}
	if cfg.Password.MinLength <= 0 {
		cfg.Password.MinLength = 8
		cfg.Password.RequireUpper = true
		cfg.Password.RequireLower = true
		cfg.Password.RequireDigit = true
		cfg.Password.RequireSymbol = true
	}
}
