package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
		IdleTimeout  time.Duration `yaml:"idleTimeout"`
	} `yaml:"server"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`

	Generation struct {
		Provider         string        `yaml:"provider"` // gemini | openai
		Model            string        `yaml:"model"`
		APIKeyEnv        string        `yaml:"apiKeyEnv"`
		APIKey           string        `yaml:"apiKey"`
		BaseURL          string        `yaml:"baseURL"`
		Search           *bool         `yaml:"search"`
		Timeout          time.Duration `yaml:"timeout"`
		MaxResponseBytes int           `yaml:"maxResponseBytes"`
		Language         string        `yaml:"language"`
	} `yaml:"generation"`

	Analysis struct {
		AllowedHosts []string `yaml:"allowedHosts"`
	} `yaml:"analysis"`

	UI struct {
		Locale      string        `yaml:"locale"`
		SessionTTL  time.Duration `yaml:"sessionTTL"`
		MaxSessions int           `yaml:"maxSessions"`
	} `yaml:"ui"`

	Diagram struct {
		Endpoint string        `yaml:"endpoint"`
		Timeout  time.Duration `yaml:"timeout"`
		MaxBytes int64         `yaml:"maxBytes"`
	} `yaml:"diagram"`

	Database struct {
		Driver   string `yaml:"driver"` // "" | mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Auth struct {
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`

	RateLimit struct {
		Capacity        int `yaml:"capacity"`
		RefillPerSecond int `yaml:"refillPerSecond"`
	} `yaml:"rateLimit"`
}

// Load baca .env (kalau ada) lalu file config.yaml. A missing file is not an
// error: defaults and environment variables are enough to run.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	// generation can take minutes; the write deadline must outlive it
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 180 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = "gemini"
	}
	if c.Generation.APIKeyEnv == "" {
		if c.Generation.Provider == "openai" {
			c.Generation.APIKeyEnv = "OPENAI_API_KEY"
		} else {
			c.Generation.APIKeyEnv = "GEMINI_API_KEY"
		}
	}
	if c.Generation.Search == nil {
		on := true
		c.Generation.Search = &on
	}
	if c.Generation.Timeout == 0 {
		c.Generation.Timeout = 120 * time.Second
	}
	if c.Generation.MaxResponseBytes == 0 {
		c.Generation.MaxResponseBytes = 1 << 20
	}
	if len(c.Analysis.AllowedHosts) == 0 {
		c.Analysis.AllowedHosts = []string{"github.com"}
	}
	if c.UI.Locale == "" {
		c.UI.Locale = "pt-BR"
	}
	if c.UI.SessionTTL == 0 {
		c.UI.SessionTTL = 2 * time.Hour
	}
	if c.UI.MaxSessions == 0 {
		c.UI.MaxSessions = 1024
	}
	if c.Diagram.Endpoint == "" {
		c.Diagram.Endpoint = "https://kroki.io"
	}
	if c.Diagram.Timeout == 0 {
		c.Diagram.Timeout = 15 * time.Second
	}
	if c.Diagram.MaxBytes == 0 {
		c.Diagram.MaxBytes = 2 << 20
	}
	if c.Database.Port == 0 {
		switch c.Database.Driver {
		case "mysql":
			c.Database.Port = 3306
		case "postgres":
			c.Database.Port = 5432
		}
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Minio.BucketName == "" {
		c.Minio.BucketName = "repo-analyzer"
	}
	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 5
	}
	if c.RateLimit.RefillPerSecond == 0 {
		c.RateLimit.RefillPerSecond = 1
	}
}

// applyEnv lets secrets and deploy-specific values come from the environment.
func (c *Config) applyEnv() {
	envString("PORT", func(v string) {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	})
	envString("LOG_LEVEL", func(v string) { c.Log.Level = v })
	envString("GENERATION_PROVIDER", func(v string) { c.Generation.Provider = v })
	envString("GENERATION_MODEL", func(v string) { c.Generation.Model = v })
	envString("DB_DRIVER", func(v string) { c.Database.Driver = v })
	envString("DB_PASSWORD", func(v string) { c.Database.Password = v })
	envString("MINIO_ACCESS_KEY", func(v string) { c.Minio.AccessKey = v })
	envString("MINIO_SECRET_KEY", func(v string) { c.Minio.SecretKey = v })
}

func envString(key string, set func(string)) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		set(v)
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Generation.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("generation.provider must be gemini or openai, got %q", c.Generation.Provider)
	}
	switch c.Database.Driver {
	case "", "mysql", "postgres":
	default:
		return fmt.Errorf("database.driver must be mysql or postgres, got %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Generation.Timeout < 0 || c.Diagram.Timeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	if u, err := url.Parse(c.Diagram.Endpoint); err != nil || u.Host == "" {
		return fmt.Errorf("diagram.endpoint is not a URL: %q", c.Diagram.Endpoint)
	}
	if c.Minio.Endpoint != "" && (c.Minio.AccessKey == "" || c.Minio.SecretKey == "") {
		return errors.New("minio.accessKey and minio.secretKey are required when minio.endpoint is set")
	}
	return nil
}

// APIKey resolves the generation credential at call time, so a key exported
// after startup is still picked up.
func (c *Config) APIKey() string {
	if v := strings.TrimSpace(os.Getenv(c.Generation.APIKeyEnv)); v != "" {
		return v
	}
	return strings.TrimSpace(c.Generation.APIKey)
}

// SearchEnabled reports whether the web-search tool is attached.
func (c *Config) SearchEnabled() bool {
	return c.Generation.Search == nil || *c.Generation.Search
}

// MinioEnabled reports whether raw payload retention is configured.
func (c *Config) MinioEnabled() bool { return c.Minio.Endpoint != "" }

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection URL.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}
