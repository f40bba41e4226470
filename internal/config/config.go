package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		// Driver: mysql | postgres | "" (tanpa persistence, report hanya di memory)
		Driver   string `yaml:"driver"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Redis struct {
		URL            string `yaml:"url"`
		Channel        string `yaml:"channel"`
		RequestChannel string `yaml:"requestChannel"`
	} `yaml:"redis"`

	AI struct {
		Provider     string  `yaml:"provider"`
		Model        string  `yaml:"model"`
		APIKey       string  `yaml:"apiKey"`
		Temperature  float32 `yaml:"temperature"`
		MaxTokens    int     `yaml:"maxTokens"`
		SystemPrompt string  `yaml:"systemPrompt"`
		Retries      int     `yaml:"retries"`
		BaseURL      string  `yaml:"baseURL"`
	} `yaml:"ai"`

	Engine struct {
		MaxConcurrency int           `yaml:"maxConcurrency"`
		CallTimeout    time.Duration `yaml:"callTimeout"`
	} `yaml:"engine"`

	Catalog struct {
		// Source: file | minio
		Source string `yaml:"source"`
		Path   string `yaml:"path"`
		Object string `yaml:"object"`
	} `yaml:"catalog"`

	Prompts struct {
		Dir string `yaml:"dir"`
	} `yaml:"prompts"`

	Auth struct {
		// APIKeys tenant -> key; kosong berarti auth dimatikan
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`

	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rateLimit"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// Load baca file config.yaml, isi default, lalu override dari env
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse is Load without the file read.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
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
	if c.AI.Provider == "" {
		c.AI.Provider = "openai"
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.2
	}
	if c.AI.Retries == 0 {
		c.AI.Retries = 2
	}
	if c.Engine.MaxConcurrency == 0 {
		c.Engine.MaxConcurrency = 8
	}
	if c.Engine.CallTimeout == 0 {
		c.Engine.CallTimeout = 60 * time.Second
	}
	if c.Catalog.Source == "" {
		c.Catalog.Source = "file"
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "compliance_doc/doc.json"
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "COMPLIANCE_REPORT_GENERATED"
	}
	if c.Redis.RequestChannel == "" {
		c.Redis.RequestChannel = "COMPLIANCE_CHECK_REQUESTED"
	}
	if c.RateLimit.RPS == 0 {
		c.RateLimit.RPS = 5
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 10
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	// API key dari env hanya untuk provider yang aktif
	switch c.AI.Provider {
	case "openai":
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			c.AI.APIKey = v
		}
	case "gemini":
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			c.AI.APIKey = v
		}
	}
}

// Validate rejects unknown drivers, providers and catalog sources.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "", "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver: unknown %q", c.Database.Driver))
	}
	switch c.AI.Provider {
	case "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("ai.provider: unknown %q", c.AI.Provider))
	}
	switch c.Catalog.Source {
	case "file":
	case "minio":
		if strings.TrimSpace(c.Catalog.Object) == "" {
			errs = append(errs, errors.New("catalog.object: required when source is minio"))
		}
	default:
		errs = append(errs, fmt.Errorf("catalog.source: unknown %q", c.Catalog.Source))
	}
	if c.Engine.MaxConcurrency < 0 {
		errs = append(errs, errors.New("engine.maxConcurrency: must be positive"))
	}
	return errors.Join(errs...)
}

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

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
