package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Remote     RemoteConfig     `yaml:"remote"`
	Auth       AuthConfig       `yaml:"auth"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
// A DSN starting with postgres:// or postgresql:// selects the postgres
// driver; anything else is treated as a sqlite path.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogSQL                 bool   `yaml:"log_sql"`
}

// StorageConfig selects the backing key-value engine.
type StorageConfig struct {
	Driver            string `yaml:"driver"` // "database" or "memory"
	EncryptionKeyPath string `yaml:"encryption_key_path"`
}

// RemoteConfig describes the backend the stores talk to.
type RemoteConfig struct {
	Mode           string        `yaml:"mode"` // "mock" or "http"
	BaseURL        string        `yaml:"base_url"`
	HTTPProxy      string        `yaml:"http_proxy"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
	LatencyMillis  int           `yaml:"latency_ms"`
	Latency        time.Duration `yaml:"-"`
}

// AuthConfig holds OTP settings.
type AuthConfig struct {
	OTPCooldownSeconds int           `yaml:"otp_cooldown_seconds"`
	OTPCooldown        time.Duration `yaml:"-"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the alert worker pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size"`
	QueueSize int `yaml:"queue_size"`
}

// LogConfig controls the application logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "habitrack.db"
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "database"
	}
	if cfg.Storage.EncryptionKeyPath == "" {
		cfg.Storage.EncryptionKeyPath = "./keys/auth-storage.key"
	}

	if cfg.Remote.Mode == "" {
		cfg.Remote.Mode = "mock"
	}
	if cfg.Remote.TimeoutSeconds <= 0 {
		cfg.Remote.TimeoutSeconds = 10
	}
	cfg.Remote.Timeout = time.Duration(cfg.Remote.TimeoutSeconds) * time.Second
	if cfg.Remote.LatencyMillis < 0 {
		cfg.Remote.LatencyMillis = 0
	}
	cfg.Remote.Latency = time.Duration(cfg.Remote.LatencyMillis) * time.Millisecond

	if cfg.Auth.OTPCooldownSeconds <= 0 {
		cfg.Auth.OTPCooldownSeconds = 60
	}
	cfg.Auth.OTPCooldown = time.Duration(cfg.Auth.OTPCooldownSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		cfg.WorkerPool.QueueSize = cfg.WorkerPool.Size * 16
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
