package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Backend  BackendConfig  `yaml:"backend"`
	Auth     AuthConfig     `yaml:"auth"`
	Session  SessionConfig  `yaml:"session"`
	Browser  BrowserConfig  `yaml:"browser"`
	Upload   UploadConfig   `yaml:"upload"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
	// CSRFKey must be 32 bytes.
	CSRFKey      string `yaml:"csrf_key"`
	SecureCookie bool   `yaml:"secure_cookie"`
	PublicURL    string `yaml:"public_url"`
	// TimeZone interprets departure times entered in forms.
	TimeZone string `yaml:"time_zone"`
}

// Location returns the configured zone, or UTC when it cannot be loaded.
func (h HTTPConfig) Location() *time.Location {
	loc, err := time.LoadLocation(h.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	EventsTopic string   `yaml:"events_topic"`
	GroupID     string   `yaml:"group_id"`

	// PublishAttempts bounds publish tries per notification.
	PublishAttempts int `yaml:"publish_attempts"`
}

type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

type AuthConfig struct {
	APIKey             string `yaml:"api_key"`
	IdentityURL        string `yaml:"identity_url"`
	TokenURL           string `yaml:"token_url"`
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	GoogleRedirectURL  string `yaml:"google_redirect_url"`
}

type SessionConfig struct {
	CookieName       string `yaml:"cookie_name"`
	TTLHours         int    `yaml:"ttl_hours"`
	LookupWaitMillis int    `yaml:"lookup_wait_ms"`
	RoleWaitMillis   int    `yaml:"role_wait_ms"`
	RoleCacheMinutes int    `yaml:"role_cache_minutes"`
}

func (s SessionConfig) TTL() time.Duration {
	if s.TTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(s.TTLHours) * time.Hour
}

func (s SessionConfig) LookupWait() time.Duration {
	return millisOr(s.LookupWaitMillis, 500*time.Millisecond)
}

func (s SessionConfig) RoleWait() time.Duration {
	return millisOr(s.RoleWaitMillis, 800*time.Millisecond)
}

func (s SessionConfig) RoleCacheTTL() time.Duration {
	if s.RoleCacheMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(s.RoleCacheMinutes) * time.Minute
}

type BrowserConfig struct {
	PageSize         int `yaml:"page_size"`
	ListCacheSeconds int `yaml:"list_cache_seconds"`
}

func (b BrowserConfig) ListCacheTTL() time.Duration {
	if b.ListCacheSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(b.ListCacheSeconds) * time.Second
}

type UploadConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

type WorkerConfig struct {
	ExpiredSessionSweepMinutes int `yaml:"expired_session_sweep_minutes"`
}

type LogConfig struct {
	// Level is a loggo config string, e.g. "<root>=INFO;ticketbari.backend=DEBUG".
	Level string `yaml:"level"`
}

func millisOr(v int, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return time.Duration(v) * time.Millisecond
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "tb_session"
	}
	if cfg.HTTP.TimeZone == "" {
		cfg.HTTP.TimeZone = "Asia/Dhaka"
	}
	if cfg.Browser.PageSize <= 0 {
		cfg.Browser.PageSize = 6
	}
	if cfg.Kafka.EventsTopic == "" {
		cfg.Kafka.EventsTopic = "ticketbari.events"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "ticketbari-worker"
	}
	if cfg.Kafka.PublishAttempts <= 0 {
		cfg.Kafka.PublishAttempts = 3
	}
	if cfg.Worker.ExpiredSessionSweepMinutes <= 0 {
		cfg.Worker.ExpiredSessionSweepMinutes = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "<root>=INFO"
	}

	return &cfg, nil
}
