package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         string   `yaml:"port"`
		ReadTimeout  string   `yaml:"read_timeout"`
		WriteTimeout string   `yaml:"write_timeout"`
		CORSOrigins  []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Auth struct {
		JWTSecret   string   `yaml:"jwt_secret"`
		TokenTTL    string   `yaml:"token_ttl"`
		Issuer      string   `yaml:"issuer"`
		AdminEmails []string `yaml:"admin_emails"`
	} `yaml:"auth"`
	Leaderboard struct {
		RefreshInterval string `yaml:"refresh_interval"`
		Retention       string `yaml:"retention"`
	} `yaml:"leaderboard"`
	Chat struct {
		WindowSize    int    `yaml:"window_size"`
		MaxTokens     int    `yaml:"max_context_tokens"`
		MentorURL     string `yaml:"mentor_url"`
		MentorAPIKey  string `yaml:"mentor_api_key"`
		MentorModel   string `yaml:"mentor_model"`
		MentorTimeout string `yaml:"mentor_timeout"`
		SystemPrompt  string `yaml:"system_prompt"`
	} `yaml:"chat"`
	Logging struct {
		Mode       string `yaml:"mode"`
		Level      string `yaml:"level"`
		Dir        string `yaml:"dir"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"logging"`
	Downloads struct {
		APK APKRelease `yaml:"apk"`
	} `yaml:"downloads"`
}

// APKRelease describes the Android build offered on the landing page.
type APKRelease struct {
	Version    string `yaml:"version" json:"version"`
	URL        string `yaml:"url" json:"url"`
	SHA256     string `yaml:"sha256" json:"sha256,omitempty"`
	MinAndroid string `yaml:"min_android" json:"minAndroid,omitempty"`
	Notes      string `yaml:"notes" json:"notes,omitempty"`
	SizeBytes  int64  `yaml:"size_bytes" json:"sizeBytes,omitempty"`
}

// Load reads YAML config from path, then applies .env and environment overrides.
// A missing file is not an error; defaults and the environment still apply.
func Load(path string) (Config, error) {
	cfg := Config{}
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return cfg, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Postgres.URL, "POSTGRES_URL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Chat.MentorURL, "MENTOR_URL")
	setString(&cfg.Chat.MentorAPIKey, "MENTOR_API_KEY")
	setString(&cfg.Chat.MentorModel, "MENTOR_MODEL")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Mode, "LOG_MODE")
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if db, err := strconv.Atoi(raw); err == nil {
			cfg.Redis.DB = db
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "mpt-command-center"
	}
	if cfg.Chat.WindowSize <= 0 {
		cfg.Chat.WindowSize = 10
	}
	if cfg.Logging.Mode == "" {
		cfg.Logging.Mode = "development"
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
