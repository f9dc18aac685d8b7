package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	LogMode  string
	DBURL    string
	JWTKey   string
	TokenTTL time.Duration

	CORSOrigins []string

	UploadDir      string
	MaxUploadBytes int

	AdminEmail    string
	AdminPassword string

	DB   DBConfig
	HTTP HTTPConfig

	GoogleClientID         string
	GoogleClientSecret     string
	GoogleRedirectURL      string
	GoogleFrontendRedirect string
}

type DBConfig struct {
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	StatementTimeout time.Duration
	IdleTxTimeout    time.Duration
	ShutdownTimeout  time.Duration
}

type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// GoogleEnabled reports whether Google sign-in is fully configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	var missing []string
	must := func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogMode:  getEnv("LOG_MODE", "development"),
		DBURL:    must("DB_URL"),
		JWTKey:   must("JWT_SECRET"),
		TokenTTL: time.Duration(getInt("ACCESS_TOKEN_EXPIRE_MINUTES", 43200)) * time.Minute,

		CORSOrigins: ParseOrigins(getEnv("CORS_ORIGINS", "")),

		UploadDir:      getEnv("UPLOAD_DIR", "./static/uploads/images"),
		MaxUploadBytes: getInt("MAX_UPLOAD_BYTES", 5*1024*1024),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		DB: DBConfig{
			MaxOpenConns:     getInt("DB_MAX_OPEN_CONNS", 15),
			MaxIdleConns:     getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			StatementTimeout: getDuration("DB_STATEMENT_TIMEOUT", 15*time.Second),
			IdleTxTimeout:    getDuration("DB_IDLE_TX_TIMEOUT", 5*time.Second),
			ShutdownTimeout:  getDuration("DB_SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},

		GoogleClientID:         getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:     getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:      getEnv("GOOGLE_REDIRECT_URL", ""),
		GoogleFrontendRedirect: getEnv("GOOGLE_FRONTEND_REDIRECT", ""),
	}

	if len(missing) > 0 {
		return nil, dotenv, fmt.Errorf("missing required environment variable: %s", strings.Join(missing, ", "))
	}
	return cfg, dotenv, nil
}

// ParseOrigins accepts either a comma separated list or a JSON array.
func ParseOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err == nil {
			return out
		}
		return []string{raw}
	}
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
