// Package config reads service settings from the environment, with an
// optional .env file loaded first.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMongo     = "mongo"
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreMemory    = "memory"
)

type Config struct {
	Port            string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	// TrustedProxies are the peers whose X-Forwarded-For / X-Real-IP are
	// honoured. Empty means forwarding headers are ignored.
	TrustedProxies []netip.Prefix

	TaskStore string
	UserStore string

	Mongo     MongoConfig
	Postgres  PostgresConfig
	Firestore FirestoreConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig

	LogLevel  string
	LogFormat string
}

type MongoConfig struct {
	URI      string
	Database string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the lib/pq connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Name, p.SSLMode)
}

type FirestoreConfig struct {
	CredentialsPath string
	ProjectID       string
	TasksCollection string
}

type JWTConfig struct {
	Secret    string
	ExpiresIn time.Duration
	Issuer    string
}

type RateLimitConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Max           int
	Window        time.Duration
}

// Enabled reports whether a Redis address was configured.
func (r RateLimitConfig) Enabled() bool {
	return r.RedisAddr != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("SHUTDOWN_TIMEOUT", "30s")
	v.SetDefault("TASK_STORE", StoreMongo)
	v.SetDefault("USER_STORE", StoreMongo)
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "team-task-manager")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("FIREBASE_CREDENTIALS_PATH", "")
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIRESTORE_TASKS_COLLECTION", "tasks")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRES_IN", "168h")
	v.SetDefault("JWT_ISSUER", "team-task-manager")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_MAX", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", "15m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// LoadDotEnv loads the given files (".env" when none) into the process
// environment. A missing file is not an error; the returned bool reports
// whether anything was loaded.
func LoadDotEnv(files ...string) (bool, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return false, nil
	}
	if err := godotenv.Load(present...); err != nil {
		return false, fmt.Errorf("loading %s: %w", strings.Join(present, ","), err)
	}
	return true, nil
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port:            v.GetString("SERVER_PORT"),
		AllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		TaskStore:       strings.ToLower(v.GetString("TASK_STORE")),
		UserStore:       strings.ToLower(v.GetString("USER_STORE")),
		Mongo: MongoConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
		},
		Postgres: PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Firestore: FirestoreConfig{
			CredentialsPath: v.GetString("FIREBASE_CREDENTIALS_PATH"),
			ProjectID:       v.GetString("FIREBASE_PROJECT_ID"),
			TasksCollection: v.GetString("FIRESTORE_TASKS_COLLECTION"),
		},
		JWT: JWTConfig{
			Secret:    v.GetString("JWT_SECRET"),
			ExpiresIn: v.GetDuration("JWT_EXPIRES_IN"),
			Issuer:    v.GetString("JWT_ISSUER"),
		},
		RateLimit: RateLimitConfig{
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			Max:           v.GetInt("RATE_LIMIT_MAX"),
			Window:        v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}

	proxies, err := parsePrefixes(splitList(v.GetString("TRUSTED_PROXIES")))
	if err != nil {
		return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	cfg.TrustedProxies = proxies

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	switch c.TaskStore {
	case StoreMongo, StoreFirestore, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("TASK_STORE must be one of mongo, firestore, memory (got %q)", c.TaskStore))
	}
	switch c.UserStore {
	case StoreMongo, StorePostgres, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("USER_STORE must be one of mongo, postgres, memory (got %q)", c.UserStore))
	}
	if c.TaskStore == StoreFirestore && c.Firestore.CredentialsPath == "" && os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		errs = append(errs, errors.New("FIREBASE_CREDENTIALS_PATH is required when TASK_STORE=firestore"))
	}
	if c.JWT.Secret == "" && c.UserStore != StoreMemory {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWT.ExpiresIn <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be a positive duration"))
	}
	if c.RateLimit.Enabled() && (c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

// parsePrefixes accepts CIDRs and bare addresses; a bare address is a
// single-host prefix.
func parsePrefixes(items []string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, item := range items {
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, err
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(item)
		if err != nil {
			return nil, err
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
