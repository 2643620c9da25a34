// Package config loads runtime settings from the environment, after an
// optional .env file.
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
)

type Config struct {
	DB       DBConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Deferred DeferredConfig
	HTTP     HTTPConfig
	Reload   ReloadConfig
	Log      LogConfig

	StoreBackend string // postgres | memory
	AutoMigrate  bool
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	MaxConns int32
}

// DSN renders the connection string pgx expects.
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Name,
	}
	q := u.Query()
	q.Set("sslmode", "disable")
	u.RawQuery = q.Encode()
	return u.String()
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CacheConfig struct {
	Backend       string // redis | ristretto | bigcache | none
	TTL           time.Duration
	Prefix        string
	Codec         string // json | cbor | msgpack
	MaxEntryBytes int
	RetryAttempts uint
	RetryInitial  time.Duration
	Breaker       bool
}

type DeferredConfig struct {
	Workers int
	Queue   int
}

type HTTPConfig struct {
	Addr            string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

type ReloadConfig struct {
	File     string // "" disables the job
	HashFile string
	Interval time.Duration
	Watch    bool
}

type LogConfig struct {
	Backend string // zap | logrus | slog
	Level   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var p parser
	cfg := &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     p.int("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "menu"),
			MaxConns: int32(p.int("DB_MAX_CONNS", 10)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       p.int("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			Backend:       strings.ToLower(getEnv("CACHE_BACKEND", "redis")),
			TTL:           time.Duration(p.int("CACHE_EXPIRE_IN_SEC", 3600)) * time.Second,
			Prefix:        getEnv("CACHE_PREFIX", ""),
			Codec:         strings.ToLower(getEnv("CACHE_CODEC", "json")),
			MaxEntryBytes: p.int("CACHE_MAX_ENTRY_BYTES", 0),
			RetryAttempts: uint(p.int("CACHE_RETRY_ATTEMPTS", 5)),
			RetryInitial:  p.duration("CACHE_RETRY_INITIAL", 50*time.Millisecond),
			Breaker:       p.bool("CACHE_BREAKER", true),
		},
		Deferred: DeferredConfig{
			Workers: p.int("DEFERRED_WORKERS", 2),
			Queue:   p.int("DEFERRED_QUEUE", 1024),
		},
		HTTP: HTTPConfig{
			Addr:            getEnv("HTTP_ADDR", ":8000"),
			AllowedOrigins:  splitList(getEnv("HTTP_ALLOWED_ORIGINS", "*")),
			ShutdownTimeout: p.duration("HTTP_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Reload: ReloadConfig{
			File:     getEnv("RELOAD_FILE", ""),
			HashFile: getEnv("RELOAD_HASH_FILE", ""),
			Interval: p.duration("RELOAD_INTERVAL", 15*time.Second),
			Watch:    p.bool("RELOAD_WATCH", true),
		},
		Log: LogConfig{
			Backend: strings.ToLower(getEnv("LOG_BACKEND", "zap")),
			Level:   strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", "postgres")),
		AutoMigrate:  p.bool("AUTO_MIGRATE", true),
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown backends and out of range sizes.
func (c *Config) Validate() error {
	var errs []error
	oneOf := func(name, v string, allowed ...string) {
		for _, a := range allowed {
			if v == a {
				return
			}
		}
		errs = append(errs, fmt.Errorf("%s: %q is not one of %s", name, v, strings.Join(allowed, ", ")))
	}
	oneOf("CACHE_BACKEND", c.Cache.Backend, "redis", "ristretto", "bigcache", "none")
	oneOf("CACHE_CODEC", c.Cache.Codec, "json", "cbor", "msgpack")
	oneOf("LOG_BACKEND", c.Log.Backend, "zap", "logrus", "slog")
	oneOf("STORE_BACKEND", c.StoreBackend, "postgres", "memory")

	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("CACHE_EXPIRE_IN_SEC must be positive"))
	}
	if c.Cache.RetryAttempts == 0 {
		errs = append(errs, errors.New("CACHE_RETRY_ATTEMPTS must be at least 1"))
	}
	if c.Deferred.Workers < 1 || c.Deferred.Queue < 1 {
		errs = append(errs, errors.New("DEFERRED_WORKERS and DEFERRED_QUEUE must be at least 1"))
	}
	if c.DB.MaxConns < 1 {
		errs = append(errs, errors.New("DB_MAX_CONNS must be at least 1"))
	}
	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser keeps the first conversion error so Load can report it once.
type parser struct{ err error }

func (p *parser) fail(key, v string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%s=%q: %w", key, v, err)
	}
}

func (p *parser) int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *parser) bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}

// duration accepts Go durations ("250ms") or a bare number of seconds.
func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}
