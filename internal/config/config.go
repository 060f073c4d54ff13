package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":5000"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	CORSOrigins []string // origins allowed by the CORS middleware

	CatalogFile           string        // optional catalog YAML (empty = built-in catalog only)
	CatalogReloadInterval time.Duration // interval to reload the catalog file (default: 24h)

	// Analysis
	TickInterval     time.Duration // progress push period (default: 1s)
	ProgressStep     int           // progress increment per tick (default: 10)
	DetectMinLatency time.Duration // lower bound of simulated detection latency (default: 3s)
	DetectMaxLatency time.Duration // upper bound of simulated detection latency (default: 5s)
	RecordRetention  time.Duration // analysis records older than this are pruned (default: 720h)
	GCInterval       time.Duration // interval to run record pruning (default: 24h)

	// OTP
	OTPTTL            time.Duration // verification code lifetime (default: 10m)
	OTPRateBurst      int           // rate-limit bucket size on OTP endpoints
	OTPRateRefillMin  int           // tokens refilled per minute per IP
	OTPRateMaxEntries int           // cap on tracked IPs

	// Redis (optional mirror; empty addr disables it)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // initial wait between retries (grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("LEAFSIGHT_LISTEN_PORT", ":5000"),
		ShutdownTimeout: mustDuration("LEAFSIGHT_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("LEAFSIGHT_LOG_LEVEL", "info"),
		PrettyLog: mustBool("LEAFSIGHT_PRETTY_LOG", true),

		CORSOrigins: getenvSlice("LEAFSIGHT_CORS_ORIGINS", []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
			"http://localhost:5000",
			"http://localhost:3000",
		}),

		// Catalog
		CatalogFile:           getenv("LEAFSIGHT_CATALOG_FILE", ""),
		CatalogReloadInterval: mustDuration("LEAFSIGHT_CATALOG_RELOAD_INTERVAL", 24*time.Hour),

		// Analysis
		TickInterval:     mustDuration("LEAFSIGHT_TICK_INTERVAL", time.Second),
		ProgressStep:     getenvInt("LEAFSIGHT_PROGRESS_STEP", 10),
		DetectMinLatency: mustDuration("LEAFSIGHT_DETECT_MIN_LATENCY", 3*time.Second),
		DetectMaxLatency: mustDuration("LEAFSIGHT_DETECT_MAX_LATENCY", 5*time.Second),
		RecordRetention:  mustDuration("LEAFSIGHT_RECORD_RETENTION", 30*24*time.Hour),
		GCInterval:       mustDuration("LEAFSIGHT_GC_INTERVAL", 24*time.Hour),

		// OTP
		OTPTTL:            mustDuration("LEAFSIGHT_OTP_TTL", 10*time.Minute),
		OTPRateBurst:      getenvInt("LEAFSIGHT_OTP_RATE_BURST", 5),
		OTPRateRefillMin:  getenvInt("LEAFSIGHT_OTP_RATE_REFILL_PER_MIN", 2),
		OTPRateMaxEntries: getenvInt("LEAFSIGHT_OTP_RATE_MAX_ENTRIES", 4096),

		// Redis settings
		RedisAddr:           getenv("LEAFSIGHT_REDIS_ADDR", ""),
		RedisUser:           getenv("LEAFSIGHT_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("LEAFSIGHT_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("LEAFSIGHT_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvSlice(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		if parts := splitAndTrim(v); len(parts) > 0 {
			return parts
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
