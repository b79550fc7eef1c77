package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Acquire   AcquireConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"

	// WebhookSecret signs outgoing batch-completion webhooks when set.
	WebhookSecret string
}

// BrowserConfig controls the headless browser used for rendered attempts.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxSessions caps concurrent rendered attempts (one tab each).
	MaxSessions int // default: 5

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is used by both acquisition paths when set
	// (http, https, socks5, or socks5h URL).
	Proxy string

	// BlockedResourceTypes lists resource types blocked during rendering.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string
}

// AcquireConfig controls the fast→rendered acquisition state machine.
// The challenge and polling bounds are defaults, not mandated literals;
// site profiles and requests may override the score and timeout knobs.
type AcquireConfig struct {
	// MinScore is the quality score an attempt must reach to count as
	// sufficient.
	MinScore int // default: 5

	// MaxTimeout is the maximum allowed per-request timeout.
	MaxTimeout time.Duration // default: 120s

	// SettleWait is the pause after navigation before the first challenge
	// check, giving interstitials time to present themselves.
	SettleWait time.Duration // default: 3s

	// ChallengeRetries bounds the challenge-resolution polling rounds.
	ChallengeRetries int // default: 3

	// ChallengePoll is the wait between challenge polls.
	ChallengePoll time.Duration // default: 2s

	// ChallengeBudget bounds the total time spent waiting on a challenge.
	ChallengeBudget time.Duration // default: 30s

	// ContentPolls bounds the number of dynamic-content presence polls
	// after a challenge resolves.
	ContentPolls int // default: 15

	// ContentPoll is the wait between dynamic-content polls.
	ContentPoll time.Duration // default: 1s

	// MemoryTTL is how long the per-host method memory remembers which
	// acquisition method last met the threshold.
	MemoryTTL time.Duration // default: 24h
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// CacheConfig controls the acquisition response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 500
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("FINSIGHT_HOST", "0.0.0.0"),
			Port: envIntOr("FINSIGHT_PORT", 8080),
			Mode: envOr("FINSIGHT_MODE", "release"),

			WebhookSecret: os.Getenv("FINSIGHT_WEBHOOK_SECRET"),
		},
		Browser: BrowserConfig{
			Headless:    envBoolOr("FINSIGHT_HEADLESS", true),
			MaxSessions: envIntOr("FINSIGHT_MAX_SESSIONS", 5),
			NoSandbox:   envBoolOr("FINSIGHT_NO_SANDBOX", false),
			BrowserBin:  os.Getenv("FINSIGHT_BROWSER_BIN"),
			Proxy:       os.Getenv("FINSIGHT_PROXY"),
			BlockedResourceTypes: envSliceOr("FINSIGHT_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
		},
		Acquire: AcquireConfig{
			MinScore:         envIntOr("FINSIGHT_MIN_SCORE", 5),
			MaxTimeout:       envDurationOr("FINSIGHT_MAX_TIMEOUT", 120*time.Second),
			SettleWait:       envDurationOr("FINSIGHT_SETTLE_WAIT", 3*time.Second),
			ChallengeRetries: envIntOr("FINSIGHT_CHALLENGE_RETRIES", 3),
			ChallengePoll:    envDurationOr("FINSIGHT_CHALLENGE_POLL", 2*time.Second),
			ChallengeBudget:  envDurationOr("FINSIGHT_CHALLENGE_BUDGET", 30*time.Second),
			ContentPolls:     envIntOr("FINSIGHT_CONTENT_POLLS", 15),
			ContentPoll:      envDurationOr("FINSIGHT_CONTENT_POLL", time.Second),
			MemoryTTL:        envDurationOr("FINSIGHT_MEMORY_TTL", 24*time.Hour),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("FINSIGHT_AUTH_ENABLED", false),
			APIKeys: envSliceOr("FINSIGHT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("FINSIGHT_RATE_RPS", 2.0),
			Burst:             envIntOr("FINSIGHT_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("FINSIGHT_CACHE_MAX_ENTRIES", 500),
		},
		Log: LogConfig{
			Level:  envOr("FINSIGHT_LOG_LEVEL", "info"),
			Format: envOr("FINSIGHT_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
