// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// OAuth
	GitHubClientID     string
	GitHubClientSecret string
	GoogleClientID     string
	GoogleClientSecret string

	// Session
	SessionMaxAge   time.Duration
	RedisURL        string
	SessionCacheTTL time.Duration

	// Rate Limit（req/min）
	RateLimitGeneral int
	RateLimitCreate  int

	// Worker
	CleanupInterval time.Duration

	// Seed
	SeedUserEmail string

	// Server
	ServerPort  string
	BaseURL     string
	FrontendURL string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CSRF
	CSRFProtection bool

	// CORS
	CORSAllowedOrigins []string
}

// LoadDotEnv はカレントディレクトリの.envファイルを環境変数に読み込む。
// ファイルがない場合は何もしない。既に設定済みの環境変数は上書きしない。
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合は、未設定のものをすべて列挙したエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string
	required := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg.DatabaseURL = required("DATABASE_URL")
	cfg.GitHubClientID = required("GITHUB_CLIENT_ID")
	cfg.GitHubClientSecret = required("GITHUB_CLIENT_SECRET")
	cfg.BaseURL = strings.TrimRight(required("BASE_URL"), "/")

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	cfg.FrontendURL = getEnvString("FRONTEND_URL", "http://localhost:3000")
	cfg.ServerPort = getEnvString("SERVER_PORT", "3001")
	cfg.SessionMaxAge = time.Duration(getEnvInt("SESSION_MAX_AGE", 7*24*60*60)) * time.Second
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.SessionCacheTTL = getEnvDuration("SESSION_CACHE_TTL", 5*time.Minute)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitCreate = getEnvInt("RATE_LIMIT_CREATE", 30)
	cfg.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", time.Hour)
	cfg.SeedUserEmail = getEnvString("SEED_USER_EMAIL", "demo@example.com")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CSRFProtection = getEnvBool("CSRF_PROTECTION", false)
	cfg.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", []string{cfg.FrontendURL})

	return cfg, nil
}

// GoogleEnabled はGoogleログインが設定されているかを返す。
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// CallbackURL はプロバイダーのOAuthコールバックURLを返す。
func (c *Config) CallbackURL(providerID string) string {
	return c.BaseURL + "/api/auth/callback/" + providerID
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// getEnvList はカンマ区切りの環境変数を空要素を除いて分割する。
func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
