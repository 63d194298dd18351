package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/task_manager/internal/tokens"
)

type TokenSource string

const (
	TokenSourceHeader TokenSource = "header"
	TokenSourceCookie TokenSource = "cookie"
	TokenSourceBoth   TokenSource = "both"
)

func (s TokenSource) Header() bool { return s == TokenSourceHeader || s == TokenSourceBoth }
func (s TokenSource) Cookie() bool { return s == TokenSourceCookie || s == TokenSourceBoth }

// Config is built once at start and only read afterwards.
type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DBDriver    string
	DatabaseURL string

	SecretKey         []byte
	Algorithm         string
	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	AccessCookieName  string
	RefreshCookieName string
	CookieSecure      bool
	TokenSource       TokenSource
	SilentRefresh     bool
	BcryptCost        int

	RedisURL string
	CacheTTL time.Duration

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	AuthRatePerSecond float64
	AuthRateBurst     int
	CSRFEnabled       bool
	CORSOrigins       []string

	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "task_manager"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DBDriver:    EnvDefault("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		SecretKey:         []byte(os.Getenv("SECRET_KEY")),
		Algorithm:         EnvDefault("ALGORITHM", "HS256"),
		AccessTTL:         time.Duration(EnvIntDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 15)) * time.Minute,
		RefreshTTL:        time.Duration(EnvIntDefault("REFRESH_TOKEN_EXPIRE_MINUTES", 7*24*60)) * time.Minute,
		AccessCookieName:  EnvDefault("ACCESS_COOKIE_NAME", "accessToken"),
		RefreshCookieName: EnvDefault("REFRESH_COOKIE_NAME", "refreshToken"),
		CookieSecure:      EnvBoolDefault("COOKIE_SECURE", true),
		TokenSource:       TokenSource(strings.ToLower(EnvDefault("AUTH_TOKEN_SOURCE", string(TokenSourceBoth)))),
		SilentRefresh:     EnvBoolDefault("AUTH_SILENT_REFRESH", true),
		BcryptCost:        EnvIntDefault("BCRYPT_COST", 10),

		RedisURL: os.Getenv("REDIS_URL"),
		CacheTTL: time.Duration(EnvIntDefault("CACHE_TTL_SECONDS", 300)) * time.Second,

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "tasks"),

		AuthRatePerSecond: EnvFloatDefault("AUTH_RATE_PER_SECOND", 5),
		AuthRateBurst:     EnvIntDefault("AUTH_RATE_BURST", 10),
		CSRFEnabled:       EnvBoolDefault("CSRF_ENABLED", false),
		CORSOrigins:       CSV(EnvDefault("CORS_ORIGINS", "http://localhost:8080,http://localhost")),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
}

func (c Config) Validate() error {
	var errs []error
	if len(c.SecretKey) == 0 {
		errs = append(errs, errors.New("missing required env SECRET_KEY"))
	}
	if !tokens.SupportedAlgorithm(c.Algorithm) {
		errs = append(errs, fmt.Errorf("unsupported ALGORITHM %q", c.Algorithm))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if c.AccessTTL >= c.RefreshTTL {
		errs = append(errs, errors.New("access token lifetime must be shorter than refresh token lifetime"))
	}
	switch c.TokenSource {
	case TokenSourceHeader, TokenSourceCookie, TokenSourceBoth:
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_TOKEN_SOURCE %q", c.TokenSource))
	}
	switch c.DBDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("missing required env DATABASE_URL"))
		}
	case "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}
	return errors.Join(errs...)
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.ServerPort)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
