package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"coursesynth.app/api/core/db"
)

// Config holds all application configuration. It is read once at startup
// and frozen; it is passed explicitly to constructors rather than smuggled
// through globals or function signatures.
type Config struct {
	Env  string
	Port string

	DB       db.Config
	JWT      JWTConfig
	Cookie   CookieConfig
	OAuth    OAuthConfig
	LLM      LLMConfig
	Vector   VectorConfig
	Search   SearchConfig
	Redis    RedisConfig
	Quota    QuotaConfig
	Password PasswordPolicy
	OTel     OTelConfig

	ImageSearchAPIKey string
	SyntaxValidatorURL string
	DashboardURL       string
}

type JWTConfig struct {
	Algorithm     string // HS256 or RS256
	Secret        string // HMAC secret, when Algorithm == HS256
	PrivateKeyPEM string // RSA private key, when Algorithm == RS256
	PublicKeyPEM  string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type CookieConfig struct {
	Secure bool
	Domain string
}

type OAuthConfig struct {
	GoogleClientID      string
	GoogleClientSecret  string
	GitHubClientID      string
	GitHubClientSecret  string
	DiscordClientID     string
	DiscordClientSecret string
	RedirectBaseURL     string
}

type LLMConfig struct {
	Provider       string // "openai" or "anthropic"
	APIKey         string
	StandardModel  string
	StructuredModel string
	ChatModel      string
	MaxRetries     int
	RetryDelay     time.Duration
}

type VectorConfig struct {
	Host              string
	Port              int
	CollectionPrefix  string
	EmbeddingModel    string
	EmbeddingDims     int
}

type SearchConfig struct {
	TypesenseHost   string
	TypesensePort   int
	TypesenseAPIKey string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	DLQ      string
}

type QuotaConfig struct {
	MaxCourseCreations int
	MaxPresentCourses  int
}

type PasswordPolicy struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

// OTelConfig configures the OTLP exporters in common/otel. Enabled() gates
// whether Setup does anything; a blank Endpoint means tracing/logging stay
// local (slog to stdout/file only).
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Headers        string
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

// Load loads configuration from environment variables with sensible
// development defaults.
func Load() Config {
	return Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		DB: db.Config{
			DSN:      buildDSN(),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 2)),
		},
		JWT: JWTConfig{
			Algorithm:     getEnv("JWT_ALGORITHM", "HS256"),
			Secret:        getEnv("JWT_SECRET", "dev-secret-change-me"),
			PrivateKeyPEM: getEnv("JWT_PRIVATE_KEY", ""),
			PublicKeyPEM:  getEnv("JWT_PUBLIC_KEY", ""),
			AccessTTL:     getEnvDuration("JWT_ACCESS_TTL", 20*time.Minute),
			RefreshTTL:    getEnvDuration("JWT_REFRESH_TTL", 100*time.Hour),
		},
		Cookie: CookieConfig{
			Secure: getEnvBool("COOKIE_SECURE", true),
			Domain: getEnv("COOKIE_DOMAIN", ""),
		},
		OAuth: OAuthConfig{
			GoogleClientID:      getEnv("OAUTH_GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret:  getEnv("OAUTH_GOOGLE_CLIENT_SECRET", ""),
			GitHubClientID:      getEnv("OAUTH_GITHUB_CLIENT_ID", ""),
			GitHubClientSecret:  getEnv("OAUTH_GITHUB_CLIENT_SECRET", ""),
			DiscordClientID:     getEnv("OAUTH_DISCORD_CLIENT_ID", ""),
			DiscordClientSecret: getEnv("OAUTH_DISCORD_CLIENT_SECRET", ""),
			RedirectBaseURL:     getEnv("OAUTH_REDIRECT_BASE_URL", "http://localhost:8080"),
		},
		LLM: LLMConfig{
			Provider:        getEnv("LLM_PROVIDER", "openai"),
			APIKey:          getEnv("LLM_API_KEY", ""),
			StandardModel:   getEnv("LLM_STANDARD_MODEL", "gpt-4o-mini"),
			StructuredModel: getEnv("LLM_STRUCTURED_MODEL", "gpt-4o-mini"),
			ChatModel:       getEnv("LLM_CHAT_MODEL", "gpt-4o-mini"),
			MaxRetries:      getEnvInt("LLM_MAX_RETRIES", 1),
			RetryDelay:      getEnvDuration("LLM_RETRY_DELAY", 2*time.Second),
		},
		Vector: VectorConfig{
			Host:             getEnv("VECTOR_HOST", "localhost"),
			Port:             getEnvInt("VECTOR_PORT", 6334),
			CollectionPrefix: getEnv("VECTOR_COLLECTION_PREFIX", "course_"),
			EmbeddingModel:   getEnv("VECTOR_EMBEDDING_MODEL", "all-MiniLM-L6-v2"),
			EmbeddingDims:    getEnvInt("VECTOR_EMBEDDING_DIMS", 384),
		},
		Search: SearchConfig{
			TypesenseHost:   getEnv("TYPESENSE_HOST", "localhost"),
			TypesensePort:   getEnvInt("TYPESENSE_PORT", 8108),
			TypesenseAPIKey: getEnv("TYPESENSE_API_KEY", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Stream:   getEnv("REDIS_COURSE_STREAM", "course_generation"),
			DLQ:      getEnv("REDIS_COURSE_DLQ", "course_generation_dlq"),
		},
		Quota: QuotaConfig{
			MaxCourseCreations: getEnvInt("MAX_COURSE_CREATIONS", 20),
			MaxPresentCourses:  getEnvInt("MAX_PRESENT_COURSES", 10),
		},
		Password: PasswordPolicy{
			MinLength:      getEnvInt("PASSWORD_MIN_LENGTH", 8),
			RequireUpper:   getEnvBool("PASSWORD_REQUIRE_UPPER", true),
			RequireLower:   getEnvBool("PASSWORD_REQUIRE_LOWER", true),
			RequireDigit:   getEnvBool("PASSWORD_REQUIRE_DIGIT", true),
			RequireSpecial: getEnvBool("PASSWORD_REQUIRE_SPECIAL", false),
		},
		OTel: OTelConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "coursesynth-api"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
		},
		ImageSearchAPIKey:  getEnv("IMAGE_SEARCH_API_KEY", ""),
		SyntaxValidatorURL: getEnv("SYNTAX_VALIDATOR_URL", "http://localhost:9090"),
		DashboardURL:       getEnv("DASHBOARD_URL", "http://localhost:3000"),
	}
}

func buildDSN() string {
	host := getEnv("DATABASE_HOST", "localhost")
	port := getEnv("DATABASE_PORT", "5432")
	user := getEnv("DATABASE_USER", "postgres")
	password := getEnv("DATABASE_PASSWORD", "postgres")
	name := getEnv("DATABASE_NAME", "coursesynth")
	sslMode := getEnv("DATABASE_SSLMODE", "disable")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user, password, host, port, name, sslMode,
	)
}

func (c Config) IsProduction() bool  { return c.Env == "production" }
func (c Config) IsDevelopment() bool { return c.Env == "development" }

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
