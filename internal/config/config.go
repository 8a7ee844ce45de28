package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// StoreBackend selects the record-store backing medium.
type StoreBackend string

const (
	BackendCSV      StoreBackend = "csv"
	BackendRedis    StoreBackend = "redis"
	BackendPostgres StoreBackend = "postgres"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Store      StoreConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	OAuth      OAuthConfig
	Notify     NotifyConfig
	Attachment AttachmentConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// StoreConfig selects and parameterizes the record store.
type StoreConfig struct {
	Backend          StoreBackend
	GrievanceFile    string
	UsersFile        string
	OpTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines session token parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// OAuthConfig defines the Azure AD authorization-code exchange.
type OAuthConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AdminEmails  []string
}

// NotifyConfig holds the Microsoft Graph mail settings.
type NotifyConfig struct {
	SenderUserID   string
	TimeoutSeconds int
}

// AttachmentConfig holds Cloudinary credentials for the attachment store.
type AttachmentConfig struct {
	CloudName     string
	APIKey        string
	APISecret     string
	Folder        string
	SignedURLTTLS int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	backend := StoreBackend(strings.ToLower(getEnv("STORE_BACKEND", string(BackendCSV))))
	switch backend {
	case BackendCSV, BackendRedis, BackendPostgres:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND: %q", backend)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "grievance-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Store: StoreConfig{
			Backend:          backend,
			GrievanceFile:    getEnv("GRIEVANCE_FILE", "sample_grievances.csv"),
			UsersFile:        getEnv("USERS_FILE", "sample_users.csv"),
			OpTimeoutSeconds: getEnvAsInt("STORE_OP_TIMEOUT_SECONDS", 5),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		OAuth: OAuthConfig{
			TenantID:     os.Getenv("AZURE_TENANT_ID"),
			ClientID:     os.Getenv("AZURE_CLIENT_ID"),
			ClientSecret: os.Getenv("AZURE_CLIENT_SECRET"),
			RedirectURI:  getEnv("AAD_REDIRECT_URI", "http://localhost:8080/auth/oauth/callback"),
			AdminEmails:  splitEmails(os.Getenv("ADMIN_EMAILS")),
		},
		Notify: NotifyConfig{
			SenderUserID:   os.Getenv("NOTIFY_SENDER_USER_ID"),
			TimeoutSeconds: getEnvAsInt("NOTIFY_TIMEOUT_SECONDS", 10),
		},
		Attachment: AttachmentConfig{
			CloudName:     os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:        os.Getenv("CLOUDINARY_API_KEY"),
			APISecret:     os.Getenv("CLOUDINARY_API_SECRET"),
			Folder:        getEnv("CLOUDINARY_FOLDER", "grievances"),
			SignedURLTTLS: getEnvAsInt("ATTACHMENT_SIGNED_URL_TTL_SECONDS", 3600),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// OpTimeout returns the bounded timeout for a single store operation.
func (s StoreConfig) OpTimeout() time.Duration {
	if s.OpTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.OpTimeoutSeconds) * time.Second
}

// Timeout returns the outbound notifier timeout.
func (n NotifyConfig) Timeout() time.Duration {
	if n.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n.TimeoutSeconds) * time.Second
}

// SignedURLTTL returns the attachment signed URL validity window.
func (a AttachmentConfig) SignedURLTTL() time.Duration {
	if a.SignedURLTTLS <= 0 {
		return time.Hour
	}
	return time.Duration(a.SignedURLTTLS) * time.Second
}

func splitEmails(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
