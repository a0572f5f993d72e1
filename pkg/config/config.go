package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Typesense     TypesenseConfig
	NLP           NLPConfig
	Delivery      DeliveryConfig
	Notifications NotificationConfig
	Admin         AdminConfig
	OTEL          OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	Env            string
	PublicBaseURL  string
	AllowedOrigins string
	TrustedProxies string
}

// DatabaseConfig holds database configuration. When Enabled is false the
// portal keeps patients and sessions in memory.
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	Enabled bool
	URL     string
	APIKey  string
}

// NLPConfig selects the tokenizer and tagger backing the medication extractor.
type NLPConfig struct {
	Tokenizer   string // simple | prose
	Tagger      string // none | prose | lexicon
	TaggerModel string
	CacheTTL    time.Duration
}

// DeliveryConfig holds the secret used to sign delivery confirmation links
type DeliveryConfig struct {
	TokenSecret string
}

// NotificationConfig selects the outbound prescription channel
type NotificationConfig struct {
	Channel               string // console | whatsapp
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
}

// AdminConfig holds the credentials guarding the admin dashboard
type AdminConfig struct {
	User     string
	Password string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// DefaultDeliverySecret is used when DELIVERY_TOKEN_SECRET is unset.
const DefaultDeliverySecret = "dev-secret"

// Development admin credentials used when ADMIN_USER / ADMIN_PASS are unset.
const (
	DefaultAdminUser     = "admin"
	DefaultAdminPassword = "adminpass"
)

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", getEnvAsInt("PORT", 8080)),
			Env:            getEnv("ENV", "production"),
			PublicBaseURL:  strings.TrimSuffix(getEnv("PUBLIC_BASE_URL", ""), "/"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", ""),
			TrustedProxies: getEnv("TRUSTED_PROXIES", ""),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("DB_ENABLED", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "clinic_portal"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			Enabled: getEnvAsBool("TYPESENSE_ENABLED", false),
			URL:     getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:  getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		NLP: NLPConfig{
			Tokenizer:   strings.ToLower(getEnv("NLP_TOKENIZER", "simple")),
			Tagger:      strings.ToLower(getEnv("NLP_TAGGER", "none")),
			TaggerModel: getEnv("NLP_TAGGER_MODEL", "models/en-pos-lexicon.yaml"),
			CacheTTL:    getEnvAsDuration("NLP_CACHE_TTL", 24*time.Hour),
		},
		Delivery: DeliveryConfig{
			TokenSecret: getEnv("DELIVERY_TOKEN_SECRET", DefaultDeliverySecret),
		},
		Notifications: NotificationConfig{
			Channel:               strings.ToLower(getEnv("NOTIFY_CHANNEL", "console")),
			WhatsAppAccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
			WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		},
		Admin: AdminConfig{
			User:     getEnv("ADMIN_USER", DefaultAdminUser),
			Password: getEnv("ADMIN_PASS", DefaultAdminPassword),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "clinic-portal"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.NLP.Tokenizer {
	case "simple", "prose":
	default:
		return fmt.Errorf("invalid NLP_TOKENIZER %q (must be simple or prose)", c.NLP.Tokenizer)
	}
	switch c.NLP.Tagger {
	case "none", "prose", "lexicon":
	default:
		return fmt.Errorf("invalid NLP_TAGGER %q (must be none, prose or lexicon)", c.NLP.Tagger)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// UsesDefaultCredentials reports whether the admin dashboard is guarded by the development login.
func (c *AdminConfig) UsesDefaultCredentials() bool {
	return c.User == DefaultAdminUser && c.Password == DefaultAdminPassword
}

// UsesDefaultSecret reports whether delivery links are signed with the development secret.
func (c *DeliveryConfig) UsesDefaultSecret() bool {
	return c.TokenSecret == DefaultDeliverySecret
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
