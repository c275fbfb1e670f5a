package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minJWTSecretLength = 32

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string
	AutoMigrate bool

	// Auth
	JWT              JWTConfig
	AuthRateLimit    int
	PasswordResetTTL time.Duration

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// CIDR ranges of reverse proxies whose X-Forwarded-For is honored.
	// Empty means the client IP is always the direct peer address.
	TrustedProxies []string

	// Object storage for avatars: "s3", "minio" or empty to disable uploads
	StorageDriver string
	S3            S3Config
	MinIO         MinIOConfig

	// Outbound mail
	Mail MailConfig
	SMTP SMTPConfig
}

// JWTConfig holds access token settings
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
}

// MinIOConfig holds MinIO configuration
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// MailConfig holds the RabbitMQ mail queue settings. An empty URL logs mail instead.
type MailConfig struct {
	AMQPURL  string
	Exchange string
	Queue    string
}

// SMTPConfig is used by the mailer binary
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// IsProduction reports whether the app runs with ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadMailer reads the subset of configuration needed by the mailer
func LoadMailer() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.Mail.AMQPURL == "" {
		return nil, fmt.Errorf("AMQP_URL is required")
	}
	if cfg.SMTP.Host == "" {
		return nil, fmt.Errorf("SMTP_HOST is required")
	}
	return cfg, nil
}

func fromEnv() (*Config, error) {
	jwtTTL, err := getDuration("JWT_TTL", 72*time.Hour)
	if err != nil {
		return nil, err
	}
	resetTTL, err := getDuration("PASSWORD_RESET_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	rateLimit, err := getInt("AUTH_RATE_LIMIT", 20)
	if err != nil {
		return nil, err
	}
	smtpPort, err := getInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		AutoMigrate: getEnv("AUTO_MIGRATE", "false") == "true",
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", ""),
			Issuer:   getEnv("JWT_ISSUER", "spendly"),
			Audience: getEnv("JWT_AUDIENCE", "spendly-mobile"),
			TTL:      jwtTTL,
		},
		AuthRateLimit:    rateLimit,
		PasswordResetTTL: resetTTL,
		Port:             getEnv("PORT", "8080"),
		CORSOrigins:      splitList(getEnv("CORS_ORIGINS", "http://localhost:8081")),
		Env:              getEnv("ENV", "development"),
		TrustedProxies:   splitList(getEnv("TRUSTED_PROXIES", "")),
		StorageDriver:    strings.ToLower(getEnv("STORAGE_DRIVER", "")),
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", "spendly-avatars"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
		},
		MinIO: MinIOConfig{
			Endpoint:        getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("MINIO_ACCESS_KEY", ""),
			SecretAccessKey: getEnv("MINIO_SECRET_KEY", ""),
			BucketName:      getEnv("MINIO_BUCKET", "spendly-avatars"),
			UseSSL:          getEnv("MINIO_USE_SSL", "false") == "true",
		},
		Mail: MailConfig{
			AMQPURL:  getEnv("AMQP_URL", ""),
			Exchange: getEnv("MAIL_EXCHANGE", "spendly.mail"),
			Queue:    getEnv("MAIL_QUEUE", "spendly.mail.outbound"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     smtpPort,
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "Spendly <no-reply@spendly.app>"),
		},
	}, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecretLength)
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.AuthRateLimit <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT must be positive")
	}
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("TRUSTED_PROXIES: invalid CIDR %q", cidr)
		}
	}
	switch c.StorageDriver {
	case "", "s3", "minio":
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of: s3, minio")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
