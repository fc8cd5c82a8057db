package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	DynamoTables DynamoTables
	S3BucketName string

	// Three independent secret/lifetime pairs. Access, refresh and reset
	// tokens are never interchangeable.
	JWTAccessSecret  string
	JWTAccessExpiry  time.Duration
	JWTRefreshSecret string
	JWTRefreshExpiry time.Duration
	JWTResetSecret   string
	JWTResetExpiry   time.Duration

	// Tokens older than this are rejected by the gate even when their
	// signature and expiry are otherwise valid.
	MaxTokenAge time.Duration

	OTPExpiry  time.Duration
	BcryptCost int

	RevocationSweepInterval time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users string
	OTPs  string
	Files string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		DynamoTables: DynamoTables{
			Users: getEnv("DYNAMO_TABLE_USERS", "users"),
			OTPs:  getEnv("DYNAMO_TABLE_OTPS", "otps"),
			Files: getEnv("DYNAMO_TABLE_FILES", "files"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "go-auth-files"),

		JWTAccessSecret:  getEnv("JWT_ACCESS_SECRET", ""),
		JWTAccessExpiry:  getEnvDuration("JWT_ACCESS_EXPIRES_IN", 24*time.Hour),
		JWTRefreshSecret: getEnv("JWT_REFRESH_SECRET", ""),
		JWTRefreshExpiry: getEnvDuration("JWT_REFRESH_EXPIRES_IN", 30*24*time.Hour),
		JWTResetSecret:   getEnv("JWT_RESET_PASS_SECRET", ""),
		JWTResetExpiry:   getEnvDuration("JWT_RESET_PASS_EXPIRES_IN", 10*time.Minute),

		MaxTokenAge: getEnvDuration("MAX_TOKEN_AGE", 24*time.Hour),

		OTPExpiry:  time.Duration(getEnvInt("OTP_EXPIRY_MINUTES", 5)) * time.Minute,
		BcryptCost: getEnvInt("BCRYPT_COST", 12),

		RevocationSweepInterval: getEnvDuration("REVOCATION_SWEEP_INTERVAL", 30*time.Minute),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// IsProduction reports whether the app runs with production error shaping
// (generic 5xx messages, secure cookies).
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
