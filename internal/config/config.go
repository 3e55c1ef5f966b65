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

	DynamoTableAccounts string
	S3BucketName        string // avatar images

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string

	// SessionCookieName is shared by local login and the OAuth handoff: both
	// deposit the same signed session token under this name.
	SessionCookieName string
	SessionMaxAge     time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	SNSRegion    string

	// ClientURL is where the OAuth callback redirects after depositing the
	// handoff cookie.
	ClientURL string

	GoogleClientID       string
	GoogleClientSecret   string
	GoogleCallbackURL    string
	FacebookClientID     string
	FacebookClientSecret string
	FacebookCallbackURL  string

	AllowedOrigins []string // CORS allowed origins
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

		DynamoTableAccounts: getEnv("DYNAMO_TABLE_ACCOUNTS", "accounts"),
		S3BucketName:        getEnv("S3_BUCKET_NAME", "classifieds-avatars"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),

		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "mycookie"),
		// 900000 ms: the fixed session lifetime inherited from the cookie contract.
		SessionMaxAge: time.Duration(getEnvInt("SESSION_MAX_AGE_MS", 900000)) * time.Millisecond,

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SNSRegion:    getEnv("SNS_REGION", "us-east-1"),

		ClientURL: getEnv("CLIENT_URL", "http://localhost:3001"),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleCallbackURL:    getEnv("GOOGLE_CALLBACK_URL", ""),
		FacebookClientID:     getEnv("FACEBOOK_CLIENT_ID", ""),
		FacebookClientSecret: getEnv("FACEBOOK_CLIENT_SECRET", ""),
		FacebookCallbackURL:  getEnv("FACEBOOK_CALLBACK_URL", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
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
