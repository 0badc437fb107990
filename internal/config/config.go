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
	S3BucketName string // dead-letter archive bucket

	SMTPHost       string
	SMTPPort       string
	SMTPFrom       string
	SMTPUsername   string
	SMTPPassword   string
	SMTPRatePerSec int // outbound send throttle
	SMTPBurst      int

	SNSRegion   string
	SNSTopicArn string // operator alerts for dead-lettered mail

	Outbox OutboxConfig

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Accounts   string
	Challenges string
	Outbox     string
}

// OutboxConfig tunes the background mail dispatcher.
type OutboxConfig struct {
	PollInterval   time.Duration
	BatchSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
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
			Accounts:   getEnv("DYNAMO_TABLE_ACCOUNTS", "accounts"),
			Challenges: getEnv("DYNAMO_TABLE_OTP_CHALLENGES", "otp_challenges"),
			Outbox:     getEnv("DYNAMO_TABLE_MAIL_OUTBOX", "mail_outbox"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "campus-auth-dead-letter"),

		SMTPHost:       getEnv("SMTP_HOST", "localhost"),
		SMTPPort:       getEnv("SMTP_PORT", "1025"),
		SMTPFrom:       getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		SMTPRatePerSec: getEnvInt("SMTP_RATE_PER_SEC", 5),
		SMTPBurst:      getEnvInt("SMTP_BURST", 10),

		SNSRegion:   getEnv("SNS_REGION", "us-east-1"),
		SNSTopicArn: getEnv("SNS_TOPIC_ARN", ""),

		Outbox: OutboxConfig{
			PollInterval:   getEnvDuration("OUTBOX_POLL_INTERVAL", 5*time.Second),
			BatchSize:      getEnvInt("OUTBOX_BATCH_SIZE", 25),
			MaxAttempts:    getEnvInt("OUTBOX_MAX_ATTEMPTS", 5),
			InitialBackoff: getEnvDuration("OUTBOX_INITIAL_BACKOFF", 30*time.Second),
			MaxBackoff:     getEnvDuration("OUTBOX_MAX_BACKOFF", 10*time.Minute),
		},

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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
