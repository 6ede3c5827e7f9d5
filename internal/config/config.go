package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort           string
	AppEnv            string
	AWSRegion         string
	AWSEndpointURL    string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID    string
	AWSSecretKey      string
	DynamoTables      DynamoTables
	S3BucketName      string
	PresignTTL        time.Duration
	SignupTokenTTL    time.Duration
	SignupPageURL     string
	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	SNSRegion         string
	EventsTopicARN    string // optional; decision events are dropped when empty
	AllowedOrigins    []string
	TrustedProxies    []string // peers whose X-Forwarded-For / X-Real-Ip are honoured
	MaxUploadBytes    int64
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users         string
	Companies     string
	Links         string
	FormApprovals string
	SignupTokens  string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "5000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AWSRegion:      getEnv("AWS_REGION", "us-west-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:         getEnv("DYNAMO_TABLE_USERS", "users"),
			Companies:     getEnv("DYNAMO_TABLE_COMPANIES", "companies"),
			Links:         getEnv("DYNAMO_TABLE_LINKS", "smart-referral-links"),
			FormApprovals: getEnv("DYNAMO_TABLE_FORM_APPROVALS", "form-approvals"),
			SignupTokens:  getEnv("DYNAMO_TABLE_SIGNUP_TOKENS", "signup-tokens"),
		},
		S3BucketName:      getEnv("S3_BUCKET_NAME", "smartreferralhub-bucket"),
		PresignTTL:        getEnvDuration("PRESIGN_TTL", time.Hour),
		SignupTokenTTL:    getEnvDuration("SIGNUP_TOKEN_TTL", 600*time.Second),
		SignupPageURL:     getEnv("SIGNUP_PAGE_URL", "http://localhost:5173/customer-signup"),
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 24*time.Hour),
		SNSRegion:         getEnv("SNS_REGION", "us-west-1"),
		EventsTopicARN:    getEnv("SNS_EVENTS_TOPIC_ARN", ""),
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "https://smartreferralhub.com,http://localhost:5173"), ","),
		TrustedProxies:    strings.Split(getEnv("TRUSTED_PROXIES", ""), ","),
		MaxUploadBytes:    int64(getEnvInt("MAX_UPLOAD_BYTES", 64<<20)),
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

// getEnvDuration accepts Go duration strings ("10m") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
