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
	DynamoTables   DynamoTables

	// IDVerse provider credentials and endpoints.
	ProviderClientID     string
	ProviderClientSecret string
	ProviderOAuthURL     string
	ProviderAPIURL       string

	// Shared secret for GET /api/getAuth; compared verbatim against auth_key.
	AuthKey string

	// HMAC secret for session and webhook tokens. Padded to 32 bytes if shorter.
	JWTSecretKey string

	SessionTokenTTL time.Duration
	ExchangeKeyTTL  time.Duration

	// Webhook callback URLs advertised to the provider on each verification.
	NotifyURLComplete string
	NotifyURLEvent    string

	// Token returned by the mock OAuth endpoint (POST /api/3.5/oauthToken).
	MockOAuthToken string

	// Optional SNS topic for verification-failure alerts.
	SNSRegion     string
	AlertTopicARN string

	Defaults VerifyDefaults

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Verifications string
}

// VerifyDefaults pre-fills verification requests served by GET /api/defaults.
type VerifyDefaults struct {
	PhoneCode         string
	PhoneNumber       string
	ReferenceID       string
	Transaction       string
	Name              string
	SuppliedFirstName string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "8080"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Verifications: getEnv("DYNAMO_TABLE_VERIFICATIONS", "verification_records"),
		},

		ProviderClientID:     getEnv("IDVERSE_CLIENT_ID", "demo_client_id"),
		ProviderClientSecret: getEnv("IDVERSE_CLIENT_SECRET", "demo_client_secret"),
		ProviderOAuthURL:     getEnv("IDVERSE_OAUTH_URL", "https://usdemo.idkit.co/api/3.5/oauthToken"),
		ProviderAPIURL:       getEnv("IDVERSE_API_URL", "https://usdemo.idkit.co/api/3.5/sendSms"),

		AuthKey:      getEnv("AUTH_KEY", ""),
		JWTSecretKey: getEnv("JWT_SECRET_KEY", "idverse-default-secret-key-change-in-production"),

		SessionTokenTTL: getEnvHours("SESSION_TOKEN_TTL_HOURS", 24),
		ExchangeKeyTTL:  getEnvHours("EXCHANGE_KEY_TTL_HOURS", 1),

		NotifyURLComplete: getEnv("NOTIFY_URL_COMPLETE", ""),
		NotifyURLEvent:    getEnv("NOTIFY_URL_EVENT", ""),

		MockOAuthToken: getEnv("OAUTHTOKEN", ""),

		SNSRegion:     getEnv("SNS_REGION", "us-east-1"),
		AlertTopicARN: getEnv("ALERT_TOPIC_ARN", ""),

		Defaults: VerifyDefaults{
			PhoneCode:         getEnv("PHONE_CODE", "+1"),
			PhoneNumber:       getEnv("PHONE_NUMBER", ""),
			ReferenceID:       getEnv("REFERENCE_ID", ""),
			Transaction:       getEnv("TRANSACTION", ""),
			Name:              getEnv("NAME", ""),
			SuppliedFirstName: getEnv("SUPPLIED_FIRST_NAME", ""),
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

func getEnvHours(key string, fallback int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Hour
		}
	}
	return time.Duration(fallback) * time.Hour
}
