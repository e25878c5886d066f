package config

import (
	"os"
	"strconv"
	"strings"
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

	// CacheBucket backs the versioned asset cache used by the agent.
	CacheBucket string

	// VAPID key pair for Web Push. Both must be set for push delivery;
	// when either is missing, push endpoints report "not configured".
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string

	// WebhookSecret authenticates change signals from the content backend.
	WebhookSecret string

	// CacheGeneration is the deploy-time version tag that names the agent
	// caches. Bumping it is the only supported way to invalidate all
	// previously cached assets.
	CacheGeneration string

	// OriginURL is the content site the agent fronts.
	OriginURL string

	// PrecacheManifest lists the asset paths installed into the cache on
	// agent install, best effort.
	PrecacheManifest []string

	// Agent-side settings: the local port the agent proxy listens on,
	// the public URL its push intake is reachable at, where the agent
	// keeps durable state, and the notification API it registers with.
	AgentPort      string
	AgentPublicURL string
	AgentStateDir  string
	APIBaseURL     string

	JWTPublicKeyPath  string
	JWTPrivateKeyPath string

	FanoutConcurrency int
	RegistryPageSize  int

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Subscriptions string
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
			Subscriptions: getEnv("DYNAMO_TABLE_SUBSCRIPTIONS", "push_subscriptions"),
		},

		CacheBucket: getEnv("CACHE_BUCKET_NAME", "community-notify-cache"),

		VAPIDPublicKey:  getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:    getEnv("VAPID_SUBJECT", "mailto:admin@example.com"),

		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),

		CacheGeneration: getEnv("CACHE_GENERATION", "v1"),
		OriginURL:       getEnv("ORIGIN_URL", "http://localhost:8080"),
		PrecacheManifest: splitList(getEnv("PRECACHE_MANIFEST",
			"/,/offline,/css/site.css,/js/site.js,/img/logo.png")),

		AgentPort:      getEnv("AGENT_PORT", "9100"),
		AgentPublicURL: getEnv("AGENT_PUBLIC_URL", "http://localhost:9100"),
		AgentStateDir:  getEnv("AGENT_STATE_DIR", "./.agent-state"),
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:3000"),

		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),

		FanoutConcurrency: getEnvInt("FANOUT_CONCURRENCY", 16),
		RegistryPageSize:  getEnvInt("REGISTRY_PAGE_SIZE", 1000),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
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

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
