// internal/infra/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

// ストアのバックエンド
const (
	BackendRTDB      = "rtdb"
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendMemory    = "memory"
)

// Config はアプリケーション全体の環境変数設定を保持します。
type Config struct {
	Port     string
	GCPCreds string

	// ProjectID is shared by Firestore and Firebase Auth unless overridden.
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	FirebaseProjectID        string

	// StoreBackend selects products/orders/purchases/roles storage.
	StoreBackend          string
	FirebaseDatabaseURL   string
	DatabaseURL           string
	SubscribePollInterval time.Duration

	// Carts live in Redis when RedisURL is set, otherwise in process memory.
	RedisURL string
	CartTTL  time.Duration

	ProductImageBucket string

	SendGridAPIKey       string
	SendGridAPIKeySecret string // Secret Manager resource, used when SendGridAPIKey is empty
	SendGridFrom         string
	SendGridFromName     string
	ShopBaseURL          string
	StoreCurrency        string

	CORSAllowedOrigins []string
}

// Load は環境変数を読み込み Config を返します。
// 不正な duration は WARN を出してデフォルト値を使います。
func Load() *Config {
	defaultProject := getenvDefault("GCP_PROJECT_ID", "herz-storefront")

	return &Config{
		Port:     getenvDefault("PORT", "8080"),
		GCPCreds: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),

		FirestoreProjectID:       getenvDefault("FIRESTORE_PROJECT_ID", defaultProject),
		FirestoreCredentialsFile: os.Getenv("FIRESTORE_CREDENTIALS_FILE"),
		FirebaseProjectID:        getenvDefault("FIREBASE_PROJECT_ID", defaultProject),

		StoreBackend:          strings.ToLower(getenvDefault("STORE_BACKEND", BackendRTDB)),
		FirebaseDatabaseURL:   os.Getenv("FIREBASE_DATABASE_URL"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		SubscribePollInterval: getenvDuration("SUBSCRIBE_POLL_INTERVAL", 2*time.Second),

		RedisURL: os.Getenv("REDIS_URL"),
		CartTTL:  getenvDuration("CART_TTL", 7*24*time.Hour),

		ProductImageBucket: os.Getenv("PRODUCT_IMAGE_BUCKET"),

		SendGridAPIKey:       os.Getenv("SENDGRID_API_KEY"),
		SendGridAPIKeySecret: os.Getenv("SENDGRID_API_KEY_SECRET"),
		SendGridFrom:         os.Getenv("SENDGRID_FROM"),
		SendGridFromName:     getenvDefault("SENDGRID_FROM_NAME", "Herz"),
		ShopBaseURL:          os.Getenv("SHOP_BASE_URL"),
		StoreCurrency:        strings.ToUpper(getenvDefault("STORE_CURRENCY", "QAR")),

		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}
}

// Validate checks the settings the selected backend cannot start without.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendRTDB:
		if c.FirebaseDatabaseURL == "" {
			return fmt.Errorf("config: FIREBASE_DATABASE_URL is required for STORE_BACKEND=%s", c.StoreBackend)
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for STORE_BACKEND=%s", c.StoreBackend)
		}
	case BackendFirestore, BackendMemory:
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.CartTTL <= 0 {
		return fmt.Errorf("config: CART_TTL must be positive")
	}
	return nil
}

// GetFirestoreProjectID は Firestore/GCP プロジェクト ID を返します。
func (c *Config) GetFirestoreProjectID() string {
	return c.FirestoreProjectID
}

func (c *Config) GetFirebaseProjectID() string {
	return c.FirebaseProjectID
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("[config] WARN: invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
