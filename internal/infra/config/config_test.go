package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "GCP_PROJECT_ID", "FIRESTORE_PROJECT_ID", "FIREBASE_PROJECT_ID", "STORE_BACKEND",
		"CART_TTL", "SUBSCRIBE_POLL_INTERVAL", "STORE_CURRENCY", "CORS_ALLOWED_ORIGINS", "SENDGRID_FROM_NAME",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "herz-storefront", cfg.FirestoreProjectID)
	assert.Equal(t, "herz-storefront", cfg.FirebaseProjectID)
	assert.Equal(t, BackendRTDB, cfg.StoreBackend)
	assert.Equal(t, 7*24*time.Hour, cfg.CartTTL)
	assert.Equal(t, 2*time.Second, cfg.SubscribePollInterval)
	assert.Equal(t, "QAR", cfg.StoreCurrency)
	assert.Equal(t, "Herz", cfg.SendGridFromName)
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GCP_PROJECT_ID", "p1")
	t.Setenv("FIREBASE_PROJECT_ID", "fb")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("CART_TTL", "48h")
	t.Setenv("SUBSCRIBE_POLL_INTERVAL", "nonsense")
	t.Setenv("STORE_CURRENCY", "usd")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()
	assert.Equal(t, "p1", cfg.FirestoreProjectID)
	assert.Equal(t, "fb", cfg.FirebaseProjectID)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, 48*time.Hour, cfg.CartTTL)
	assert.Equal(t, 2*time.Second, cfg.SubscribePollInterval)
	assert.Equal(t, "USD", cfg.StoreCurrency)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"rtdb needs url", Config{StoreBackend: BackendRTDB, CartTTL: time.Hour}, "FIREBASE_DATABASE_URL"},
		{"rtdb ok", Config{StoreBackend: BackendRTDB, FirebaseDatabaseURL: "https://x.firebaseio.com", CartTTL: time.Hour}, ""},
		{"postgres needs dsn", Config{StoreBackend: BackendPostgres, CartTTL: time.Hour}, "DATABASE_URL"},
		{"memory ok", Config{StoreBackend: BackendMemory, CartTTL: time.Hour}, ""},
		{"firestore ok", Config{StoreBackend: BackendFirestore, CartTTL: time.Hour}, ""},
		{"unknown backend", Config{StoreBackend: "mongo", CartTTL: time.Hour}, "unknown STORE_BACKEND"},
		{"bad ttl", Config{StoreBackend: BackendMemory}, "CART_TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
