// internal/platform/di/shared/infra.go
package shared

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/firestore"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/db"
	"github.com/go-redis/redis/v8"
	"google.golang.org/api/option"

	pgstore "storefront/internal/adapters/out/db"
	redisstore "storefront/internal/adapters/out/redis"
	"storefront/internal/adapters/out/secrets"
	appcfg "storefront/internal/infra/config"
	"storefront/internal/infra/database"
)

// Infra is shared runtime infrastructure for DI.
// - owns external clients (Firebase/RTDB/Firestore/Postgres/Redis/GCS/SecretManager)
// - only the clients the selected STORE_BACKEND needs are strict
//
// IMPORTANT:
// Infra must NOT depend on routers or handlers.
type Infra struct {
	Config    *appcfg.Config
	ProjectID string

	// Clients (owned; Close-managed)
	FirebaseApp   *firebase.App
	FirebaseAuth  *firebaseauth.Client
	RTDB          *db.Client
	Firestore     *firestore.Client
	Postgres      *database.DB
	Redis         *redis.Client
	GCS           *storage.Client
	SecretManager *secretmanager.Client

	// Resolved secrets
	SendGridAPIKey string
}

// NewInfra initializes shared infra.
// The store backend client is strict (return error).
// Firebase Auth, Redis, GCS and SecretManager are best-effort (warn + continue).
func NewInfra(ctx context.Context, cfg *appcfg.Config) (*Infra, error) {
	if cfg == nil {
		return nil, errors.New("shared.infra: config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	inf := &Infra{
		Config:    cfg,
		ProjectID: strings.TrimSpace(cfg.FirestoreProjectID),
	}

	// Credentials file (optional; mainly for local dev)
	credFile := strings.TrimSpace(cfg.FirestoreCredentialsFile)
	if credFile == "" {
		credFile = strings.TrimSpace(cfg.GCPCreds)
	}
	var clientOpts []option.ClientOption
	if credFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credFile))
		log.Printf("[shared.infra] Using credentials file for GCP clients: %s", redactPath(credFile))
	} else {
		log.Printf("[shared.infra] Using Application Default Credentials (no credentials file configured)")
	}

	// 1) Firebase App/Auth (App is strict for rtdb, Auth is best-effort)
	if cfg.StoreBackend != appcfg.BackendMemory || cfg.FirebaseProjectID != "" {
		fbCfg := &firebase.Config{
			ProjectID:   cfg.FirebaseProjectID,
			DatabaseURL: cfg.FirebaseDatabaseURL,
		}
		fbApp, err := firebase.NewApp(ctx, fbCfg, clientOpts...)
		if err != nil {
			if cfg.StoreBackend == appcfg.BackendRTDB {
				return nil, fmt.Errorf("shared.infra: firebase app init failed: %w", err)
			}
			log.Printf("[shared.infra] WARN: firebase app init failed: %v", err)
		} else {
			inf.FirebaseApp = fbApp
			authClient, err := fbApp.Auth(ctx)
			if err != nil {
				log.Printf("[shared.infra] WARN: firebase auth init failed: %v (signed-in routes return 503)", err)
			} else {
				inf.FirebaseAuth = authClient
				log.Printf("[shared.infra] Firebase Auth initialized project=%s", cfg.FirebaseProjectID)
			}
		}
	}

	// 2) Store backend (strict)
	switch cfg.StoreBackend {
	case appcfg.BackendRTDB:
		client, err := inf.FirebaseApp.DatabaseWithURL(ctx, cfg.FirebaseDatabaseURL)
		if err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("shared.infra: realtime database init failed (url=%s): %w", cfg.FirebaseDatabaseURL, err)
		}
		inf.RTDB = client
		log.Printf("[shared.infra] Realtime Database connected url=%s", cfg.FirebaseDatabaseURL)

	case appcfg.BackendFirestore:
		fsClient, err := firestore.NewClient(ctx, inf.ProjectID, clientOpts...)
		if err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("shared.infra: firestore.NewClient failed (project=%s): %w", inf.ProjectID, err)
		}
		inf.Firestore = fsClient
		log.Printf("[shared.infra] Firestore connected project=%s", inf.ProjectID)

	case appcfg.BackendPostgres:
		pg, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("shared.infra: postgres: %w", err)
		}
		inf.Postgres = pg
		if err := pgstore.Migrate(ctx, pg.Client); err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("shared.infra: postgres migrate: %w", err)
		}

	case appcfg.BackendMemory:
		log.Printf("[shared.infra] WARN: STORE_BACKEND=memory (data is lost on restart)")
	}

	// 3) Redis carts (best-effort; memory carts otherwise)
	if strings.TrimSpace(cfg.RedisURL) != "" {
		rc, err := redisstore.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("[shared.infra] WARN: redis init failed: %v (carts fall back to process memory)", err)
		} else {
			inf.Redis = rc
			log.Printf("[shared.infra] Redis connected (carts)")
		}
	}

	// 4) GCS (best-effort; image upload disabled without it)
	if strings.TrimSpace(cfg.ProductImageBucket) != "" {
		gcsClient, err := storage.NewClient(ctx, clientOpts...)
		if err != nil {
			log.Printf("[shared.infra] WARN: storage.NewClient failed: %v (image upload disabled)", err)
		} else {
			inf.GCS = gcsClient
			log.Printf("[shared.infra] GCS storage client initialized bucket=%s", cfg.ProductImageBucket)
		}
	} else {
		log.Printf("[shared.infra] WARN: PRODUCT_IMAGE_BUCKET is empty (image upload disabled)")
	}

	// 5) SendGrid key: env, or Secret Manager (best-effort)
	inf.SendGridAPIKey = strings.TrimSpace(cfg.SendGridAPIKey)
	if inf.SendGridAPIKey == "" && strings.TrimSpace(cfg.SendGridAPIKeySecret) != "" {
		sm, err := secretmanager.NewClient(ctx, clientOpts...)
		if err != nil {
			log.Printf("[shared.infra] WARN: secretmanager.NewClient failed: %v (order mail disabled)", err)
		} else {
			inf.SecretManager = sm
			key, err := secrets.NewProviderSM(sm, inf.ProjectID).Get(ctx, cfg.SendGridAPIKeySecret)
			if err != nil {
				log.Printf("[shared.infra] WARN: sendgrid key lookup failed: %v (order mail disabled)", err)
			} else {
				inf.SendGridAPIKey = key
			}
		}
	}

	return inf, nil
}

func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	var errs []error
	if i.Firestore != nil {
		errs = append(errs, i.Firestore.Close())
	}
	if i.Postgres != nil {
		errs = append(errs, i.Postgres.Close())
	}
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	if i.GCS != nil {
		errs = append(errs, i.GCS.Close())
	}
	if i.SecretManager != nil {
		errs = append(errs, i.SecretManager.Close())
	}
	return errors.Join(errs...)
}

func redactPath(p string) string {
	// Do not log full path (Windows/Unix compatible light masking)
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	parts := strings.Split(p, "/")
	last := parts[len(parts)-1]
	if last == "" {
		return "***"
	}
	return "***" + "/" + last
}
