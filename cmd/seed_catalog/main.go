// cmd/seed_catalog/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	appcfg "storefront/internal/infra/config"
	shared "storefront/internal/platform/di/shared"
	storefrontDI "storefront/internal/platform/di/storefront"
)

// seed_catalog upserts products and admin roles from a YAML file into STORE_BACKEND.
//
//	go run ./cmd/seed_catalog -file catalog.yaml
func main() {
	path := flag.String("file", "catalog.yaml", "seed YAML file")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("open seed file: %v", err)
	}
	seed, err := parseSeed(f)
	_ = f.Close()
	if err != nil {
		log.Fatalf("%v", err)
	}

	cfg := appcfg.Load()
	infra, err := shared.NewInfra(ctx, cfg)
	if err != nil {
		log.Fatalf("infra: %v", err)
	}
	defer infra.Close()

	stores, err := storefrontDI.OpenStores(infra)
	if err != nil {
		log.Fatalf("stores: %v", err)
	}

	np, na, err := applySeed(ctx, seed, stores.Products, stores.Roles, time.Now().UTC())
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("[seed] backend=%s products=%d admins=%d", cfg.StoreBackend, np, na)
}
