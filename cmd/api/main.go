package main

import (
	"context"
	"log"

	"github.com/Raices-25-26J-118/raices-backend/config"
	"github.com/Raices-25-26J-118/raices-backend/internal/bootstrap"
	"github.com/Raices-25-26J-118/raices-backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	fb, err := bootstrap.InitFirebase(ctx, &cfg.Firebase)
	if err != nil {
		log.Fatalf("firebase: %v", err)
	}
	defer fb.Close()

	rdb, err := bootstrap.RedisFromConfig(ctx, &cfg.Redis)
	if err != nil {
		// Board state is the only Redis consumer; the API can run without it.
		log.Printf("redis unavailable, board-state endpoints disabled: %v", err)
		rdb = nil
	}

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    "raices-backend",
		Version:        cfg.App.Version,
		Store:          store.NewFirestoreStore(fb.Firestore),
		AuthClient:     fb.Auth,
		Redis:          rdb,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	})

	addr := ":" + cfg.Server.Port
	log.Printf("listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
