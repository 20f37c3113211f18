package main

import (
	"context"
	"log"

	"github.com/Raices-25-26J-118/raices-backend/config"
	"github.com/Raices-25-26J-118/raices-backend/internal/bootstrap"
	"github.com/Raices-25-26J-118/raices-backend/internal/store"
	cronjob "github.com/Raices-25-26J-118/raices-backend/internal/tracking/cron"
	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/service"
)

func newAuditService(ctx context.Context) (*service.AuditService, func()) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	fb, err := bootstrap.InitFirebase(ctx, &cfg.Firebase)
	if err != nil {
		log.Fatalf("firebase: %v", err)
	}

	return service.NewAuditService(store.NewFirestoreStore(fb.Firestore)), fb.Close
}

// RunAudit performs a one-shot rollup audit and exits.
func RunAudit() {
	ctx := context.Background()
	audit, closeFn := newAuditService(ctx)
	defer closeFn()

	findings, err := audit.Run(ctx)
	if err != nil {
		log.Fatalf("audit: %v", err)
	}
	if len(findings) == 0 {
		log.Println("audit: all rollups consistent")
	}
}

// RunSchedule starts the nightly audit scheduler and blocks.
func RunSchedule() {
	ctx := context.Background()
	audit, closeFn := newAuditService(ctx)
	defer closeFn()

	sched := cronjob.NewScheduler(audit)
	sched.Start()
	select {}
}
