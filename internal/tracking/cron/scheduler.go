package cronjob

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Raices-25-26J-118/raices-backend/internal/tracking/service"
)

type Scheduler struct {
	audit *service.AuditService
	cron  *cron.Cron
}

func NewScheduler(audit *service.AuditService) *Scheduler {
	return &Scheduler{audit: audit}
}

// Start schedules the nightly rollup audit at 12:00 AM.
func (s *Scheduler) Start() {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc("0 0 0 * * *", func() {
		s.runNightlyAudit()
	})
	if err != nil {
		log.Printf("Failed to create cron job: %v", err)
		return
	}

	log.Println("Cron scheduler started (rollup audit nightly at 12:00AM)")
	c.Start()
	s.cron = c
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) runNightlyAudit() {
	log.Println("Nightly rollup audit started...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	findings, err := s.audit.Run(ctx)
	if err != nil {
		log.Printf("Rollup audit failed: %v", err)
		return
	}

	log.Printf("Nightly rollup audit completed at %s (%d findings)",
		time.Now().Format(time.RFC1123), len(findings))
}
