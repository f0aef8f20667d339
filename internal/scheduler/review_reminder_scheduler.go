package scheduler

import (
	"context"
	"time"

	"github.com/carelink/carelink-backend/config"
	"github.com/carelink/carelink-backend/internal/app/service"
	ws "github.com/carelink/carelink-backend/internal/websocket"
	"github.com/carelink/carelink-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// ReviewReminderScheduler periodically scans for evidence that has sat
// unreviewed too long and nudges connected reviewers
type ReviewReminderScheduler struct {
	reviewService service.ReviewService
	hub           *ws.Hub
	cfg           *config.VerificationConfig
	cron          *cron.Cron
}

func NewReviewReminderScheduler(reviewService service.ReviewService, hub *ws.Hub, cfg *config.VerificationConfig) *ReviewReminderScheduler {
	return &ReviewReminderScheduler{
		reviewService: reviewService,
		hub:           hub,
		cfg:           cfg,
		cron:          cron.New(),
	}
}

func (s *ReviewReminderScheduler) Start() error {
	_, err := s.cron.AddFunc(s.cfg.ReminderCron, s.scan)
	if err != nil {
		return err
	}
	s.cron.Start()
	logger.Info("Review reminder scheduler started", map[string]interface{}{
		"cron": s.cfg.ReminderCron,
		"age":  s.cfg.ReminderAge.String(),
	})
	return nil
}

func (s *ReviewReminderScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Review reminder scheduler stopped", nil)
}

func (s *ReviewReminderScheduler) scan() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stale, err := s.reviewService.PendingOlderThan(ctx, s.cfg.ReminderAge)
	if err != nil {
		logger.Error("Pending review scan failed", err, nil)
		return
	}
	if len(stale) == 0 {
		return
	}

	logger.Info("Pending reviews waiting", map[string]interface{}{
		"count": len(stale),
		"age":   s.cfg.ReminderAge.String(),
	})

	s.hub.Broadcast(ws.Message{
		Type: ws.MessageReviewNotice,
		Payload: map[string]interface{}{
			"reminder":      true,
			"pending_count": len(stale),
		},
	})
}
