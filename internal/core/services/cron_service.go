package services

import (
	"context"
	"time"

	"campus-cardhub/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// CronService runs scheduled maintenance jobs
type CronService struct {
	refreshTokens repositories.RefreshTokenRepository
	scheduler     *cron.Cron
	log           zerolog.Logger
}

// NewCronService creates a new cron service
func NewCronService(refreshTokens repositories.RefreshTokenRepository, log zerolog.Logger) *CronService {
	return &CronService{
		refreshTokens: refreshTokens,
		scheduler:     cron.New(),
		log:           log.With().Str("service", "cron").Logger(),
	}
}

// Start registers and launches the scheduled jobs
func (s *CronService) Start() {
	// Expired refresh tokens pile up from rotation; purge them nightly
	_, err := s.scheduler.AddFunc("@daily", s.cleanupExpiredSessions)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to schedule session cleanup")
		return
	}
	s.scheduler.Start()
	s.log.Info().Msg("cron service started")
}

// Stop halts the scheduler, waiting for a running job to finish
func (s *CronService) Stop() {
	ctx := s.scheduler.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Second):
		s.log.Warn().Msg("cron stop timed out")
	}
	s.log.Info().Msg("cron service stopped")
}

func (s *CronService) cleanupExpiredSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.refreshTokens.DeleteExpired(ctx); err != nil {
		s.log.Error().Err(err).Msg("expired session cleanup failed")
		return
	}
	s.log.Info().Msg("expired sessions cleaned up")
}
