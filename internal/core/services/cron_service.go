package services

import (
	"context"
	"log"
	"time"

	"insurehub/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// PurgeSchedule runs the expired token purge daily at 03:00
const PurgeSchedule = "0 3 * * *"

// purgeTimeout bounds one purge run
const purgeTimeout = time.Minute

// CronService runs scheduled housekeeping jobs
type CronService struct {
	cron   *cron.Cron
	tokens repositories.RefreshTokenRepository
}

// NewCronService creates a new cron service
func NewCronService(tokens repositories.RefreshTokenRepository) *CronService {
	return &CronService{
		cron:   cron.New(),
		tokens: tokens,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(PurgeSchedule, s.runPurge); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("⏰ Cron service started [purge expired tokens: %s]", PurgeSchedule)
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("⏰ Cron service stopped")
}

// PurgeExpiredTokens deletes refresh tokens past their expiry
func (s *CronService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx)
}

func (s *CronService) runPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	n, err := s.PurgeExpiredTokens(ctx)
	if err != nil {
		log.Printf("❌ Token purge failed: %v", err)
		return
	}
	log.Printf("🧹 Purged %d expired refresh tokens", n)
}
