package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopvn/shopvn-backend/internal/app/repository"
	"github.com/shopvn/shopvn-backend/pkg/logger"
)

// CartEvictionScheduler periodically removes in-cart purchase lines whose
// retention window has passed.
type CartEvictionScheduler struct {
	cron         *cron.Cron
	purchaseRepo repository.PurchaseRepository
}

func NewCartEvictionScheduler(purchaseRepo repository.PurchaseRepository) *CartEvictionScheduler {
	return &CartEvictionScheduler{
		cron:         cron.New(),
		purchaseRepo: purchaseRepo,
	}
}

func (s *CartEvictionScheduler) Start() error {
	// Hourly sweep; expiry granularity is days so this is plenty
	_, err := s.cron.AddFunc("0 * * * *", s.runOnce)
	if err != nil {
		logger.Error("Failed to add cron job for cart eviction", err)
		return err
	}

	s.cron.Start()
	logger.Info("Cart eviction scheduler started (hourly)")

	// Catch up on anything that expired while the server was down
	go s.runOnce()
	return nil
}

func (s *CartEvictionScheduler) runOnce() {
	count, err := s.purchaseRepo.DeleteExpiredCartLines(time.Now())
	if err != nil {
		logger.Error("Cart eviction sweep failed", err)
		return
	}
	logger.Debug("Cart eviction sweep completed", map[string]interface{}{
		"deleted_count": count,
	})
}

func (s *CartEvictionScheduler) Stop() {
	logger.Info("Stopping cart eviction scheduler...")
	s.cron.Stop()
	logger.Info("Cart eviction scheduler stopped")
}
