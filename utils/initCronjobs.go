package utils

import (
	"time"

	"impostord/game"
	"impostord/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const roomIdleTimeout = 24 * time.Hour
const matchRetention = 30 * 24 * time.Hour

// CronCleaner schedules the periodic housekeeping: rooms whose players are
// all gone get torn down, and old match records are pruned from the archive.
func CronCleaner(db *gorm.DB, registry *game.Registry, logger *zap.Logger) {
	c := cron.New()

	// Hourly sweep of rooms with no connected players left.
	c.AddFunc("@hourly", func() {
		if removed := registry.SweepIdle(roomIdleTimeout); removed > 0 {
			logger.Info("idle rooms removed", zap.Int("count", removed))
		}
	})

	// Daily pruning of the match archive.
	c.AddFunc("0 3 * * *", func() {
		if db == nil {
			return
		}
		cutoff := time.Now().Add(-matchRetention)
		result := db.Where("created_at <= ?", cutoff).Delete(&models.MatchRecord{})
		if result.Error != nil {
			logger.Error("failed to prune match archive", zap.Error(result.Error))
		} else if result.RowsAffected > 0 {
			logger.Info("match archive pruned", zap.Int64("records", result.RowsAffected))
		}
	})

	c.Start()
}
