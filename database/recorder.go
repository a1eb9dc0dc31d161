package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"impostord/models"
)

// Recorder archives finished matches to Postgres. Best effort: a failed
// insert is logged and the game moves on.
type Recorder struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewRecorder(db *gorm.DB, logger *zap.Logger) *Recorder {
	return &Recorder{db: db, logger: logger}
}

func (r *Recorder) RecordMatch(rec models.MatchRecord) {
	if r.db == nil {
		return
	}
	if err := r.db.Create(&rec).Error; err != nil {
		r.logger.Error("failed to archive match",
			zap.String("roomID", rec.RoomID), zap.Error(err))
		return
	}
	r.logger.Info("match archived",
		zap.String("roomID", rec.RoomID),
		zap.String("winner", rec.Winner),
		zap.String("reason", rec.Reason))
}
