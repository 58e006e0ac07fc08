package services

import (
	"time"

	"github.com/fieldboard/backend/internal/models"
	"github.com/fieldboard/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// PurgeService permanently removes projects that have sat in the trash
// longer than the configured retention window.
type PurgeService struct {
	db            *gorm.DB
	retentionDays int
	cronScheduler *cron.Cron
}

func NewPurgeService(db *gorm.DB, retentionDays int) *PurgeService {
	return &PurgeService{
		db:            db,
		retentionDays: retentionDays,
	}
}

// StartScheduler runs the purge every night at 03:30.
func (s *PurgeService) StartScheduler() {
	s.cronScheduler = cron.New()

	_, err := s.cronScheduler.AddFunc("30 3 * * *", func() {
		if _, err := s.PurgeExpired(); err != nil {
			logger.Error().Err(err).Msg("trash purge failed")
		}
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to schedule trash purge")
		return
	}

	s.cronScheduler.Start()
	logger.Info().Int("retention_days", s.retentionDays).Msg("trash purge scheduler started")
}

func (s *PurgeService) StopScheduler() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
	}
}

// PurgeExpired deletes every trashed project whose entry has not been
// touched since the retention cutoff, along with its field config. Returns
// how many projects were removed.
func (s *PurgeService) PurgeExpired() (int, error) {
	if s.retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)

	var entries []models.ProjectManagerEntry
	err := s.db.Where("status = ? AND updated_at < ?", models.ProjectStatusTrash, cutoff).
		Find(&entries).Error
	if err != nil {
		return 0, err
	}

	purged := 0
	for i := range entries {
		entry := &entries[i]
		if err := s.db.Delete(entry).Error; err != nil {
			logger.Warn().Err(err).Str("upload_id", entry.UploadID).Msg("failed to purge project entry")
			continue
		}
		if err := s.db.Where("upload_id = ?", entry.UploadID).Delete(&models.FieldConfig{}).Error; err != nil {
			logger.Warn().Err(err).Str("upload_id", entry.UploadID).Msg("failed to purge field config")
			continue
		}
		purged++
	}

	if purged > 0 {
		logger.Info().Int("purged", purged).Msg("purged expired trash projects")
	}
	return purged, nil
}
