package services

import (
	"testing"
	"time"

	"github.com/fieldboard/backend/internal/models"
)

func seedProject(t *testing.T, fcs *FieldConfigService, userID uint, status string, age time.Duration) string {
	t.Helper()

	final, err := fcs.Save(userID, &SaveFieldConfigRequest{Payload: samplePayload("x"), IsDraft: boolPtr(false)})
	if err != nil {
		t.Fatalf("seed save error: %v", err)
	}

	updates := map[string]interface{}{"status": status}
	if age > 0 {
		updates["updated_at"] = time.Now().Add(-age)
	}
	err = fcs.db.Model(&models.ProjectManagerEntry{}).
		Where("upload_id = ?", final.UploadID).
		Updates(updates).Error
	if err != nil {
		t.Fatalf("seed update error: %v", err)
	}
	return final.UploadID
}

func TestPurgeExpired(t *testing.T) {
	db := testDB(t)
	fcs := NewFieldConfigService(db)
	svc := NewPurgeService(db, 30)

	expired := seedProject(t, fcs, 1, models.ProjectStatusTrash, 31*24*time.Hour)
	recentTrash := seedProject(t, fcs, 1, models.ProjectStatusTrash, 24*time.Hour)
	oldActive := seedProject(t, fcs, 1, models.ProjectStatusActive, 90*24*time.Hour)

	purged, err := svc.PurgeExpired()
	if err != nil {
		t.Fatalf("PurgeExpired error: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}

	var count int64
	db.Model(&models.ProjectManagerEntry{}).Where("upload_id = ?", expired).Count(&count)
	if count != 0 {
		t.Error("expired trash entry should be gone")
	}
	db.Model(&models.FieldConfig{}).Where("upload_id = ?", expired).Count(&count)
	if count != 0 {
		t.Error("expired trash config should be gone")
	}

	db.Model(&models.ProjectManagerEntry{}).Where("upload_id = ?", recentTrash).Count(&count)
	if count != 1 {
		t.Error("recent trash should survive the purge")
	}
	db.Model(&models.ProjectManagerEntry{}).Where("upload_id = ?", oldActive).Count(&count)
	if count != 1 {
		t.Error("active projects should never be purged, regardless of age")
	}
}

func TestPurgeExpired_DisabledRetention(t *testing.T) {
	db := testDB(t)
	fcs := NewFieldConfigService(db)
	svc := NewPurgeService(db, 0)

	seedProject(t, fcs, 1, models.ProjectStatusTrash, 365*24*time.Hour)

	purged, err := svc.PurgeExpired()
	if err != nil {
		t.Fatalf("PurgeExpired error: %v", err)
	}
	if purged != 0 {
		t.Errorf("retention <= 0 should disable purging, purged %d", purged)
	}
}
