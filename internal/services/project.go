package services

import (
	"errors"
	"time"

	"github.com/fieldboard/backend/internal/models"
	"github.com/fieldboard/backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrProjectNotFound = errors.New("project not found")

// stageElementKeys are the canvas element kinds that can carry a stage tag.
var stageElementKeys = []string{"button", "icon-button", "text-input", "toggle-switch"}

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

// Project is the lifecycle view of a saved field config.
type Project struct {
	UploadID    string    `json:"uploadId"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	ContentHash string    `json:"contentHash"`
	IsDraft     bool      `json:"isDraft"`
	StageCount  int       `json:"stageCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type UpdateProjectRequest struct {
	Name   *string `json:"name"`
	Status *string `json:"status"`
}

// List returns the user's projects in the given status, newest first.
// Finalized configs that predate the lifecycle table get an entry backfilled
// on the fly, so older accounts see their projects without a migration.
func (s *ProjectService) List(userID uint, status string) ([]Project, error) {
	if err := s.backfillEntries(userID); err != nil {
		return nil, err
	}

	var entries []models.ProjectManagerEntry
	err := s.db.Where("user_id = ? AND status = ?", userID, status).
		Order("updated_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	projects := make([]Project, 0, len(entries))
	for i := range entries {
		p, err := s.buildProject(&entries[i])
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Orphaned entry, config already gone. Skip it.
				logger.Warn().Str("upload_id", entries[i].UploadID).Msg("project entry without field config")
				continue
			}
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, nil
}

// Get returns a single project owned by the user.
func (s *ProjectService) Get(userID uint, uploadID string) (*Project, error) {
	entry, err := s.findEntry(userID, uploadID)
	if err != nil {
		return nil, err
	}
	p, err := s.buildProject(entry)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return p, nil
}

// Update renames a project and/or moves it between lifecycle states.
// Absent fields keep their current value.
func (s *ProjectService) Update(userID uint, uploadID string, req *UpdateProjectRequest) (*Project, error) {
	entry, err := s.findEntry(userID, uploadID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if len(updates) > 0 {
		if err := s.db.Model(entry).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	p, err := s.buildProject(entry)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return p, nil
}

// Delete permanently removes a project: its lifecycle entry first, then the
// underlying config. Usable from any status, not just trash.
func (s *ProjectService) Delete(userID uint, uploadID string) error {
	entry, err := s.findEntry(userID, uploadID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(entry).Error; err != nil {
		return err
	}
	return s.db.Where("upload_id = ? AND user_id = ?", uploadID, userID).
		Delete(&models.FieldConfig{}).Error
}

// Create makes a fresh empty project: a finalized config with an empty
// canvas plus its lifecycle entry.
func (s *ProjectService) Create(userID uint, name string) (*Project, error) {
	if name == "" {
		name = "Untitled Project"
	}

	fc := models.FieldConfig{
		UploadID: newUploadID(),
		UserID:   userID,
		Payload:  []interface{}{},
		IsDraft:  false,
	}
	fcs := &FieldConfigService{db: s.db}
	if err := fcs.createWithShareCode(&fc); err != nil {
		return nil, err
	}

	entry := models.ProjectManagerEntry{
		UploadID: fc.UploadID,
		UserID:   userID,
		Name:     name,
		Status:   models.ProjectStatusActive,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return nil, err
	}

	return s.buildProject(&entry)
}

func (s *ProjectService) findEntry(userID uint, uploadID string) (*models.ProjectManagerEntry, error) {
	var entry models.ProjectManagerEntry
	err := s.db.Where("upload_id = ? AND user_id = ?", uploadID, userID).First(&entry).Error
	if err == nil {
		return &entry, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// The config may exist without an entry yet; backfill a single one.
	var fc models.FieldConfig
	err = s.db.Where("upload_id = ? AND user_id = ? AND is_draft = ?", uploadID, userID, false).
		First(&fc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	entry = models.ProjectManagerEntry{
		UploadID: fc.UploadID,
		UserID:   userID,
		Name:     defaultProjectName(fc.ContentHash),
		Status:   models.ProjectStatusActive,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// backfillEntries creates lifecycle entries for any finalized configs the
// user saved before the lifecycle table existed.
func (s *ProjectService) backfillEntries(userID uint) error {
	var configs []models.FieldConfig
	err := s.db.Where("user_id = ? AND is_draft = ? AND upload_id NOT IN (?)",
		userID, false,
		s.db.Model(&models.ProjectManagerEntry{}).Select("upload_id").Where("user_id = ?", userID),
	).Find(&configs).Error
	if err != nil {
		return err
	}

	for i := range configs {
		entry := models.ProjectManagerEntry{
			UploadID: configs[i].UploadID,
			UserID:   userID,
			Name:     defaultProjectName(configs[i].ContentHash),
			Status:   models.ProjectStatusActive,
		}
		if err := s.db.Create(&entry).Error; err != nil {
			return err
		}
		logger.Info().Str("upload_id", entry.UploadID).Uint("user_id", userID).Msg("backfilled project entry")
	}
	return nil
}

func (s *ProjectService) buildProject(entry *models.ProjectManagerEntry) (*Project, error) {
	var fc models.FieldConfig
	err := s.db.Where("upload_id = ?", entry.UploadID).First(&fc).Error
	if err != nil {
		return nil, err
	}

	return &Project{
		UploadID:    entry.UploadID,
		Name:        entry.Name,
		Status:      entry.Status,
		ContentHash: fc.ContentHash,
		IsDraft:     fc.IsDraft,
		StageCount:  countStages(fc.Payload),
		CreatedAt:   entry.CreatedAt,
		UpdatedAt:   entry.UpdatedAt,
	}, nil
}

// countStages derives how many stages a canvas spans: the base stage plus
// one per distinct non-empty stageParentTag found on stage-capable elements.
func countStages(payload interface{}) int {
	items, ok := payload.([]interface{})
	if !ok {
		return 1
	}

	tags := map[string]struct{}{}
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		for _, key := range stageElementKeys {
			element, ok := obj[key].(map[string]interface{})
			if !ok {
				continue
			}
			if tag, ok := element["stageParentTag"].(string); ok && tag != "" {
				tags[tag] = struct{}{}
			}
		}
	}
	return 1 + len(tags)
}
