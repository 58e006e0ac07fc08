package services

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"time"

	"github.com/fieldboard/backend/internal/models"
	"github.com/fieldboard/backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrFieldConfigNotFound = errors.New("field config not found")
	ErrShareCodeExhausted  = errors.New("failed to allocate a unique share code")
)

const (
	shareCodeMin         = 10_000_000
	shareCodeMax         = 99_999_999
	shareCodeMaxAttempts = 5
)

type FieldConfigService struct {
	db *gorm.DB
}

func NewFieldConfigService(db *gorm.DB) *FieldConfigService {
	return &FieldConfigService{db: db}
}

type SaveFieldConfigRequest struct {
	Payload         interface{} `json:"payload" binding:"required"`
	EditorState     interface{} `json:"editorState"`
	BackgroundImage *string     `json:"backgroundImage"`
	UploadID        string      `json:"uploadId"`
	IsDraft         *bool       `json:"isDraft"`
}

// Draft reports the effective draft flag; an absent isDraft means true.
func (r *SaveFieldConfigRequest) Draft() bool {
	return r.IsDraft == nil || *r.IsDraft
}

type SaveFieldConfigResult struct {
	ID          uint      `json:"id"`
	UploadID    string    `json:"uploadId"`
	ContentHash string    `json:"contentHash"`
	IsDraft     bool      `json:"isDraft"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Deduped     bool      `json:"deduped"`
	Created     bool      `json:"-"`
}

func saveResult(fc *models.FieldConfig, deduped, created bool) *SaveFieldConfigResult {
	return &SaveFieldConfigResult{
		ID:          fc.ID,
		UploadID:    fc.UploadID,
		ContentHash: fc.ContentHash,
		IsDraft:     fc.IsDraft,
		CreatedAt:   fc.CreatedAt,
		UpdatedAt:   fc.UpdatedAt,
		Deduped:     deduped,
		Created:     created,
	}
}

// Save decides the minimal persistence action for an incoming save:
//   - uploadId present: update that exact row (owner-scoped), no dedup;
//   - draft without uploadId: reconcile against the user's latest draft
//     (no-op when fingerprints match, in-place update otherwise);
//   - final without uploadId: always create a new row.
//
// Both draft branches prune any other draft rows of the user afterwards, so
// at most one implicit draft survives a save.
func (s *FieldConfigService) Save(userID uint, req *SaveFieldConfigRequest) (*SaveFieldConfigResult, error) {
	if req.UploadID != "" {
		return s.updateByUploadID(userID, req)
	}
	if req.Draft() {
		return s.reconcileDraft(userID, req)
	}
	return s.createFinal(userID, req)
}

func (s *FieldConfigService) updateByUploadID(userID uint, req *SaveFieldConfigRequest) (*SaveFieldConfigResult, error) {
	var fc models.FieldConfig
	err := s.db.Where("upload_id = ? AND user_id = ?", req.UploadID, userID).First(&fc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFieldConfigNotFound
		}
		return nil, err
	}

	fc.Payload = req.Payload
	fc.EditorState = req.EditorState
	fc.BackgroundImage = req.BackgroundImage
	fc.IsDraft = req.Draft()

	if err := s.db.Save(&fc).Error; err != nil {
		return nil, err
	}

	if !fc.IsDraft {
		if err := s.ensureProjectEntry(&fc); err != nil {
			return nil, err
		}
	}

	return saveResult(&fc, false, false), nil
}

func (s *FieldConfigService) reconcileDraft(userID uint, req *SaveFieldConfigRequest) (*SaveFieldConfigResult, error) {
	incoming, err := Fingerprint(req.Payload, req.EditorState, req.BackgroundImage, true)
	if err != nil {
		return nil, err
	}

	var draft models.FieldConfig
	err = s.db.Where("user_id = ? AND is_draft = ?", userID, true).
		Order("updated_at DESC").
		First(&draft).Error

	switch {
	case err == nil:
		stored, ferr := Fingerprint(draft.Payload, draft.EditorState, draft.BackgroundImage, true)
		if ferr != nil {
			return nil, ferr
		}

		if stored == incoming {
			// Unchanged autosave: leave the row untouched, just converge on
			// a single surviving draft.
			s.pruneOtherDrafts(userID, draft.ID)
			return saveResult(&draft, true, false), nil
		}

		draft.Payload = req.Payload
		draft.EditorState = req.EditorState
		draft.BackgroundImage = req.BackgroundImage
		if err := s.db.Save(&draft).Error; err != nil {
			return nil, err
		}
		s.pruneOtherDrafts(userID, draft.ID)
		return saveResult(&draft, false, false), nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		fc := models.FieldConfig{
			UploadID:        newUploadID(),
			UserID:          userID,
			Payload:         req.Payload,
			EditorState:     req.EditorState,
			BackgroundImage: req.BackgroundImage,
			IsDraft:         true,
		}
		if err := s.createWithShareCode(&fc); err != nil {
			return nil, err
		}
		s.pruneOtherDrafts(userID, fc.ID)
		return saveResult(&fc, false, true), nil

	default:
		return nil, err
	}
}

func (s *FieldConfigService) createFinal(userID uint, req *SaveFieldConfigRequest) (*SaveFieldConfigResult, error) {
	fc := models.FieldConfig{
		UploadID:        newUploadID(),
		UserID:          userID,
		Payload:         req.Payload,
		EditorState:     req.EditorState,
		BackgroundImage: req.BackgroundImage,
		IsDraft:         false,
	}
	if err := s.createWithShareCode(&fc); err != nil {
		return nil, err
	}

	if err := s.ensureProjectEntry(&fc); err != nil {
		return nil, err
	}

	return saveResult(&fc, false, true), nil
}

// pruneOtherDrafts removes every draft row of the user except keepID.
// Best effort: a failure here never fails the save that triggered it.
func (s *FieldConfigService) pruneOtherDrafts(userID, keepID uint) {
	result := s.db.Where("user_id = ? AND is_draft = ? AND id <> ?", userID, true, keepID).
		Delete(&models.FieldConfig{})
	if result.Error != nil {
		logger.Warn().Err(result.Error).Uint("user_id", userID).Msg("draft cleanup failed")
		return
	}
	if result.RowsAffected > 0 {
		logger.Debug().Int64("removed", result.RowsAffected).Uint("user_id", userID).Msg("pruned stale drafts")
	}
}

// ensureProjectEntry upserts the lifecycle entry for a non-draft config.
// Existing entries are left as-is so a re-finalize never resets name/status.
func (s *FieldConfigService) ensureProjectEntry(fc *models.FieldConfig) error {
	var entry models.ProjectManagerEntry
	err := s.db.Where("upload_id = ?", fc.UploadID).First(&entry).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	entry = models.ProjectManagerEntry{
		UploadID: fc.UploadID,
		UserID:   fc.UserID,
		Name:     defaultProjectName(fc.ContentHash),
		Status:   models.ProjectStatusActive,
	}
	return s.db.Create(&entry).Error
}

// defaultProjectName derives a backfill name from the share code tail.
func defaultProjectName(contentHash string) string {
	tail := contentHash
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	return "Project " + tail
}

// createWithShareCode inserts fc with a freshly drawn 8-digit share code,
// retrying on a uniqueness collision up to shareCodeMaxAttempts times. Any
// other insert error aborts immediately.
func (s *FieldConfigService) createWithShareCode(fc *models.FieldConfig) error {
	for attempt := 0; attempt < shareCodeMaxAttempts; attempt++ {
		code, err := randomShareCode()
		if err != nil {
			return err
		}
		fc.ContentHash = code

		err = s.db.Create(fc).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		logger.Debug().Str("share_code", code).Int("attempt", attempt+1).Msg("share code collision, retrying")
	}
	return ErrShareCodeExhausted
}

func newUploadID() string {
	return uuid.NewString()
}

// randomShareCode draws a uniform integer in [10000000, 99999999], so the
// code is always exactly 8 digits.
func randomShareCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(shareCodeMax-shareCodeMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(shareCodeMin+n.Int64(), 10), nil
}

// GetLatest returns the caller's most recently touched config, draft or final.
func (s *FieldConfigService) GetLatest(userID uint) (*models.FieldConfig, error) {
	var fc models.FieldConfig
	err := s.db.Where("user_id = ?", userID).Order("updated_at DESC").First(&fc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFieldConfigNotFound
		}
		return nil, err
	}
	return &fc, nil
}

// PublicFieldConfig is the unauthenticated projection of a shared config.
type PublicFieldConfig struct {
	UploadID        string      `json:"uploadId"`
	Payload         interface{} `json:"payload"`
	BackgroundImage *string     `json:"backgroundImage"`
	ContentHash     string      `json:"contentHash"`
	IsDraft         bool        `json:"isDraft"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// GetPublic looks up a config by its public upload id, without any
// ownership check.
func (s *FieldConfigService) GetPublic(uploadID string) (*PublicFieldConfig, error) {
	var fc models.FieldConfig
	err := s.db.Where("upload_id = ?", uploadID).First(&fc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFieldConfigNotFound
		}
		return nil, err
	}

	return &PublicFieldConfig{
		UploadID:        fc.UploadID,
		Payload:         fc.Payload,
		BackgroundImage: fc.BackgroundImage,
		ContentHash:     fc.ContentHash,
		IsDraft:         fc.IsDraft,
		UpdatedAt:       fc.UpdatedAt,
	}, nil
}
