package models

import "time"

// FieldConfig is a canvas layout owned by a user. Payload and EditorState
// hold arbitrary JSON produced by the editor; the server never interprets
// them beyond fingerprinting and stage counting. ContentHash is the public
// 8-digit share code, not a hash of the content.
//
// No soft delete: the unique share-code index and the draft-cleanup scans
// must not see tombstoned rows.
type FieldConfig struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	UploadID        string      `gorm:"uniqueIndex;size:64;not null" json:"uploadId"`
	UserID          uint        `gorm:"index;not null" json:"userId"`
	Payload         interface{} `gorm:"serializer:json;type:text" json:"payload"`
	EditorState     interface{} `gorm:"serializer:json;type:text" json:"editorState,omitempty"`
	BackgroundImage *string     `gorm:"size:2000" json:"backgroundImage"`
	ContentHash     string      `gorm:"uniqueIndex;size:16;not null" json:"contentHash"`
	IsDraft         bool        `gorm:"index;default:true" json:"isDraft"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `gorm:"index" json:"updatedAt"`
}

func (FieldConfig) TableName() string { return "field_configs" }

// ProjectStatus values for ProjectManagerEntry.Status.
const (
	ProjectStatusActive  = "active"
	ProjectStatusArchive = "archive"
	ProjectStatusTrash   = "trash"
)

// ProjectManagerEntry is the lifecycle/metadata overlay for a non-draft
// FieldConfig, one-to-one keyed by upload id. Rows are lazily backfilled for
// configs that predate the project manager.
type ProjectManagerEntry struct {
	UploadID  string    `gorm:"primaryKey;size:64" json:"uploadId"`
	UserID    uint      `gorm:"index:idx_entries_user_status,priority:1;not null" json:"userId"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Status    string    `gorm:"size:20;default:active;index:idx_entries_user_status,priority:2" json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `gorm:"index" json:"updatedAt"`
}

func (ProjectManagerEntry) TableName() string { return "project_manager_entries" }
