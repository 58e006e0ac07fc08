package services

import (
	"errors"
	"testing"
	"time"

	"github.com/fieldboard/backend/internal/models"
)

func stageElement(kind, tag string) map[string]interface{} {
	el := map[string]interface{}{"label": "x"}
	if tag != "" {
		el["stageParentTag"] = tag
	}
	return map[string]interface{}{kind: el}
}

func TestCountStages(t *testing.T) {
	tests := []struct {
		name    string
		payload interface{}
		want    int
	}{
		{"empty canvas", []interface{}{}, 1},
		{"non-array payload", map[string]interface{}{"legacy": true}, 1},
		{"nil payload", nil, 1},
		{
			"untagged elements",
			[]interface{}{stageElement("button", ""), stageElement("text-input", "")},
			1,
		},
		{
			"two distinct tags",
			[]interface{}{
				stageElement("button", "stage-a"),
				stageElement("icon-button", "stage-b"),
			},
			3,
		},
		{
			"duplicate tags count once",
			[]interface{}{
				stageElement("button", "stage-a"),
				stageElement("toggle-switch", "stage-a"),
			},
			2,
		},
		{
			"tags on non-stage elements ignored",
			[]interface{}{
				map[string]interface{}{"image": map[string]interface{}{"stageParentTag": "stage-a"}},
			},
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countStages(tt.payload); got != tt.want {
				t.Errorf("countStages() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProjectList_BackfillsLegacyConfigs(t *testing.T) {
	db := testDB(t)
	fcs := NewFieldConfigService(db)
	svc := NewProjectService(db)

	// A finalized config with no lifecycle entry, as saved before the
	// project manager existed.
	fc := models.FieldConfig{UploadID: newUploadID(), UserID: 1, Payload: samplePayload("legacy"), IsDraft: false}
	if err := fcs.createWithShareCode(&fc); err != nil {
		t.Fatalf("seed error: %v", err)
	}

	projects, err := svc.List(1, models.ProjectStatusActive)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}

	if len(projects) != 1 {
		t.Fatalf("expected 1 backfilled project, got %d", len(projects))
	}
	want := "Project " + fc.ContentHash[len(fc.ContentHash)-4:]
	if projects[0].Name != want {
		t.Errorf("backfilled name = %q, want %q", projects[0].Name, want)
	}
	if projects[0].Status != models.ProjectStatusActive {
		t.Errorf("backfilled status = %q, want active", projects[0].Status)
	}
}

func TestProjectList_ExcludesDraftsAndOtherStatuses(t *testing.T) {
	db := testDB(t)
	fcs := NewFieldConfigService(db)
	svc := NewProjectService(db)

	if _, err := fcs.Save(1, &SaveFieldConfigRequest{Payload: samplePayload("draft")}); err != nil {
		t.Fatalf("draft save error: %v", err)
	}
	final, err := fcs.Save(1, &SaveFieldConfigRequest{Payload: samplePayload("final"), IsDraft: boolPtr(false)})
	if err != nil {
		t.Fatalf("final save error: %v", err)
	}

	if _, err := svc.Update(1, final.UploadID, &UpdateProjectRequest{Status: strPtr(models.ProjectStatusArchive)}); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	active, err := svc.List(1, models.ProjectStatusActive)
	if err != nil {
		t.Fatalf("List active error: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active list should be empty, got %d entries", len(active))
	}

	archived, err := svc.List(1, models.ProjectStatusArchive)
	if err != nil {
		t.Fatalf("List archive error: %v", err)
	}
	if len(archived) != 1 {
		t.Fatalf("archive list should have 1 entry, got %d", len(archived))
	}
	if archived[0].UploadID != final.UploadID {
		t.Errorf("archived uploadId = %q, want %q", archived[0].UploadID, final.UploadID)
	}
}

func TestProjectUpdate_CoalescesFields(t *testing.T) {
	db := testDB(t)
	fcs := NewFieldConfigService(db)
	svc := NewProjectService(db)

	final, err := fcs.Save(1, &SaveFieldConfigRequest{Payload: samplePayload("x"), IsDraft: boolPtr(false)})
	if err != nil {
		t.Fatalf("seed error: %v", err)
	}

	renamed, err := svc.Update(1, final.UploadID, &UpdateProjectRequest{Name: strPtr("Greenhouse")})
	if err != nil {
		t.Fatalf("rename error: %v", err)
	}
	if renamed.Name != "Greenhouse" {
		t.Errorf("name = %q, want Greenhouse", renamed.Name)
	}
	if renamed.Status != models.ProjectStatusActive {
		t.Error("rename alone should not change status")
	}

	trashed, err := svc.Update(1, final.UploadID, &UpdateProjectRequest{Status: strPtr(models.ProjectStatusTrash)})
	if err != nil {
		t.Fatalf("trash error: %v", err)
	}
	if trashed.Name != "Greenhouse" {
		t.Error("status change alone should not reset name")
	}
	if trashed.Status != models.ProjectStatusTrash {
		t.Errorf("status = %q, want trash", trashed.Status)
	}
}

func TestProjectUpdate_WrongOwner(t *testing.T) {
	db := testDB(t)
	fcs := NewFieldConfigService(db)
	svc := NewProjectService(db)

	final, err := fcs.Save(1, &SaveFieldConfigRequest{Payload: samplePayload("x"), IsDraft: boolPtr(false)})
	if err != nil {
		t.Fatalf("seed error: %v", err)
	}

	_, err = svc.Update(2, final.UploadID, &UpdateProjectRequest{Name: strPtr("stolen")})
	if !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound for another user's project, got %v", err)
	}
}

func TestProjectDelete_RemovesEntryAndConfig(t *testing.T) {
	db := testDB(t)
	fcs := NewFieldConfigService(db)
	svc := NewProjectService(db)

	final, err := fcs.Save(1, &SaveFieldConfigRequest{Payload: samplePayload("x"), IsDraft: boolPtr(false)})
	if err != nil {
		t.Fatalf("seed error: %v", err)
	}

	if err := svc.Delete(1, final.UploadID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}

	var entries, configs int64
	db.Model(&models.ProjectManagerEntry{}).Where("upload_id = ?", final.UploadID).Count(&entries)
	db.Model(&models.FieldConfig{}).Where("upload_id = ?", final.UploadID).Count(&configs)
	if entries != 0 || configs != 0 {
		t.Errorf("delete left entries=%d configs=%d, want 0/0", entries, configs)
	}

	if err := svc.Delete(1, final.UploadID); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("second delete should report not found, got %v", err)
	}
}

func TestProjectCreate_EmptyCanvas(t *testing.T) {
	db := testDB(t)
	svc := NewProjectService(db)

	p, err := svc.Create(1, "")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if p.Name != "Untitled Project" {
		t.Errorf("default name = %q, want Untitled Project", p.Name)
	}
	if p.IsDraft {
		t.Error("created project should be finalized")
	}
	if p.StageCount != 1 {
		t.Errorf("empty canvas stage count = %d, want 1", p.StageCount)
	}
	if p.Status != models.ProjectStatusActive {
		t.Errorf("status = %q, want active", p.Status)
	}

	named, err := svc.Create(1, "Irrigation Demo")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if named.Name != "Irrigation Demo" {
		t.Errorf("name = %q, want Irrigation Demo", named.Name)
	}
}

func TestProjectGet_BackfillsSingleEntry(t *testing.T) {
	db := testDB(t)
	fcs := NewFieldConfigService(db)
	svc := NewProjectService(db)

	fc := models.FieldConfig{UploadID: newUploadID(), UserID: 1, Payload: samplePayload("legacy"), IsDraft: false}
	if err := fcs.createWithShareCode(&fc); err != nil {
		t.Fatalf("seed error: %v", err)
	}

	p, err := svc.Get(1, fc.UploadID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if p.UploadID != fc.UploadID {
		t.Errorf("uploadId = %q, want %q", p.UploadID, fc.UploadID)
	}

	// Drafts never surface as projects.
	draft, err := fcs.Save(1, &SaveFieldConfigRequest{Payload: samplePayload("draft")})
	if err != nil {
		t.Fatalf("draft save error: %v", err)
	}
	if _, err := svc.Get(1, draft.UploadID); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("draft lookup should report not found, got %v", err)
	}
}

func TestProjectList_NewestFirst(t *testing.T) {
	db := testDB(t)
	fcs := NewFieldConfigService(db)
	svc := NewProjectService(db)

	first, err := fcs.Save(1, &SaveFieldConfigRequest{Payload: samplePayload("a"), IsDraft: boolPtr(false)})
	if err != nil {
		t.Fatalf("seed error: %v", err)
	}
	db.Model(&models.ProjectManagerEntry{}).Where("upload_id = ?", first.UploadID).
		Update("updated_at", time.Now().Add(-time.Hour))

	second, err := fcs.Save(1, &SaveFieldConfigRequest{Payload: samplePayload("b"), IsDraft: boolPtr(false)})
	if err != nil {
		t.Fatalf("seed error: %v", err)
	}

	projects, err := svc.List(1, models.ProjectStatusActive)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(projects))
	}
	if projects[0].UploadID != second.UploadID {
		t.Errorf("list should be newest first, got %q first", projects[0].UploadID)
	}
}
