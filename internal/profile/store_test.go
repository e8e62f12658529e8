package profile

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func openTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	s, err := OpenWithClock(filepath.Join(t.TempDir(), "profile.json"), clock)
	if err != nil {
		t.Fatalf("OpenWithClock failed: %v", err)
	}
	return s, clock
}

func TestOpen_InitializesPlaceholder(t *testing.T) {
	s, _ := openTestStore(t)

	p, err := s.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if p.Metadata.Version != "1.0.0" {
		t.Errorf("version = %q, want %q", p.Metadata.Version, "1.0.0")
	}
	if p.Skills == nil || len(p.Skills) != 0 {
		t.Errorf("skills = %#v, want empty non-nil slice", p.Skills)
	}
	if p.Biography == nil || p.Biography.Name == "" {
		t.Error("placeholder biography missing")
	}
	if !p.Metadata.UpdatedAt.Equal(p.Metadata.CreatedAt) {
		t.Errorf("updatedAt %v != createdAt %v on init", p.Metadata.UpdatedAt, p.Metadata.CreatedAt)
	}
}

func TestOpen_ReloadsExistingDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.json")
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	s, err := OpenWithClock(path, clock)
	if err != nil {
		t.Fatalf("OpenWithClock failed: %v", err)
	}
	if _, err := s.Write(Profile{Skills: []Skill{{Name: "Go", Category: "programming", Proficiency: "expert"}}}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	reopened, err := OpenWithClock(path, clock)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	p, _ := reopened.Read()
	if len(p.Skills) != 1 || p.Skills[0].Name != "Go" {
		t.Errorf("reloaded skills = %#v, want the persisted Go skill", p.Skills)
	}
}

func TestWrite_AssignsStableIDs(t *testing.T) {
	s, _ := openTestStore(t)

	stored, err := s.Write(Profile{Skills: []Skill{{Name: "Go", Category: "programming", Proficiency: "expert"}}})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if len(stored.Skills) != 1 || stored.Skills[0].ID == "" {
		t.Fatalf("expected one skill with assigned id, got %#v", stored.Skills)
	}
	firstID := stored.Skills[0].ID

	// Re-save with the id carried forward: the id must not change.
	again, err := s.Write(Profile{Skills: stored.Skills})
	if err != nil {
		t.Fatalf("second Write failed: %v", err)
	}
	if again.Skills[0].ID != firstID {
		t.Errorf("id changed on re-save: %q -> %q", firstID, again.Skills[0].ID)
	}
}

func TestWrite_IdempotentResave(t *testing.T) {
	s, clock := openTestStore(t)

	if _, err := s.Write(Profile{
		Biography: &Biography{Name: "Ada", Title: "Engineer", Description: "builds things"},
		Skills:    []Skill{{Name: "Go", Category: "programming", Proficiency: "advanced"}},
	}); err != nil {
		t.Fatalf("seed Write failed: %v", err)
	}

	before, _ := s.Read()
	clock.Advance(time.Hour)

	after, err := s.Write(before)
	if err != nil {
		t.Fatalf("re-save failed: %v", err)
	}

	if !after.Metadata.UpdatedAt.After(before.Metadata.UpdatedAt) {
		t.Error("updatedAt not bumped on re-save")
	}
	if !after.Metadata.CreatedAt.Equal(before.Metadata.CreatedAt) {
		t.Error("createdAt changed on re-save")
	}

	// Everything except updatedAt must be byte-identical.
	after.Metadata.UpdatedAt = before.Metadata.UpdatedAt
	b1, _ := json.Marshal(before)
	b2, _ := json.Marshal(after)
	if string(b1) != string(b2) {
		t.Errorf("re-save changed the document:\nbefore: %s\nafter:  %s", b1, b2)
	}
}

func TestWrite_ValidationFailureWritesNothing(t *testing.T) {
	s, _ := openTestStore(t)

	before, _ := s.Read()

	_, err := s.Write(Profile{Skills: []Skill{{Name: "X", Category: "c", Proficiency: "bogus"}}})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "skills[0].proficiency" {
		t.Errorf("field = %q, want skills[0].proficiency", verr.Field)
	}

	after, _ := s.Read()
	if !after.Metadata.UpdatedAt.Equal(before.Metadata.UpdatedAt) {
		t.Error("document modified despite validation failure")
	}
	if len(after.Skills) != 0 {
		t.Errorf("skills written despite validation failure: %#v", after.Skills)
	}
}

func TestWrite_PartialDocumentPreservesOtherSections(t *testing.T) {
	s, _ := openTestStore(t)

	if _, err := s.Write(Profile{
		Biography: &Biography{Name: "Ada", Title: "Engineer", Description: "builds things"},
	}); err != nil {
		t.Fatalf("seed Write failed: %v", err)
	}

	stored, err := s.Write(Profile{
		Projects: []Project{{Name: "facet", Description: "profile assistant", Status: "in-progress"}},
	})
	if err != nil {
		t.Fatalf("partial Write failed: %v", err)
	}
	if stored.Biography == nil || stored.Biography.Name != "Ada" {
		t.Errorf("biography lost on partial write: %#v", stored.Biography)
	}
	if len(stored.Projects) != 1 {
		t.Errorf("projects = %#v, want one entry", stored.Projects)
	}
}

func TestWriteSection_ReplacesOnlyThatSection(t *testing.T) {
	s, _ := openTestStore(t)

	if _, err := s.Write(Profile{
		Skills: []Skill{{Name: "Go", Category: "programming", Proficiency: "expert"}},
	}); err != nil {
		t.Fatalf("seed Write failed: %v", err)
	}

	raw := json.RawMessage(`{"workStyle":"remote","interests":["distributed systems"]}`)
	v, err := s.WriteSection(SectionPreferences, raw)
	if err != nil {
		t.Fatalf("WriteSection failed: %v", err)
	}
	prefs, ok := v.(*Preferences)
	if !ok || prefs.WorkStyle != "remote" {
		t.Fatalf("WriteSection returned %#v", v)
	}

	p, _ := s.Read()
	if len(p.Skills) != 1 {
		t.Errorf("skills modified by preferences write: %#v", p.Skills)
	}
	if p.Preferences == nil || len(p.Preferences.Interests) != 1 {
		t.Errorf("preferences = %#v", p.Preferences)
	}
}

func TestWriteSection_ValidatesValue(t *testing.T) {
	s, _ := openTestStore(t)

	raw := json.RawMessage(`[{"name":"X","category":"c","proficiency":"wizard"}]`)
	_, err := s.WriteSection(SectionSkills, raw)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestWriteSection_UnknownName(t *testing.T) {
	s, _ := openTestStore(t)

	if _, err := s.WriteSection("hobbies", json.RawMessage(`[]`)); !errors.Is(err, ErrUnknownSection) {
		t.Errorf("expected ErrUnknownSection, got %v", err)
	}
}

func TestReadSection(t *testing.T) {
	s, _ := openTestStore(t)

	// preferences is absent on a fresh document.
	if _, err := s.ReadSection(SectionPreferences); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for absent preferences, got %v", err)
	}

	v, err := s.ReadSection(SectionBiography)
	if err != nil {
		t.Fatalf("ReadSection(biography) failed: %v", err)
	}
	if _, ok := v.(*Biography); !ok {
		t.Errorf("ReadSection returned %T, want *Biography", v)
	}

	if _, err := s.ReadSection("nope"); !errors.Is(err, ErrUnknownSection) {
		t.Errorf("expected ErrUnknownSection, got %v", err)
	}
}

func TestRead_ReturnsCopy(t *testing.T) {
	s, _ := openTestStore(t)

	if _, err := s.Write(Profile{Skills: []Skill{{Name: "Go", Category: "programming", Proficiency: "expert"}}}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	p1, _ := s.Read()
	p1.Skills[0].Name = "mutated"
	p1.Biography.Name = "mutated"

	p2, _ := s.Read()
	if p2.Skills[0].Name == "mutated" || p2.Biography.Name == "mutated" {
		t.Error("Read exposed shared state")
	}
}

func TestWriteSection_SocialLinkDefaultsIsPublic(t *testing.T) {
	s, _ := openTestStore(t)

	raw := json.RawMessage(`[
		{"platform":"github","url":"https://github.com/ada"},
		{"platform":"forum","url":"https://example.com/ada","isPublic":false}
	]`)
	v, err := s.WriteSection(SectionSocialLinks, raw)
	if err != nil {
		t.Fatalf("WriteSection failed: %v", err)
	}

	links, ok := v.([]SocialLink)
	if !ok {
		t.Fatalf("WriteSection returned %T, want []SocialLink", v)
	}
	if !links[0].IsPublic {
		t.Error("isPublic = false for a link written without the field, want default true")
	}
	if links[1].IsPublic {
		t.Error("explicit isPublic=false was not preserved")
	}
}

func TestWrite_SocialLinkDefaultsIsPublic(t *testing.T) {
	s, _ := openTestStore(t)

	var doc Profile
	body := `{"socialLinks":[{"platform":"github","url":"https://github.com/ada"}]}`
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	stored, err := s.Write(doc)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !stored.SocialLinks[0].IsPublic {
		t.Error("isPublic = false after full-document write, want default true")
	}
}

func TestReadSection_Metadata(t *testing.T) {
	s, _ := openTestStore(t)

	v, err := s.ReadSection(SectionMetadata)
	if err != nil {
		t.Fatalf("ReadSection(metadata) failed: %v", err)
	}
	md, ok := v.(Metadata)
	if !ok {
		t.Fatalf("ReadSection returned %T, want Metadata", v)
	}
	if md.Version != "1.0.0" {
		t.Errorf("version = %q, want 1.0.0", md.Version)
	}
}

func TestWriteSection_MetadataIsReadOnly(t *testing.T) {
	s, _ := openTestStore(t)

	_, err := s.WriteSection(SectionMetadata, json.RawMessage(`{"version":"9.9.9"}`))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != SectionMetadata {
		t.Errorf("field = %q, want %q", verr.Field, SectionMetadata)
	}

	p, _ := s.Read()
	if p.Metadata.Version != "1.0.0" {
		t.Errorf("version = %q after rejected write, want 1.0.0", p.Metadata.Version)
	}
}
