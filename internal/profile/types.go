package profile

import (
	"encoding/json"
	"time"
)

// Profile is the single persisted personal-data document. Every top-level
// section is optional; a nil section means "absent", which is distinct from a
// present-but-empty list.
type Profile struct {
	Biography   *Biography   `json:"biography,omitempty"`
	Skills      []Skill      `json:"skills,omitempty"`
	Projects    []Project    `json:"projects,omitempty"`
	Experience  []Experience `json:"experience,omitempty"`
	Education   []Education  `json:"education,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
	SocialLinks []SocialLink `json:"socialLinks,omitempty"`
	Metadata    Metadata     `json:"metadata"`
}

// Biography describes the profile subject.
type Biography struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`
	Age         int    `json:"age,omitempty"`
	Background  string `json:"background,omitempty"`
}

// Proficiency levels allowed on a Skill.
const (
	ProficiencyBeginner     = "beginner"
	ProficiencyIntermediate = "intermediate"
	ProficiencyAdvanced     = "advanced"
	ProficiencyExpert       = "expert"
)

type Skill struct {
	ID                string `json:"id,omitempty"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	Proficiency       string `json:"proficiency"`
	YearsOfExperience int    `json:"yearsOfExperience,omitempty"`
	Description       string `json:"description,omitempty"`
}

// Project statuses allowed on a Project.
const (
	StatusCompleted  = "completed"
	StatusInProgress = "in-progress"
	StatusPlanned    = "planned"
	StatusArchived   = "archived"
)

type Project struct {
	ID            string   `json:"id,omitempty"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Technologies  []string `json:"technologies,omitempty"`
	Status        string   `json:"status"`
	StartDate     string   `json:"startDate,omitempty"`
	EndDate       string   `json:"endDate,omitempty"`
	RepositoryURL string   `json:"repositoryUrl,omitempty"`
	DemoURL       string   `json:"demoUrl,omitempty"`
	Role          string   `json:"role,omitempty"`
	Achievements  []string `json:"achievements,omitempty"`
}

type Experience struct {
	ID           string   `json:"id,omitempty"`
	Company      string   `json:"company"`
	Position     string   `json:"position"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate,omitempty"`
	Description  string   `json:"description,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	IsCurrent    bool     `json:"isCurrent"`
}

type Education struct {
	ID           string   `json:"id,omitempty"`
	Institution  string   `json:"institution"`
	Degree       string   `json:"degree"`
	Field        string   `json:"field"`
	StartDate    string   `json:"startDate,omitempty"`
	EndDate      string   `json:"endDate,omitempty"`
	GPA          string   `json:"gpa,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
}

type Preferences struct {
	WorkStyle             string   `json:"workStyle,omitempty"`
	Interests             []string `json:"interests,omitempty"`
	Goals                 []string `json:"goals,omitempty"`
	Values                []string `json:"values,omitempty"`
	CommunicationStyle    string   `json:"communicationStyle,omitempty"`
	PreferredTechnologies []string `json:"preferredTechnologies,omitempty"`
}

type SocialLink struct {
	ID       string `json:"id,omitempty"`
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Username string `json:"username,omitempty"`
	IsPublic bool   `json:"isPublic"`
}

// UnmarshalJSON defaults isPublic to true when the field is omitted; an
// explicit false is preserved.
func (l *SocialLink) UnmarshalJSON(data []byte) error {
	type plain SocialLink
	aux := struct {
		*plain
		IsPublic *bool `json:"isPublic"`
	}{plain: (*plain)(l)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	l.IsPublic = aux.IsPublic == nil || *aux.IsPublic
	return nil
}

// Metadata is bookkeeping updated on every write.
type Metadata struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Version   string    `json:"version"`
}

// Section names accepted by ReadSection/WriteSection and the HTTP boundary.
// Metadata is readable but owned by the store, so it rejects writes.
const (
	SectionBiography   = "biography"
	SectionSkills      = "skills"
	SectionProjects    = "projects"
	SectionExperience  = "experience"
	SectionEducation   = "education"
	SectionPreferences = "preferences"
	SectionSocialLinks = "socialLinks"
	SectionMetadata    = "metadata"
)

// SectionNames lists the writable top-level sections in document order.
func SectionNames() []string {
	return []string{
		SectionBiography,
		SectionSkills,
		SectionProjects,
		SectionExperience,
		SectionEducation,
		SectionPreferences,
		SectionSocialLinks,
	}
}
