package profile

import (
	"fmt"
	"net/url"
)

// ValidationError reports the first schema violation found in a document,
// carrying the path of the offending field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed at %s: %s", e.Field, e.Message)
}

var proficiencies = map[string]bool{
	ProficiencyBeginner:     true,
	ProficiencyIntermediate: true,
	ProficiencyAdvanced:     true,
	ProficiencyExpert:       true,
}

var projectStatuses = map[string]bool{
	StatusCompleted:  true,
	StatusInProgress: true,
	StatusPlanned:    true,
	StatusArchived:   true,
}

// Validate checks every section present in the document against the schema.
// Absent sections are not validated; a partial document with only valid
// sections passes. Returns a *ValidationError on the first violation, nil
// otherwise. Validate never mutates the document.
func Validate(p *Profile) error {
	if p.Biography != nil {
		if err := validateBiography(p.Biography); err != nil {
			return err
		}
	}
	for i := range p.Skills {
		if err := validateSkill(&p.Skills[i], i); err != nil {
			return err
		}
	}
	for i := range p.Projects {
		if err := validateProject(&p.Projects[i], i); err != nil {
			return err
		}
	}
	for i := range p.Experience {
		if err := validateExperience(&p.Experience[i], i); err != nil {
			return err
		}
	}
	for i := range p.Education {
		if err := validateEducation(&p.Education[i], i); err != nil {
			return err
		}
	}
	for i := range p.SocialLinks {
		if err := validateSocialLink(&p.SocialLinks[i], i); err != nil {
			return err
		}
	}
	return nil
}

func validateBiography(b *Biography) error {
	switch {
	case b.Name == "":
		return required("biography.name")
	case b.Title == "":
		return required("biography.title")
	case b.Description == "":
		return required("biography.description")
	}
	if b.Age < 0 {
		return &ValidationError{Field: "biography.age", Message: "must not be negative"}
	}
	return nil
}

func validateSkill(s *Skill, i int) error {
	path := func(f string) string { return fmt.Sprintf("skills[%d].%s", i, f) }
	if s.Name == "" {
		return required(path("name"))
	}
	if s.Category == "" {
		return required(path("category"))
	}
	if !proficiencies[s.Proficiency] {
		return &ValidationError{
			Field:   path("proficiency"),
			Message: fmt.Sprintf("%q is not one of beginner, intermediate, advanced, expert", s.Proficiency),
		}
	}
	if s.YearsOfExperience < 0 {
		return &ValidationError{Field: path("yearsOfExperience"), Message: "must not be negative"}
	}
	return nil
}

func validateProject(p *Project, i int) error {
	path := func(f string) string { return fmt.Sprintf("projects[%d].%s", i, f) }
	if p.Name == "" {
		return required(path("name"))
	}
	if p.Description == "" {
		return required(path("description"))
	}
	if !projectStatuses[p.Status] {
		return &ValidationError{
			Field:   path("status"),
			Message: fmt.Sprintf("%q is not one of completed, in-progress, planned, archived", p.Status),
		}
	}
	return nil
}

func validateExperience(e *Experience, i int) error {
	path := func(f string) string { return fmt.Sprintf("experience[%d].%s", i, f) }
	switch {
	case e.Company == "":
		return required(path("company"))
	case e.Position == "":
		return required(path("position"))
	case e.StartDate == "":
		return required(path("startDate"))
	}
	return nil
}

func validateEducation(e *Education, i int) error {
	path := func(f string) string { return fmt.Sprintf("education[%d].%s", i, f) }
	switch {
	case e.Institution == "":
		return required(path("institution"))
	case e.Degree == "":
		return required(path("degree"))
	case e.Field == "":
		return required(path("field"))
	}
	return nil
}

func validateSocialLink(l *SocialLink, i int) error {
	path := func(f string) string { return fmt.Sprintf("socialLinks[%d].%s", i, f) }
	if l.Platform == "" {
		return required(path("platform"))
	}
	if l.URL == "" {
		return required(path("url"))
	}
	u, err := url.Parse(l.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ValidationError{Field: path("url"), Message: "must be a valid absolute URL"}
	}
	return nil
}

func required(field string) error {
	return &ValidationError{Field: field, Message: "is required"}
}
