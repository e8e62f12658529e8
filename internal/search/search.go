// Package search selects the profile sections relevant to a free-text query.
//
// Relevance is deliberately a linear substring scan, not a scored retrieval
// system: a unit matches when any whitespace-delimited query term appears,
// case-insensitively, anywhere in its flattened text. Matching is binary and
// entries keep their original order.
package search

import (
	"strconv"
	"strings"

	"github.com/kalambet/facet/internal/profile"
)

// Relevant returns the subset of p textually related to query. List sections
// contain only their matching entries; sections without matches are absent
// from the result. Preferences, when present, are always included as baseline
// context. Education and social links are never searched or returned.
// The input profile is never mutated.
func Relevant(query string, p profile.Profile) profile.Profile {
	terms := strings.Fields(strings.ToLower(query))

	var out profile.Profile

	if p.Biography != nil && matches(flattenBiography(p.Biography), terms) {
		b := *p.Biography
		out.Biography = &b
	}

	for _, s := range p.Skills {
		if matches(flattenSkill(&s), terms) {
			out.Skills = append(out.Skills, s)
		}
	}
	for _, pr := range p.Projects {
		if matches(flattenProject(&pr), terms) {
			out.Projects = append(out.Projects, pr)
		}
	}
	for _, e := range p.Experience {
		if matches(flattenExperience(&e), terms) {
			out.Experience = append(out.Experience, e)
		}
	}

	if p.Preferences != nil {
		prefs := *p.Preferences
		out.Preferences = &prefs
	}

	return out
}

// Sections lists the names of sections present in a search result, in
// document order.
func Sections(p profile.Profile) []string {
	var names []string
	if p.Biography != nil {
		names = append(names, profile.SectionBiography)
	}
	if len(p.Skills) > 0 {
		names = append(names, profile.SectionSkills)
	}
	if len(p.Projects) > 0 {
		names = append(names, profile.SectionProjects)
	}
	if len(p.Experience) > 0 {
		names = append(names, profile.SectionExperience)
	}
	if p.Preferences != nil {
		names = append(names, profile.SectionPreferences)
	}
	return names
}

// matches reports whether any term is a substring of text. An empty term set
// matches nothing.
func matches(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func flattenBiography(b *profile.Biography) string {
	parts := []string{b.Name, b.Title, b.Description, b.Location, b.Background}
	if b.Age > 0 {
		parts = append(parts, strconv.Itoa(b.Age))
	}
	return flatten(parts...)
}

func flattenSkill(s *profile.Skill) string {
	return flatten(s.Name, s.Category, s.Proficiency, s.Description)
}

func flattenProject(p *profile.Project) string {
	parts := []string{p.Name, p.Description, p.Status, p.Role}
	parts = append(parts, p.Technologies...)
	parts = append(parts, p.Achievements...)
	return flatten(parts...)
}

func flattenExperience(e *profile.Experience) string {
	parts := []string{e.Company, e.Position, e.Description}
	parts = append(parts, e.Achievements...)
	parts = append(parts, e.Technologies...)
	return flatten(parts...)
}

func flatten(parts ...string) string {
	return strings.ToLower(strings.Join(parts, " "))
}
