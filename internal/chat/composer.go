package chat

import (
	"fmt"
	"strings"

	"github.com/kalambet/facet/internal/profile"
)

// Caps on how much of each list section is rendered into a prompt.
const (
	maxPromptProjects   = 5
	maxPromptExperience = 3
	maxPromptHistory    = 4
)

const preamble = `You are a personal assistant that answers questions about one specific person using the personal information below. Refer to that person in the third person. If a question cannot be answered from the provided information, say so briefly instead of guessing, and decline questions unrelated to this person.`

// ComposePrompt assembles the instruction text sent to the language model:
// a fixed preamble, the relevant personal data, the recent conversation, and
// the literal user question, in that order. Absent sub-blocks are omitted;
// composition never fails.
func ComposePrompt(userMessage string, data profile.Profile, history []Turn) string {
	var sb strings.Builder
	sb.WriteString(preamble)
	sb.WriteString("\n")

	if block := personalBlock(data); block != "" {
		sb.WriteString("\nPersonal information:\n")
		sb.WriteString(block)
	}

	if len(history) > 0 {
		sb.WriteString("\nRecent conversation:\n")
		start := len(history) - maxPromptHistory
		if start < 0 {
			start = 0
		}
		for _, turn := range history[start:] {
			fmt.Fprintf(&sb, "%s: %s\n", turn.Role, turn.Content)
		}
	}

	sb.WriteString("\nQuestion: ")
	sb.WriteString(userMessage)
	return sb.String()
}

func personalBlock(data profile.Profile) string {
	var sb strings.Builder

	if b := data.Biography; b != nil {
		fmt.Fprintf(&sb, "About: %s, %s. %s", b.Name, b.Title, b.Description)
		if b.Location != "" {
			fmt.Fprintf(&sb, " Based in %s.", b.Location)
		}
		if b.Background != "" {
			fmt.Fprintf(&sb, " Background: %s", b.Background)
		}
		sb.WriteString("\n")
	}

	if len(data.Skills) > 0 {
		sb.WriteString("Skills:\n")
		for _, s := range data.Skills {
			fmt.Fprintf(&sb, "- %s (%s, %s", s.Name, s.Proficiency, s.Category)
			if s.YearsOfExperience > 0 {
				fmt.Fprintf(&sb, ", %d years", s.YearsOfExperience)
			}
			sb.WriteString(")")
			if s.Description != "" {
				fmt.Fprintf(&sb, ": %s", s.Description)
			}
			sb.WriteString("\n")
		}
	}

	if len(data.Projects) > 0 {
		sb.WriteString("Projects:\n")
		projects := data.Projects
		if len(projects) > maxPromptProjects {
			projects = projects[:maxPromptProjects]
		}
		for _, p := range projects {
			fmt.Fprintf(&sb, "- %s (%s): %s", p.Name, p.Status, p.Description)
			if len(p.Technologies) > 0 {
				fmt.Fprintf(&sb, " [%s]", strings.Join(p.Technologies, ", "))
			}
			sb.WriteString("\n")
		}
	}

	if len(data.Experience) > 0 {
		sb.WriteString("Experience:\n")
		experience := data.Experience
		if len(experience) > maxPromptExperience {
			experience = experience[:maxPromptExperience]
		}
		for _, e := range experience {
			fmt.Fprintf(&sb, "- %s at %s (%s", e.Position, e.Company, e.StartDate)
			switch {
			case e.IsCurrent:
				sb.WriteString(" - present)")
			case e.EndDate != "":
				fmt.Fprintf(&sb, " - %s)", e.EndDate)
			default:
				sb.WriteString(")")
			}
			if e.Description != "" {
				fmt.Fprintf(&sb, ": %s", e.Description)
			}
			sb.WriteString("\n")
		}
	}

	if p := data.Preferences; p != nil {
		sb.WriteString("Preferences:\n")
		if p.WorkStyle != "" {
			fmt.Fprintf(&sb, "- Work style: %s\n", p.WorkStyle)
		}
		if p.CommunicationStyle != "" {
			fmt.Fprintf(&sb, "- Communication: %s\n", p.CommunicationStyle)
		}
		if len(p.Interests) > 0 {
			fmt.Fprintf(&sb, "- Interests: %s\n", strings.Join(p.Interests, ", "))
		}
		if len(p.Goals) > 0 {
			fmt.Fprintf(&sb, "- Goals: %s\n", strings.Join(p.Goals, ", "))
		}
		if len(p.Values) > 0 {
			fmt.Fprintf(&sb, "- Values: %s\n", strings.Join(p.Values, ", "))
		}
		if len(p.PreferredTechnologies) > 0 {
			fmt.Fprintf(&sb, "- Preferred technologies: %s\n", strings.Join(p.PreferredTechnologies, ", "))
		}
	}

	return sb.String()
}
