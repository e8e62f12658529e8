package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested section is absent from the document.
var ErrNotFound = errors.New("not found")

// ErrUnknownSection is returned for section names outside the schema.
var ErrUnknownSection = errors.New("unknown section")

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

const documentVersion = "1.0.0"

// Store owns the on-disk JSON profile document. Reads return deep copies and
// may proceed concurrently; writes are serialized and replace the document
// atomically (temp file + rename), so a crash never leaves a truncated file
// and a concurrent read never observes a half-applied write.
type Store struct {
	path  string
	clock Clock

	mu  sync.RWMutex
	doc Profile
}

// Open loads the document at path, creating a placeholder profile if the
// file does not exist yet.
func Open(path string) (*Store, error) {
	return OpenWithClock(path, realClock{})
}

// OpenWithClock is Open with an injectable clock (for testing).
func OpenWithClock(path string, clock Clock) (*Store, error) {
	s := &Store{path: path, clock: clock}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.doc = placeholder(clock.Now())
		if err := s.persist(); err != nil {
			return nil, fmt.Errorf("initializing profile: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("reading profile: %w", err)
	default:
		if err := json.Unmarshal(data, &s.doc); err != nil {
			return nil, fmt.Errorf("parsing profile %s: %w", path, err)
		}
	}
	return s, nil
}

func placeholder(now time.Time) Profile {
	return Profile{
		Biography: &Biography{
			Name:        "Your Name",
			Title:       "Your Title",
			Description: "Tell the assistant about yourself by updating this profile.",
		},
		Skills:      []Skill{},
		Projects:    []Project{},
		Experience:  []Experience{},
		Education:   []Education{},
		SocialLinks: []SocialLink{},
		Metadata: Metadata{
			CreatedAt: now,
			UpdatedAt: now,
			Version:   documentVersion,
		},
	}
}

// Read returns a deep copy of the full document.
func (s *Store) Read() (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyProfile(&s.doc), nil
}

// ReadSection returns the named top-level section, or ErrNotFound if the
// section is absent from the document.
func (s *Store) ReadSection(name string) (any, error) {
	spec, ok := sections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cp := copyProfile(&s.doc)
	v, present := spec.get(&cp)
	if !present {
		return nil, fmt.Errorf("section %q: %w", name, ErrNotFound)
	}
	return v, nil
}

// Write validates doc and merges every section present in it into the stored
// document, leaving absent sections untouched. List entries without an id are
// assigned one; carried-forward ids are preserved. metadata.updatedAt is set
// to the current time, metadata.createdAt and version are preserved. On
// validation failure nothing is written.
func (s *Store) Write(doc Profile) (Profile, error) {
	if err := Validate(&doc); err != nil {
		return Profile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := copyProfile(&s.doc)
	for _, name := range SectionNames() {
		spec := sections[name]
		if _, present := spec.get(&doc); present {
			spec.assign(&next, &doc)
		}
	}
	assignIDs(&next)
	next.Metadata.UpdatedAt = s.clock.Now()

	return s.replace(next)
}

// WriteSection replaces only the named section with the JSON-encoded value.
// The rest of the document is neither validated nor modified.
func (s *Store) WriteSection(name string, raw json.RawMessage) (any, error) {
	spec, ok := sections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}
	if spec.decode == nil {
		return nil, &ValidationError{Field: name, Message: "section is read-only"}
	}

	var patch Profile
	if err := spec.decode(&patch, raw); err != nil {
		return nil, &ValidationError{Field: name, Message: fmt.Sprintf("malformed value: %v", err)}
	}
	if err := Validate(&patch); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := copyProfile(&s.doc)
	spec.assign(&next, &patch)
	assignIDs(&next)
	next.Metadata.UpdatedAt = s.clock.Now()

	stored, err := s.replace(next)
	if err != nil {
		return nil, err
	}
	v, _ := spec.get(&stored)
	return v, nil
}

// replace persists next and swaps it in. Caller holds the write lock.
func (s *Store) replace(next Profile) (Profile, error) {
	prev := s.doc
	s.doc = next
	if err := s.persist(); err != nil {
		s.doc = prev
		return Profile{}, err
	}
	return copyProfile(&s.doc), nil
}

func (s *Store) persist() error {
	data, err := json.MarshalIndent(&s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating profile directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".profile-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing profile: %w", err)
	}
	return nil
}

// assignIDs gives a fresh uuid to every list entry lacking one.
func assignIDs(p *Profile) {
	for i := range p.Skills {
		if p.Skills[i].ID == "" {
			p.Skills[i].ID = uuid.New().String()
		}
	}
	for i := range p.Projects {
		if p.Projects[i].ID == "" {
			p.Projects[i].ID = uuid.New().String()
		}
	}
	for i := range p.Experience {
		if p.Experience[i].ID == "" {
			p.Experience[i].ID = uuid.New().String()
		}
	}
	for i := range p.Education {
		if p.Education[i].ID == "" {
			p.Education[i].ID = uuid.New().String()
		}
	}
	for i := range p.SocialLinks {
		if p.SocialLinks[i].ID == "" {
			p.SocialLinks[i].ID = uuid.New().String()
		}
	}
}

// sectionSpec wires one top-level section into the generic section operations.
type sectionSpec struct {
	// get reports the section value and whether it is present.
	get func(p *Profile) (any, bool)
	// assign copies the section from src into dst.
	assign func(dst, src *Profile)
	// decode unmarshals a raw JSON value into the section of p.
	decode func(p *Profile, raw []byte) error
}

var sections = map[string]sectionSpec{
	SectionBiography: {
		get:    func(p *Profile) (any, bool) { return p.Biography, p.Biography != nil },
		assign: func(dst, src *Profile) { dst.Biography = src.Biography },
		decode: func(p *Profile, raw []byte) error { return json.Unmarshal(raw, &p.Biography) },
	},
	SectionSkills: {
		get:    func(p *Profile) (any, bool) { return p.Skills, p.Skills != nil },
		assign: func(dst, src *Profile) { dst.Skills = src.Skills },
		decode: func(p *Profile, raw []byte) error { return json.Unmarshal(raw, &p.Skills) },
	},
	SectionProjects: {
		get:    func(p *Profile) (any, bool) { return p.Projects, p.Projects != nil },
		assign: func(dst, src *Profile) { dst.Projects = src.Projects },
		decode: func(p *Profile, raw []byte) error { return json.Unmarshal(raw, &p.Projects) },
	},
	SectionExperience: {
		get:    func(p *Profile) (any, bool) { return p.Experience, p.Experience != nil },
		assign: func(dst, src *Profile) { dst.Experience = src.Experience },
		decode: func(p *Profile, raw []byte) error { return json.Unmarshal(raw, &p.Experience) },
	},
	SectionEducation: {
		get:    func(p *Profile) (any, bool) { return p.Education, p.Education != nil },
		assign: func(dst, src *Profile) { dst.Education = src.Education },
		decode: func(p *Profile, raw []byte) error { return json.Unmarshal(raw, &p.Education) },
	},
	SectionPreferences: {
		get:    func(p *Profile) (any, bool) { return p.Preferences, p.Preferences != nil },
		assign: func(dst, src *Profile) { dst.Preferences = src.Preferences },
		decode: func(p *Profile, raw []byte) error { return json.Unmarshal(raw, &p.Preferences) },
	},
	SectionSocialLinks: {
		get:    func(p *Profile) (any, bool) { return p.SocialLinks, p.SocialLinks != nil },
		assign: func(dst, src *Profile) { dst.SocialLinks = src.SocialLinks },
		decode: func(p *Profile, raw []byte) error { return json.Unmarshal(raw, &p.SocialLinks) },
	},
	// Read-only: the store maintains metadata itself on every write.
	SectionMetadata: {
		get: func(p *Profile) (any, bool) { return p.Metadata, true },
	},
}

func copyProfile(p *Profile) Profile {
	cp := *p

	if p.Biography != nil {
		b := *p.Biography
		cp.Biography = &b
	}
	if p.Skills != nil {
		cp.Skills = make([]Skill, len(p.Skills))
		copy(cp.Skills, p.Skills)
	}
	if p.Projects != nil {
		cp.Projects = make([]Project, len(p.Projects))
		for i := range p.Projects {
			cp.Projects[i] = p.Projects[i]
			cp.Projects[i].Technologies = copyStrings(p.Projects[i].Technologies)
			cp.Projects[i].Achievements = copyStrings(p.Projects[i].Achievements)
		}
	}
	if p.Experience != nil {
		cp.Experience = make([]Experience, len(p.Experience))
		for i := range p.Experience {
			cp.Experience[i] = p.Experience[i]
			cp.Experience[i].Achievements = copyStrings(p.Experience[i].Achievements)
			cp.Experience[i].Technologies = copyStrings(p.Experience[i].Technologies)
		}
	}
	if p.Education != nil {
		cp.Education = make([]Education, len(p.Education))
		for i := range p.Education {
			cp.Education[i] = p.Education[i]
			cp.Education[i].Achievements = copyStrings(p.Education[i].Achievements)
		}
	}
	if p.Preferences != nil {
		pr := *p.Preferences
		pr.Interests = copyStrings(p.Preferences.Interests)
		pr.Goals = copyStrings(p.Preferences.Goals)
		pr.Values = copyStrings(p.Preferences.Values)
		pr.PreferredTechnologies = copyStrings(p.Preferences.PreferredTechnologies)
		cp.Preferences = &pr
	}
	if p.SocialLinks != nil {
		cp.SocialLinks = make([]SocialLink, len(p.SocialLinks))
		copy(cp.SocialLinks, p.SocialLinks)
	}
	return cp
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
