// Package curriculum holds the static study vocabulary: allowed subjects,
// banned terms and the lesson catalogue of the supported school level.
package curriculum

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/studysearch/internal/domain"
)

//go:embed default.yaml
var defaultFS embed.FS

// Subject is a school subject with its lesson titles.
type Subject struct {
	Name    string   `yaml:"name"`
	Lessons []string `yaml:"lessons"`
}

// Vocabulary is the process-wide, read-only curriculum data.
type Vocabulary struct {
	Level           string    `yaml:"level"`
	LevelTags       []string  `yaml:"level_tags"`
	AllowedSubjects []string  `yaml:"allowed_subjects"`
	BannedTerms     []string  `yaml:"banned_terms"`
	ScientificTerms []string  `yaml:"scientific_terms"`
	Subjects        []Subject `yaml:"subjects"`
}

// Default returns the embedded vocabulary.
func Default() (Vocabulary, error) {
	data, err := defaultFS.ReadFile("default.yaml")
	if err != nil {
		return Vocabulary{}, fmt.Errorf("reading embedded vocabulary: %w", err)
	}
	return parse(data, "embedded vocabulary")
}

// Load reads a vocabulary file. An empty path returns the embedded default.
func Load(path string) (Vocabulary, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Vocabulary{}, fmt.Errorf("reading vocabulary %s: %w", path, err)
	}
	return parse(data, path)
}

func parse(data []byte, name string) (Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("parsing %s: %w", name, err)
	}
	if err := v.Validate(); err != nil {
		return Vocabulary{}, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// Validate checks that the vocabulary can gate queries.
func (v *Vocabulary) Validate() error {
	if len(clean(v.AllowedSubjects)) == 0 {
		return fmt.Errorf("%w: allowed_subjects must contain at least one term", domain.ErrInvalidConfig)
	}
	for i, s := range v.Subjects {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("%w: subjects[%d]: name is required", domain.ErrInvalidConfig, i)
		}
	}
	return nil
}

// SubjectNames returns subject names in catalogue order.
func (v *Vocabulary) SubjectNames() []string {
	names := make([]string, 0, len(v.Subjects))
	for _, s := range v.Subjects {
		names = append(names, s.Name)
	}
	return names
}

// Terms returns scientific terms followed by every lesson title, in catalogue order.
func (v *Vocabulary) Terms() []string {
	terms := make([]string, 0, len(v.ScientificTerms)+len(v.Subjects)*5)
	terms = append(terms, clean(v.ScientificTerms)...)
	for _, s := range v.Subjects {
		terms = append(terms, clean(s.Lessons)...)
	}
	return terms
}

// MatchTerm returns the first curriculum term that contains the normalized
// query or is contained in it.
func (v *Vocabulary) MatchTerm(normalized string) (string, bool) {
	if normalized == "" {
		return "", false
	}
	for _, term := range v.Terms() {
		t := strings.ToLower(term)
		if strings.Contains(normalized, t) || strings.Contains(t, normalized) {
			return term, true
		}
	}
	return "", false
}

// HasLevel reports whether text already names the school level.
func (v *Vocabulary) HasLevel(text string) bool {
	lower := strings.ToLower(text)
	if v.Level != "" && strings.Contains(lower, strings.ToLower(v.Level)) {
		return true
	}
	for _, tag := range v.LevelTags {
		if tag != "" && strings.Contains(lower, strings.ToLower(tag)) {
			return true
		}
	}
	return false
}

// WithLevel appends the school level to text unless it is already present.
func (v *Vocabulary) WithLevel(text string) string {
	if v.Level == "" || v.HasLevel(text) {
		return text
	}
	return strings.TrimSpace(text) + " " + v.Level
}

// clean drops blank entries and trims the rest.
func clean(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
