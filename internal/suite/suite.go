package suite

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"nlu-regress/internal/nlu"
	"nlu-regress/internal/util"
)

// FileBase is the suite file name without extension.
const FileBase = "suite"

// ExpectedIntent names the intent an example must be classified as.
type ExpectedIntent struct {
	Name string `yaml:"name" json:"name"`
}

// ExpectedEntity is an entity the NLU service must extract from an example.
type ExpectedEntity struct {
	Entity string `yaml:"entity" json:"entity"`
	Value  string `yaml:"value" json:"value"`
	Start  *int   `yaml:"start,omitempty" json:"start,omitempty"`
	End    *int   `yaml:"end,omitempty" json:"end,omitempty"`
}

// UnmarshalJSON accepts numbers and booleans as entity values, keeping their
// JSON text.
func (e *ExpectedEntity) UnmarshalJSON(data []byte) error {
	var raw struct {
		Entity string    `json:"entity"`
		Value  nlu.Value `json:"value"`
		Start  *int      `json:"start"`
		End    *int      `json:"end"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = ExpectedEntity{Entity: raw.Entity, Value: raw.Value.String(), Start: raw.Start, End: raw.End}
	return nil
}

// Expected bundles the labels of an example.
type Expected struct {
	Intent   ExpectedIntent   `yaml:"intent" json:"intent"`
	Entities []ExpectedEntity `yaml:"entities,omitempty" json:"entities,omitempty"`
}

// Example is one labelled sentence of the regression suite.
type Example struct {
	Sentence string   `yaml:"sentence" json:"sentence"`
	Expected Expected `yaml:"expected" json:"expected"`
}

// Suite is the ordered list of examples replayed against the service.
type Suite struct {
	Path     string    `yaml:"-" json:"-"`
	Examples []Example `yaml:"examples" json:"examples"`
}

// Load reads suite.json (or suite.yaml/suite.yml) from the project directory.
func Load(projectDir string) (*Suite, error) {
	path, err := util.FindProjectFile(projectDir, FileBase)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads and validates a suite file.
func LoadFile(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite: %w", err)
	}
	var s Suite
	if err := util.DecodeProjectFile(path, data, &s); err != nil {
		return nil, fmt.Errorf("parse suite %s: %w", path, err)
	}
	s.Path = path
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate rejects examples that cannot be matched.
func (s *Suite) Validate() error {
	for i, ex := range s.Examples {
		if strings.TrimSpace(ex.Sentence) == "" {
			return fmt.Errorf("example %d: empty sentence", i)
		}
		if strings.TrimSpace(ex.Expected.Intent.Name) == "" {
			return fmt.Errorf("example %d (%q): missing expected intent", i, ex.Sentence)
		}
		for j, ent := range ex.Expected.Entities {
			if strings.TrimSpace(ent.Entity) == "" {
				return fmt.Errorf("example %d (%q): entity %d has no type", i, ex.Sentence, j)
			}
		}
	}
	return nil
}
