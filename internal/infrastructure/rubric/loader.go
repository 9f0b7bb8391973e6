package rubric

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docforge/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// AgentSpec is one agent type's rubric plus loop configuration, assembled
// from a YAML document.
type AgentSpec struct {
	Rubric entity.Rubric
	Config entity.QualityLoopConfig
}

type rubricFile struct {
	Agent          string          `yaml:"agent"`
	Threshold      float64         `yaml:"threshold"`
	MaxAttempts    int             `yaml:"max_attempts"`
	BackoffSeconds float64         `yaml:"backoff_base_seconds"`
	Criteria       []criterionYAML `yaml:"criteria"`
}

type criterionYAML struct {
	Name   string   `yaml:"name"`
	Weight float64  `yaml:"weight"`
	Floor  *float64 `yaml:"floor"`
}

// LoadDefaults parses the embedded rubric documents, one per agent type.
func LoadDefaults() (map[entity.AgentType]AgentSpec, error) {
	specs := make(map[entity.AgentType]AgentSpec)

	err := fs.WalkDir(defaultsFS, "defaults", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := defaultsFS.ReadFile(path)
		if err != nil {
			return err
		}
		return addSpec(specs, path, data)
	})
	if err != nil {
		return nil, err
	}

	return specs, nil
}

// LoadDir loads rubric YAML files from dir on top of the embedded
// defaults, so an operator can override a single agent type without
// redefining the others. A missing dir is not an error.
func LoadDir(dir string) (map[entity.AgentType]AgentSpec, error) {
	specs, err := LoadDefaults()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return specs, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return specs, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read rubric dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rubric file: %w", err)
		}
		if err := addSpec(specs, path, data); err != nil {
			return nil, err
		}
	}

	return specs, nil
}

func addSpec(specs map[entity.AgentType]AgentSpec, path string, data []byte) error {
	var file rubricFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	spec, err := file.toSpec()
	if err != nil {
		return fmt.Errorf("invalid rubric in %s: %w", path, err)
	}

	specs[entity.AgentType(file.Agent)] = spec
	return nil
}

func (f rubricFile) toSpec() (AgentSpec, error) {
	if f.Agent == "" {
		return AgentSpec{}, fmt.Errorf("missing agent type")
	}

	criteria := make([]entity.Criterion, 0, len(f.Criteria))
	floors := make(map[string]float64)
	for _, c := range f.Criteria {
		criteria = append(criteria, entity.Criterion{
			Name:   c.Name,
			Weight: c.Weight,
			Floor:  c.Floor,
		})
		if c.Floor != nil {
			floors[c.Name] = *c.Floor
		}
	}

	spec := AgentSpec{
		Rubric: entity.Rubric{Criteria: criteria},
		Config: entity.QualityLoopConfig{
			Threshold:       f.Threshold,
			MaxAttempts:     f.MaxAttempts,
			BackoffBase:     time.Duration(f.BackoffSeconds * float64(time.Second)),
			CriterionFloors: floors,
		},
	}

	if err := spec.Rubric.Validate(); err != nil {
		return AgentSpec{}, err
	}
	if err := spec.Config.Validate(); err != nil {
		return AgentSpec{}, err
	}

	return spec, nil
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
