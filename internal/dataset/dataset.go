// Package dataset loads and saves reference datasets: the immutable
// (input, gold output) pairs a migration is judged against.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mpelletier/agentshift/internal/model"
	agentshifterrors "github.com/mpelletier/agentshift/pkg/errors"
)

// Dataset is the on-disk document wrapping a set of reference cases.
type Dataset struct {
	Version    string                `yaml:"version"`
	Agent      string                `yaml:"agent,omitempty"`
	CapturedAt time.Time             `yaml:"captured_at,omitempty"`
	Cases      []model.ReferenceCase `yaml:"cases"`
}

// Load reads a dataset file from disk and validates it.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, agentshifterrors.NewParseError(path, 0, err)
	}

	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, agentshifterrors.NewParseError(path, 0, err)
	}

	if err := Validate(&ds); err != nil {
		return nil, err
	}

	return &ds, nil
}

// Save writes the dataset to disk, creating parent directories as needed.
func Save(path string, ds *Dataset) error {
	if err := Validate(ds); err != nil {
		return err
	}

	data, err := yaml.Marshal(ds)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks the structural invariants the engine relies on: at least
// one case, unique non-empty ids, and no case without input or gold output.
func Validate(ds *Dataset) error {
	if ds == nil {
		return agentshifterrors.NewValidationError("dataset", "dataset is nil", nil)
	}
	if len(ds.Cases) == 0 {
		return agentshifterrors.NewValidationError("cases", "dataset contains no reference cases", nil)
	}

	seen := make(map[string]struct{}, len(ds.Cases))
	for i, ref := range ds.Cases {
		field := fmt.Sprintf("cases[%d]", i)
		if ref.ID == "" {
			return agentshifterrors.NewValidationError(field+".id", "case id is required", nil)
		}
		if _, dup := seen[ref.ID]; dup {
			return agentshifterrors.NewValidationError(field+".id", fmt.Sprintf("duplicate case id %q", ref.ID), nil)
		}
		seen[ref.ID] = struct{}{}

		if ref.Input == "" {
			return agentshifterrors.NewValidationError(field+".input", "case input is required", nil)
		}
		if ref.ReferenceOutput == "" {
			return agentshifterrors.NewValidationError(field+".reference_output", "reference output is required", nil)
		}
	}

	return nil
}
