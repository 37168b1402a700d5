// Package profile captures a reference dataset: it runs the expensive source
// agent over a list of raw inputs and records the outputs as gold answers
// for the migration to converge against.
package profile

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/mpelletier/agentshift/internal/dataset"
	"github.com/mpelletier/agentshift/internal/llm"
	"github.com/mpelletier/agentshift/internal/logger"
	"github.com/mpelletier/agentshift/internal/model"
	agentshifterrors "github.com/mpelletier/agentshift/pkg/errors"
)

const (
	defaultParallel    = 4
	defaultCaseTimeout = 60 * time.Second
)

// Input is one raw case to capture a reference answer for.
type Input struct {
	ID       string `yaml:"id"`
	Input    string `yaml:"input"`
	Category string `yaml:"category,omitempty"`
}

// InputsFile is the on-disk document listing inputs to profile.
type InputsFile struct {
	Inputs []Input `yaml:"inputs"`
}

// LoadInputs reads an inputs file and checks ids are present and unique.
func LoadInputs(path string) ([]Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, agentshifterrors.NewParseError(path, 0, err)
	}

	var doc InputsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, agentshifterrors.NewParseError(path, 0, err)
	}
	if len(doc.Inputs) == 0 {
		return nil, agentshifterrors.NewValidationError("inputs", "no inputs to profile", nil)
	}

	seen := make(map[string]struct{}, len(doc.Inputs))
	for i, in := range doc.Inputs {
		if in.ID == "" {
			return nil, agentshifterrors.NewValidationError(fmt.Sprintf("inputs[%d].id", i), "input id is required", nil)
		}
		if _, dup := seen[in.ID]; dup {
			return nil, agentshifterrors.NewValidationError(fmt.Sprintf("inputs[%d].id", i), fmt.Sprintf("duplicate input id %q", in.ID), nil)
		}
		seen[in.ID] = struct{}{}
	}

	return doc.Inputs, nil
}

// Options configures a capture run.
type Options struct {
	Parallel    int
	CaseTimeout time.Duration
}

// Capture runs the source agent over every input with a bounded concurrency
// window. Inputs that fail are dropped with a warning; a capture where every
// input failed is an error, since an empty dataset cannot anchor a migration.
func Capture(ctx context.Context, source llm.Agent, inputs []Input, opts Options, log *logger.Logger) (*dataset.Dataset, error) {
	if len(inputs) == 0 {
		return nil, agentshifterrors.NewValidationError("inputs", "no inputs to profile", nil)
	}

	parallel := opts.Parallel
	if parallel <= 0 {
		parallel = defaultParallel
	}
	caseTimeout := opts.CaseTimeout
	if caseTimeout <= 0 {
		caseTimeout = defaultCaseTimeout
	}

	log = log.WithComponent("profile")

	var mu sync.Mutex
	outputs := make(map[string]string, len(inputs))

	g := new(errgroup.Group)
	g.SetLimit(parallel)

	for _, in := range inputs {
		g.Go(func() error {
			caseCtx, cancel := context.WithTimeout(ctx, caseTimeout)
			defer cancel()

			out, err := source.Execute(caseCtx, source.Instructions, in.Input)
			if err != nil {
				log.WithFields(map[string]any{"input": in.ID}).Warn("input failed, dropping: " + err.Error())
				return nil
			}

			mu.Lock()
			outputs[in.ID] = out
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("profiling produced no reference cases (%d inputs failed)", len(inputs))
	}

	ds := &dataset.Dataset{
		Version:    "1.0",
		Agent:      source.Name,
		CapturedAt: time.Now().UTC(),
	}
	for _, in := range inputs {
		out, ok := outputs[in.ID]
		if !ok {
			continue
		}
		ds.Cases = append(ds.Cases, model.ReferenceCase{
			ID:              in.ID,
			Input:           in.Input,
			ReferenceOutput: out,
			Category:        in.Category,
		})
	}

	log.WithFields(map[string]any{"captured": len(ds.Cases), "requested": len(inputs)}).Info("capture complete")
	return ds, nil
}
