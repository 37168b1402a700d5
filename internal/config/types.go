package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Config is the full migration configuration document.
type Config struct {
	Version     string      `yaml:"version" validate:"required,semver"`
	Name        string      `yaml:"name" validate:"required,min=1,max=100"`
	Description string      `yaml:"description,omitempty"`
	Source      AgentConfig `yaml:"source" validate:"required"`
	Target      AgentConfig `yaml:"target" validate:"required"`
	Dataset     string      `yaml:"dataset" validate:"required"`
	Budget      Budget      `yaml:"budget" validate:"required"`
	Policy      Policy      `yaml:"policy"`
	Scoring     Scoring     `yaml:"scoring,omitempty"`
	Settings    Settings    `yaml:"settings,omitempty"`
	Journal     Journal     `yaml:"journal,omitempty"`
}

// AgentConfig describes one agent: which model serves it and the instruction
// text it runs with. Instructions may be inline or in a separate file,
// resolved relative to the config file.
type AgentConfig struct {
	Name             string  `yaml:"name" validate:"required"`
	Model            string  `yaml:"model" validate:"required"`
	Endpoint         string  `yaml:"endpoint,omitempty" validate:"omitempty,url"`
	APIKeyEnv        string  `yaml:"api_key_env,omitempty"`
	Temperature      float64 `yaml:"temperature,omitempty" validate:"omitempty,min=0,max=2"`
	Instructions     string  `yaml:"instructions,omitempty"`
	InstructionsFile string  `yaml:"instructions_file,omitempty"`
}

// InstructionsText returns the agent's instruction text, reading the
// instructions file relative to baseDir when no inline text is set.
func (a AgentConfig) InstructionsText(baseDir string) (string, error) {
	if a.Instructions != "" {
		return a.Instructions, nil
	}
	if a.InstructionsFile == "" {
		return "", nil
	}

	path := a.InstructionsFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Budget bounds the run.
type Budget struct {
	Threshold     float64 `yaml:"threshold" validate:"rate"`
	MaxIterations int     `yaml:"max_iterations" validate:"required,min=1,max=1000"`
}

// Policy selects and tunes the stopping rule.
type Policy struct {
	Type           string  `yaml:"type" validate:"required,policy_name"`
	Patience       int     `yaml:"patience,omitempty" validate:"omitempty,min=1"`
	MinImprovement float64 `yaml:"min_improvement,omitempty" validate:"omitempty,rate"`
	BonusRounds    int     `yaml:"bonus_rounds,omitempty" validate:"omitempty,min=0"`
}

// Scoring tunes the judge: which model evaluates and the per-dimension
// minimums a case must clear to pass. A nil Judge reuses the source agent's
// model as the evaluator.
type Scoring struct {
	Judge    *AgentConfig       `yaml:"judge,omitempty"`
	Minimums map[string]float64 `yaml:"minimums,omitempty" validate:"omitempty,dive,rate"`
}

// Settings holds execution parameters.
type Settings struct {
	Parallel         int  `yaml:"parallel,omitempty" validate:"omitempty,min=1,max=32"`
	CaseTimeout      int  `yaml:"case_timeout,omitempty" validate:"omitempty,min=1,max=3600"`
	Verbose          bool `yaml:"verbose,omitempty"`
	VerbatimFailures bool `yaml:"verbatim_failures,omitempty"`
}

// Journal configures the optional git-backed audit trail of instruction
// revisions.
type Journal struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}
