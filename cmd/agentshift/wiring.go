package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/mpelletier/agentshift/internal/config"
	"github.com/mpelletier/agentshift/internal/llm"
	"github.com/mpelletier/agentshift/internal/logger"
)

func newLogger(verbose bool, cfg *config.Config) (*logger.Logger, error) {
	level := "info"
	if verbose || (cfg != nil && cfg.Settings.Verbose) {
		level = "debug"
	}
	return logger.New(logger.Options{Level: level, HumanReadable: true})
}

func buildProvider(agent config.AgentConfig) (llm.Provider, error) {
	apiKey := ""
	if agent.APIKeyEnv != "" {
		apiKey = os.Getenv(agent.APIKeyEnv)
	}
	return llm.NewClient(llm.ClientOptions{
		Endpoint:    agent.Endpoint,
		Model:       agent.Model,
		APIKey:      apiKey,
		Temperature: agent.Temperature,
	})
}

// buildAgent assembles an executable agent from its config block. Instruction
// files resolve relative to the config file's directory.
func buildAgent(agent config.AgentConfig, baseDir string) (llm.Agent, error) {
	provider, err := buildProvider(agent)
	if err != nil {
		return llm.Agent{}, err
	}

	instructions, err := agent.InstructionsText(baseDir)
	if err != nil {
		return llm.Agent{}, err
	}

	return llm.Agent{
		Name:         agent.Name,
		Provider:     provider,
		Instructions: instructions,
	}, nil
}

func resolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func caseTimeout(cfg *config.Config) time.Duration {
	if cfg.Settings.CaseTimeout <= 0 {
		return 0
	}
	return time.Duration(cfg.Settings.CaseTimeout) * time.Second
}
