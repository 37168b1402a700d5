package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mpelletier/agentshift/internal/config"
	"github.com/mpelletier/agentshift/internal/dataset"
	"github.com/mpelletier/agentshift/internal/engine"
	"github.com/mpelletier/agentshift/internal/model"
	"github.com/mpelletier/agentshift/internal/report"
	"github.com/mpelletier/agentshift/internal/scorer"
)

type scoreOptions struct {
	ConfigPath       string
	InstructionsPath string
	Verbose          bool
}

var scoreCmdRunner = runScore

func newScoreCmd(root *rootFlags) *cobra.Command {
	opts := scoreOptions{}

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one instruction set against the dataset without iterating",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Verbose = root.verbose
			return scoreCmdRunner(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to migration configuration file")
	cmd.Flags().StringVarP(&opts.InstructionsPath, "instructions", "i", "", "Instructions file to score (defaults to the target's)")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}

func runScore(opts scoreOptions) error {
	cfg, err := config.ParseConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	baseDir := filepath.Dir(opts.ConfigPath)

	log, err := newLogger(opts.Verbose, cfg)
	if err != nil {
		return err
	}

	target, err := buildAgent(cfg.Target, baseDir)
	if err != nil {
		return err
	}

	instructions := target.Instructions
	if opts.InstructionsPath != "" {
		data, err := os.ReadFile(opts.InstructionsPath)
		if err != nil {
			return err
		}
		instructions = strings.TrimSpace(string(data))
	}
	if instructions == "" {
		source, err := cfg.Source.InstructionsText(baseDir)
		if err != nil {
			return err
		}
		instructions = source
	}

	ds, err := dataset.Load(resolvePath(baseDir, cfg.Dataset))
	if err != nil {
		return err
	}

	judgeCfg := cfg.Source
	if cfg.Scoring.Judge != nil {
		judgeCfg = *cfg.Scoring.Judge
	}
	judgeProvider, err := buildProvider(judgeCfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	verdicts, rate, err := engine.New(log).ScoreBatch(ctx, engine.Request{
		Target:      target,
		Cases:       ds.Cases,
		Budget:      model.Budget{Threshold: cfg.Budget.Threshold, MaxIterations: 1},
		Scorer:      scorer.NewJudge(judgeProvider, cfg.Scoring.Minimums),
		Parallel:    cfg.Settings.Parallel,
		CaseTimeout: caseTimeout(cfg),
	}, instructions)
	if err != nil {
		return err
	}

	report.RenderVerdicts(os.Stdout, verdicts, rate)
	return nil
}
