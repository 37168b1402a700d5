package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mpelletier/agentshift/internal/config"
	"github.com/mpelletier/agentshift/internal/dataset"
	"github.com/mpelletier/agentshift/internal/engine"
	"github.com/mpelletier/agentshift/internal/journal"
	"github.com/mpelletier/agentshift/internal/logger"
	"github.com/mpelletier/agentshift/internal/model"
	"github.com/mpelletier/agentshift/internal/policy"
	"github.com/mpelletier/agentshift/internal/report"
	"github.com/mpelletier/agentshift/internal/reviser"
	"github.com/mpelletier/agentshift/internal/scorer"
	"github.com/mpelletier/agentshift/internal/tui"
)

type migrateOptions struct {
	ConfigPath string
	TUI        bool
	Verbose    bool
}

var migrateCmdRunner = runMigrate

func newMigrateCmd(root *rootFlags) *cobra.Command {
	opts := migrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run a migration: refine the target agent's instructions until they converge",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Verbose = root.verbose
			if opts.TUI && !term.IsTerminal(int(os.Stdout.Fd())) {
				opts.TUI = false
			}
			return migrateCmdRunner(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to migration configuration file")
	cmd.Flags().BoolVar(&opts.TUI, "tui", false, "Show live progress in the terminal")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}

func runMigrate(opts migrateOptions) error {
	cfg, err := config.ParseConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	baseDir := filepath.Dir(opts.ConfigPath)

	log, err := newLogger(opts.Verbose, cfg)
	if err != nil {
		return err
	}

	req, err := buildRequest(cfg, baseDir, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng := engine.New(log)

	var result *model.MigrationResult
	var runErr error
	if opts.TUI {
		result, runErr = runWithTUI(ctx, eng, req, cfg)
	} else {
		result, runErr = eng.Migrate(ctx, req)
	}

	if result != nil {
		report.Render(os.Stdout, result, report.Width())
	}
	if runErr != nil {
		return runErr
	}
	if result == nil {
		return fmt.Errorf("migration produced no result")
	}
	return nil
}

func buildRequest(cfg *config.Config, baseDir string, log *logger.Logger) (engine.Request, error) {
	source, err := buildAgent(cfg.Source, baseDir)
	if err != nil {
		return engine.Request{}, err
	}
	target, err := buildAgent(cfg.Target, baseDir)
	if err != nil {
		return engine.Request{}, err
	}

	ds, err := dataset.Load(resolvePath(baseDir, cfg.Dataset))
	if err != nil {
		return engine.Request{}, err
	}

	pol, err := policy.New(cfg.Policy.Type, policy.Params{
		Patience:       cfg.Policy.Patience,
		MinImprovement: cfg.Policy.MinImprovement,
		BonusRounds:    cfg.Policy.BonusRounds,
	})
	if err != nil {
		return engine.Request{}, err
	}

	// The judge defaults to the source agent's model: it already embodies
	// the behavior the migration is trying to preserve.
	judgeCfg := cfg.Source
	if cfg.Scoring.Judge != nil {
		judgeCfg = *cfg.Scoring.Judge
	}
	judgeProvider, err := buildProvider(judgeCfg)
	if err != nil {
		return engine.Request{}, err
	}

	req := engine.Request{
		Source: source,
		Target: target,
		Cases:  ds.Cases,
		Budget: model.Budget{
			Threshold:     cfg.Budget.Threshold,
			MaxIterations: cfg.Budget.MaxIterations,
		},
		Policy: pol,
		Scorer: scorer.NewJudge(judgeProvider, cfg.Scoring.Minimums),
		Reviser: reviser.New(source.Provider, reviser.Options{
			AbstractFailures: !cfg.Settings.VerbatimFailures,
		}),
		Parallel:    cfg.Settings.Parallel,
		CaseTimeout: caseTimeout(cfg),
	}

	if cfg.Journal.Enabled {
		jnl, err := journal.Open(resolvePath(baseDir, cfg.Journal.Path), log)
		if err != nil {
			return engine.Request{}, err
		}
		req.Sinks = append(req.Sinks, jnl)
	}

	return req, nil
}

func runWithTUI(ctx context.Context, eng *engine.Engine, req engine.Request, cfg *config.Config) (*model.MigrationResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(tui.NewModel(cfg.Name, req.Budget, cancel))

	req.Sinks = append(req.Sinks, engine.SinkFunc(func(event model.ProgressEvent) {
		prog.Send(tui.IterationMsg{Event: event})
	}))

	go func() {
		result, err := eng.Migrate(ctx, req)
		prog.Send(tui.DoneMsg{Result: result, Err: err})
	}()

	final, err := prog.Run()
	if err != nil {
		return nil, err
	}
	return final.(tui.Model).Result()
}
