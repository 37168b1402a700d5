package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mpelletier/agentshift/internal/config"
	"github.com/mpelletier/agentshift/internal/dataset"
	"github.com/mpelletier/agentshift/internal/profile"
)

type profileOptions struct {
	ConfigPath string
	InputsPath string
	OutputPath string
	Verbose    bool
}

var profileCmdRunner = runProfile

func newProfileCmd(root *rootFlags) *cobra.Command {
	opts := profileOptions{}

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Capture the source agent's outputs as a reference dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Verbose = root.verbose
			return profileCmdRunner(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to migration configuration file")
	cmd.Flags().StringVarP(&opts.InputsPath, "inputs", "i", "", "Path to the inputs file")
	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "", "Destination dataset path (defaults to the config's dataset)")
	cmd.MarkFlagRequired("config") //nolint:errcheck
	cmd.MarkFlagRequired("inputs") //nolint:errcheck

	return cmd
}

func runProfile(opts profileOptions) error {
	cfg, err := config.ParseConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	baseDir := filepath.Dir(opts.ConfigPath)

	log, err := newLogger(opts.Verbose, cfg)
	if err != nil {
		return err
	}

	source, err := buildAgent(cfg.Source, baseDir)
	if err != nil {
		return err
	}

	inputs, err := profile.LoadInputs(opts.InputsPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ds, err := profile.Capture(ctx, source, inputs, profile.Options{
		Parallel:    cfg.Settings.Parallel,
		CaseTimeout: caseTimeout(cfg),
	}, log)
	if err != nil {
		return err
	}

	out := opts.OutputPath
	if out == "" {
		out = resolvePath(baseDir, cfg.Dataset)
	}
	if err := dataset.Save(out, ds); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "captured %d cases to %s\n", len(ds.Cases), out)
	return nil
}
