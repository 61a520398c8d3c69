package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"peptidesynth/internal/blob"
	"peptidesynth/internal/config"
	"peptidesynth/internal/history"
	"peptidesynth/internal/layout"
	"peptidesynth/internal/observability"
	"peptidesynth/internal/residue"
	"peptidesynth/internal/synth"
)

// app carries per-invocation state shared by the subcommands.
type app struct {
	v          *viper.Viper
	configPath string
	cfg        config.Config
	stdout     io.Writer
	stderr     io.Writer
	logger     *slog.Logger
}

// persistent flag name -> viper key
var boundFlags = map[string]string{
	"rack-size":        "rack.size",
	"max-per-vial":     "vial.max_per_vial",
	"direction":        "synthesis.direction",
	"residues":         "residues.path",
	"storage":          "storage.driver",
	"fs-root":          "storage.fs_root",
	"history":          "history.driver",
	"history-dsn":      "history.dsn",
	"metrics-textfile": "metrics.textfile",
	"trace-file":       "metrics.trace_file",
	"log-level":        "log.level",
	"log-format":       "log.format",
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "peptidesynth",
		Short:         "Plan vial racks and synthesis programs for peptide sequences",
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.load()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ./peptidesynth.yaml)")
	pf.Int("rack-size", 0, "positions per rack")
	pf.Int("max-per-vial", 0, "couplings per residue vial (0 derives it from the vial volumes)")
	pf.String("direction", "", "synthesis direction: as-written or c-to-n")
	pf.String("residues", "", "residue table (CSV or YAML)")
	pf.String("storage", "", "layout store driver: fs, s3 or memory")
	pf.String("fs-root", "", "layout store directory for the fs driver")
	pf.String("history", "", "run history driver: sqlite, postgres, memory or none")
	pf.String("history-dsn", "", "sqlite path or postgres connection string")
	pf.String("metrics-textfile", "", "write Prometheus metrics to this file")
	pf.String("trace-file", "", "append JSON trace spans to this file")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.String("log-format", "", "text or json")
	for flag, key := range boundFlags {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(newPlanCmd(a), newExtendCmd(a), newResiduesCmd(a), newLayoutsCmd(a))
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}
	logger, err := cfg.Log.Logger(a.stderr)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

func (a *app) residues() (*residue.Table, error) {
	return residue.Load(a.cfg.Residues.Path)
}

func (a *app) layouts(ctx context.Context) (*layout.Store, error) {
	store, err := blob.Open(ctx, a.cfg.Blob())
	if err != nil {
		return nil, fmt.Errorf("open layout store: %w", err)
	}
	return layout.NewStore(store, layout.WithRetain(a.cfg.Storage.Retain)), nil
}

// service wires a Service from configuration. The returned finish function
// flushes metrics and closes the history store; call it once with the run error.
func (a *app) service(ctx context.Context) (*synth.Service, func(error) error, error) {
	direction, err := a.cfg.Direction()
	if err != nil {
		return nil, nil, err
	}
	table, err := a.residues()
	if err != nil {
		return nil, nil, err
	}
	layouts, err := a.layouts(ctx)
	if err != nil {
		return nil, nil, err
	}
	runs, err := history.Open(ctx, a.cfg.History)
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}
	opts := []synth.Option{synth.WithLogger(a.logger), synth.WithHistory(runs)}

	var recorder *observability.PrometheusRecorder
	if a.cfg.Metrics.Textfile != "" {
		recorder = observability.NewPrometheusRecorder()
		opts = append(opts, synth.WithRecorder(recorder))
	}
	var traceFile *os.File
	if a.cfg.Metrics.TraceFile != "" {
		traceFile, err = os.OpenFile(a.cfg.Metrics.TraceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			_ = runs.Close()
			return nil, nil, fmt.Errorf("open trace file: %w", err)
		}
		opts = append(opts, synth.WithTracer(observability.NewJSONTracer(traceFile)))
	}

	settings := synth.Settings{
		MaxPerVial: a.cfg.MaxPerVial(),
		RackSize:   a.cfg.Rack.Size,
		Direction:  direction,
		Reagent:    a.cfg.ReagentParams(),
		Deprotection: synth.DeprotectionSettings{
			Enabled:        a.cfg.Deprotection.Enabled,
			VolumeML:       a.cfg.Deprotection.VolumeML,
			InjectVolumeML: a.cfg.Deprotection.InjectVolumeML,
		},
	}
	svc := synth.NewService(table, layouts, settings, opts...)
	finish := func(runErr error) error {
		errs := []error{runErr}
		if recorder != nil {
			errs = append(errs, recorder.WriteTextfile(a.cfg.Metrics.Textfile))
		}
		if traceFile != nil {
			errs = append(errs, traceFile.Close())
		}
		errs = append(errs, runs.Close())
		return errors.Join(errs...)
	}
	return svc, finish, nil
}
