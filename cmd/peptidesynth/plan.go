package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"peptidesynth/internal/export"
	"peptidesynth/internal/synth"
)

// Output file names written by --out.
const (
	vialPlanFile    = "vial_plan.csv"
	synthesisFile   = "synthesis_plan.csv"
	autosamplerFile = "autosampler.csv"
	workbookFile    = "synthesis.xlsx"
)

type outputFlags struct {
	dir         string
	xlsx        bool
	autosampler bool
	quiet       bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.dir, "out", "", "directory for the CSV exports")
	f.BoolVar(&o.xlsx, "xlsx", false, "also write an .xlsx workbook (requires --out)")
	f.BoolVar(&o.autosampler, "autosampler", false, "also write the autosampler program (requires --out)")
	f.BoolVarP(&o.quiet, "quiet", "q", false, "do not print the plan tables")
}

func newPlanCmd(a *app) *cobra.Command {
	var (
		layoutName string
		out        outputFlags
	)
	cmd := &cobra.Command{
		Use:   "plan SEQUENCE...",
		Short: "Plan a fresh vial layout and synthesis program",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			svc, finish, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { err = finish(err) }()
			res, err := svc.Plan(cmd.Context(), synth.PlanRequest{Sequence: args, Layout: layoutName})
			if err != nil {
				return err
			}
			return a.emit(res, out)
		},
	}
	cmd.Flags().StringVar(&layoutName, "layout", "", "save the layout under this name")
	out.register(cmd)
	return cmd
}

// emit prints the run summary and writes the requested exports.
func (a *app) emit(res synth.Outcome, o outputFlags) error {
	report := res.Report()
	if !o.quiet {
		steps, err := export.SynthesisTable(report)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, export.VialTable(report))
		fmt.Fprintln(a.stdout, steps)
	}
	fmt.Fprintf(a.stdout, "residues: %d  vials: %d  appended: %d  racks: %d  mass: %.2f g/mol\n",
		len(res.Tokens), len(res.Result.Units), len(res.Result.Appended), res.Result.Racks(), res.SequenceMass)
	if res.Deprotection != nil {
		fmt.Fprintf(a.stdout, "deprotection: %d vials on rack %d\n", res.Deprotection.Vials, res.Deprotection.Rack)
	}
	if res.DeprotectionMoved() {
		fmt.Fprintf(a.stdout, "note: deprotection rack moved from %d to %d; re-rack the deprotection vials\n",
			res.PriorDeprotectionRack, res.Deprotection.Rack)
	}
	for _, s := range res.Substitutions {
		fmt.Fprintf(a.stdout, "position %d: %s -> %s\n", s.Position, orDash(string(s.Previous)), orDash(string(s.Current)))
	}
	if res.Document.Name != "" {
		fmt.Fprintf(a.stdout, "layout %s saved as generation %d\n", res.Document.Name, res.Document.Generation)
	}

	if o.dir == "" {
		if o.xlsx || o.autosampler {
			return fmt.Errorf("--xlsx and --autosampler need --out")
		}
		return nil
	}
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return err
	}
	writers := []struct {
		name  string
		write func(*os.File) error
		on    bool
	}{
		{vialPlanFile, func(f *os.File) error { return export.WriteVialPlanCSV(f, report) }, true},
		{synthesisFile, func(f *os.File) error { return export.WriteSynthesisCSV(f, report) }, true},
		{autosamplerFile, func(f *os.File) error {
			return export.WriteAutosamplerCSV(f, report, export.DefaultAutosampler())
		}, o.autosampler},
		{workbookFile, func(f *os.File) error {
			return export.WriteWorkbook(f, report, export.DefaultAutosampler())
		}, o.xlsx},
	}
	for _, w := range writers {
		if !w.on {
			continue
		}
		if err := writeFile(filepath.Join(o.dir, w.name), w.write); err != nil {
			return fmt.Errorf("write %s: %w", w.name, err)
		}
	}
	a.logger.Info("exports written", "dir", o.dir)
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
