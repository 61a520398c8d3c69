package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"peptidesynth/internal/export"
	"peptidesynth/internal/plan"
	"peptidesynth/internal/synth"
)

func newExtendCmd(a *app) *cobra.Command {
	var (
		layoutName string
		priorPath  string
		previous   string
		out        outputFlags
	)
	cmd := &cobra.Command{
		Use:   "extend SEQUENCE...",
		Short: "Reuse a prior vial layout and append only the vials it lacks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if layoutName == "" && priorPath == "" {
				return fmt.Errorf("extend needs --layout or --prior")
			}
			svc, finish, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { err = finish(err) }()

			req := synth.ExtendRequest{Sequence: args, Layout: layoutName}
			if priorPath != "" {
				prior, err := readPrior(priorPath, a.cfg.Rack.Size)
				if err != nil {
					return err
				}
				req.Prior = &prior
				if previous != "" {
					tokens, err := svc.Residues().Tokenize(previous)
					if err != nil {
						return fmt.Errorf("--previous: %w", err)
					}
					req.PreviousSequence = plan.Codes(tokens)
				}
			}
			res, err := svc.Extend(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.emit(res, out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&layoutName, "layout", "", "stored layout to extend; receives the next generation")
	f.StringVar(&priorPath, "prior", "", "vial plan CSV to use as the prior layout")
	f.StringVar(&previous, "previous", "", "sequence the prior vial plan was made for (with --prior)")
	out.register(cmd)
	return cmd
}

func readPrior(path string, rackSize int) (plan.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return plan.Snapshot{}, fmt.Errorf("open prior vial plan: %w", err)
	}
	defer func() { _ = f.Close() }()
	return export.ReadVialPlan(f, rackSize)
}
