package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"peptidesynth/internal/export"
	"peptidesynth/internal/plan"
	"peptidesynth/internal/residue"
)

func newResiduesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "residues",
		Short: "Inspect or extend the residue lookup table",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "Print the residue table",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			table, err := a.residues()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, export.ResidueTable(table.Residues()))
			return nil
		},
	}
	add := &cobra.Command{
		Use:   "add CODE MW [NAME]",
		Short: "Add a residue to the configured table file",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(_ *cobra.Command, args []string) error {
			path := a.cfg.Residues.Path
			if path == "" {
				return fmt.Errorf("residues add needs residues.path (--residues) to point at a table file")
			}
			mw, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("molecular weight %q: %w", args[1], err)
			}
			r := residue.Residue{Code: plan.ResidueCode(args[0]), MW: mw}
			if len(args) == 3 {
				r.Name = args[2]
			}
			table, err := a.residues()
			if err != nil {
				return err
			}
			updated, err := table.With(r)
			if err != nil {
				return err
			}
			if err := residue.Save(path, updated); err != nil {
				return err
			}
			a.logger.Info("residue added", "code", args[0], "table", path)
			fmt.Fprintf(a.stdout, "added %s (%s g/mol) to %s\n", args[0], args[1], path)
			return nil
		},
	}
	cmd.AddCommand(list, add)
	return cmd
}
