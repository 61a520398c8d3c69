package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"peptidesynth/internal/export"
	"peptidesynth/internal/history"
	"peptidesynth/internal/layout"
	"peptidesynth/internal/plan"
)

func newLayoutsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layouts",
		Short: "Inspect saved rack layouts",
	}

	var generation int
	show := &cobra.Command{
		Use:   "show NAME",
		Short: "Print a saved layout (latest generation by default)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.layouts(cmd.Context())
			if err != nil {
				return err
			}
			var doc layout.Document
			if generation > 0 {
				doc, err = store.Load(cmd.Context(), args[0], generation)
			} else {
				doc, err = store.Latest(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			gens, err := store.Generations(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "layout %s generation %d (kept: %v) created %s\n",
				doc.Name, doc.Generation, gens, doc.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(a.stdout, "sequence: %s\n", joinCodes(doc.Sequence))
			if doc.DeprotectionRack > 0 {
				fmt.Fprintf(a.stdout, "deprotection rack: %d\n", doc.DeprotectionRack)
			}
			fmt.Fprintln(a.stdout, export.VialTable(export.Report{RackSize: doc.RackSize, Slots: doc.Slots}))
			return nil
		},
	}
	show.Flags().IntVar(&generation, "generation", 0, "generation to show")

	var limit int
	hist := &cobra.Command{
		Use:   "history NAME",
		Short: "List recorded runs for a layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			runs, err := history.Open(cmd.Context(), a.cfg.History)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer func() {
				if cerr := runs.Close(); err == nil {
					err = cerr
				}
			}()
			list, err := runs.List(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintf(a.stdout, "no runs recorded for %s\n", args[0])
				return nil
			}
			fmt.Fprintln(a.stdout, export.RunTable(list))
			return nil
		},
	}
	hist.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")

	cmd.AddCommand(show, hist)
	return cmd
}

func joinCodes(codes []plan.ResidueCode) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = string(c)
	}
	return strings.Join(parts, " ")
}
