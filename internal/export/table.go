package export

import (
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"peptidesynth/internal/history"
	"peptidesynth/internal/residue"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// VialTable renders the vial plan for a terminal.
func VialTable(r Report) string {
	return render(vialPlanHeader, r.vialPlanRows())
}

// SynthesisTable renders the synthesis plan for a terminal.
func SynthesisTable(r Report) (string, error) {
	rows, err := r.synthesisRows()
	if err != nil {
		return "", err
	}
	return render(synthesisHeader, rows), nil
}

func render(header []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(header...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

// ResidueTable renders the residue lookup table.
func ResidueTable(rs []residue.Residue) string {
	rows := make([][]string, len(rs))
	for i, r := range rs {
		rows[i] = []string{string(r.Code), strconv.FormatFloat(r.MW, 'f', -1, 64), r.Name}
	}
	return render([]string{"Code", "MW", "Name"}, rows)
}

// RunTable renders run history newest first.
func RunTable(runs []history.Run) string {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.CreatedAt.Format(time.RFC3339),
			string(r.Operation),
			strconv.Itoa(r.Generation),
			strconv.Itoa(r.Residues),
			strconv.Itoa(r.VialUnits),
			strconv.Itoa(r.AppendedUnits),
			strconv.Itoa(r.Racks),
			r.Sequence,
		}
	}
	return render([]string{"When", "Operation", "Generation", "Residues", "Vials", "Appended", "Racks", "Sequence"}, rows)
}
