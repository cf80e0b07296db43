package mapping

import (
	"fmt"
	"sheetMerge/internal/excel"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	summaryTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))
	summaryLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(18)
	summaryValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)
	summaryBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// RenderSummary formats the sheet counts of a finished merge.
func RenderSummary(result *excel.Result, outputPath string) string {
	macros := "no"
	if result.HasMacros {
		macros = "yes"
	}

	rows := [][2]string{
		{"Template sheets", fmt.Sprintf("%d", len(result.TemplateSheets))},
		{"Added sheets", fmt.Sprintf("%d", result.AddedSheets())},
		{"Final sheets", fmt.Sprintf("%d", result.FinalSheetCount)},
		{"Macros kept", macros},
		{"Output", outputPath},
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, summaryTitle.Render("Merge summary"))
	for _, row := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			summaryLabel.Render(row[0]),
			summaryValue.Render(row[1])))
	}

	return summaryBox.Render(strings.Join(lines, "\n"))
}
