package excel

import (
	"fmt"
	"strings"
)

// SheetAssignment pairs a data workbook sheet with the name it receives in
// the merged workbook.
type SheetAssignment struct {
	Source string `json:"source_sheet"`
	Target string `json:"target_sheet"`
}

// PlanSheetNames assigns prefix+N names to sources in order. The counter
// starts at start and advances on every candidate, so a name skipped because
// it collides with an existing sheet is never handed out later.
func PlanSheetNames(existing, sources []string, prefix string, start int) []SheetAssignment {
	taken := make(map[string]bool, len(existing)+len(sources))
	for _, name := range existing {
		taken[strings.ToLower(name)] = true
	}

	assignments := make([]SheetAssignment, 0, len(sources))
	number := start
	for _, source := range sources {
		target := fmt.Sprintf("%s%d", prefix, number)
		number++

		for taken[strings.ToLower(target)] {
			target = fmt.Sprintf("%s%d", prefix, number)
			number++
		}

		taken[strings.ToLower(target)] = true
		assignments = append(assignments, SheetAssignment{
			Source: source,
			Target: target,
		})
	}

	return assignments
}
