package excel

import (
	"reflect"
	"testing"
)

func TestPlanSheetNames(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		sources  []string
		prefix   string
		start    int
		expected []string
	}{
		{
			name:     "no collisions",
			existing: []string{"表紙", "集計"},
			sources:  []string{"明細A", "明細B", "明細C"},
			prefix:   "Sheet",
			start:    1,
			expected: []string{"Sheet1", "Sheet2", "Sheet3"},
		},
		{
			name:     "skips template collision",
			existing: []string{"Sheet1", "Summary"},
			sources:  []string{"A", "B"},
			prefix:   "Sheet",
			start:    1,
			expected: []string{"Sheet2", "Sheet3"},
		},
		{
			name:     "skipped numbers are not reused",
			existing: []string{"Cover", "Sheet2"},
			sources:  []string{"A", "B", "C"},
			prefix:   "Sheet",
			start:    1,
			expected: []string{"Sheet1", "Sheet3", "Sheet4"},
		},
		{
			name:     "case insensitive collision",
			existing: []string{"SHEET1", "sheet2"},
			sources:  []string{"A"},
			prefix:   "Sheet",
			start:    1,
			expected: []string{"Sheet3"},
		},
		{
			name:     "source names do not matter",
			existing: []string{"Cover", "Totals"},
			sources:  []string{"Sheet2", "Sheet1"},
			prefix:   "Sheet",
			start:    1,
			expected: []string{"Sheet1", "Sheet2"},
		},
		{
			name:     "custom prefix and start",
			existing: []string{"Data10"},
			sources:  []string{"x", "y"},
			prefix:   "Data",
			start:    10,
			expected: []string{"Data11", "Data12"},
		},
		{
			name:     "no sources",
			existing: []string{"Cover", "Totals"},
			sources:  nil,
			prefix:   "Sheet",
			start:    1,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanSheetNames(tt.existing, tt.sources, tt.prefix, tt.start)
			if len(plan) != len(tt.sources) {
				t.Fatalf("Expected %d assignments, got %d", len(tt.sources), len(plan))
			}

			targets := make([]string, 0, len(plan))
			for i, a := range plan {
				if a.Source != tt.sources[i] {
					t.Errorf("Assignment %d source = %q, expected %q", i, a.Source, tt.sources[i])
				}
				targets = append(targets, a.Target)
			}
			if !reflect.DeepEqual(targets, tt.expected) {
				t.Errorf("Targets = %v, expected %v", targets, tt.expected)
			}
		})
	}
}
