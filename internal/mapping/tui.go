package mapping

import (
	"fmt"
	"math"
	"sheetMerge/internal/excel"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateReview state = iota
	stateConfirmed
	stateCancelled
)

// reviewModel shows the planned sheet names and asks for confirmation
// before anything is written.
type reviewModel struct {
	dataName       string
	templateSheets []string
	plan           []excel.SheetAssignment

	state state

	// Paging over the plan
	offset  int
	perPage int

	width  int
	height int

	titleStyle  lipgloss.Style
	keptStyle   lipgloss.Style
	sourceStyle lipgloss.Style
	targetStyle lipgloss.Style
	helpStyle   lipgloss.Style
}

func initialModel(dataName string, templateSheets []string, plan []excel.SheetAssignment) reviewModel {
	return reviewModel{
		dataName:       dataName,
		templateSheets: templateSheets,
		plan:           plan,
		state:          stateReview,
		perPage:        15,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")),
		keptStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1),
		sourceStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
		targetStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("40")).
			Bold(true),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
	}
}

func (m reviewModel) Init() tea.Cmd {
	return nil
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Leave room for the title, kept sheets line and help.
		m.perPage = m.height - 8
		if m.perPage < 5 {
			m.perPage = 5
		}
		m.clampOffset()

	case tea.KeyMsg:
		switch msg.String() {
		case "y", "enter":
			m.state = stateConfirmed
			return m, tea.Quit
		case "n", "q", "esc", "ctrl+c":
			m.state = stateCancelled
			return m, tea.Quit
		case "up", "k":
			m.offset--
		case "down", "j":
			m.offset++
		case "left", "h", "pgup":
			m.offset -= m.perPage
		case "right", "l", "pgdown":
			m.offset += m.perPage
		}
		m.clampOffset()
	}
	return m, nil
}

func (m *reviewModel) clampOffset() {
	maxOffset := len(m.plan) - m.perPage
	if maxOffset < 0 {
		maxOffset = 0
	}
	if m.offset > maxOffset {
		m.offset = maxOffset
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m reviewModel) View() string {
	var b strings.Builder

	b.WriteString(m.titleStyle.Render(fmt.Sprintf("Merge %d sheets from %s", len(m.plan), m.dataName)))
	b.WriteString("\n\n")

	b.WriteString(m.keptStyle.Render("Kept: " + strings.Join(m.templateSheets, ", ")))
	b.WriteString("\n\n")

	end := m.offset + m.perPage
	if end > len(m.plan) {
		end = len(m.plan)
	}
	for _, a := range m.plan[m.offset:end] {
		b.WriteString(m.sourceStyle.Render(a.Source))
		b.WriteString("→ ")
		b.WriteString(m.targetStyle.Render(a.Target))
		b.WriteString("\n")
	}

	totalPages := int(math.Ceil(float64(len(m.plan)) / float64(m.perPage)))
	if totalPages == 0 {
		totalPages = 1
	}
	b.WriteString("\n")
	b.WriteString(m.helpStyle.Render(fmt.Sprintf("Page %d/%d", m.offset/m.perPage+1, totalPages)))
	b.WriteString("\n")

	help := "↑↓: scroll | ←→: page | y/Enter: merge | n/q: cancel"
	b.WriteString(m.helpStyle.Render(help))

	return b.String()
}

// RunReview shows the merge plan and returns true when the user confirms.
func RunReview(dataName string, templateSheets []string, plan []excel.SheetAssignment) (bool, error) {
	m := initialModel(dataName, templateSheets, plan)

	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("error running review: %w", err)
	}

	final := finalModel.(reviewModel)
	return final.state == stateConfirmed, nil
}
