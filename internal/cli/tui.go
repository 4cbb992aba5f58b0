package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/matzehuels/procdraw/pkg/errors"
	"github.com/matzehuels/procdraw/pkg/scene"
)

// =============================================================================
// DiagramListModel - Interactive diagram selection
// =============================================================================

// DiagramListModel is the bubbletea model for picking one diagram of a
// multi-diagram scene.
type DiagramListModel struct {
	Diagrams []scene.Diagram
	Cursor   int
	Selected *scene.Diagram
	Height   int
	Offset   int
}

// NewDiagramListModel creates a new diagram list model.
func NewDiagramListModel(diagrams []scene.Diagram) DiagramListModel {
	return DiagramListModel{Diagrams: diagrams, Height: 15}
}

func (m DiagramListModel) Init() tea.Cmd {
	return nil
}

func (m DiagramListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Diagrams)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Diagrams) == 0 {
				return m, tea.Quit
			}
			d := m.Diagrams[m.Cursor]
			m.Selected = &d
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m DiagramListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Diagram"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Diagrams))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		d := m.Diagrams[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor, d.ID, d.Title(),
			fmt.Sprint(len(d.Shapes)), fmt.Sprint(len(d.Edges)), fmt.Sprint(len(d.Overlays)),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Name", "Shapes", "Edges", "Overlays").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col >= 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Diagrams))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// isTerminal reports whether stdin and stdout are both attached to a
// terminal, which the picker needs.
func isTerminal() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

// pickDiagram runs the interactive picker. Quitting without a choice yields
// an error wrapping context.Canceled.
func pickDiagram(doc *scene.Document) (*scene.Diagram, error) {
	if len(doc.Diagrams) == 1 {
		return &doc.Diagrams[0], nil
	}
	if !isTerminal() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "scene has %d diagrams; choose one with --diagram", len(doc.Diagrams))
	}
	final, err := tea.NewProgram(NewDiagramListModel(doc.Diagrams)).Run()
	if err != nil {
		return nil, err
	}
	m := final.(DiagramListModel)
	if m.Selected == nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, context.Canceled, "no diagram selected")
	}
	return m.Selected, nil
}
