package console

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/crimson-sun/runlog/internal/model"
)

// Theme keeps all console colours in one place.
type Theme struct {
	Passed  lipgloss.Style
	Failed  lipgloss.Style
	Pending lipgloss.Style
	Title   lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Debug   lipgloss.Style
	Route   lipgloss.Style
}

// NewTheme builds the default theme against r, so colour support follows
// the destination writer.
func NewTheme(r *lipgloss.Renderer) Theme {
	return Theme{
		Passed:  r.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		Failed:  r.NewStyle().Foreground(lipgloss.Color("#FF0000")),
		Pending: r.NewStyle().Foreground(lipgloss.Color("#888888")),
		Title:   r.NewStyle().Bold(true),

		Success: r.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("#FF0000")),
		Info:    r.NewStyle().Foreground(lipgloss.Color("#FAFAFA")),
		Debug:   r.NewStyle().Foreground(lipgloss.Color("#61AFEF")),
		Route:   r.NewStyle().Foreground(lipgloss.Color("#C678DD")),
	}
}

func (t Theme) state(s model.State) lipgloss.Style {
	switch s {
	case model.StatePassed:
		return t.Passed
	case model.StateFailed:
		return t.Failed
	}
	return t.Pending
}
