package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hupe1980/runlens/internal/pipelinerun"
)

// Styles holds the lipgloss styles used by the table formatter.
type Styles struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Tag     lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Running lipgloss.Style
	Link    lipgloss.Style
}

// Palette colors.
var (
	colorPrimary = lipgloss.Color("#0f62fe")
	colorGreen   = lipgloss.Color("#24a148")
	colorRed     = lipgloss.Color("#da1e28")
	colorYellow  = lipgloss.Color("#f1c21b")
	colorMuted   = lipgloss.Color("#8d8d8d")
	colorTagBg   = lipgloss.Color("#e0e0e0")
	colorTagFg   = lipgloss.Color("#161616")
)

// DefaultStyles returns the colored style set.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true),
		Header:  lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		Tag:     lipgloss.NewStyle().Foreground(colorTagFg).Background(colorTagBg).Padding(0, 1),
		Muted:   lipgloss.NewStyle().Foreground(colorMuted),
		Success: lipgloss.NewStyle().Bold(true).Foreground(colorGreen),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(colorRed),
		Running: lipgloss.NewStyle().Foreground(colorYellow),
		Link:    lipgloss.NewStyle().Underline(true).Foreground(colorPrimary),
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()

	return Styles{
		Title:   plain,
		Header:  plain,
		Tag:     plain,
		Muted:   plain,
		Success: plain,
		Error:   plain,
		Running: plain,
		Link:    plain,
	}
}

// Status returns the style for a run status.
func (s Styles) Status(status string) lipgloss.Style {
	switch status {
	case pipelinerun.StatusSucceeded:
		return s.Success
	case pipelinerun.StatusFailed:
		return s.Error
	case pipelinerun.StatusRunning, pipelinerun.StatusPending:
		return s.Running
	default:
		return s.Muted
	}
}
