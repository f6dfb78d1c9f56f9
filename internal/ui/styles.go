package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Box drawing characters
const (
	TopLeft     = "╭"
	TopRight    = "╮"
	BottomLeft  = "╰"
	BottomRight = "╯"
	Horizontal  = "─"
	Vertical    = "│"
	LeftT       = "├"
	RightT      = "┤"
	TopT        = "┬"
	BottomT     = "┴"
	Cross       = "┼"
)

// Color palette
const (
	ColorBorder   = "240"
	ColorHeader   = "252"
	ColorID       = "214"
	ColorName     = "81"
	ColorValue    = "252"
	ColorGroup    = "245"
	ColorHealthy  = "82"
	ColorInactive = "245"
	ColorWorking  = "214"
	ColorFailed   = "196"
	ColorMuted    = "240"
	ColorHint     = "245"
)

// Shared styles
var (
	BorderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBorder))
	HeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorHeader))
	IDStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorID))
	NameStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorName))
	ValueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorValue))
	GroupStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGroup))
	HealthyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHealthy))
	InactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorInactive))
	WorkingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWorking))
	FailedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorFailed))
	MutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMuted))
	HintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHint))
)

// padRight pads a string to the specified display width using runewidth
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return runewidth.Truncate(s, width, "...")
	}
	return s + strings.Repeat(" ", width-sw)
}

// padToWidth pads or truncates a full line to the given display width
func padToWidth(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return runewidth.Truncate(s, width, "...")
	}
	return s + strings.Repeat(" ", width-sw)
}

func formatOptional(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// statusStyle maps a stack or member status to a display style
func statusStyle(status string) lipgloss.Style {
	switch {
	case strings.HasSuffix(status, "COMPLETE"), status == "Active", status == "InService":
		return HealthyStyle
	case strings.HasSuffix(status, "IN_PROGRESS"), status == "Pending", status == "Resizing":
		return WorkingStyle
	case strings.HasSuffix(status, "FAILED"), status == "Error":
		return FailedStyle
	default:
		return InactiveStyle
	}
}
