package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/vietdv277/stratus/internal/engine"
)

const (
	groupListHeight  = 8
	groupDetailWidth = 16
	groupMinWidth    = 60
	groupColWidthCap = 12
	groupColWidthLB  = 20
)

// GroupModel represents the bubbletea model for group selection
type GroupModel struct {
	groups       []*engine.Group
	filtered     []*engine.Group
	cursor       int
	offset       int
	search       string
	selected     *engine.Group
	quitting     bool
	cancelled    bool
	termWidth    int
	contentWidth int
	maxNameWidth int
}

// NewGroupModel creates a new group selector model
func NewGroupModel(groups []*engine.Group) GroupModel {
	maxNameWidth := 24 // minimum
	for _, g := range groups {
		if w := runewidth.StringWidth(g.Name); w > maxNameWidth {
			maxNameWidth = w
		}
	}

	m := GroupModel{
		groups:       groups,
		filtered:     groups,
		termWidth:    80,
		maxNameWidth: maxNameWidth,
	}
	m.calculateWidths()
	return m
}

func (m *GroupModel) calculateWidths() {
	m.contentWidth = m.termWidth - 2
	if m.contentWidth < groupMinWidth {
		m.contentWidth = groupMinWidth
	}

	// cursor(3) + name + spacing(2) + capacity + spacing(2) + lb
	minRequired := 3 + m.maxNameWidth + 2 + groupColWidthCap + 2 + groupColWidthLB
	if m.contentWidth < minRequired {
		m.contentWidth = minRequired
	}
}

// Init implements tea.Model
func (m GroupModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update implements tea.Model
func (m GroupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.calculateWidths()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			m.cancelled = true
			return m, tea.Quit

		case tea.KeyEnter:
			if len(m.filtered) > 0 {
				m.selected = m.filtered[m.cursor]
				m.quitting = true
				return m, tea.Quit
			}

		case tea.KeyUp:
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}

		case tea.KeyDown:
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
				if m.cursor >= m.offset+groupListHeight {
					m.offset = m.cursor - groupListHeight + 1
				}
			}

		case tea.KeyBackspace:
			if len(m.search) > 0 {
				m.search = m.search[:len(m.search)-1]
				m.filterGroups()
			}

		case tea.KeyRunes:
			m.search += string(msg.Runes)
			m.filterGroups()
		}
	}

	return m, nil
}

func (m *GroupModel) filterGroups() {
	if m.search == "" {
		m.filtered = m.groups
	} else {
		query := strings.ToLower(m.search)
		m.filtered = nil
		for _, g := range m.groups {
			if strings.Contains(strings.ToLower(g.Name), query) ||
				strings.Contains(strings.ToLower(g.LoadBalancer), query) {
				m.filtered = append(m.filtered, g)
			}
		}
	}
	if m.cursor >= len(m.filtered) {
		if len(m.filtered) > 0 {
			m.cursor = len(m.filtered) - 1
		} else {
			m.cursor = 0
		}
	}
	m.offset = 0
}

// View implements tea.Model
func (m GroupModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	w := m.contentWidth

	blank := func() {
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString(strings.Repeat(" ", w))
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString("\n")
	}

	// Top border
	sb.WriteString(BorderStyle.Render(TopLeft))
	sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w)))
	sb.WriteString(BorderStyle.Render(TopRight))
	sb.WriteString("\n")

	// Search input
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString(NameStyle.Render(padToWidth(" > "+m.search, w)))
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")

	blank()

	// Group list
	visibleEnd := m.offset + groupListHeight
	if visibleEnd > len(m.filtered) {
		visibleEnd = len(m.filtered)
	}
	for i := m.offset; i < visibleEnd; i++ {
		sb.WriteString(m.renderGroupRow(i))
	}
	for i := len(m.filtered); i < m.offset+groupListHeight; i++ {
		blank()
	}

	blank()

	// Separator
	sb.WriteString(BorderStyle.Render(LeftT))
	sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w)))
	sb.WriteString(BorderStyle.Render(RightT))
	sb.WriteString("\n")

	// Details panel
	sb.WriteString(m.renderDetailsPanel())

	// Bottom border
	sb.WriteString(BorderStyle.Render(BottomLeft))
	sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w)))
	sb.WriteString(BorderStyle.Render(BottomRight))
	sb.WriteString("\n")

	sb.WriteString(m.renderStatusBar())

	return sb.String()
}

func (m GroupModel) renderGroupRow(idx int) string {
	var sb strings.Builder
	g := m.filtered[idx]
	w := m.contentWidth

	sb.WriteString(BorderStyle.Render(Vertical))

	var line strings.Builder
	plainWidth := 0

	if idx == m.cursor {
		line.WriteString(" > ")
	} else {
		line.WriteString("   ")
	}
	plainWidth += 3

	nameText := padRight(g.Name, m.maxNameWidth)
	line.WriteString(NameStyle.Render(nameText))
	line.WriteString("  ")
	plainWidth += m.maxNameWidth + 2

	capText := padRight(fmt.Sprintf("%d/%d/%d", g.Capacity, g.MinSize, g.MaxSize), groupColWidthCap)
	line.WriteString(ValueStyle.Render(capText))
	line.WriteString("  ")
	plainWidth += groupColWidthCap + 2

	lbText := padRight(formatOptional(g.LoadBalancer), groupColWidthLB)
	line.WriteString(GroupStyle.Render(lbText))
	plainWidth += groupColWidthLB

	if plainWidth < w {
		line.WriteString(strings.Repeat(" ", w-plainWidth))
	}

	sb.WriteString(line.String())
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")

	return sb.String()
}

func (m GroupModel) renderDetailsPanel() string {
	var sb strings.Builder
	w := m.contentWidth

	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString(HeaderStyle.Render(padToWidth(" Group Details", w)))
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")

	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString(MutedStyle.Render(padToWidth(" "+strings.Repeat("─", 20), w)))
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")

	if len(m.filtered) == 0 {
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString(MutedStyle.Render(padToWidth(" No groups found", w)))
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString("\n")

		for i := 0; i < 5; i++ {
			sb.WriteString(BorderStyle.Render(Vertical))
			sb.WriteString(strings.Repeat(" ", w))
			sb.WriteString(BorderStyle.Render(Vertical))
			sb.WriteString("\n")
		}
	} else {
		g := m.filtered[m.cursor]

		details := []struct {
			label string
			value string
		}{
			{"Name:", g.Name},
			{"Capacity:", fmt.Sprintf("%d (min %d, max %d)", g.Capacity, g.MinSize, g.MaxSize)},
			{"Members:", fmt.Sprintf("%d live", len(g.LiveMembers()))},
			{"Load Balancer:", formatOptional(g.LoadBalancer)},
			{"Listener Port:", fmt.Sprintf("%d", g.ListenerPort)},
			{"Update Policy:", formatPolicy(g.Policy)},
		}

		for _, d := range details {
			sb.WriteString(BorderStyle.Render(Vertical))

			labelText := padRight(d.label, groupDetailWidth)
			valueText := d.value
			plainWidth := 1 + groupDetailWidth + runewidth.StringWidth(valueText)
			line := MutedStyle.Render(" "+labelText) + NameStyle.Render(valueText)
			if plainWidth < w {
				line += strings.Repeat(" ", w-plainWidth)
			}

			sb.WriteString(line)
			sb.WriteString(BorderStyle.Render(Vertical))
			sb.WriteString("\n")
		}
	}

	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString(strings.Repeat(" ", w))
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")

	return sb.String()
}

func (m GroupModel) renderStatusBar() string {
	var sb strings.Builder
	w := m.contentWidth + 2

	countInfo := fmt.Sprintf("  %d/%d groups", len(m.filtered), len(m.groups))
	hintsPlain := "[Enter:select] [Esc:cancel]"

	padding := w - runewidth.StringWidth(countInfo) - runewidth.StringWidth(hintsPlain)

	sb.WriteString(countInfo)
	if padding > 0 {
		sb.WriteString(strings.Repeat(" ", padding))
	}
	sb.WriteString(HintStyle.Render(hintsPlain))
	sb.WriteString("\n")

	return sb.String()
}

// SelectGroup displays an interactive selector for a stack's groups
func SelectGroup(groups []*engine.Group) (*engine.Group, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("no groups available")
	}

	m := NewGroupModel(groups)
	p := tea.NewProgram(m)

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("error running selector: %w", err)
	}

	result := finalModel.(GroupModel)
	if result.cancelled {
		return nil, fmt.Errorf("selection cancelled")
	}

	return result.selected, nil
}
