package ui

import (
	"fmt"
	"strings"

	"github.com/vietdv277/stratus/internal/engine"
)

// PrintGroupTable prints the stack's group records in a styled box table
func PrintGroupTable(groups []*engine.Group) {
	headers := []string{"Group", "Capacity", "Min", "Max", "Members", "Load Balancer", "Update Policy"}

	var rows [][]Cell
	for _, g := range groups {
		rows = append(rows, []Cell{
			{Text: g.Name, Style: NameStyle},
			{Text: fmt.Sprintf("%d", g.Capacity), Style: ValueStyle},
			{Text: fmt.Sprintf("%d", g.MinSize), Style: MutedStyle},
			{Text: fmt.Sprintf("%d", g.MaxSize), Style: MutedStyle},
			{Text: fmt.Sprintf("%d", len(g.LiveMembers())), Style: ValueStyle},
			{Text: formatOptional(g.LoadBalancer), Style: GroupStyle},
			{Text: formatPolicy(g.Policy), Style: MutedStyle},
		})
	}

	fmt.Print(RenderTable(headers, rows))
	fmt.Printf("  %d groups\n", len(groups))
}

// PrintGroupDetails prints one group record with its members
func PrintGroupDetails(g *engine.Group) {
	details := [][2]string{
		{"Name:", g.Name},
		{"Capacity:", fmt.Sprintf("%d", g.Capacity)},
		{"Min/Max:", fmt.Sprintf("%d / %d", g.MinSize, g.MaxSize)},
		{"Load Balancer:", formatOptional(g.LoadBalancer)},
		{"Listener Port:", fmt.Sprintf("%d", g.ListenerPort)},
		{"Update Policy:", formatPolicy(g.Policy)},
	}
	fmt.Print(RenderDetails("Group Details", details))

	if len(g.Members) == 0 {
		return
	}
	fmt.Println()

	headers := []string{"Member", "Address", "State", "Version", "Created"}
	var rows [][]Cell
	for _, m := range g.Members {
		rows = append(rows, []Cell{
			{Text: m.Identity, Style: IDStyle},
			{Text: formatOptional(m.Address), Style: ValueStyle},
			{Text: formatMemberState(string(m.State)), Style: statusStyle(string(m.State))},
			{Text: shortFingerprint(m.Fingerprint), Style: MutedStyle},
			{Text: m.CreatedAt.Format("2006-01-02 15:04:05"), Style: MutedStyle},
		})
	}
	fmt.Print(RenderTable(headers, rows))
}

func formatPolicy(p *engine.RollingUpdatePolicy) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("min %d, batch %d, pause %s",
		p.MinInstancesInService, p.MaxBatchSize, engine.FormatDuration(p.PauseTime))
}

func formatMemberState(state string) string {
	var indicator string
	switch state {
	case string(engine.MemberActive):
		indicator = "●"
	case string(engine.MemberPending), string(engine.MemberResizing):
		indicator = "◐"
	default:
		indicator = "○"
	}
	return indicator + " " + strings.ToLower(state)
}

func shortFingerprint(fp string) string {
	if fp == "" {
		return "-"
	}
	if len(fp) > 8 {
		return fp[:8]
	}
	return fp
}
