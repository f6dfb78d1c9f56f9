package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	pkgtypes "github.com/vietdv277/stratus/pkg/types"
)

// PrintLBTable prints load balancers in a styled box table
func PrintLBTable(lbs []pkgtypes.LoadBalancer) {
	headers := []string{"Name", "Type", "Scheme", "State", "DNS Name"}

	var rows [][]Cell
	for _, lb := range lbs {
		rows = append(rows, []Cell{
			{Text: lb.Name, Style: NameStyle},
			{Text: lb.Type, Style: ValueStyle},
			{Text: lb.Scheme, Style: MutedStyle},
			{Text: formatLBState(lb.State), Style: lbStateStyle(lb.State)},
			{Text: lb.DNSName, Style: MutedStyle},
		})
	}

	fmt.Print(RenderTable(headers, rows))
	fmt.Printf("  %d load balancers\n", len(lbs))
}

// PrintLBDetails prints detailed information about a load balancer and
// its target groups
func PrintLBDetails(lb *pkgtypes.LoadBalancer, tgs []pkgtypes.TargetGroup) {
	details := [][2]string{
		{"Name:", lb.Name},
		{"Type:", lb.Type},
		{"Scheme:", lb.Scheme},
		{"State:", lb.State},
		{"DNS Name:", lb.DNSName},
		{"VPC:", formatOptional(lb.VPCID)},
		{"Availability Zones:", strings.Join(lb.AZs, ", ")},
		{"Created:", lb.CreatedAt.Format("2006-01-02 15:04:05")},
	}
	fmt.Print(RenderDetails("Load Balancer Details", details))

	if len(tgs) > 0 {
		fmt.Println()
		PrintTargetGroupTable(tgs)
	}
}

// PrintTargetGroupTable prints target groups in a styled box table
func PrintTargetGroupTable(tgs []pkgtypes.TargetGroup) {
	headers := []string{"Name", "Protocol", "Port", "Type", "VPC"}

	var rows [][]Cell
	for _, tg := range tgs {
		rows = append(rows, []Cell{
			{Text: tg.Name, Style: NameStyle},
			{Text: tg.Protocol, Style: ValueStyle},
			{Text: fmt.Sprintf("%d", tg.Port), Style: ValueStyle},
			{Text: tg.Type, Style: MutedStyle},
			{Text: formatOptional(tg.VPCID), Style: MutedStyle},
		})
	}

	fmt.Print(RenderTable(headers, rows))
	fmt.Printf("  %d target groups\n", len(tgs))
}

// PrintTargetTable prints registered targets with their health
func PrintTargetTable(targets []pkgtypes.Target) {
	headers := []string{"Target", "Port", "AZ", "Health"}

	var rows [][]Cell
	for _, t := range targets {
		rows = append(rows, []Cell{
			{Text: t.ID, Style: IDStyle},
			{Text: fmt.Sprintf("%d", t.Port), Style: ValueStyle},
			{Text: t.AZ, Style: ValueStyle},
			{Text: formatTargetHealth(t.Health), Style: targetHealthStyle(t.Health)},
		})
	}

	fmt.Print(RenderTable(headers, rows))

	healthy := 0
	for _, t := range targets {
		if t.Health == "healthy" {
			healthy++
		}
	}
	fmt.Printf("  %d targets, %d healthy\n", len(targets), healthy)
}

func formatLBState(state string) string {
	switch state {
	case "active":
		return "● active"
	case "provisioning":
		return "◐ provisioning"
	default:
		return "○ " + state
	}
}

func lbStateStyle(state string) lipgloss.Style {
	switch state {
	case "active":
		return HealthyStyle
	case "provisioning":
		return WorkingStyle
	default:
		return InactiveStyle
	}
}

func formatTargetHealth(health string) string {
	switch health {
	case "healthy":
		return "● healthy"
	case "initial", "draining":
		return "◐ " + health
	default:
		return "○ " + health
	}
}

func targetHealthStyle(health string) lipgloss.Style {
	switch health {
	case "healthy":
		return HealthyStyle
	case "initial", "draining":
		return WorkingStyle
	default:
		return FailedStyle
	}
}
