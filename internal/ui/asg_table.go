package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	pkgtypes "github.com/vietdv277/stratus/pkg/types"
)

// PrintASGTable prints native Auto Scaling Groups in a styled box table
func PrintASGTable(groups []pkgtypes.AutoScalingGroup) {
	headers := []string{"Name", "Desired", "Min", "Max", "Running", "Healthy", "Status"}

	var rows [][]Cell
	for _, asg := range groups {
		rows = append(rows, []Cell{
			{Text: asg.Name, Style: NameStyle},
			{Text: fmt.Sprintf("%d", asg.DesiredCapacity), Style: ValueStyle},
			{Text: fmt.Sprintf("%d", asg.MinSize), Style: MutedStyle},
			{Text: fmt.Sprintf("%d", asg.MaxSize), Style: MutedStyle},
			{Text: fmt.Sprintf("%d", asg.InstanceCount), Style: ValueStyle},
			{Text: fmt.Sprintf("%d/%d", asg.HealthyCount, asg.InstanceCount), Style: healthStyle(asg.HealthyCount, asg.InstanceCount)},
			{Text: asg.Status, Style: statusStyle(asg.Status)},
		})
	}

	fmt.Print(RenderTable(headers, rows))
	fmt.Printf("  %d Auto Scaling Groups\n", len(groups))
}

// PrintASGDetails prints detailed information about a native ASG
func PrintASGDetails(asg *pkgtypes.AutoScalingGroup) {
	details := [][2]string{
		{"Name:", asg.Name},
		{"Launch Template:", formatOptional(asg.LaunchTemplate)},
		{"Desired/Min/Max:", fmt.Sprintf("%d / %d / %d", asg.DesiredCapacity, asg.MinSize, asg.MaxSize)},
		{"Running:", fmt.Sprintf("%d instances", asg.InstanceCount)},
		{"Healthy:", fmt.Sprintf("%d / %d", asg.HealthyCount, asg.InstanceCount)},
		{"Status:", asg.Status},
		{"Availability Zones:", strings.Join(asg.AZs, ", ")},
		{"Created:", asg.CreatedTime.Format("2006-01-02 15:04:05")},
	}
	fmt.Print(RenderDetails("Auto Scaling Group Details", details))

	if len(asg.Instances) > 0 {
		fmt.Println()
		PrintInstanceTable(asg.Instances)
	}
}

// PrintInstanceTable prints instances in a styled box table
func PrintInstanceTable(instances []pkgtypes.Instance) {
	headers := []string{"ID", "Name", "Private IP", "State", "Type", "AZ", "Group"}

	var rows [][]Cell
	for _, inst := range instances {
		rows = append(rows, []Cell{
			{Text: inst.ID, Style: IDStyle},
			{Text: inst.Name, Style: NameStyle},
			{Text: inst.PrivateIP, Style: ValueStyle},
			{Text: formatInstanceState(inst.State), Style: statusStyle(titleState(inst.State))},
			{Text: inst.Type, Style: ValueStyle},
			{Text: inst.AZ, Style: ValueStyle},
			{Text: formatOptional(inst.Group), Style: GroupStyle},
		})
	}

	fmt.Print(RenderTable(headers, rows))

	counts := make(map[string]int)
	for _, inst := range instances {
		counts[inst.State]++
	}
	var parts []string
	for _, state := range []string{"running", "pending", "stopping", "stopped"} {
		if c := counts[state]; c > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c, state))
		}
	}
	summary := fmt.Sprintf("  %d instances", len(instances))
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}
	fmt.Println(summary)
}

func formatInstanceState(state string) string {
	var indicator string
	switch state {
	case "running":
		indicator = "●"
	case "pending", "stopping":
		indicator = "◐"
	default:
		indicator = "○"
	}
	return indicator + " " + state
}

// titleState maps EC2 state names onto the shared status palette
func titleState(state string) string {
	switch state {
	case "running":
		return "Active"
	case "pending", "stopping":
		return "Pending"
	default:
		return ""
	}
}

func healthStyle(healthy, total int) lipgloss.Style {
	if healthy == total && total > 0 {
		return HealthyStyle
	}
	if healthy == 0 && total > 0 {
		return InactiveStyle
	}
	return WorkingStyle
}
