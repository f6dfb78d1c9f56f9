package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietdv277/stratus/internal/ui"
)

var lbCmd = &cobra.Command{
	Use:   "lb",
	Short: "Inspect Load Balancers",
	Long:  `List and inspect load balancers (ALB/NLB), their target groups, and target health.`,
}

var lbLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all load balancers",
	Long: `List all load balancers (ALB/NLB) with their type, scheme, state, and DNS name.

Examples:
  strat lb ls              # List all load balancers
  strat lb ls -p prod      # List LBs using production profile`,
	RunE: runLBList,
}

var lbDescribeCmd = &cobra.Command{
	Use:   "describe <name>",
	Short: "Show detailed load balancer information",
	Long: `Show detailed information about a load balancer including its target groups.

Examples:
  strat lb describe my-alb`,
	Args: cobra.ExactArgs(1),
	RunE: runLBDescribe,
}

var lbTargetsCmd = &cobra.Command{
	Use:   "targets <name>",
	Short: "List targets behind a load balancer",
	Long: `List all registered targets behind a load balancer with their health status.

Examples:
  strat lb targets my-alb`,
	Args: cobra.ExactArgs(1),
	RunE: runLBTargets,
}

func init() {
	rootCmd.AddCommand(lbCmd)

	lbCmd.AddCommand(lbLsCmd)
	lbCmd.AddCommand(lbDescribeCmd)
	lbCmd.AddCommand(lbTargetsCmd)
}

func runLBList(cmd *cobra.Command, args []string) error {
	client, err := newAWSClient()
	if err != nil {
		return err
	}

	lbs, err := client.ListLoadBalancers()
	if err != nil {
		return fmt.Errorf("failed to list load balancers: %w", err)
	}

	if len(lbs) == 0 {
		fmt.Println("No load balancers found")
		return nil
	}

	ui.PrintLBTable(lbs)
	return nil
}

func runLBDescribe(cmd *cobra.Command, args []string) error {
	client, err := newAWSClient()
	if err != nil {
		return err
	}

	lb, err := client.DescribeLoadBalancer(args[0])
	if err != nil {
		return fmt.Errorf("failed to describe load balancer: %w", err)
	}

	tgs, err := client.ListTargetGroups(lb.ARN)
	if err != nil {
		return fmt.Errorf("failed to list target groups: %w", err)
	}

	ui.PrintLBDetails(lb, tgs)
	return nil
}

func runLBTargets(cmd *cobra.Command, args []string) error {
	client, err := newAWSClient()
	if err != nil {
		return err
	}

	lb, err := client.DescribeLoadBalancer(args[0])
	if err != nil {
		return fmt.Errorf("failed to describe load balancer: %w", err)
	}

	tgs, err := client.ListTargetGroups(lb.ARN)
	if err != nil {
		return fmt.Errorf("failed to list target groups: %w", err)
	}
	if len(tgs) == 0 {
		fmt.Println("No target groups attached")
		return nil
	}

	for _, tg := range tgs {
		targets, err := client.ListTargets(tg.ARN)
		if err != nil {
			return fmt.Errorf("failed to list targets for %s: %w", tg.Name, err)
		}

		fmt.Printf("\nTarget Group: %s (%s:%d)\n", ui.NameStyle.Render(tg.Name), tg.Protocol, tg.Port)
		if len(targets) == 0 {
			fmt.Println("  no registered targets")
			continue
		}
		ui.PrintTargetTable(targets)
	}
	return nil
}
