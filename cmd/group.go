package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietdv277/stratus/internal/ui"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Inspect a stack's autoscaling groups",
	Long:  `List and describe the autoscaling groups a stack manages, as recorded in the state backend.`,
}

var groupLsCmd = &cobra.Command{
	Use:   "ls <stack>",
	Short: "List a stack's groups",
	Long: `List the autoscaling groups of a stack with capacity, membership,
and update-policy information.

Examples:
  strat group ls web`,
	Args: cobra.ExactArgs(1),
	RunE: runGroupList,
}

var groupDescribeCmd = &cobra.Command{
	Use:   "describe <stack> [group]",
	Short: "Describe a group",
	Long: `Show a group's record including every member.

If no group name is provided, an interactive selector will be shown.

Examples:
  strat group describe web WebServerGroup
  strat group describe web`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGroupDescribe,
}

func init() {
	rootCmd.AddCommand(groupCmd)

	groupCmd.AddCommand(groupLsCmd)
	groupCmd.AddCommand(groupDescribeCmd)
}

func runGroupList(cmd *cobra.Command, args []string) error {
	stackName := args[0]

	ctx := context.Background()
	_, store, err := newStackService(ctx)
	if err != nil {
		return err
	}

	groups, err := store.ListGroups(ctx, stackName)
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}

	if len(groups) == 0 {
		fmt.Printf("Stack %s has no groups\n", stackName)
		return nil
	}

	ui.PrintGroupTable(groups)
	return nil
}

func runGroupDescribe(cmd *cobra.Command, args []string) error {
	stackName := args[0]

	ctx := context.Background()
	_, store, err := newStackService(ctx)
	if err != nil {
		return err
	}

	if len(args) > 1 {
		group, err := store.LoadGroup(ctx, stackName, args[1])
		if err != nil {
			return fmt.Errorf("failed to load group: %w", err)
		}
		ui.PrintGroupDetails(group)
		return nil
	}

	// Interactive selection
	groups, err := store.ListGroups(ctx, stackName)
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}
	if len(groups) == 0 {
		fmt.Printf("Stack %s has no groups\n", stackName)
		return nil
	}

	selected, err := ui.SelectGroup(groups)
	if err != nil {
		return err
	}
	ui.PrintGroupDetails(selected)
	return nil
}
