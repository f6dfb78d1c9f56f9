package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietdv277/stratus/internal/aws"
	"github.com/vietdv277/stratus/internal/ui"
)

var ec2Cmd = &cobra.Command{
	Use:   "ec2",
	Short: "Inspect EC2 instances",
	Long:  `List the EC2 instances backing stacks and groups, with optional filters.`,
}

var ec2LsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List running EC2 instances",
	Long: `List all running EC2 instances with optional filters.

Examples:
  strat ec2 ls                  # List all running instances
  strat ec2 ls --name web       # Filter by name pattern
  strat ec2 ls --stack web      # Filter by owning stack
  strat ec2 ls --group WebServerGroup
  strat ec2 ls --all            # Include stopped instances`,
	RunE: runEC2List,
}

var (
	// ec2 ls flags
	ec2NamePattern string
	ec2StackName   string
	ec2GroupName   string
	ec2ShowAll     bool
)

func init() {
	rootCmd.AddCommand(ec2Cmd)

	ec2Cmd.AddCommand(ec2LsCmd)

	// Flags for ec2 ls
	ec2LsCmd.Flags().StringVar(&ec2NamePattern, "name", "", "Filter instances by name pattern")
	ec2LsCmd.Flags().StringVar(&ec2StackName, "stack", "", "Filter instances by owning stack")
	ec2LsCmd.Flags().StringVar(&ec2GroupName, "group", "", "Filter instances by group")
	ec2LsCmd.Flags().BoolVar(&ec2ShowAll, "all", false, "Show all instances including stopped ones")
}

func runEC2List(cmd *cobra.Command, args []string) error {
	client, err := newAWSClient()
	if err != nil {
		return err
	}

	input := &aws.ListInstanceInput{
		NamePattern: ec2NamePattern,
		StackName:   ec2StackName,
		GroupName:   ec2GroupName,
	}

	if ec2ShowAll {
		input.States = []string{"pending", "running", "stopping", "stopped"}
	}

	instances, err := client.ListInstances(input)
	if err != nil {
		return fmt.Errorf("failed to list EC2 instances: %w", err)
	}

	if len(instances) == 0 {
		fmt.Println("No EC2 instances found")
		return nil
	}

	ui.PrintInstanceTable(instances)
	return nil
}
