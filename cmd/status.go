package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietdv277/stratus/internal/aws"
	"github.com/vietdv277/stratus/internal/config"
	"github.com/vietdv277/stratus/internal/state"
	"github.com/vietdv277/stratus/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current context and authentication status",
	Long: `Display the current active context and verify authentication status
against the configured AWS account.

Examples:
  strat status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, ctxName, err := config.GetCurrentContext()
	if err != nil {
		return fmt.Errorf("failed to get current context: %w", err)
	}

	fmt.Println("Current Status")
	fmt.Println(ui.MutedStyle.Render("─────────────────────────────────"))
	fmt.Println()

	if ctx == nil {
		fmt.Println("Context:  " + ui.MutedStyle.Render("(not set)"))
		fmt.Println()
		fmt.Println("No context configured. Set one with:")
		fmt.Println("  strat use add prod --profile <profile> --region <region>")
		fmt.Println("  strat use prod")
		return nil
	}

	fmt.Printf("Context:  %s\n", ui.HeaderStyle.Render(ctxName))
	fmt.Printf("Profile:  %s\n", ui.GroupStyle.Render(ctx.Profile))
	if ctx.Region != "" {
		fmt.Printf("Region:   %s\n", ctx.Region)
	}
	fmt.Printf("State:    %s\n", formatBackend(ctx))
	fmt.Println()

	// Try to get caller identity
	fmt.Print("Auth:     ")
	identity, err := aws.GetCallerIdentity(ctx.Profile, ctx.Region)
	if err != nil {
		fmt.Println(ui.FailedStyle.Render("✗ Not authenticated"))
		fmt.Printf("          %s\n", ui.MutedStyle.Render(err.Error()))
		fmt.Println()
		fmt.Println("To authenticate:")
		fmt.Printf("  aws sso login --profile %s\n", ctx.Profile)
	} else {
		fmt.Println(ui.HealthyStyle.Render("✓ Authenticated"))
		fmt.Printf("Account:  %s\n", identity.Account)
		fmt.Printf("User:     %s\n", identity.UserID)
		if identity.Arn != "" {
			fmt.Printf("ARN:      %s\n", ui.MutedStyle.Render(identity.Arn))
		}
	}

	return nil
}

func formatBackend(ctx *config.Context) string {
	switch ctx.StateBackend {
	case config.BackendSSM:
		prefix := ctx.SSMPrefix
		if prefix == "" {
			prefix = state.DefaultSSMPrefix
		}
		return fmt.Sprintf("ssm (%s)", prefix)
	default:
		dir := ctx.StateDir
		if dir == "" {
			dir = config.DefaultStateDir()
		}
		return fmt.Sprintf("file (%s)", dir)
	}
}
