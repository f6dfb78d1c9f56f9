package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietdv277/stratus/internal/config"
)

var useCmd = &cobra.Command{
	Use:   "use <context-name>",
	Short: "Set the active context",
	Long: `Set the active context for subsequent commands.

A context names the AWS profile and region to operate in and the
backend where stack state is kept.

Examples:
  strat use prod            # Switch to the prod context
  strat use dev             # Switch to the dev context`,
	Args: cobra.ExactArgs(1),
	RunE: runUse,
}

var useAddCmd = &cobra.Command{
	Use:   "add <context-name>",
	Short: "Add a new context",
	Long: `Add a new context configuration.

Examples:
  strat use add prod --profile prod-sso --region ap-southeast-1
  strat use add dev --profile dev-sso --region us-east-1 --state-backend ssm --ssm-prefix /strat/dev`,
	Args: cobra.ExactArgs(1),
	RunE: runUseAdd,
}

var useDeleteCmd = &cobra.Command{
	Use:   "delete <context-name>",
	Short: "Delete a context",
	Long: `Delete a context configuration.

Examples:
  strat use delete old-env`,
	Args:    cobra.ExactArgs(1),
	Aliases: []string{"rm", "remove"},
	RunE:    runUseDelete,
}

var (
	// Flags for use add
	useAddProfile   string
	useAddRegion    string
	useAddBackend   string
	useAddStateDir  string
	useAddSSMPrefix string
)

func init() {
	rootCmd.AddCommand(useCmd)
	useCmd.AddCommand(useAddCmd)
	useCmd.AddCommand(useDeleteCmd)

	// Flags for use add
	useAddCmd.Flags().StringVar(&useAddProfile, "profile", "", "AWS profile name")
	useAddCmd.Flags().StringVar(&useAddRegion, "region", "", "AWS region")
	useAddCmd.Flags().StringVar(&useAddBackend, "state-backend", "", "State backend: file or ssm")
	useAddCmd.Flags().StringVar(&useAddStateDir, "state-dir", "", "Directory for the file state backend")
	useAddCmd.Flags().StringVar(&useAddSSMPrefix, "ssm-prefix", "", "Parameter prefix for the ssm state backend")
}

func runUse(cmd *cobra.Command, args []string) error {
	contextName := args[0]

	// Try to set the context
	if err := config.SetCurrentContext(contextName); err != nil {
		// If context doesn't exist, show helpful message
		contexts, current, listErr := config.ListContexts()
		if listErr != nil {
			return err
		}

		fmt.Printf("Context %q not found.\n\n", contextName)

		if len(contexts) == 0 {
			fmt.Println("No contexts configured. Add one with:")
			fmt.Println("  strat use add prod --profile <profile> --region <region>")
		} else {
			fmt.Println("Available contexts:")
			for name := range contexts {
				marker := "  "
				if name == current {
					marker = "* "
				}
				fmt.Printf("  %s%s\n", marker, name)
			}
		}
		return nil
	}

	// Get the context details to show confirmation
	ctx, _, err := config.GetCurrentContext()
	if err != nil {
		return err
	}

	fmt.Printf("Switched to context: %s\n", contextName)
	if ctx.Profile != "" {
		fmt.Printf("  Profile:  %s\n", ctx.Profile)
	}
	if ctx.Region != "" {
		fmt.Printf("  Region:   %s\n", ctx.Region)
	}
	fmt.Printf("  State:    %s\n", formatBackend(ctx))

	return nil
}

func runUseAdd(cmd *cobra.Command, args []string) error {
	contextName := args[0]

	if useAddProfile == "" {
		return fmt.Errorf("--profile is required")
	}

	switch useAddBackend {
	case "", config.BackendFile, config.BackendSSM:
	default:
		return fmt.Errorf("unknown state backend: %s (supported: file, ssm)", useAddBackend)
	}

	ctx := &config.Context{
		Profile:      useAddProfile,
		Region:       useAddRegion,
		StateBackend: useAddBackend,
		StateDir:     useAddStateDir,
		SSMPrefix:    useAddSSMPrefix,
	}

	if err := config.AddContext(contextName, ctx); err != nil {
		return fmt.Errorf("failed to add context: %w", err)
	}

	fmt.Printf("Context added: %s\n", contextName)
	fmt.Println("\nTo use this context:")
	fmt.Printf("  strat use %s\n", contextName)

	return nil
}

func runUseDelete(cmd *cobra.Command, args []string) error {
	contextName := args[0]

	if err := config.DeleteContext(contextName); err != nil {
		return fmt.Errorf("failed to delete context: %w", err)
	}

	fmt.Printf("Context deleted: %s\n", contextName)
	return nil
}
