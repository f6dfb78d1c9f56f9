package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vietdv277/stratus/internal/config"
	"github.com/vietdv277/stratus/internal/ui"
)

var contextsCmd = &cobra.Command{
	Use:     "contexts",
	Aliases: []string{"ctx"},
	Short:   "List all configured contexts",
	Long: `List all configured contexts.

The current active context is marked with an asterisk (*).

Examples:
  strat contexts
  strat ctx`,
	RunE: runContexts,
}

func init() {
	rootCmd.AddCommand(contextsCmd)
}

func runContexts(cmd *cobra.Command, args []string) error {
	contexts, current, err := config.ListContexts()
	if err != nil {
		return fmt.Errorf("failed to list contexts: %w", err)
	}

	if len(contexts) == 0 {
		fmt.Println("No contexts configured.")
		fmt.Println()
		fmt.Println("Add a context with:")
		fmt.Println("  strat use add prod --profile <profile> --region <region>")
		return nil
	}

	// Sort context names
	names := make([]string, 0, len(contexts))
	for name := range contexts {
		names = append(names, name)
	}
	sort.Strings(names)

	// Print header
	fmt.Println()
	fmt.Printf("  %-20s  %-20s  %-16s  %-20s\n",
		ui.HeaderStyle.Render("CONTEXT"),
		ui.HeaderStyle.Render("PROFILE"),
		ui.HeaderStyle.Render("REGION"),
		ui.HeaderStyle.Render("STATE"))
	fmt.Println(ui.MutedStyle.Render("  " + strings.Repeat("─", 80)))

	for _, name := range names {
		ctx := contexts[name]

		marker := "  "
		if name == current {
			marker = "* "
		}

		region := ctx.Region
		if region == "" {
			region = ui.MutedStyle.Render("-")
		}

		nameStr := name
		if name == current {
			nameStr = ui.HealthyStyle.Render(name)
		}

		fmt.Printf("%s%-20s  %-20s  %-16s  %-20s\n",
			marker,
			nameStr,
			ctx.Profile,
			region,
			formatBackend(ctx))
	}

	fmt.Println()
	fmt.Printf("  %d contexts configured", len(contexts))
	if current != "" {
		fmt.Printf(", current: %s", ui.HealthyStyle.Render(current))
	}
	fmt.Println()

	return nil
}
