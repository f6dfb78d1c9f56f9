package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vietdv277/stratus/internal/config"
)

var (
	// Global flags
	profile string
	region  string
)

var rootCmd = &cobra.Command{
	Use:   "strat",
	Short: "Stratus - declarative stack orchestration for autoscaling groups",
	Long: `Stratus manages stacks of autoscaling groups declared in templates.
A stack is created from a template; later template changes roll through
the groups in batches according to each group's update policy, keeping
instances in service and the load balancer membership current.

Stack Commands:
  strat stack create web -f web.yaml    # Bring a stack up
  strat stack plan web -f web-v2.yaml   # Preview the rolling update
  strat stack update web -f web-v2.yaml # Roll the change out
  strat stack describe web              # Show stack and group state

Group Commands:
  strat group ls web                    # List a stack's groups
  strat group describe web              # Inspect a group interactively

Context Commands:
  strat use prod                        # Switch to the prod context
  strat contexts                        # List configured contexts
  strat status                          # Show context and auth status`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "AWS profile to use")
	rootCmd.PersistentFlags().StringVarP(&region, "region", "r", "", "AWS region to use")

	// Bind flags to viper
	_ = viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	_ = viper.BindPFlag("region", rootCmd.PersistentFlags().Lookup("region"))
}

func initConfig() {
	// Read from environment variables
	viper.SetEnvPrefix("STRAT")
	viper.AutomaticEnv()

	// Priority: --profile flag > current context > AWS_PROFILE env
	ctx, _, _ := config.GetCurrentContext()

	if profile == "" {
		if ctx != nil && ctx.Profile != "" {
			profile = ctx.Profile
		} else {
			profile = os.Getenv("AWS_PROFILE")
		}
	}

	if region == "" {
		if ctx != nil && ctx.Region != "" {
			region = ctx.Region
		} else {
			region = os.Getenv("AWS_REGION")
			if region == "" {
				region = os.Getenv("AWS_DEFAULT_REGION")
			}
		}
	}
}

// GetProfile returns the AWS profile
func GetProfile() string {
	return profile
}

// GetRegion returns the AWS region
func GetRegion() string {
	return region
}
