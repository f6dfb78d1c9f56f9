package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietdv277/stratus/internal/aws"
	"github.com/vietdv277/stratus/internal/config"
	"github.com/vietdv277/stratus/internal/engine"
	"github.com/vietdv277/stratus/internal/stack"
	"github.com/vietdv277/stratus/internal/state"
	"github.com/vietdv277/stratus/internal/template"
	"github.com/vietdv277/stratus/internal/ui"
)

var stackCmd = &cobra.Command{
	Use:   "stack",
	Short: "Manage stacks",
	Long:  `Create, update, plan, and inspect stacks of autoscaling groups declared in templates.`,
}

var stackValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a template",
	Long: `Parse a template and check its structure, including each group's
update policy.

Examples:
  strat stack validate -f web.yaml`,
	RunE: runStackValidate,
}

var stackCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a stack from a template",
	Long: `Create a stack: every autoscaling group in the template is brought
up to capacity and registered with its load balancer.

Examples:
  strat stack create web -f web.yaml
  strat stack create web -f web.yaml --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runStackCreate,
}

var stackPlanCmd = &cobra.Command{
	Use:   "plan <name>",
	Short: "Preview a stack update",
	Long: `Show what updating the stack with a new template would do, without
changing anything. Infeasible updates are reported with the plan that
was rejected.

Examples:
  strat stack plan web -f web-v2.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runStackPlan,
}

var stackUpdateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Update a stack with a new template",
	Long: `Apply a new template to the stack. Changed groups roll through
batched member replacement according to their update policy; groups
whose definition did not change are left alone.

Examples:
  strat stack update web -f web-v2.yaml
  strat stack update web -f web-v2.yaml --timeout 2h`,
	Args: cobra.ExactArgs(1),
	RunE: runStackUpdate,
}

var stackDescribeCmd = &cobra.Command{
	Use:   "describe <name>",
	Short: "Describe a stack",
	Long: `Show a stack's status and the state of its groups.

Examples:
  strat stack describe web`,
	Args: cobra.ExactArgs(1),
	RunE: runStackDescribe,
}

var (
	// stack flags
	stackFile    string
	stackTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(stackCmd)

	stackCmd.AddCommand(stackValidateCmd)
	stackCmd.AddCommand(stackCreateCmd)
	stackCmd.AddCommand(stackPlanCmd)
	stackCmd.AddCommand(stackUpdateCmd)
	stackCmd.AddCommand(stackDescribeCmd)

	for _, c := range []*cobra.Command{stackValidateCmd, stackCreateCmd, stackPlanCmd, stackUpdateCmd} {
		c.Flags().StringVarP(&stackFile, "file", "f", "", "Template file")
		_ = c.MarkFlagRequired("file")
	}
	stackCreateCmd.Flags().DurationVar(&stackTimeout, "timeout", 0, "Operation timeout (default 1h)")
	stackUpdateCmd.Flags().DurationVar(&stackTimeout, "timeout", 0, "Operation timeout (default 1h)")
}

// newStackService wires a stack service against the current context's
// cloud client and state backend
func newStackService(ctx context.Context) (*stack.Service, state.Store, error) {
	client, err := aws.NewClient(ctx,
		aws.WithProfile(GetProfile()),
		aws.WithRegion(GetRegion()),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create AWS client: %w", err)
	}

	store, err := newStore(client)
	if err != nil {
		return nil, nil, err
	}

	return &stack.Service{
		Instances: client.Instances(),
		LB:        client.Targets(),
		Store:     store,
	}, store, nil
}

// newStore picks the state backend from the current context. Without a
// context the file backend under the default state directory is used.
func newStore(client *aws.Client) (state.Store, error) {
	cctx, _, err := config.GetCurrentContext()
	if err != nil {
		return nil, fmt.Errorf("failed to get current context: %w", err)
	}

	if cctx != nil && cctx.StateBackend == config.BackendSSM {
		return state.NewSSMStore(client.SSM, cctx.SSMPrefix), nil
	}

	dir := config.DefaultStateDir()
	if cctx != nil && cctx.StateDir != "" {
		dir = cctx.StateDir
	}
	return state.NewFileStore(dir), nil
}

func parseTemplateFile(path string) (*template.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	tpl, err := template.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid template %s: %w", path, err)
	}
	return tpl, nil
}

// loadCurrentStack rebuilds a stack from its record and the template it
// was last successfully brought to
func loadCurrentStack(ctx context.Context, store state.Store, name string) (*stack.Stack, error) {
	rec, err := store.LoadStack(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load stack %q: %w", name, err)
	}
	raw, err := store.LoadTemplate(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load stack %q template: %w", name, err)
	}
	tpl, err := template.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("stored template for stack %q is invalid: %w", name, err)
	}

	timeout := rec.Timeout
	if stackTimeout > 0 {
		timeout = stackTimeout
	}
	st := stack.New(name, tpl, timeout)
	st.Status = rec.Status
	st.StatusReason = rec.StatusReason
	return st, nil
}

func runStackValidate(cmd *cobra.Command, args []string) error {
	tpl, err := parseTemplateFile(stackFile)
	if err != nil {
		return err
	}

	groups := tpl.ResourcesOfType(template.TypeAutoScalingGroup)
	sort.Strings(groups)
	fmt.Printf("Template OK: %d resources, %d autoscaling groups\n", len(tpl.Resources), len(groups))

	for _, logical := range groups {
		res := tpl.Resources[logical]
		policy, err := engine.ParsePolicy(res.UpdatePolicy)
		if err != nil {
			return fmt.Errorf("group %q: %w", logical, err)
		}
		if policy == nil {
			fmt.Printf("  %s: no update policy\n", logical)
			continue
		}
		fmt.Printf("  %s: min in service %d, batch %d, pause %s\n",
			logical, policy.MinInstancesInService, policy.MaxBatchSize, engine.FormatDuration(policy.PauseTime))
	}
	return nil
}

func runStackCreate(cmd *cobra.Command, args []string) error {
	name := args[0]

	tpl, err := parseTemplateFile(stackFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	svc, store, err := newStackService(ctx)
	if err != nil {
		return err
	}

	st := stack.New(name, tpl, stackTimeout)
	fmt.Printf("Creating stack %s...\n", name)
	if err := svc.Create(ctx, st); err != nil {
		return fmt.Errorf("stack create failed: %w", err)
	}

	fmt.Printf("Stack %s created\n", name)
	groups, err := store.ListGroups(ctx, name)
	if err == nil && len(groups) > 0 {
		ui.PrintGroupTable(groups)
	}
	return nil
}

func runStackPlan(cmd *cobra.Command, args []string) error {
	name := args[0]

	updated, err := parseTemplateFile(stackFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	svc, store, err := newStackService(ctx)
	if err != nil {
		return err
	}

	st, err := loadCurrentStack(ctx, store, name)
	if err != nil {
		return err
	}

	plans, err := svc.Plan(ctx, st, updated)
	if err != nil {
		return err
	}

	for _, p := range plans {
		fmt.Printf("\nGroup %s:\n", ui.GroupStyle.Render(p.Group))
		switch {
		case p.Result != nil && p.Result.Plan != nil:
			ui.PrintBatchPlan(*p.Result.Plan)
		case p.Result != nil && p.Result.Classification.Kind == engine.PolicyOnly:
			fmt.Println("  update policy change only, no member churn")
		case p.Err == nil:
			fmt.Println("  no changes")
		}
		if p.Err != nil {
			fmt.Printf("  %s\n", ui.FailedStyle.Render(p.Err.Error()))
		}
	}
	return nil
}

func runStackUpdate(cmd *cobra.Command, args []string) error {
	name := args[0]

	updated, err := parseTemplateFile(stackFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	svc, store, err := newStackService(ctx)
	if err != nil {
		return err
	}

	st, err := loadCurrentStack(ctx, store, name)
	if err != nil {
		return err
	}

	fmt.Printf("Updating stack %s...\n", name)
	if err := svc.Update(ctx, st, updated); err != nil {
		return fmt.Errorf("stack update failed: %w", err)
	}

	fmt.Printf("Stack %s updated\n", name)
	groups, err := store.ListGroups(ctx, name)
	if err == nil && len(groups) > 0 {
		ui.PrintGroupTable(groups)
	}
	return nil
}

func runStackDescribe(cmd *cobra.Command, args []string) error {
	name := args[0]

	ctx := context.Background()
	_, store, err := newStackService(ctx)
	if err != nil {
		return err
	}

	rec, err := store.LoadStack(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load stack %q: %w", name, err)
	}
	ui.PrintStackDetails(rec)

	groups, err := store.ListGroups(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}
	if len(groups) > 0 {
		ui.PrintGroupTable(groups)
	}
	return nil
}
