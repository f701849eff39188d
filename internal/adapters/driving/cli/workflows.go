package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/flowsync/internal/core/domain"
)

var workflowsCmd = &cobra.Command{
	Use:   "workflows",
	Short: "Manage workflow bindings",
	Long: `List workflows on the N8N server and bind them to local files.

A binding pairs one remote workflow ID with one local JSON file under a
short name used by the other commands.`,
}

var workflowsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workflows on the N8N server",
	Args:  cobra.NoArgs,
	RunE:  runWorkflowsList,
}

var workflowsBindCmd = &cobra.Command{
	Use:   "bind <name> <workflow-id> <path>",
	Short: "Bind a workflow to a local file",
	Long: `Adds or replaces a binding in the config file.

Example:
  flowsync workflows bind quark L6K4bzSKlGC36ABL ./quark-workflow.json`,
	Args: cobra.ExactArgs(3),
	RunE: runWorkflowsBind,
}

var pullForce bool

var workflowsPullCmd = &cobra.Command{
	Use:   "pull <binding>",
	Short: "Download a bound workflow to its local file",
	Long: `Writes the remote workflow to the binding's local file. Use this to
create the first local copy after binding; sync skips a binding while the
local file is missing.

An existing local file is only replaced with --force, after a backup when
sync.backup_before_pull is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkflowsPull,
}

func init() {
	workflowsPullCmd.Flags().BoolVar(&pullForce, "force", false, "replace an existing local file")

	workflowsCmd.AddCommand(workflowsListCmd)
	workflowsCmd.AddCommand(workflowsBindCmd)
	workflowsCmd.AddCommand(workflowsPullCmd)
	rootCmd.AddCommand(workflowsCmd)
}

func runWorkflowsList(cmd *cobra.Command, _ []string) error {
	rt, closeRuntime, err := openRuntime(cmd.Context(), "", false)
	if err != nil {
		return err
	}
	defer closeRuntime()

	if rt.Workflows == nil {
		return errors.New("workflow client not configured")
	}

	summaries, err := rt.Workflows.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list workflows: %w", err)
	}
	if len(summaries) == 0 {
		cmd.Println("No workflows found.")
		return nil
	}

	bound := make(map[string]string)
	if rt.Settings != nil {
		if settings, err := rt.Settings.Get(); err == nil {
			for _, b := range settings.Bindings {
				bound[b.WorkflowID] = b.Name
			}
		}
	}

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		binding := bound[s.ID]
		if binding == "" {
			binding = "-"
		}
		updated := "-"
		if !s.UpdatedAt.IsZero() {
			updated = s.UpdatedAt.Local().Format(timeLayout)
		}
		rows = append(rows, []string{s.ID, s.Name, strconv.FormatBool(s.Active), updated, binding})
	}
	printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "ACTIVE", "UPDATED", "BINDING"}, rows, nil)
	return nil
}

func runWorkflowsBind(cmd *cobra.Command, args []string) error {
	rt, closeRuntime, err := openRuntime(cmd.Context(), "", true)
	if err != nil {
		return err
	}
	defer closeRuntime()

	if rt.Settings == nil {
		return errors.New("settings service not configured")
	}

	path, err := filepath.Abs(args[2])
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	binding := domain.Binding{Name: args[0], WorkflowID: args[1], LocalPath: path}
	if err := rt.Settings.SaveBinding(binding); err != nil {
		return fmt.Errorf("save binding: %w", err)
	}

	cmd.Printf("Bound %s: workflow %s <-> %s\n", binding.Name, binding.WorkflowID, binding.LocalPath)
	return nil
}

func runWorkflowsPull(cmd *cobra.Command, args []string) error {
	rt, closeRuntime, err := openRuntime(cmd.Context(), args[0], false)
	if err != nil {
		return err
	}
	defer closeRuntime()

	if rt.Engine == nil {
		return errors.New("sync service not configured")
	}

	report, err := rt.Engine.Download(cmd.Context(), args[0], pullForce)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return fmt.Errorf("%w (use --force to replace it)", err)
		}
		return err
	}

	printPassResult(cmd.OutOrStdout(), *report)
	if report.Err != nil {
		return fmt.Errorf("pull %s failed", args[0])
	}
	cmd.Printf("Downloaded %s to %s\n", report.Binding.WorkflowID, report.Binding.LocalPath)
	return nil
}
