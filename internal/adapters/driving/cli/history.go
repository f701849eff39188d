package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/flowsync/internal/core/domain"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [binding]",
	Short: "Show recorded sync passes",
	Long: `Lists recent sync passes, most recent first.
If a binding name is provided, only its passes are shown, followed by
aggregate counters for that binding.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of passes to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyLimit <= 0 {
		return fmt.Errorf("%w: --limit must be positive", domain.ErrInvalidInput)
	}

	binding := ""
	if len(args) > 0 {
		binding = args[0]
	}

	rt, closeRuntime, err := openRuntime(cmd.Context(), "", true)
	if err != nil {
		return err
	}
	defer closeRuntime()

	if rt.History == nil {
		return errors.New("history store not configured")
	}

	records, err := rt.History.List(cmd.Context(), binding, historyLimit)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}
	if len(records) == 0 {
		cmd.Println("No passes recorded.")
		return nil
	}

	printHistory(cmd.OutOrStdout(), records)

	if binding != "" {
		stats, err := rt.History.Stats(cmd.Context(), binding)
		if err != nil {
			return fmt.Errorf("history stats: %w", err)
		}
		cmd.Println()
		printStats(cmd.OutOrStdout(), binding, stats)
	}
	return nil
}
