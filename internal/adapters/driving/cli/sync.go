package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/flowsync/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/flowsync/internal/core/domain"
	"github.com/custodia-labs/flowsync/internal/core/ports/driving"
	"github.com/custodia-labs/flowsync/internal/logger"
)

var (
	syncStatus bool
	syncOnce   bool
)

var syncCmd = &cobra.Command{
	Use:   "sync [binding]",
	Short: "Synchronise workflows with local files",
	Long: `Keeps configured workflows in sync with their local JSON files.

Without flags, runs continuously: local file edits and a periodic poll of
the N8N server both trigger a pass, until interrupted.
If a binding name is provided, only that binding is synchronised.

  --status  show both snapshots and the decision without applying it
  --once    run a single pass per binding and exit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncStatus, "status", false, "show snapshots and decision without applying")
	syncCmd.Flags().BoolVar(&syncOnce, "once", false, "run one pass per binding and exit")
	syncCmd.MarkFlagsMutuallyExclusive("status", "once")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	binding := ""
	if len(args) > 0 {
		binding = args[0]
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, closeRuntime, err := openRuntime(ctx, binding, false)
	if err != nil {
		return err
	}
	defer closeRuntime()

	if rt.Engine == nil {
		return errors.New("sync service not configured")
	}
	if len(rt.Engine.Bindings()) == 0 {
		return fmt.Errorf("%w: no workflows bound; add one with 'flowsync workflows bind'", domain.ErrInvalidInput)
	}

	switch {
	case syncStatus:
		return runSyncStatus(ctx, cmd, rt.Engine)
	case syncOnce:
		return runSyncOnce(ctx, cmd, rt.Engine)
	default:
		return runSyncContinuous(ctx, cmd, rt)
	}
}

func runSyncStatus(ctx context.Context, cmd *cobra.Command, engine driving.SyncEngine) error {
	bindings := engine.Bindings()
	reports := make([]driving.PassReport, 0, len(bindings))
	for _, b := range bindings {
		report, err := engine.Plan(ctx, b.Name)
		if err != nil {
			return fmt.Errorf("plan %s: %w", b.Name, err)
		}
		reports = append(reports, *report)
	}

	printStatus(cmd.OutOrStdout(), reports)

	pending := 0
	for _, r := range reports {
		if r.Decision.Writes() {
			pending++
		}
	}
	if pending > 0 {
		cmd.Printf("%d of %d binding(s) would change on the next pass.\n", pending, len(reports))
	} else {
		cmd.Println("Nothing to apply.")
	}
	return nil
}

func runSyncOnce(ctx context.Context, cmd *cobra.Command, engine driving.SyncEngine) error {
	logger.Section("Sync Pass")
	reports, err := engine.RunAll(ctx, domain.TriggerManual)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	failed := 0
	for _, r := range reports {
		printPassResult(cmd.OutOrStdout(), r)
		if r.Outcome == domain.OutcomeFailed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d passes failed", failed, len(reports))
	}
	return nil
}

func runSyncContinuous(ctx context.Context, cmd *cobra.Command, rt *Runtime) error {
	if rt.Scheduler == nil {
		return errors.New("scheduler not configured")
	}

	var metricsServer *httpapi.Server
	if metricsAddr != "" {
		srv, err := httpapi.Listen(metricsAddr, httpapi.NewRouter(rt.Engine, rt.Metrics))
		if err != nil {
			return err
		}
		metricsServer = srv
	}

	names := make([]string, 0, len(rt.Engine.Bindings()))
	for _, b := range rt.Engine.Bindings() {
		names = append(names, b.Name)
	}
	cmd.Printf("Watching %d workflow(s): %v. Press Ctrl+C to stop.\n", len(names), names)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rt.Scheduler.Start(gctx)
	})
	if metricsServer != nil {
		g.Go(func() error {
			return metricsServer.Serve(gctx)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) || (err == nil && ctx.Err() != nil) {
		logger.Info("Stopped")
		return nil
	}
	return err
}
