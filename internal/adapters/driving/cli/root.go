// Package cli provides the flowsync command-line interface.
package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/flowsync/internal/core/ports/driven"
	"github.com/custodia-labs/flowsync/internal/core/ports/driving"
	"github.com/custodia-labs/flowsync/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Global flags.
var (
	configPath  string
	verbose     bool
	metricsAddr string
	noHistory   bool
)

// Options are the global flags handed to the runtime factory.
type Options struct {
	// ConfigPath overrides the default config file location.
	ConfigPath string

	// MetricsAddr enables the Prometheus recorder when non-empty.
	MetricsAddr string

	// NoHistory keeps pass history in memory only.
	NoHistory bool

	// Binding restricts the engine to one binding. Empty means all.
	Binding string

	// Offline skips credential resolution and the N8N client. Engine,
	// Scheduler and Workflows are nil in an offline runtime.
	Offline bool
}

// Runtime holds the services a command runs against.
type Runtime struct {
	Settings  driving.SettingsService
	Engine    driving.SyncEngine
	Scheduler driving.Scheduler
	Workflows driven.RemoteWorkflowStore
	History   driven.HistoryStore

	// Metrics serves /metrics; nil when metrics are disabled.
	Metrics http.Handler

	// Close releases stores opened for the runtime.
	Close func() error
}

// RuntimeFactory builds a Runtime from the global options.
type RuntimeFactory func(ctx context.Context, opts Options) (*Runtime, error)

var newRuntime RuntimeFactory

// SetRuntimeFactory installs the dependency wiring used by all commands.
func SetRuntimeFactory(f RuntimeFactory) {
	newRuntime = f
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "flowsync",
	Short: "Keep N8N workflows in sync with local JSON files",
	Long: `flowsync keeps each configured N8N workflow in sync with a JSON file on
disk. Local edits are pushed, remote edits are pulled, and a change on both
sides at the same instant is reported as a conflict and left alone.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.flowsync/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics and /healthz on this address (e.g. :9464)")
	rootCmd.PersistentFlags().BoolVar(&noHistory, "no-history", false, "keep pass history in memory only")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// openRuntime builds a runtime for a command. The caller must call the
// returned close function.
func openRuntime(ctx context.Context, binding string, offline bool) (*Runtime, func(), error) {
	if newRuntime == nil {
		return nil, nil, errors.New("runtime not configured")
	}

	rt, err := newRuntime(ctx, Options{
		ConfigPath:  configPath,
		MetricsAddr: metricsAddr,
		NoHistory:   noHistory,
		Binding:     binding,
		Offline:     offline,
	})
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {
		if rt.Close == nil {
			return
		}
		if err := rt.Close(); err != nil {
			logger.Warn("close: %v", err)
		}
	}
	return rt, closeFn, nil
}
