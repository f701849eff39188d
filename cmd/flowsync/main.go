// Command flowsync keeps N8N workflows in sync with local JSON files.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/custodia-labs/flowsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/flowsync/internal/adapters/driven/credentials/rcfile"
	"github.com/custodia-labs/flowsync/internal/adapters/driven/localfile"
	"github.com/custodia-labs/flowsync/internal/adapters/driven/metrics"
	"github.com/custodia-labs/flowsync/internal/adapters/driven/n8n"
	"github.com/custodia-labs/flowsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/flowsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/flowsync/internal/adapters/driving/cli"
	"github.com/custodia-labs/flowsync/internal/core/domain"
	"github.com/custodia-labs/flowsync/internal/core/ports/driven"
	"github.com/custodia-labs/flowsync/internal/core/services"
	"github.com/custodia-labs/flowsync/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetRuntimeFactory(newRuntime)

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newRuntime wires adapters into the core services for one command.
func newRuntime(ctx context.Context, opts cli.Options) (*cli.Runtime, error) {
	configStore, err := file.NewConfigStore(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	history, closeHistory, err := openHistory(opts.NoHistory)
	if err != nil {
		return nil, err
	}

	rt := &cli.Runtime{
		Settings: settingsService,
		History:  history,
		Close:    closeHistory,
	}
	if opts.Offline {
		return rt, nil
	}

	fail := func(err error) (*cli.Runtime, error) {
		_ = closeHistory()
		return nil, err
	}

	if err := settingsService.Validate(settings); err != nil {
		return fail(fmt.Errorf("invalid settings: %w", err))
	}

	creds, err := services.ResolveCredentials(ctx, nil, rcfile.NewSource(services.ExpandHome(settings.RCFile)), settings.N8N)
	if err != nil {
		return fail(err)
	}
	logger.Debug("n8n: %s (key %s)", creds.BaseURL, creds.MaskedKey())

	client, err := n8n.NewClient(n8n.Config{
		BaseURL: creds.BaseURL,
		APIKey:  creds.APIKey,
		Timeout: settings.Sync.RequestTimeout,
	})
	if err != nil {
		return fail(err)
	}
	rt.Workflows = client

	bindings := settings.Bindings
	if opts.Binding != "" {
		b, ok := settings.Binding(opts.Binding)
		if !ok {
			return fail(fmt.Errorf("%w: %s", domain.ErrUnknownBinding, opts.Binding))
		}
		bindings = []domain.Binding{b}
	}

	var recorder driven.MetricsRecorder = metrics.Noop{}
	var metricsHandler http.Handler
	if opts.MetricsAddr != "" {
		prom := metrics.NewRecorder()
		recorder = prom
		metricsHandler = prom.Handler()
	}

	engine := services.NewSyncEngine(
		services.SyncEngineConfig{
			Bindings:         bindings,
			BackupBeforePull: settings.Sync.BackupBeforePull,
			HistoryKeep:      settings.History.Keep,
		},
		localfile.NewStore(localfile.WithBackupKeep(settings.Sync.BackupKeep)),
		client,
		history,
		recorder,
	)

	rt.Engine = engine
	rt.Scheduler = services.NewScheduler(settings.SchedulerConfig(), engine, localfile.NewWatcher())
	rt.Metrics = metricsHandler
	return rt, nil
}

// openHistory opens the SQLite history store, or an in-memory one when
// history persistence is disabled.
func openHistory(inMemory bool) (driven.HistoryStore, func() error, error) {
	if inMemory {
		return memory.NewHistoryStore(), func() error { return nil }, nil
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}
	return store.HistoryStore(), store.Close, nil
}
