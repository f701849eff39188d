package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show application settings",
	Long: `Shows the settings read from the config file, with defaults applied.

Credentials shown here are the config file values only; N8N_API_URL,
N8N_BASE_URL and N8N_API_KEY from the environment or the rc file take
precedence at runtime.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config file",
	RunE:  runSettingsValidate,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	rt, closeRuntime, err := openRuntime(cmd.Context(), "", true)
	if err != nil {
		return err
	}
	defer closeRuntime()

	if rt.Settings == nil {
		return errors.New("settings service not configured")
	}

	settings, err := rt.Settings.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[N8N]")
	cmd.Printf("  API URL: %s\n", valueOrUnset(settings.N8N.APIURL))
	if settings.N8N.APIKey != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(settings.N8N.APIKey))
	} else {
		cmd.Printf("  API Key: (not set)\n")
	}
	cmd.Printf("  RC File: %s\n", valueOrUnset(settings.RCFile))
	cmd.Println()

	cmd.Println("[Sync]")
	cmd.Printf("  Poll Interval: %s\n", settings.Sync.PollInterval)
	cmd.Printf("  Debounce: %s\n", settings.Sync.Debounce)
	cmd.Printf("  Request Timeout: %s\n", settings.Sync.RequestTimeout)
	cmd.Printf("  Backup Before Pull: %t\n", settings.Sync.BackupBeforePull)
	cmd.Printf("  Backups Kept: %d\n", settings.Sync.BackupKeep)
	cmd.Println()

	cmd.Println("[History]")
	cmd.Printf("  Keep: %d passes per binding\n", settings.History.Keep)
	cmd.Println()

	cmd.Println("[Workflows]")
	if len(settings.Bindings) == 0 {
		cmd.Println("  (none)")
	}
	for _, b := range settings.Bindings {
		cmd.Printf("  %s: %s <-> %s\n", b.Name, b.WorkflowID, b.LocalPath)
	}

	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	rt, closeRuntime, err := openRuntime(cmd.Context(), "", true)
	if err != nil {
		return err
	}
	defer closeRuntime()

	if rt.Settings == nil {
		return errors.New("settings service not configured")
	}

	settings, err := rt.Settings.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if err := rt.Settings.Validate(settings); err != nil {
		return err
	}

	cmd.Printf("Settings OK: %d workflow binding(s)\n", len(settings.Bindings))
	return nil
}

func valueOrUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// maskAPIKey masks an API key for display, showing only first/last 4 chars.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
