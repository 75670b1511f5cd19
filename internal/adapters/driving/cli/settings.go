package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docflow/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage client settings",
	Long: `View and change where docflow sends documents and how it polls for results.

Settings are stored in config.toml inside the config directory.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a single setting",
	Long: `Change a single setting by key, for example:

  docflow settings set server.base_url http://parser.internal:8000
  docflow settings set server.collection candidates
  docflow settings set poll.interval_ms 2000

Run 'docflow settings keys' to list the keys.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the processing service step by step.`,
	RunE:  runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Base URL: %s\n", settings.Server.BaseURL)
	cmd.Printf("  Collection: %s\n", settings.Server.Collection.Description())
	cmd.Printf("  Timeout: %s\n", settings.Server.Timeout)
	if settings.Server.RateLimit > 0 {
		cmd.Printf("  Rate limit: %g requests/s\n", settings.Server.RateLimit)
	} else {
		cmd.Println("  Rate limit: unlimited")
	}
	cmd.Println()

	cmd.Println("[Polling]")
	cmd.Printf("  Interval: %s\n", settings.Poll.Interval)
	cmd.Printf("  Progress: +%d per tick, up to %d%%\n", settings.Poll.Increment, settings.Poll.Ceiling)
	if settings.Poll.MaxFailures > 0 {
		cmd.Printf("  Stall after: %d failed checks\n", settings.Poll.MaxFailures)
	} else {
		cmd.Println("  Stall after: never")
	}
	cmd.Printf("  Max backoff: %s\n", settings.Poll.MaxBackoff)
	cmd.Println()

	cmd.Println("[Watch]")
	cmd.Printf("  Debounce: %s\n", settings.Watch.Debounce)
	cmd.Println()

	cmd.Printf("Config file: %s\n", settingsService.ConfigPath())
	if err := settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'docflow settings wizard' to fix configuration issues.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("docflow Settings Wizard")
	cmd.Println("=======================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	// Step 1: Server
	cmd.Println("Step 1: Processing Service")
	cmd.Println("--------------------------")
	cmd.Printf("Enter base URL [%s]: ", settings.Server.BaseURL)
	if input := readLine(reader); input != "" {
		settings.Server.BaseURL = strings.TrimRight(input, "/")
	}
	cmd.Println()

	// Step 2: Collection
	cmd.Println("Step 2: Select Collection")
	cmd.Println("-------------------------")
	collections := domain.AllCollections()
	current := 1
	for i, c := range collections {
		cmd.Printf("  %d. %s\n", i+1, c.Description())
		if c == settings.Server.Collection {
			current = i + 1
		}
	}
	cmd.Printf("\nEnter choice [%d]: ", current)
	idx := parseChoice(readLine(reader), len(collections), current)
	settings.Server.Collection = collections[idx-1]
	cmd.Println()

	// Step 3: Polling
	cmd.Println("Step 3: Polling")
	cmd.Println("---------------")
	intervalMS := int(settings.Poll.Interval.Milliseconds())
	cmd.Printf("Poll interval in milliseconds [%d]: ", intervalMS)
	intervalMS = parsePositive(readLine(reader), intervalMS)
	settings.Poll.Interval = time.Duration(intervalMS) * time.Millisecond
	cmd.Println()

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	cmd.Printf("Saved to %s\n", settingsService.ConfigPath())
	return nil
}

// Helper functions.

func readLine(reader *bufio.Reader) string {
	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func parsePositive(input string, defaultVal int) int {
	val, err := strconv.Atoi(input)
	if err != nil || val <= 0 {
		return defaultVal
	}
	return val
}

