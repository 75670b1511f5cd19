// Package cli implements the docflow command line.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docflow/internal/core/ports/driving"
	"github.com/custodia-labs/docflow/internal/logger"
)

// version is set at build time.
var version = "dev"

// Services used by commands. Set by the factory before a command runs, or
// directly by tests.
var (
	jobService      driving.JobService
	settingsService driving.SettingsService
)

// Global flag values.
var (
	flagVerbose    bool
	flagServer     string
	flagCollection string
	flagConfigDir  string
)

// Options carries the global flags to the service factory.
type Options struct {
	Verbose    bool
	Server     string
	Collection string
	ConfigDir  string
}

// Services is what the factory builds for the commands.
type Services struct {
	Jobs     driving.JobService
	Settings driving.SettingsService
}

// Factory builds services once flags are parsed. The returned func
// releases them after the command finishes.
type Factory func(opts Options) (*Services, func(), error)

var (
	factory  Factory
	teardown func()
)

var rootCmd = &cobra.Command{
	Use:   "docflow",
	Short: "Submit documents for parsing and track them",
	Long: `docflow uploads PDF and DOCX documents to a document processing service
and follows each job until it is parsed.

Files in a batch are uploaded one after another. Each job is then polled in
the background until the service reports it completed or failed.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupServices,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		releaseServices()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&flagServer, "server", "", "processing service base URL (overrides settings)")
	flags.StringVar(&flagCollection, "collection", "", "collection to use: jobs or candidates")
	flags.StringVar(&flagConfigDir, "config-dir", "", "config directory (default ~/.docflow)")
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

// SetFactory registers the function that builds services.
func SetFactory(f Factory) {
	factory = f
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer releaseServices()
	return rootCmd.ExecuteContext(ctx)
}

func setupServices(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(flagVerbose)

	if factory == nil || jobService != nil {
		return nil
	}

	services, release, err := factory(Options{
		Verbose:    flagVerbose,
		Server:     flagServer,
		Collection: flagCollection,
		ConfigDir:  flagConfigDir,
	})
	if err != nil {
		return err
	}
	if services == nil {
		return errors.New("service factory returned nothing")
	}

	jobService = services.Jobs
	settingsService = services.Settings
	teardown = release
	return nil
}

func releaseServices() {
	if teardown != nil {
		teardown()
		teardown = nil
	}
}
