// Command docflow submits documents to a processing service and tracks them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/custodia-labs/docflow/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docflow/internal/adapters/driven/processing/httpapi"
	"github.com/custodia-labs/docflow/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docflow/internal/adapters/driving/cli"
	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
	"github.com/custodia-labs/docflow/internal/core/services"
	"github.com/custodia-labs/docflow/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	cli.SetFactory(buildServices)

	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// buildServices wires adapters to the core services.
func buildServices(opts cli.Options) (*cli.Services, func(), error) {
	var store driven.ConfigStore
	fileStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		logger.Warn("config: %v; using defaults for this session", err)
		store = memory.NewConfigStore()
	} else {
		store = fileStore
	}

	settingsService := services.NewSettingsService(store)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if opts.Server != "" {
		settings.Server.BaseURL = strings.TrimRight(opts.Server, "/")
	}
	if opts.Collection != "" {
		settings.Server.Collection = domain.Collection(opts.Collection)
	}
	if err := settings.Validate(); err != nil {
		return nil, nil, err
	}

	logger.Debug("server %s, collection %s", settings.Server.BaseURL, settings.Server.Collection)

	client := httpapi.NewClient(httpapi.ConfigFromSettings(settings.Server))
	registry := memory.NewJobRegistry()
	supervisor := services.NewPollSupervisor(registry, client, settings.Poll)
	jobService := services.NewJobService(registry, client, supervisor)

	return &cli.Services{
		Jobs:     jobService,
		Settings: settingsService,
	}, jobService.Close, nil
}
