package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyServerBaseURL    = "server.base_url"
	keyServerCollection = "server.collection"
	keyServerTimeout    = "server.timeout_seconds"
	keyServerRateLimit  = "server.rate_limit"
	keyPollInterval     = "poll.interval_ms"
	keyPollIncrement    = "poll.increment"
	keyPollCeiling      = "poll.ceiling"
	keyPollMaxFailures  = "poll.max_failures"
	keyPollMaxBackoff   = "poll.max_backoff_ms"
	keyWatchDebounce    = "watch.debounce_ms"
)

// settingKeys lists the settable keys in display order.
var settingKeys = []string{
	keyServerBaseURL,
	keyServerCollection,
	keyServerTimeout,
	keyServerRateLimit,
	keyPollInterval,
	keyPollIncrement,
	keyPollCeiling,
	keyPollMaxFailures,
	keyPollMaxBackoff,
	keyWatchDebounce,
}

// SettingsService manages client settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current settings. Unset or invalid keys fall back to defaults.
func (s *SettingsService) Get() (*domain.ClientSettings, error) {
	defaults := domain.DefaultClientSettings()

	settings := &domain.ClientSettings{
		Server: domain.ServerSettings{
			BaseURL:    s.getString(keyServerBaseURL, defaults.Server.BaseURL),
			Collection: s.getCollection(defaults.Server.Collection),
			Timeout:    s.getDuration(keyServerTimeout, time.Second, defaults.Server.Timeout),
			RateLimit:  s.getFloat(keyServerRateLimit, defaults.Server.RateLimit),
		},
		Poll: domain.PollSettings{
			Interval:    s.getDuration(keyPollInterval, time.Millisecond, defaults.Poll.Interval),
			Increment:   s.getInt(keyPollIncrement, defaults.Poll.Increment),
			Ceiling:     s.getInt(keyPollCeiling, defaults.Poll.Ceiling),
			MaxFailures: s.getInt(keyPollMaxFailures, defaults.Poll.MaxFailures),
			MaxBackoff:  s.getDuration(keyPollMaxBackoff, time.Millisecond, defaults.Poll.MaxBackoff),
		},
		Watch: domain.WatchSettings{
			Debounce: s.getDuration(keyWatchDebounce, time.Millisecond, defaults.Watch.Debounce),
		},
	}

	return settings, nil
}

// Save validates and persists settings.
func (s *SettingsService) Save(settings *domain.ClientSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyServerBaseURL, settings.Server.BaseURL},
		{keyServerCollection, settings.Server.Collection.String()},
		{keyServerTimeout, int(settings.Server.Timeout / time.Second)},
		{keyServerRateLimit, settings.Server.RateLimit},
		{keyPollInterval, int(settings.Poll.Interval / time.Millisecond)},
		{keyPollIncrement, settings.Poll.Increment},
		{keyPollCeiling, settings.Poll.Ceiling},
		{keyPollMaxFailures, settings.Poll.MaxFailures},
		{keyPollMaxBackoff, int(settings.Poll.MaxBackoff / time.Millisecond)},
		{keyWatchDebounce, int(settings.Watch.Debounce / time.Millisecond)},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return s.configStore.Save()
}

// Set updates a single key from its string form and persists it.
func (s *SettingsService) Set(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	switch key {
	case keyServerBaseURL:
		settings.Server.BaseURL = value
	case keyServerCollection:
		settings.Server.Collection = domain.Collection(value)
	case keyServerTimeout:
		err = setDuration(&settings.Server.Timeout, value, time.Second)
	case keyServerRateLimit:
		settings.Server.RateLimit, err = strconv.ParseFloat(value, 64)
	case keyPollInterval:
		err = setDuration(&settings.Poll.Interval, value, time.Millisecond)
	case keyPollIncrement:
		settings.Poll.Increment, err = strconv.Atoi(value)
	case keyPollCeiling:
		settings.Poll.Ceiling, err = strconv.Atoi(value)
	case keyPollMaxFailures:
		settings.Poll.MaxFailures, err = strconv.Atoi(value)
	case keyPollMaxBackoff:
		err = setDuration(&settings.Poll.MaxBackoff, value, time.Millisecond)
	case keyWatchDebounce:
		err = setDuration(&settings.Watch.Debounce, value, time.Millisecond)
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}

	return s.Save(settings)
}

// Keys returns the settable keys in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingKeys))
	copy(keys, settingKeys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.ClientSettings {
	return domain.DefaultClientSettings()
}

// ConfigPath returns where settings are stored.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, unit, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * unit
}

func (s *SettingsService) getCollection(defaultVal domain.Collection) domain.Collection {
	collection := domain.Collection(s.configStore.GetString(keyServerCollection))
	if !collection.IsValid() {
		return defaultVal
	}
	return collection
}

func setDuration(dst *time.Duration, value string, unit time.Duration) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	*dst = time.Duration(n) * unit
	return nil
}
