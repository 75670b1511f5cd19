package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupServices_UsesFactory(t *testing.T) {
	origJobs, origSettings, origFactory := jobService, settingsService, factory
	defer func() {
		jobService, settingsService, factory = origJobs, origSettings, origFactory
	}()
	jobService, settingsService = nil, nil

	jobs := &mockJobService{}
	settings := newMockSettingsService()
	released := false
	var got Options

	SetFactory(func(opts Options) (*Services, func(), error) {
		got = opts
		return &Services{Jobs: jobs, Settings: settings}, func() { released = true }, nil
	})

	out, err := runCommand("--server", "http://example.test", "--collection", "candidates", "--config-dir", "/tmp/cfg", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No jobs found.")
	assert.Equal(t, "http://example.test", got.Server)
	assert.Equal(t, "candidates", got.Collection)
	assert.Equal(t, "/tmp/cfg", got.ConfigDir)
	assert.Same(t, jobs, jobService)
	assert.True(t, released)
}

func TestSetupServices_FactoryError(t *testing.T) {
	origJobs, origFactory := jobService, factory
	defer func() { jobService, factory = origJobs, origFactory }()
	jobService = nil

	SetFactory(func(Options) (*Services, func(), error) {
		return nil, nil, errors.New("bad config")
	})

	_, err := runCommand("list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad config")
}

func TestSetupServices_FactoryReturnsNothing(t *testing.T) {
	origJobs, origFactory := jobService, factory
	defer func() { jobService, factory = origJobs, origFactory }()
	jobService = nil

	SetFactory(func(Options) (*Services, func(), error) { return nil, nil, nil })

	_, err := runCommand("list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "service factory returned nothing")
}

func TestTUICmd_NotATerminal(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	orig := isTerminal
	isTerminal = func() bool { return false }
	defer func() { isTerminal = orig }()

	_, err := runCommand("tui")

	require.Error(t, err)
	assert.ErrorIs(t, err, errNotATerminal)
}

func TestTUICmd_NoService(t *testing.T) {
	orig := jobService
	jobService = nil
	defer func() { jobService = orig }()

	_, err := runCommand("tui")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "job service not configured")
}

func TestMCPCmd_NoService(t *testing.T) {
	orig := jobService
	jobService = nil
	defer func() { jobService = orig }()

	_, err := runCommand("mcp")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "job service not configured")
}

func TestWatchCmd_MissingDirectory(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	_, err := runCommand("watch", filepath.Join(t.TempDir(), "missing"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWatchCmd_NotADirectory(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "a.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o600))

	_, err := runCommand("watch", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")
}

func TestRootCmd_Help(t *testing.T) {
	out, err := runCommand("--help")

	require.NoError(t, err)
	assert.Contains(t, out, "submit")
	assert.Contains(t, out, "watch")
	assert.Contains(t, out, "--server")
}
