package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/views/jobs"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/views/jobtext"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/views/settings"
)

// TickInterval is how often the app checks the registry for changes.
const TickInterval = 250 * time.Millisecond

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	jobsView     *jobs.View
	textView     *jobtext.View
	settingsView *settings.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// version is the registry version last rendered.
	version uint64
	synced  bool

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		keymap:       keymap.DefaultKeyMap(),
		jobsView:     jobs.NewView(s, ports.Jobs),
		textView:     jobtext.NewView(s, ports.Jobs),
		settingsView: settings.NewView(s, ports.Settings),
		currentView:  messages.ViewJobs,
	}, nil
}

// WithContext sets the context for the app and its service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.jobsView.SetContext(ctx)
	a.textView.SetContext(ctx)
	return a
}

// Init implements tea.Model.
// It loads existing jobs and starts the registry tick.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("docflow"),
		a.jobsView.Refresh(),
		a.checkJobs(),
		tick(),
	)
}

func tick() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return messages.Tick{Time: t}
	})
}

// checkJobs returns a command carrying the registry contents when its
// version moved since the last check, or nil.
func (a *App) checkJobs() tea.Cmd {
	v := a.ports.Jobs.Version()
	if a.synced && v == a.version {
		return nil
	}
	a.synced = true
	a.version = v
	list := a.ports.Jobs.List()
	return func() tea.Msg {
		return messages.JobsChanged{Jobs: list, Version: v}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case messages.Tick:
		return a, tea.Batch(a.checkJobs(), tick())

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.handleKey(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		if msg.View == messages.ViewSettings {
			return a, a.settingsView.Init()
		}
		return a, nil

	case messages.JobSelected:
		a.currentView = messages.ViewText
		return a, a.textView.SetJob(msg.Job)

	case messages.TextLoaded:
		a.textView, cmd = a.textView.Update(msg)
		return a, cmd

	case messages.SettingsLoaded:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err

	case messages.JobsRefreshed:
		if msg.Err != nil {
			a.err = msg.Err
		}

	case messages.Quit:
		return a, tea.Quit
	}

	// Job results reach the dashboard whichever view is showing.
	a.jobsView, cmd = a.jobsView.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch a.currentView {
	case messages.ViewJobs:
		a.jobsView, cmd = a.jobsView.Update(msg)
	case messages.ViewText:
		a.textView, cmd = a.textView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
		switch msg.String() {
		case "esc", "?", "q":
			a.currentView = messages.ViewJobs
		}
	}
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewText:
		return a.textView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewJobs:
	}
	return a.jobsView.View()
}

// viewHelp renders the keybinding reference.
func (a *App) viewHelp() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}
	b.WriteString("  ctrl+c     quit from anywhere\n\n")
	b.WriteString(a.styles.Help.Render("[esc] back"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.jobsView.SetDimensions(width, height)
	a.textView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
