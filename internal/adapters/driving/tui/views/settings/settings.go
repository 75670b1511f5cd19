// Package settings provides the read-only settings view for the TUI.
package settings

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// View shows the active client settings.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	settings *domain.ClientSettings
	path     string
	err      error

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		settingsService: settingsService,
	}
}

// Init loads the settings.
func (v *View) Init() tea.Cmd {
	return v.Load()
}

// Load returns a command that reads the settings.
func (v *View) Load() tea.Cmd {
	svc := v.settingsService
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsLoaded{Err: errors.New("settings service not available")}
		}
		s, err := svc.Get()
		return messages.SettingsLoaded{Settings: s, Path: svc.ConfigPath(), Err: err}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.SettingsLoaded:
		v.settings = msg.Settings
		v.path = msg.Path
		v.err = msg.Err

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q", "s":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewJobs}
			}
		case "r":
			return v, v.Load()
		}
	}
	return v, nil
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n")
	case v.settings == nil:
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		b.WriteString("\n")
	default:
		v.renderSettings(&b)
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("Change settings with 'docflow settings set' or 'docflow settings wizard'."))
	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[r] reload  [esc] back"))
	return b.String()
}

func (v *View) renderSettings(b *strings.Builder) {
	s := v.settings

	v.section(b, "Server")
	v.row(b, "Base URL", s.Server.BaseURL)
	v.row(b, "Collection", s.Server.Collection.Description())
	v.row(b, "Timeout", s.Server.Timeout.String())
	if s.Server.RateLimit > 0 {
		v.row(b, "Rate limit", fmt.Sprintf("%g requests/s", s.Server.RateLimit))
	} else {
		v.row(b, "Rate limit", "unlimited")
	}

	v.section(b, "Polling")
	v.row(b, "Interval", s.Poll.Interval.String())
	v.row(b, "Progress", fmt.Sprintf("+%d per tick, up to %d%%", s.Poll.Increment, s.Poll.Ceiling))
	if s.Poll.MaxFailures > 0 {
		v.row(b, "Stall after", fmt.Sprintf("%d failed checks", s.Poll.MaxFailures))
	} else {
		v.row(b, "Stall after", "never")
	}
	v.row(b, "Max backoff", s.Poll.MaxBackoff.String())

	v.section(b, "Watch")
	v.row(b, "Debounce", s.Watch.Debounce.String())

	b.WriteString("\n")
	if v.path != "" {
		b.WriteString(v.styles.Muted.Render("Config file: " + v.path))
		b.WriteString("\n")
	}
	if err := s.Validate(); err != nil {
		b.WriteString(v.styles.Warning.Render("Warning: " + err.Error()))
		b.WriteString("\n")
	}
}

func (v *View) section(b *strings.Builder, name string) {
	b.WriteString(v.styles.Subtitle.Render(name))
	b.WriteString("\n")
}

func (v *View) row(b *strings.Builder, label, value string) {
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  %-12s ", label+":")))
	b.WriteString(v.styles.Normal.Render(value))
	b.WriteString("\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Settings returns the loaded settings.
func (v *View) Settings() *domain.ClientSettings {
	return v.settings
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
