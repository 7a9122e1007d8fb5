// Package setup provides the interactive first-run wizard that produces a
// MediaWatch configuration file.
package setup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/MediaWatch/internal/config"
)

// wizardStep enumerates the stages of the setup wizard.
type wizardStep int

const (
	stepBackend wizardStep = iota
	stepFields
	stepConfirm
)

// Key constants for bubbletea key handling.
const keyEnter = "enter"

// backends lists the selectable media servers in display order.
var backends = []string{"jellyfin", "plex"}

// field identifies one text entry in step 2.
type field struct {
	key      string
	label    string
	optional bool
}

var commonFields = []field{
	{key: "bot_token", label: "Telegram bot token"},
	{key: "channel_id", label: "Telegram channel ID"},
	{key: "admin_ids", label: "Admin user IDs (comma separated)", optional: true},
}

var jellyfinFields = append([]field{
	{key: "url", label: "Jellyfin server URL"},
	{key: "api_key", label: "Jellyfin API key", optional: true},
	{key: "username", label: "Jellyfin username", optional: true},
	{key: "password", label: "Jellyfin password", optional: true},
}, commonFields...)

var plexFields = append([]field{
	{key: "url", label: "Plex server URL"},
	{key: "token", label: "Plex token"},
}, commonFields...)

// Lipgloss styles used by the wizard.
var (
	wizTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("5"))

	wizSubtitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	wizSelected = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	wizUnselected = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	wizLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")).
			Bold(true)

	wizValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15"))

	wizHelp = lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))

	wizHighlight = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	wizCursor = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
)

// WizardModel is the Bubble Tea model for the interactive setup wizard.
// It walks the user through backend selection and connection details and
// assembles a config.Config on confirmation.
type WizardModel struct {
	// State
	step    wizardStep
	cursor  int // backend cursor in step 1
	backend string

	// Step 2 text entry
	textinput  textinput.Model
	fields     []field
	fieldIndex int
	values     map[string]string
	errMsg     string

	// Result
	config  *config.Config
	done    bool
	aborted bool

	// UI dimensions
	width  int
	height int
}

// NewWizardModel creates a WizardModel with sensible defaults.
func NewWizardModel() WizardModel {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 256

	return WizardModel{
		step:      stepBackend,
		textinput: ti,
		values:    map[string]string{},
	}
}

// Init returns the initial command (text input blink).
func (m WizardModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming Bubble Tea messages.
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textinput.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.step == stepFields {
		var cmd tea.Cmd
		m.textinput, cmd = m.textinput.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKey dispatches key events based on the current wizard step.
func (m WizardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global: ctrl+c always quits.
	if key == "ctrl+c" {
		m.aborted = true
		return m, tea.Quit
	}

	switch m.step {
	case stepBackend:
		return m.updateBackend(key)
	case stepFields:
		return m.updateFields(msg)
	case stepConfirm:
		return m.updateConfirm(key)
	}

	return m, nil
}

// ---------- Step 1: Backend Selection ----------

func (m WizardModel) updateBackend(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		m.aborted = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(backends)-1 {
			m.cursor++
		}

	case keyEnter:
		m.backend = backends[m.cursor]
		if m.backend == "plex" {
			m.fields = plexFields
		} else {
			m.fields = jellyfinFields
		}
		m.step = stepFields
		m.fieldIndex = 0
		m.textinput.SetValue(m.values[m.fields[0].key])
		m.textinput.CursorEnd()
	}

	return m, nil
}

// ---------- Step 2: Connection Details ----------

func (m WizardModel) updateFields(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case keyEnter:
		f := m.fields[m.fieldIndex]
		value := strings.TrimSpace(m.textinput.Value())
		if value == "" && !f.optional {
			m.errMsg = f.label + " is required"
			return m, nil
		}
		m.values[f.key] = value
		m.errMsg = ""

		if m.fieldIndex < len(m.fields)-1 {
			m.fieldIndex++
			m.textinput.SetValue(m.values[m.fields[m.fieldIndex].key])
			m.textinput.CursorEnd()
			return m, nil
		}

		cfg, err := m.buildConfig()
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.config = cfg
		m.step = stepConfirm
		return m, nil

	case "tab", "shift+tab":
		m.values[m.fields[m.fieldIndex].key] = strings.TrimSpace(m.textinput.Value())
		n := len(m.fields)
		if key == "tab" {
			m.fieldIndex = (m.fieldIndex + 1) % n
		} else {
			m.fieldIndex = (m.fieldIndex + n - 1) % n
		}
		m.textinput.SetValue(m.values[m.fields[m.fieldIndex].key])
		m.textinput.CursorEnd()
		return m, nil

	case "esc":
		// Back to backend selection.
		m.values[m.fields[m.fieldIndex].key] = strings.TrimSpace(m.textinput.Value())
		m.step = stepBackend
		m.errMsg = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.textinput, cmd = m.textinput.Update(msg)
	return m, cmd
}

// ---------- Step 3: Confirmation ----------

func (m WizardModel) updateConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		m.aborted = true
		return m, tea.Quit
	case "b":
		m.step = stepFields
		m.fieldIndex = 0
		m.textinput.SetValue(m.values[m.fields[0].key])
		m.textinput.CursorEnd()
		return m, nil
	case keyEnter:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

// ---------- Config builder ----------

// buildConfig assembles the configuration from wizard answers. The result
// still passes through config.Validate on save, which fills the remaining
// defaults.
func (m *WizardModel) buildConfig() (*config.Config, error) {
	channelID, err := strconv.ParseInt(m.values["channel_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("channel ID must be a number")
	}

	var adminIDs []int64
	for _, part := range strings.Split(m.values["admin_ids"], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("admin ID %q must be a number", part)
		}
		adminIDs = append(adminIDs, id)
	}

	cfg := &config.Config{
		Backend: m.backend,
		Telegram: config.TelegramConfig{
			BotToken:  m.values["bot_token"],
			ChannelID: channelID,
			AdminIDs:  adminIDs,
		},
		Dashboard: config.DashboardConfig{
			ShowAll: true,
		},
	}

	switch m.backend {
	case "plex":
		cfg.Plex = &config.PlexConfig{
			URL:   m.values["url"],
			Token: m.values["token"],
		}
	default:
		if m.values["api_key"] == "" && m.values["username"] == "" {
			return nil, fmt.Errorf("jellyfin needs an API key or a username and password")
		}
		cfg.Jellyfin = &config.JellyfinConfig{
			URL:      m.values["url"],
			APIKey:   m.values["api_key"],
			Username: m.values["username"],
			Password: m.values["password"],
		}
	}

	return cfg, nil
}

// ---------- View ----------

// View renders the wizard UI for the current step.
func (m WizardModel) View() string {
	var b strings.Builder

	b.WriteString(wizTitle.Render("MediaWatch Setup"))
	b.WriteString("\n\n")

	switch m.step {
	case stepBackend:
		m.viewBackend(&b)
	case stepFields:
		m.viewFields(&b)
	case stepConfirm:
		m.viewConfirm(&b)
	}

	return b.String()
}

func (m WizardModel) viewBackend(b *strings.Builder) {
	b.WriteString(wizSubtitle.Render("Step 1/3: Select Media Server"))
	b.WriteString("\n\n")

	for i, backend := range backends {
		if i == m.cursor {
			b.WriteString(wizCursor.Render("> "))
			b.WriteString(wizSelected.Render("(*) " + backend))
		} else {
			b.WriteString("  ")
			b.WriteString(wizUnselected.Render("( ) " + backend))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(wizHelp.Render("  Enter: next, q: quit"))
}

func (m WizardModel) viewFields(b *strings.Builder) {
	b.WriteString(wizSubtitle.Render(fmt.Sprintf("Step 2/3: Connection Details (%s)", m.backend)))
	b.WriteString("\n\n")

	maxLen := 0
	for _, f := range m.fields {
		if len(f.label) > maxLen {
			maxLen = len(f.label)
		}
	}

	for i, f := range m.fields {
		padding := strings.Repeat(" ", maxLen-len(f.label))
		if i == m.fieldIndex {
			b.WriteString(wizLabel.Render(fmt.Sprintf("%s:%s ", f.label, padding)))
			b.WriteString(m.textinput.View())
		} else {
			b.WriteString(wizHelp.Render(fmt.Sprintf("%s:%s ", f.label, padding)))
			b.WriteString(wizValue.Render(m.values[f.key]))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString(wizHighlight.Render("  ⚠ " + m.errMsg))
		b.WriteString("\n")
	}
	b.WriteString(wizHelp.Render("  Enter: confirm, Tab: next field, Esc: back, Ctrl+C: quit"))
}

func (m WizardModel) viewConfirm(b *strings.Builder) {
	b.WriteString(wizSubtitle.Render("Step 3/3: Confirm"))
	b.WriteString("\n\n")

	b.WriteString(wizLabel.Render("Backend:    "))
	b.WriteString(wizValue.Render(m.backend))
	b.WriteString("\n")

	b.WriteString(wizLabel.Render("Server URL: "))
	b.WriteString(wizValue.Render(m.values["url"]))
	b.WriteString("\n")

	b.WriteString(wizLabel.Render("Channel ID: "))
	b.WriteString(wizValue.Render(m.values["channel_id"]))
	b.WriteString("\n")

	b.WriteString(wizLabel.Render("Admins:     "))
	b.WriteString(wizValue.Render(m.values["admin_ids"]))
	b.WriteString("\n")

	b.WriteString("\n")
	b.WriteString(wizHelp.Render("  Enter: write config, b: go back, q: quit"))
}

// ---------- Public accessors ----------

// Done reports whether the wizard completed successfully.
func (m WizardModel) Done() bool { return m.done }

// Aborted reports whether the user quit the wizard.
func (m WizardModel) Aborted() bool { return m.aborted }

// Config returns the configuration assembled by the wizard. The returned
// value is only meaningful when Done() returns true.
func (m WizardModel) Config() *config.Config { return m.config }
