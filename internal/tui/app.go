// Package tui provides the interactive terminal UI for the panchanga daemon.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gokulnk/panchanga/internal/models"
	"github.com/gokulnk/panchanga/internal/moonphase"
)

var (
	// Colors
	primaryColor = lipgloss.Color("#F59E0B")
	accentColor  = lipgloss.Color("#6366F1")
	successColor = lipgloss.Color("#10B981")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(12)

	valueStyle = lipgloss.NewStyle().
			Foreground(fgColor).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	daemonOnlineStyle = lipgloss.NewStyle().
				Foreground(successColor).
				Bold(true)

	daemonOfflineStyle = lipgloss.NewStyle().
				Foreground(errorColor)
)

// pollInterval is how often the TUI refetches while the daemon is loading.
const pollInterval = 250 * time.Millisecond

// App is the main TUI application model.
type App struct {
	client       *Client
	state        StateView
	prefs        models.ReminderPreferences
	reminders    []ReminderItem
	spin         spinner.Model
	width        int
	height       int
	mode         string // "day", "reminders"
	message      string
	daemonOnline bool
	polling      bool
}

// New creates a new TUI application.
func New(apiAddr string) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accentColor)

	return &App{
		client: NewClient(apiAddr),
		spin:   sp,
		mode:   "day",
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.spin.Tick,
		a.fetchState(),
		a.checkDaemon(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return a, tea.Quit

		case "esc":
			if a.mode == "reminders" {
				a.mode = "day"
				return a, a.fetchState()
			}

		case "left", "h":
			if a.mode == "day" {
				return a, a.shiftDate(-1)
			}

		case "right", "l":
			if a.mode == "day" {
				return a, a.shiftDate(1)
			}

		case "t":
			if a.mode == "day" {
				return a, a.selectDate(models.DayOf(time.Now()).String())
			}

		case "r":
			if a.mode == "day" {
				return a, tea.Batch(a.fetchState(), a.checkDaemon())
			}
			return a, a.fetchReminders()

		case "n":
			a.mode = "reminders"
			return a, tea.Batch(a.fetchPrefs(), a.fetchReminders())

		case "1", "2", "3":
			if a.mode == "reminders" {
				return a, a.togglePref(msg.String())
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case stateLoadedMsg:
		a.state = msg.state
		a.daemonOnline = true
		// Keep refetching until the daemon settles.
		if a.state.Status == models.SyncLoading && !a.polling {
			a.polling = true
			return a, a.pollCmd()
		}

	case prefsLoadedMsg:
		a.prefs = msg.prefs

	case remindersLoadedMsg:
		a.reminders = msg.items

	case daemonStatusMsg:
		a.daemonOnline = msg.online

	case pollMsg:
		a.polling = false
		return a, a.fetchState()

	case commandResultMsg:
		a.message = msg.message
		if a.mode == "reminders" {
			return a, tea.Batch(a.fetchPrefs(), a.fetchReminders())
		}
		return a, a.fetchState()

	case errMsg:
		a.message = "Error: " + msg.err.Error()
		a.daemonOnline = false

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd
	}

	return a, nil
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	daemonStatus := daemonOnlineStyle.Render("● DAEMON")
	if !a.daemonOnline {
		daemonStatus = daemonOfflineStyle.Render("○ DAEMON")
	}

	header := titleStyle.Render("☸ PANCHANGA")
	header += "  " + daemonStatus
	if a.state.Date != "" {
		header += "  " + lipgloss.NewStyle().Foreground(accentColor).Render(a.state.Date)
	}
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", max(a.width, 20)) + "\n")

	switch a.mode {
	case "day":
		b.WriteString(a.renderDay())
	case "reminders":
		b.WriteString(a.renderReminders())
	}

	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	}
	b.WriteString("\n")

	var status string
	switch a.mode {
	case "day":
		status = " ←→:day | t:today | r:refresh | n:reminders | q:quit"
	case "reminders":
		status = " 1:amavasya 2:ekadashi 3:purnima | r:refresh | Esc:back | q:quit"
	}
	b.WriteString(statusBarStyle.Width(max(a.width, 20)).Render(status))

	return b.String()
}

func (a *App) renderDay() string {
	switch a.state.Status {
	case models.SyncLoading:
		return fmt.Sprintf("\n  %s Computing panchanga...\n", a.spin.View())
	case models.SyncFailed:
		if a.state.Err != nil {
			return fmt.Sprintf("\n  %s\n\n  %s\n",
				daemonOfflineStyle.Render("✗ "+a.state.Err.Kind),
				a.state.Err.Message)
		}
		return "\n  ✗ failed\n"
	case models.SyncLoaded:
		if a.state.Panchanga != nil {
			return a.renderCard(*a.state.Panchanga)
		}
	}
	return "\n  Waiting for the daemon...\n"
}

func (a *App) renderCard(p models.Panchanga) string {
	glyph := moonphase.Glyph(moonphase.PhaseIndex(p.Tithi))

	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}

	masa := p.Masa.Name
	if p.Masa.IsAdhika {
		masa = "Adhika " + masa
	}

	lines := []string{
		fmt.Sprintf("%s  %s %s", glyph, p.Tithi.Paksha, p.Tithi.Name),
		"",
		row("Tithi", fmt.Sprintf("%s (%s – %s)", p.Tithi.Name,
			models.FormatTime(p.Tithi.StartTime), models.FormatTime(p.Tithi.EndTime))),
		row("Nakshatra", fmt.Sprintf("%s (%s – %s)", p.Nakshatra.Name,
			models.FormatTime(p.Nakshatra.StartTime), models.FormatTime(p.Nakshatra.EndTime))),
		row("Yoga", p.Yoga.Name),
		row("Karana", p.Karana.Name),
		row("Masa", masa),
		row("Samvatsara", p.Samvatsara.Name),
		row("Ayana", p.Ayana),
		row("Rutu", p.Rutu.Name),
		row("Solar Masa", p.SolarMasa.Name),
		"",
		row("Sunrise", models.FormatTime(p.Sunrise)),
		row("Sunset", models.FormatTime(p.Sunset)),
	}

	return "\n" + cardStyle.Render(strings.Join(lines, "\n")) + "\n"
}

func (a *App) renderReminders() string {
	var b strings.Builder

	b.WriteString("\n  🔔 Reminders\n")
	b.WriteString("  " + strings.Repeat("─", 40) + "\n\n")

	check := func(on bool) string {
		if on {
			return daemonOnlineStyle.Render("[x]")
		}
		return lipgloss.NewStyle().Foreground(mutedColor).Render("[ ]")
	}
	b.WriteString(fmt.Sprintf("  %s Amavasya\n", check(a.prefs.Amavasya)))
	b.WriteString(fmt.Sprintf("  %s Ekadashi\n", check(a.prefs.Ekadashi)))
	b.WriteString(fmt.Sprintf("  %s Purnima\n", check(a.prefs.Purnima)))
	b.WriteString(fmt.Sprintf("\n  Reminder time: %02d:%02d\n", a.prefs.Hour, a.prefs.Minute))

	if len(a.reminders) > 0 {
		b.WriteString("\n  Scheduled:\n")
		for _, item := range a.reminders {
			when := item.TriggerAt
			if t, err := time.Parse(time.RFC3339, item.TriggerAt); err == nil {
				when = t.Format("Mon Jan 2, 3:04 PM")
			}
			b.WriteString(fmt.Sprintf("    • %s — %s\n", item.Title, when))
		}
	} else {
		b.WriteString("\n  " + helpStyle.Render("Nothing scheduled.") + "\n")
	}

	return b.String()
}

func (a *App) fetchState() tea.Cmd {
	return func() tea.Msg {
		state, err := a.client.State()
		if err != nil {
			return errMsg{err}
		}
		return stateLoadedMsg{state}
	}
}

func (a *App) fetchPrefs() tea.Cmd {
	return func() tea.Msg {
		prefs, err := a.client.Preferences()
		if err != nil {
			return errMsg{err}
		}
		return prefsLoadedMsg{prefs}
	}
}

func (a *App) fetchReminders() tea.Cmd {
	return func() tea.Msg {
		items, err := a.client.Reminders()
		if err != nil {
			return errMsg{err}
		}
		return remindersLoadedMsg{items}
	}
}

func (a *App) selectDate(date string) tea.Cmd {
	return func() tea.Msg {
		if err := a.client.SelectDate(date); err != nil {
			return errMsg{err}
		}
		return commandResultMsg{message: ""}
	}
}

// shiftDate moves the selected day relative to what the daemon last reported.
func (a *App) shiftDate(days int) tea.Cmd {
	day, err := models.ParseDay(a.state.Date)
	if err != nil {
		day = models.DayOf(time.Now())
	}
	return a.selectDate(day.AddDays(days).String())
}

func (a *App) togglePref(key string) tea.Cmd {
	prefs := a.prefs
	switch key {
	case "1":
		prefs.Amavasya = !prefs.Amavasya
	case "2":
		prefs.Ekadashi = !prefs.Ekadashi
	case "3":
		prefs.Purnima = !prefs.Purnima
	}
	return func() tea.Msg {
		if err := a.client.UpdatePreferences(prefs); err != nil {
			return errMsg{err}
		}
		return commandResultMsg{message: "✓ Preferences updated"}
	}
}

func (a *App) checkDaemon() tea.Cmd {
	return func() tea.Msg {
		ok, err := a.client.CheckHealth()
		return daemonStatusMsg{online: ok && err == nil}
	}
}

func (a *App) pollCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return pollMsg{}
	})
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

type stateLoadedMsg struct {
	state StateView
}

type prefsLoadedMsg struct {
	prefs models.ReminderPreferences
}

type remindersLoadedMsg struct {
	items []ReminderItem
}

type daemonStatusMsg struct {
	online bool
}

type commandResultMsg struct {
	message string
}

type errMsg struct {
	err error
}

type pollMsg struct{}
