package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/hades-rgb/timesheets/internal/models"
	"github.com/hades-rgb/timesheets/internal/timesheet"
)

// Snapshot is what the status screen shows
type Snapshot struct {
	Employee string
	Project  string
	Session  *models.SessionRecord
	Tasks    []models.DraftTask
}

// Loader reads the current snapshot
type Loader func(ctx context.Context) (Snapshot, error)

// Trigger runs an action and returns its outcome
type Trigger func(ctx context.Context, action timesheet.Action) (timesheet.Status, string)

// StatusModel shows the selected employee's session and triggers actions
type StatusModel struct {
	width  int
	height int

	load    Loader
	trigger Trigger
	now     func() time.Time
	loc     *time.Location
	keys    keyMap
	help    help.Model

	snap    Snapshot
	loadErr error
	loaded  bool

	// busy is set while an action is in flight; further action keys are ignored
	busy        bool
	lastStatus  timesheet.Status
	lastMessage string
	quitting    bool
}

type tickMsg struct{}

type snapshotMsg struct {
	snap Snapshot
	err  error
}

type outcomeMsg struct {
	status  timesheet.Status
	message string
}

// NewStatusModel creates the status screen
func NewStatusModel(load Loader, trigger Trigger, loc *time.Location) StatusModel {
	if loc == nil {
		loc = time.Local
	}
	return StatusModel{
		load:    load,
		trigger: trigger,
		now:     time.Now,
		loc:     loc,
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
}

// WithClock replaces time.Now, for tests
func (m StatusModel) WithClock(now func() time.Time) StatusModel {
	m.now = now
	return m
}

// LastOutcome returns the line of the last action run from the screen
func (m StatusModel) LastOutcome() string {
	if m.lastMessage == "" {
		return ""
	}
	return fmt.Sprintf("%s: %s", m.lastStatus, m.lastMessage)
}

// Init loads the first snapshot and starts the clock
func (m StatusModel) Init() tea.Cmd {
	return tea.Batch(m.refresh(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m StatusModel) refresh() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		snap, err := load(context.Background())
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m StatusModel) run(action timesheet.Action) (StatusModel, tea.Cmd) {
	m.busy = true
	trigger := m.trigger
	return m, func() tea.Msg {
		status, message := trigger(context.Background(), action)
		return outcomeMsg{status: status, message: message}
	}
}

// Update handles messages
func (m StatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.quitting {
			return m, nil
		}
		return m, tick()

	case snapshotMsg:
		m.loaded = true
		m.snap = msg.snap
		m.loadErr = msg.err
		return m, nil

	case outcomeMsg:
		m.busy = false
		m.lastStatus = msg.status
		m.lastMessage = msg.message
		return m, m.refresh()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case m.busy:
			return m, nil
		case key.Matches(msg, m.keys.ClockIn):
			return m.run(timesheet.ActionClockIn)
		case key.Matches(msg, m.keys.ClockOut):
			return m.run(timesheet.ActionClockOut)
		case key.Matches(msg, m.keys.Save):
			return m.run(timesheet.ActionSaveSession)
		case key.Matches(msg, m.keys.Refresh):
			return m, m.refresh()
		}
	}

	return m, nil
}

// sessionState describes the session, the colour to draw it in and the
// duration for the big clock
func (m StatusModel) sessionState() (string, string, time.Duration) {
	rec := m.snap.Session
	now := m.now()
	switch {
	case rec.IsOpen():
		return fmt.Sprintf("Clocked in %s (%s)",
				humanize.RelTime(*rec.ClockInAt, now, "ago", "from now"),
				timesheet.FormatDisplay(*rec.ClockInAt, m.loc)),
			ColorSuccess, now.Sub(*rec.ClockInAt)
	case rec.IsClosed():
		return fmt.Sprintf("Clocked out at %s, not saved yet",
				timesheet.FormatDisplay(*rec.ClockOutAt, m.loc)),
			ColorWarning, rec.ClockOutAt.Sub(*rec.ClockInAt)
	default:
		return "Not clocked in", ColorDisabledText, 0
	}
}

// View renders the status screen
func (m StatusModel) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || !m.loaded {
		return "Loading..."
	}

	center := lipgloss.NewStyle().Width(m.width).Align(lipgloss.Center)
	var parts []string

	parts = append(parts, center.Inherit(lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentMain)).Bold(true)).Render("T I M E S H E E T S"))

	if m.loadErr != nil {
		parts = append(parts, center.Foreground(lipgloss.Color(ColorError)).
			Render("Could not read status: "+m.loadErr.Error()))
	} else if m.snap.Employee == "" {
		parts = append(parts, center.Foreground(lipgloss.Color(ColorWarning)).
			Render("No employee selected. Use 'timesheets select <name>'."))
	} else {
		parts = append(parts, m.renderEmployee(center))

		state, color, elapsed := m.sessionState()
		parts = append(parts, center.Render(renderBigClock(elapsed, color)))
		parts = append(parts, center.Foreground(lipgloss.Color(color)).Italic(true).Render(state))

		if tasks := m.renderTasks(); tasks != "" {
			parts = append(parts, center.Render(tasks))
		}
	}

	if line := m.renderOutcome(); line != "" {
		parts = append(parts, center.Render(line))
	}

	content := strings.Join(parts, "\n\n")
	helpBar := center.Foreground(lipgloss.Color(ColorHelpText)).Render(m.help.View(m.keys))

	if m.height > 0 {
		content = lipgloss.NewStyle().
			Width(m.width).
			Height(max(m.height-2, 0)).
			Align(lipgloss.Center, lipgloss.Center).
			Render(content)
	}
	return lipgloss.JoinVertical(lipgloss.Left, content, helpBar)
}

func (m StatusModel) renderEmployee(center lipgloss.Style) string {
	name := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText)).Bold(true).Render(m.snap.Employee)
	project := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDisabledText)).Render("no project")
	if m.snap.Project != "" {
		project = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright)).Render(m.snap.Project)
	}
	return center.Render(name + "  ·  " + project)
}

func (m StatusModel) renderTasks() string {
	if len(m.snap.Tasks) == 0 {
		return ""
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Padding(0, 1)
	notes := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))

	var lines []string
	for _, t := range m.snap.Tasks {
		line := "• " + t.Description
		if t.Notes != "" {
			line += notes.Render("  " + t.Notes)
		}
		lines = append(lines, line)
	}
	return box.Render(strings.Join(lines, "\n"))
}

func (m StatusModel) renderOutcome() string {
	if m.busy {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).Render("Working...")
	}
	if m.lastMessage == "" {
		return ""
	}
	color := ColorError
	switch m.lastStatus {
	case timesheet.StatusSuccess:
		color = ColorSuccess
	case timesheet.StatusFailed, timesheet.StatusInfo:
		color = ColorWarning
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(m.LastOutcome())
}
