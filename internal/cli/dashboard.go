package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/delegation-dashboard/internal/core"
	"github.com/valter-silva-au/delegation-dashboard/internal/observability"
	"github.com/valter-silva-au/delegation-dashboard/pkg/models"
)

// Dashboard panel indices.
const (
	panelTasks = iota
	panelHistory
	panelCount
)

type keyMap struct {
	Process key.Binding
	Retry   key.Binding
	Sample  key.Binding
	Search  key.Binding
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Clear   key.Binding
	Tab     key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Process, k.Retry, k.Sample, k.Search, k.Select, k.Clear, k.Tab, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Process, k.Retry, k.Sample},
		{k.Search, k.Up, k.Down, k.Select, k.Clear},
		{k.Tab, k.Quit},
	}
}

var dashboardKeys = keyMap{
	Process: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "process")),
	Retry:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
	Sample:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sample data")),
	Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Select:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "view run")),
	Clear:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "stop viewing run")),
	Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch panel")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type dashboardModel struct {
	dash     *core.Dashboard
	keywords []string
	channel  string

	ctx    context.Context
	cancel context.CancelFunc

	activePanel int
	width       int
	height      int

	running    bool
	searching  bool
	cursor     int
	taskOffset int
	notice     string

	search  textinput.Model
	spinner spinner.Model
	help    help.Model
}

// invocationDoneMsg carries the agent's answer back to the event loop.
type invocationDoneMsg struct {
	attempt core.Attempt
	raw     []byte
	err     error
}

// notifyDoneMsg reports the outcome of a run notification.
type notifyDoneMsg struct {
	err error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	sampleBadgeStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("232")).
				Background(lipgloss.Color("214")).
				Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(0, 1)

	statStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 2).
			MarginRight(1)

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	statValue     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	viewingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("141")).Italic(true)
	badgeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("238")).Padding(0, 1)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("141")).Bold(true)

	priorityUrgent = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	priorityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	priorityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	priorityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	statusSent    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusPending = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	statusFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel(ctx context.Context, d *core.Dashboard, keywords []string, channel string) dashboardModel {
	ctx, cancel := context.WithCancel(ctx)

	ti := textinput.New()
	ti.Placeholder = "search history"
	ti.Prompt = "/ "
	ti.CharLimit = 120

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))

	return dashboardModel{
		dash:        d,
		keywords:    keywords,
		channel:     channel,
		ctx:         ctx,
		cancel:      cancel,
		activePanel: panelTasks,
		search:      ti,
		spinner:     sp,
		help:        help.New(),
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return nil
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case invocationDoneMsg:
		m.running = false
		err := m.dash.CompleteProcess(msg.attempt, msg.raw, msg.err)
		if errors.Is(err, core.ErrStaleAttempt) {
			return m, nil
		}
		m.taskOffset = 0
		if err == nil && Notifier != nil {
			return m, notifyRunCmd(m.dash.View())
		}
		return m, nil

	case notifyDoneMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("Slack notification failed: %v", msg.err)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m dashboardModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyCtrlC:
		m.cancel()
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.dash.SetQuery(m.search.Value())
	m.cursor = 0
	return m, cmd
}

func (m dashboardModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""

	switch {
	case key.Matches(msg, dashboardKeys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, dashboardKeys.Process):
		return m.begin(m.dash.BeginProcess)

	case key.Matches(msg, dashboardKeys.Retry):
		return m.begin(m.dash.BeginRetry)

	case key.Matches(msg, dashboardKeys.Sample):
		m.dash.SetSampleMode(!m.dash.SampleMode())
		m.cursor = 0
		m.taskOffset = 0
		return m, nil

	case key.Matches(msg, dashboardKeys.Search):
		m.searching = true
		m.activePanel = panelHistory
		return m, m.search.Focus()

	case key.Matches(msg, dashboardKeys.Tab):
		m.activePanel = (m.activePanel + 1) % panelCount
		return m, nil

	case key.Matches(msg, dashboardKeys.Up):
		if m.activePanel == panelHistory {
			if m.cursor > 0 {
				m.cursor--
			}
		} else if m.taskOffset > 0 {
			m.taskOffset--
		}
		return m, nil

	case key.Matches(msg, dashboardKeys.Down):
		v := m.dash.View()
		if m.activePanel == panelHistory {
			if m.cursor < len(v.Filtered)-1 {
				m.cursor++
			}
		} else if m.taskOffset < len(v.Items)-1 {
			m.taskOffset++
		}
		return m, nil

	case key.Matches(msg, dashboardKeys.Select):
		v := m.dash.View()
		if m.cursor >= 0 && m.cursor < len(v.Filtered) {
			if err := m.dash.Select(v.Filtered[m.cursor].ID); err != nil {
				m.notice = err.Error()
			}
			m.taskOffset = 0
		}
		return m, nil

	case key.Matches(msg, dashboardKeys.Clear):
		m.dash.ClearSelection()
		m.taskOffset = 0
		return m, nil
	}

	return m, nil
}

// begin starts an invocation and schedules the agent call off the event
// loop. Ignored actions leave a notice instead.
func (m dashboardModel) begin(start func() (core.Attempt, error)) (tea.Model, tea.Cmd) {
	a, err := start()
	if err != nil {
		m.notice = ignoredNotice(err)
		return m, nil
	}
	m.running = true
	m.taskOffset = 0
	return m, tea.Batch(m.spinner.Tick, runAttemptCmd(m.ctx, m.dash, a))
}

func ignoredNotice(err error) string {
	switch {
	case errors.Is(err, core.ErrSampleModeActive):
		return "Sample mode is on. Press s to return to live data before processing."
	case errors.Is(err, core.ErrInvocationInFlight):
		return "Already processing."
	case errors.Is(err, core.ErrNoFailedInvocation):
		return "Nothing to retry."
	default:
		return err.Error()
	}
}

func runAttemptCmd(ctx context.Context, d *core.Dashboard, a core.Attempt) tea.Cmd {
	return func() tea.Msg {
		raw, err := d.RunAttempt(ctx, a)
		return invocationDoneMsg{attempt: a, raw: raw, err: err}
	}
}

func notifyRunCmd(v core.View) tea.Cmd {
	n := Notifier
	return func() tea.Msg {
		if v.Result == nil {
			return notifyDoneMsg{}
		}
		return notifyDoneMsg{err: n.NotifyRun(observability.RunSummary{
			Summary:           v.Result.Summary,
			TasksProcessed:    v.Stats.TasksProcessed,
			TeammatesNotified: v.Stats.TeammatesNotified,
			PendingItems:      v.Stats.PendingItems,
		})}
	}
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	v := m.dash.View()

	title := titleStyle.Render(" Task Delegation Dashboard ")
	if v.SampleMode {
		title = lipgloss.JoinHorizontal(lipgloss.Top, title, " ", sampleBadgeStyle.Render("SAMPLE DATA"))
	}

	sections := []string{title, ""}
	if status := m.renderStatus(v); status != "" {
		sections = append(sections, status)
	}
	if m.notice != "" {
		sections = append(sections, noticeStyle.Render(m.notice))
	}
	if v.Selected != nil {
		sections = append(sections, viewingStyle.Render("Viewing history from "+models.FormatTime(v.Selected.Timestamp)))
	}

	sections = append(sections, m.renderStats(v), m.renderProcessPanel(v))

	availableWidth := m.width - 2
	var body string
	if availableWidth > 100 {
		left := availableWidth * 3 / 5
		tasks := m.applyPanelStyle(panelTasks, m.renderTasksPanel(v), left-4)
		history := m.applyPanelStyle(panelHistory, m.renderHistoryPanel(v), availableWidth-left-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, tasks, history)
	} else {
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		tasks := m.applyPanelStyle(panelTasks, m.renderTasksPanel(v), panelWidth)
		history := m.applyPanelStyle(panelHistory, m.renderHistoryPanel(v), panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, tasks, history)
	}
	sections = append(sections, body, helpStyle.Render(m.help.View(dashboardKeys)))

	return strings.Join(sections, "\n")
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderStatus(v core.View) string {
	switch v.Phase {
	case core.PhaseRunning:
		return m.spinner.View() + " " + v.StatusMessage
	case core.PhaseSucceeded:
		return successStyle.Render("✓ " + v.StatusMessage)
	case core.PhaseFailed:
		return errorStyle.Render("✗ "+v.Error) + dimStyle.Render("  (r to retry)")
	default:
		return ""
	}
}

func (m dashboardModel) renderStats(v core.View) string {
	stat := func(label string, n int) string {
		return statStyle.Render(statValue.Render(fmt.Sprintf("%d", n)) + "\n" + dimStyle.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		stat("Tasks processed", v.Stats.TasksProcessed),
		stat("Teammates notified", v.Stats.TeammatesNotified),
		stat("Pending items", v.Stats.PendingItems),
	)
}

func (m dashboardModel) renderProcessPanel(v core.View) string {
	var b strings.Builder
	b.WriteString(dimStyle.Render("Agent "))
	b.WriteString(m.dash.AgentID())
	if len(m.keywords) > 0 {
		b.WriteString(dimStyle.Render("   Keywords "))
		badges := make([]string, len(m.keywords))
		for i, k := range m.keywords {
			badges[i] = badgeStyle.Render(k)
		}
		b.WriteString(strings.Join(badges, " "))
	}
	if m.channel != "" {
		b.WriteString(dimStyle.Render("   Channel "))
		b.WriteString("#" + strings.TrimPrefix(m.channel, "#"))
	}
	if !v.LastSync.IsZero() && len(v.Items) > 0 && v.Selected == nil {
		b.WriteString(dimStyle.Render("   Last sync "))
		b.WriteString(models.FormatTime(v.LastSync.Local()))
	}
	return b.String()
}

func (m dashboardModel) renderTasksPanel(v core.View) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Tasks (%d)", len(v.Items))))
	b.WriteString("\n")

	if v.Result != nil && v.Result.Summary != "" {
		b.WriteString(dimStyle.Render(v.Result.Summary))
		b.WriteString("\n")
	}

	if len(v.Items) == 0 {
		if v.Result == nil && !v.SampleMode {
			b.WriteString("\n  No tasks yet. Press p to process emails.")
		} else {
			b.WriteString("\n  No tasks found.")
		}
		return b.String()
	}

	start := m.taskOffset
	if start >= len(v.Items) {
		start = len(v.Items) - 1
	}
	for _, it := range v.Items[start:] {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("● %s  %s  %s\n",
			it.DisplayTitle(),
			styleForPriority(it.Priority).Render(strings.ToUpper(it.DisplayPriority())),
			styleForSlackStatus(it.SlackStatus).Render(it.DisplayStatus()),
		))
		if it.Description != "" {
			b.WriteString("  " + it.Description + "\n")
		}
		b.WriteString(dimStyle.Render(fmt.Sprintf("  → %s", it.DisplayAssignee())))
		if it.EmailSubject != "" || it.EmailFrom != "" {
			b.WriteString(dimStyle.Render(fmt.Sprintf(" · %s · %s", orNA(it.EmailFrom), orNA(it.EmailSubject))))
		}
		b.WriteString(dimStyle.Render(" · " + models.FormatTimestamp(it.Timestamp)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m dashboardModel) renderHistoryPanel(v core.View) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("History (%d)", len(v.History))))
	b.WriteString("\n")

	if m.searching || v.Query != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}

	if len(v.History) == 0 {
		b.WriteString("\n  No runs yet this session.")
		return b.String()
	}
	if len(v.Filtered) == 0 {
		b.WriteString(fmt.Sprintf("\n  No runs match %q.", v.Query))
		return b.String()
	}

	for i, r := range v.Filtered {
		prefix := "  "
		if i == m.cursor && m.activePanel == panelHistory {
			prefix = cursorStyle.Render("> ")
		}
		line := fmt.Sprintf("%s (%d tasks)", r.Summary, len(r.Tasks))
		if v.Selected != nil && v.Selected.ID == r.ID {
			line = selectedStyle.Render(line + " ◆")
		}
		b.WriteString("\n" + prefix + line + "\n")
		b.WriteString("  " + dimStyle.Render(fmt.Sprintf("%s · %d processed · %d notified",
			models.FormatTime(r.Timestamp.Local()), r.TasksProcessed, r.TeammatesNotified)) + "\n")
	}
	return b.String()
}

func styleForPriority(priority string) lipgloss.Style {
	switch models.PriorityRank(priority) {
	case 0:
		return priorityUrgent
	case 1:
		return priorityHigh
	case 2:
		return priorityMedium
	case 3:
		return priorityLow
	default:
		return dimStyle
	}
}

func styleForSlackStatus(status string) lipgloss.Style {
	switch strings.ToLower(status) {
	case models.SlackStatusSent:
		return statusSent
	case "failed", "error":
		return statusFailed
	case "":
		return dimStyle
	default:
		return statusPending
	}
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for running and reviewing delegations",
	Long: `Launch an interactive terminal dashboard. Press p to have the agent
process recent emails, r to retry after a failure and s to preview sample
data. Past runs of this session are listed in the history panel: search
with /, move with the arrow keys, view a run with enter and stop viewing a
past run with c.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Dash == nil {
			return fmt.Errorf("dashboard not initialized")
		}
		m := newDashboardModel(commandContext(cmd.Context()), Dash, Keywords, Channel)
		defer m.cancel()
		p := tea.NewProgram(m, tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
