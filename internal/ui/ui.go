package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/wlx/internal/shared"
	"github.com/desertthunder/wlx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ConfirmView ViewState = iota
	RunView
	ResultView
)

// maxLogLines bounds the scrolling log shown while a run is in progress.
const maxLogLines = 12

// RunFunc starts the prune run. It is called once, from its own goroutine.
type RunFunc func(ctx context.Context) (*tasks.PruneResult, error)

// Options describes the run shown on the confirmation screen.
type Options struct {
	PlaylistID string
	Count      int
	DryRun     bool
	// SkipConfirm starts the run as soon as the program starts.
	SkipConfirm bool
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	opts     Options
	run      RunFunc
	handle   *tasks.RunHandle
	progress <-chan tasks.ProgressUpdate
	done     chan runOutcome

	width    int
	height   int
	spinner  spinner.Model
	last     tasks.ProgressUpdate
	logLines []string
	stopping bool

	result  *tasks.PruneResult
	err     error
	deleted list.Model
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model. progress must be the channel the engine behind run reports to.
func NewModel(ctx context.Context, opts Options, handle *tasks.RunHandle, progress <-chan tasks.ProgressUpdate, run RunFunc) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title.UnsetMarginBottom()

	return &Model{
		ctx:      ctx,
		view:     ConfirmView,
		opts:     opts,
		run:      run,
		handle:   handle,
		progress: progress,
		spinner:  s,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Result returns the run result once the run has finished.
func (m *Model) Result() (*tasks.PruneResult, error) {
	return m.result, m.err
}

// Init starts the spinner, and the run itself when confirmation is skipped.
func (m *Model) Init() tea.Cmd {
	if m.opts.SkipConfirm {
		return m.startRun()
	}
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.view == ResultView {
			m.deleted.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case RunView:
			return m.handleRunKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != RunView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.applyProgress(msg.data.(tasks.ProgressUpdate))
			return m, m.waitForProgress()
		case MsgRunComplete:
			out := msg.data.(runOutcome)
			m.finish(out.result, out.err)
			return m, nil
		}
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ConfirmView:
		return m.renderConfirm()
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes, m.keys.start):
		return m, m.startRun()
	case key.Matches(msg, m.keys.no, m.keys.quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleRunKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.stop, m.keys.quit) && !m.stopping {
		m.stopping = true
		m.handle.Stop()
		m.appendLog("Stop requested. Finishing the current request...")
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.deleted, cmd = m.deleted.Update(msg)
	return m, cmd
}

func (m *Model) startRun() tea.Cmd {
	m.view = RunView
	m.done = make(chan runOutcome, 1)

	go func(done chan<- runOutcome) {
		result, err := m.run(m.ctx)
		done <- runOutcome{result: result, err: err}
	}(m.done)

	return tea.Batch(m.spinner.Tick, m.waitForProgress())
}

// waitForProgress blocks on the next update or on completion, whichever comes first.
func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progress, m.done
	return func() tea.Msg {
		select {
		case update := <-progress:
			return progressUpdateMsg(update)
		case out := <-done:
			return runCompleteMsg(out.result, out.err)
		}
	}
}

func (m *Model) applyProgress(update tasks.ProgressUpdate) {
	m.last = update
	if update.Message != "" {
		m.appendLog(update.Message)
	}
}

func (m *Model) appendLog(line string) {
	m.logLines = append(m.logLines, line)
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}
}

func (m *Model) finish(result *tasks.PruneResult, err error) {
	for drained := false; !drained; {
		select {
		case update := <-m.progress:
			m.applyProgress(update)
		default:
			drained = true
		}
	}

	m.result = result
	m.err = err
	m.view = ResultView

	var items []list.Item
	if result != nil {
		items = deletedItems(result.Deleted)
	}
	m.deleted = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.deleted.Title = "Removed entries"
	if m.opts.DryRun {
		m.deleted.Title = "Dry run: nothing removed"
	}
	m.deleted.SetShowStatusBar(len(items) > 0)
	m.deleted.SetSize(max(m.width-4, 20), max(m.height-8, 10))
}

func (m *Model) renderConfirm() string {
	verb := "Remove"
	if m.opts.DryRun {
		verb = "Preview removing"
	}
	title := styles.title.Render(fmt.Sprintf("%s the oldest %d entries from %s?", verb, m.opts.Count, m.opts.PlaylistID))
	info := styles.muted.Render("The playlist is switched to oldest-first order and verified before anything is removed.")

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}

func (m *Model) renderRun() string {
	title := styles.title.Render(fmt.Sprintf("%s Pruning %s", m.spinner.View(), m.opts.PlaylistID))

	phase := m.last.Phase.String()
	if phase == "" {
		phase = "starting"
	}
	status := fmt.Sprintf("Phase: %s", phase)
	if m.last.Total > 0 {
		status = fmt.Sprintf("%s (%d/%d)", status, m.last.Step, m.last.Total)
	}

	var b strings.Builder
	for _, line := range m.logLines {
		b.WriteString(styles.muted.Render(line))
		b.WriteString("\n")
	}

	footer := m.help.ShortHelpView([]key.Binding{m.keys.stop})
	if m.stopping {
		footer = styles.warn.Render("Stopping...")
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n%s", title, status, b.String(), footer)
}

func (m *Model) renderResult() string {
	var header string
	switch {
	case errors.Is(m.err, shared.ErrStopped):
		header = styles.warn.Render(fmt.Sprintf("Stopped after removing %d entries", m.deletedCount()))
	case m.err != nil:
		header = styles.err.Render(fmt.Sprintf("Run failed after removing %d entries: %v", m.deletedCount(), m.err))
	case m.result != nil && m.result.DryRun:
		header = styles.ok.Render(fmt.Sprintf("✓ Dry run complete: %d entries would be removed", len(m.result.Targets)))
	default:
		header = styles.ok.Render(fmt.Sprintf("✓ Removed %d entries", m.deletedCount()))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s\n\n%s", header, m.deleted.View(), helpView)
}

func (m *Model) deletedCount() int {
	if m.result == nil {
		return 0
	}
	return len(m.result.Deleted)
}
