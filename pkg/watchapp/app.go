// Package watchapp exposes a reusable Bubble Tea viewer for installation
// attempts. It polls the install status snapshot on a fixed interval and
// renders progress, outcome, and errors, with keys for requesting
// cancellation and copying error details. It is a thin consumer of the
// status API; it never drives installation decisions itself.
package watchapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/BrianJOC/toolchain-prep/installer"
)

var (
	// ErrNoSource indicates no status source was supplied when constructing an App.
	ErrNoSource = errors.New("watchapp: a status source is required")
	// ErrProgramRunning reports that Start was invoked while the program is already running.
	ErrProgramRunning = errors.New("watchapp: program already running")
)

const defaultPollInterval = 200 * time.Millisecond

// StatusSource is the read/control surface the app consumes. toolhost.Host
// satisfies it.
type StatusSource interface {
	InstallStatus() installer.Status
	CancelInstall() bool
	IsToolReady() bool
}

// Config controls how an App should be assembled.
type Config struct {
	ToolName       string
	Source         StatusSource
	PollInterval   time.Duration
	ProgramOptions []tea.ProgramOption
}

// Option mutates Config during construction.
type Option func(*Config)

// WithSource sets the status source to watch.
func WithSource(source StatusSource) Option {
	return func(cfg *Config) {
		if cfg == nil {
			return
		}
		cfg.Source = source
	}
}

// WithToolName sets the display name for the watched tool.
func WithToolName(name string) Option {
	return func(cfg *Config) {
		if cfg == nil {
			return
		}
		cfg.ToolName = name
	}
}

// WithPollInterval overrides how often the status snapshot is refreshed.
func WithPollInterval(interval time.Duration) Option {
	return func(cfg *Config) {
		if cfg == nil || interval <= 0 {
			return
		}
		cfg.PollInterval = interval
	}
}

// WithProgramOptions appends tea.Program options.
func WithProgramOptions(opts ...tea.ProgramOption) Option {
	return func(cfg *Config) {
		if cfg == nil {
			return
		}
		cfg.ProgramOptions = append(cfg.ProgramOptions, opts...)
	}
}

// App hosts the Bubble Tea-driven status watcher.
type App struct {
	cfg      Config
	mu       sync.Mutex
	program  *tea.Program
	inFlight bool
}

// New constructs an App from the provided options.
func New(opts ...Option) (*App, error) {
	cfg := Config{PollInterval: defaultPollInterval}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.Source == nil {
		return nil, ErrNoSource
	}
	if cfg.ToolName == "" {
		cfg.ToolName = "tool"
	}
	return &App{cfg: cfg}, nil
}

// Start runs the watcher until the user quits or ctx ends.
func (a *App) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	program := tea.NewProgram(newModel(a.cfg), append(a.cfg.ProgramOptions, tea.WithContext(ctx))...)

	a.mu.Lock()
	if a.inFlight {
		a.mu.Unlock()
		return ErrProgramRunning
	}
	a.program = program
	a.inFlight = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.program = nil
		a.inFlight = false
		a.mu.Unlock()
	}()

	_, runErr := program.Run()
	return runErr
}

// Stop signals the running program (if any) to exit.
func (a *App) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.program == nil {
		return nil
	}
	a.program.Quit()
	return nil
}

type statusTickMsg time.Time

type model struct {
	cfg     Config
	spinner spinner.Model

	status    installer.Status
	toolReady bool
	statusMsg string
	helpOn    bool
}

func newModel(cfg Config) *model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return &model{
		cfg:       cfg,
		spinner:   sp,
		statusMsg: "Watching install status…",
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.pollCmd(), m.spinner.Tick)
}

func (m *model) pollCmd() tea.Cmd {
	return tea.Tick(m.cfg.PollInterval, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case statusTickMsg:
		m.status = m.cfg.Source.InstallStatus()
		m.toolReady = m.cfg.Source.IsToolReady()
		return m, m.pollCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "x":
		if m.cfg.Source.CancelInstall() {
			m.statusMsg = "Cancellation requested"
		} else {
			m.statusMsg = "Nothing cancellable is running"
		}
		return m, nil
	case "c":
		return m, m.copyError()
	case "?", "h":
		m.helpOn = !m.helpOn
		return m, nil
	}
	return m, nil
}

func (m *model) copyError() tea.Cmd {
	if m.status.Err == nil {
		m.statusMsg = "No error to copy"
		return nil
	}
	if err := clipboard.WriteAll(m.status.Err.Error()); err != nil {
		m.statusMsg = fmt.Sprintf("Clipboard copy failed: %v", err)
		return nil
	}
	m.statusMsg = "Error copied to clipboard"
	return nil
}

func (m *model) View() string {
	var b strings.Builder

	title := cases.Title(language.English).String(m.cfg.ToolName) + " Installation"
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	line := stateLabel(m.status, m.toolReady)
	if m.status.InProgress {
		line = m.spinner.View() + " " + line
	}
	b.WriteString(line)
	b.WriteString("\n")

	if detail := durationLine(m.status); detail != "" {
		b.WriteString(dimStyle.Render(detail))
		b.WriteString("\n")
	}
	if m.status.Err != nil {
		b.WriteString(errorStyle.Render("error: " + m.status.Err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.statusMsg))
	b.WriteString("\n")

	if m.helpOn {
		b.WriteString(dimStyle.Render("q quit · x cancel install · c copy error · ? toggle help"))
	} else {
		b.WriteString(dimStyle.Render("press ? for help"))
	}
	b.WriteString("\n")

	return b.String()
}

// stateLabel renders the snapshot as a single human-readable line.
func stateLabel(status installer.Status, toolReady bool) string {
	switch {
	case status.InProgress:
		return runningStyle.Render("installing…")
	case status.Outcome == nil:
		if toolReady {
			return successStyle.Render("tool ready (no install needed)")
		}
		return dimStyle.Render("no installation attempted")
	case *status.Outcome:
		return successStyle.Render("installed")
	case status.Err != nil && status.Err.Kind == installer.KindCancelled:
		return errorStyle.Render("cancelled")
	default:
		return errorStyle.Render("failed")
	}
}

// durationLine renders timing details when an attempt has started.
func durationLine(status installer.Status) string {
	if status.StartedAt == nil || status.Duration == nil {
		return ""
	}
	return fmt.Sprintf("started %s, %s elapsed",
		status.StartedAt.Format(time.TimeOnly),
		status.Duration.Round(time.Millisecond),
	)
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)
