package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/csheth/studybot/internal/conversation"
	"github.com/csheth/studybot/internal/scroll"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Controller *conversation.Controller
	Logger     *zap.Logger
	// Timeout bounds a single exchange. Zero means no limit.
	Timeout time.Duration
	// StickLines is the auto-stick threshold in transcript lines.
	StickLines int
	// MarkdownStyle names a glamour style. Empty picks one from the
	// terminal background.
	MarkdownStyle string
}

type model struct {
	config     Config
	controller *conversation.Controller
	store      *conversation.Store
	coord      *scroll.Coordinator
	jobs       *jobBus
	log        *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc

	layout   pageLayout
	viewport viewport.Model
	composer textinput.Model
	spinner  spinner.Model

	renderer      *glamour.TermRenderer
	rendererWidth int
	rendered      map[string]string

	// inflight is the exchange whose result is still awaited.
	inflight *conversation.Exchange

	renderedRevision uint64
	contentDirty     bool
	framing          bool
	activeJobs       int
	lastJob          jobSnapshot
	optionCursor     int
	errorMessage     string
	infoMessage      string
	quitting         bool
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}

	composer := textinput.New()
	composer.Placeholder = composerPlaceholder
	composer.CharLimit = composerCharLimit
	composer.Prompt = "› "
	composer.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(defaultWindowWidth, defaultWindowHeight)
	vp.MouseWheelEnabled = true

	ctx, cancel := context.WithCancel(context.Background())
	m := &model{
		config:       config,
		controller:   config.Controller,
		store:        config.Controller.Store(),
		coord:        scroll.New(config.StickLines),
		jobs:         newJobBus(ctx, config.Timeout, log),
		log:          log,
		ctx:          ctx,
		cancel:       cancel,
		layout:       newPageLayout(),
		viewport:     vp,
		composer:     composer,
		spinner:      spin,
		rendered:     map[string]string{},
		contentDirty: true,
	}
	m.relayout()
	return m
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.syncTranscript())
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.controller.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.contentDirty = true
		return m, tea.Batch(cmd, m.syncTranscript())
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.recordScroll()
		return m, cmd
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height, 0)
		return m, m.afterChange()
	case frameMsg:
		if m.coord.Frame() {
			m.viewport.GotoBottom()
		}
		if m.coord.Pending() {
			return m, frameTick()
		}
		m.framing = false
		return m, nil
	case jobSignalMsg:
		m.activeJobs++
		m.lastJob = msg.Snapshot
		return m, nil
	case jobResultEnvelope:
		if m.activeJobs > 0 {
			m.activeJobs--
		}
		m.lastJob = msg.Snapshot
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case exchangeResultMsg:
		if !m.controller.Apply(m.ctx, msg.result) {
			return m, nil
		}
		m.inflight = nil
		m.optionCursor = 0
		if msg.result.Err != nil {
			m.errorMessage = "Message not delivered. Check the server and try again."
		} else {
			m.errorMessage = ""
		}
		m.infoMessage = ""
		return m, m.afterChange()
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyCtrlC:
		return m, m.quit()
	case tea.KeyEsc:
		if m.composer.Value() != "" {
			m.composer.Reset()
			return m, m.afterChange()
		}
		return m, m.quit()
	case tea.KeyCtrlN:
		return m, m.newChat()
	case tea.KeyEnter:
		return m, m.submit()
	case tea.KeyTab:
		m.moveOption(1)
		return m, nil
	case tea.KeyShiftTab:
		m.moveOption(-1)
		return m, nil
	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(key)
		m.recordScroll()
		return m, cmd
	case tea.KeyEnd:
		if m.composer.Value() == "" {
			m.viewport.GotoBottom()
			m.coord.Stick()
			m.relayout()
			return m, nil
		}
	}

	before := m.composer.Value()
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(key)
	if (before == "") != (m.composer.Value() == "") {
		m.relayout()
	}
	return m, cmd
}

// submit sends the composer text, or the highlighted quick reply when the
// composer is empty.
func (m *model) submit() tea.Cmd {
	text := m.composer.Value()
	if strings.TrimSpace(text) == "" {
		return m.chooseOption()
	}
	ex, ok := m.controller.Begin(text)
	if !ok {
		m.infoMessage = "StudyBot is still replying."
		return m.afterChange()
	}
	m.composer.Reset()
	return m.startExchange(ex)
}

func (m *model) chooseOption() tea.Cmd {
	options := m.controller.Options()
	if len(options) == 0 {
		return nil
	}
	idx := min(max(m.optionCursor, 0), len(options)-1)
	ex, ok := m.controller.Choose(options[idx])
	if !ok {
		return nil
	}
	return m.startExchange(ex)
}

func (m *model) startExchange(ex *conversation.Exchange) tea.Cmd {
	m.inflight = ex
	m.coord.Stick()
	m.errorMessage = ""
	m.infoMessage = ""
	m.log.Debug("exchange started", zap.Uint64("generation", ex.Generation))
	return tea.Batch(
		m.jobs.Start(jobKindExchange, exchangeJob(ex)),
		m.spinner.Tick,
		m.afterChange(),
	)
}

func (m *model) moveOption(delta int) {
	options := m.controller.Options()
	if len(options) == 0 {
		m.optionCursor = 0
		return
	}
	m.optionCursor = (m.optionCursor + delta + len(options)) % len(options)
}

func (m *model) newChat() tea.Cmd {
	err := m.controller.NewChat(m.ctx)
	m.inflight = nil
	m.rendered = map[string]string{}
	m.optionCursor = 0
	m.composer.Reset()
	m.coord.Stick()
	if err != nil {
		m.errorMessage = "Could not forget the previous session: " + err.Error()
		m.infoMessage = ""
	} else {
		m.errorMessage = ""
		m.infoMessage = "Started a new chat."
	}
	return m.afterChange()
}

func (m *model) quit() tea.Cmd {
	m.controller.Close()
	m.inflight = nil
	m.cancel()
	m.quitting = true
	return tea.Quit
}

func (m *model) recordScroll() {
	wasStuck := m.coord.AutoStick()
	m.coord.OnScroll(scroll.Metrics{
		ContentHeight:  m.viewport.TotalLineCount(),
		Offset:         m.viewport.YOffset,
		ViewportHeight: m.viewport.Height,
	})
	if wasStuck != m.coord.AutoStick() {
		m.relayout()
	}
}

func (m *model) afterChange() tea.Cmd {
	m.relayout()
	return m.syncTranscript()
}

// syncTranscript refreshes the viewport after a store mutation and schedules
// the deferred scroll to the newest message.
func (m *model) syncTranscript() tea.Cmd {
	rev := m.store.Revision()
	if rev != m.renderedRevision || m.contentDirty {
		m.viewport.SetContent(m.buildTranscript())
		m.renderedRevision = rev
		m.contentDirty = false
	}
	if !m.coord.Observe(rev) || m.framing {
		return nil
	}
	m.framing = true
	return frameTick()
}
