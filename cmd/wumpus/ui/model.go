package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wumpus/internal/articulation"
	"wumpus/internal/logging"
	"wumpus/internal/session"
	"wumpus/internal/types"
	"wumpus/internal/world"
)

// Options configures the board.
type Options struct {
	Theme     string
	StepDelay time.Duration // pause between steps in auto mode
	// LayoutPath is reloaded on change when Watch is set.
	LayoutPath string
	Watch      bool
}

type (
	tickMsg      time.Time
	layoutMsg    struct{ layout world.Layout }
	layoutErrMsg struct{ err error }
)

// Model is the bubbletea model of the interactive board.
type Model struct {
	episode *session.Episode
	opts    Options
	styles  Styles
	keys    keyMap
	help    help.Model
	log     viewport.Model
	lines   []string

	auto      bool
	showFacts bool
	status    string
	width     int

	reloads <-chan tea.Msg
}

// NewModel creates the board for ep.
func NewModel(ep *session.Episode, opts Options) Model {
	if opts.StepDelay <= 0 {
		opts.StepDelay = 400 * time.Millisecond
	}
	vp := viewport.New(80, 10)
	vp.KeyMap = viewport.KeyMap{} // keys belong to the board

	m := Model{
		episode: ep,
		opts:    opts,
		styles:  NewStyles(ThemeByName(opts.Theme)),
		keys:    defaultKeyMap(),
		help:    help.New(),
		log:     vp,
		width:   80,
	}
	m.appendLine(fmt.Sprintf("Episode %s started.", ep.ID()))
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.waitForReload()
}

func (m Model) waitForReload() tea.Cmd {
	if m.reloads == nil {
		return nil
	}
	ch := m.reloads
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.StepDelay, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.log.Width = max(20, msg.Width-4)
		boardRows := m.episode.World().Size() + 4
		m.log.Height = max(3, msg.Height-boardRows-6)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Step):
			m.auto = false
			m.step()
		case key.Matches(msg, m.keys.Auto):
			m.auto = !m.auto
			if m.auto && !m.episode.Done() {
				m.status = "Auto mode"
				return m, m.tick()
			}
			m.auto = false
			m.status = ""
		case key.Matches(msg, m.keys.Reset):
			m.reset(nil)
		case key.Matches(msg, m.keys.Facts):
			m.showFacts = !m.showFacts
		case key.Matches(msg, m.keys.Up):
			m.log.LineUp(1)
		case key.Matches(msg, m.keys.Down):
			m.log.LineDown(1)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tickMsg:
		if !m.auto {
			return m, nil
		}
		m.step()
		if m.episode.Done() {
			m.auto = false
			return m, nil
		}
		return m, m.tick()

	case layoutMsg:
		w, err := world.FromLayout(msg.layout)
		if err != nil {
			m.status = fmt.Sprintf("Layout rejected: %v", err)
		} else {
			m.reset(w)
			m.status = "Layout reloaded"
		}
		return m, m.waitForReload()

	case layoutErrMsg:
		m.status = fmt.Sprintf("Layout rejected: %v", msg.err)
		logging.Get(logging.CategoryUI).Warn("layout reload failed: %v", msg.err)
		return m, m.waitForReload()
	}

	var cmd tea.Cmd
	m.log, cmd = m.log.Update(msg)
	return m, cmd
}

func (m *Model) step() {
	rec, err := m.episode.Step(context.Background())
	if errors.Is(err, session.ErrEpisodeOver) {
		m.status = "The episode is over. Press r to play again."
		return
	}
	if err != nil {
		m.status = err.Error()
		return
	}
	m.appendLine(articulation.Narrate(rec))
	if m.episode.Done() {
		m.appendLine(articulation.OutcomeMessage(m.episode.Outcome()))
		m.status = ""
	}
	logging.UIDebug("step %d rendered", rec.N)
}

func (m *Model) reset(w *world.World) {
	if err := m.episode.Reset(w); err != nil {
		m.status = fmt.Sprintf("Reset failed: %v", err)
		return
	}
	m.auto = false
	m.status = ""
	m.lines = nil
	m.appendLine(fmt.Sprintf("Episode %s started.", m.episode.ID()))
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.log.SetContent(strings.Join(m.lines, "\n"))
	m.log.GotoBottom()
}

// View implements tea.Model.
func (m Model) View() string {
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		m.styles.Header.Render(" WUMPUS WORLD "),
		"  ",
		m.styles.outcome(m.episode.Outcome()),
		"  ",
		m.styles.Muted.Render(m.episode.ID()),
	)

	side := m.statusPanel()
	if m.showFacts {
		side = m.factsPanel()
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.Panel.Render(m.board()),
		" ",
		m.styles.Panel.Render(side),
	)

	footer := m.help.View(m.keys)
	if m.status != "" {
		footer = m.styles.Warning.Render(m.status) + "\n" + footer
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		m.styles.Log.Render(m.log.View()),
		footer,
	)
}

func (m Model) board() string {
	agent := m.episode.Agent()
	plain := articulation.Board(m.episode.World(), agent.State().Visited)

	var sb strings.Builder
	for _, r := range plain {
		sb.WriteString(m.styles.glyph(r))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m Model) statusPanel() string {
	agent := m.episode.Agent()
	st := agent.State()

	yesNo := func(b bool) string {
		if b {
			return m.styles.Success.Render("yes")
		}
		return m.styles.Muted.Render("no")
	}
	mode := "manual"
	if m.auto {
		mode = fmt.Sprintf("auto (%s)", m.opts.StepDelay)
	}

	rows := []string{
		m.styles.Bold.Render("Agent"),
		fmt.Sprintf("at       %s", st.Location),
		fmt.Sprintf("steps    %d", agent.Steps()),
		fmt.Sprintf("visited  %d", len(st.Visited)),
		fmt.Sprintf("path     %d", len(st.Path)),
		fmt.Sprintf("gold     %s", yesNo(st.HasItem)),
		fmt.Sprintf("arrow    %s", yesNo(st.HasArrow)),
		fmt.Sprintf("alive    %s", yesNo(st.Alive)),
		fmt.Sprintf("facts    %d", agent.Store().Len()),
		fmt.Sprintf("mode     %s", mode),
	}
	return strings.Join(rows, "\n")
}

func (m Model) factsPanel() string {
	st := m.episode.Agent().Store()
	rows := []string{m.styles.Bold.Render("Known facts")}
	for _, kind := range types.Kinds {
		res, err := st.Query(context.Background(), kind.Predicate()+"(X, Y)")
		if err != nil || len(res.Facts) == 0 {
			continue
		}
		cells := make([]string, 0, len(res.Facts))
		for _, f := range res.Facts {
			cells = append(cells, fmt.Sprintf("%d,%d", f.At.X, f.At.Y))
		}
		rows = append(rows, fmt.Sprintf("%-10s %s", kind.Predicate(), strings.Join(cells, " ")))
	}
	return strings.Join(rows, "\n")
}
