package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wumpus/internal/session"
	"wumpus/internal/types"
	"wumpus/internal/world"
)

var shortTrip = world.Layout{Size: 3, Gold: types.Loc(1, 2), Wumpus: types.Loc(3, 3)}

func newTestModel(t *testing.T) Model {
	t.Helper()
	opts := session.DefaultOptions()
	opts.Agent.Shuffle = false
	ep, err := session.New(world.MustFromLayout(shortTrip), opts)
	require.NoError(t, err)
	return NewModel(ep, Options{Theme: "dark", StepDelay: time.Millisecond})
}

func press(t *testing.T, m Model, keys string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	if keys == " " {
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	} else {
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestStepKeyAdvancesEpisode(t *testing.T) {
	m := newTestModel(t)

	for i := 0; i < 4; i++ {
		m, _ = press(t, m, " ")
	}
	assert.True(t, m.episode.Done())
	assert.Equal(t, "victory", m.episode.Outcome())
	assert.Len(t, m.lines, 6, "start line, four steps and the outcome")
	assert.Contains(t, m.lines[1], "Step 1 at (1, 1)")

	m, _ = press(t, m, " ")
	assert.Contains(t, m.status, "episode is over")

	view := m.View()
	assert.Contains(t, view, "WUMPUS WORLD")
	assert.Contains(t, view, "VICTORY")
}

func TestAutoModeRunsToTheEnd(t *testing.T) {
	m := newTestModel(t)

	m, cmd := press(t, m, "a")
	require.NotNil(t, cmd)
	assert.True(t, m.auto)

	for i := 0; i < 10 && m.auto; i++ {
		next, _ := m.Update(tickMsg(time.Now()))
		m = next.(Model)
	}
	assert.False(t, m.auto)
	assert.True(t, m.episode.Done())

	// Ticks after auto mode stopped are ignored.
	next, cmd := m.Update(tickMsg(time.Now()))
	assert.Nil(t, cmd)
	assert.Equal(t, len(m.lines), len(next.(Model).lines))
}

func TestResetAndFactsPanel(t *testing.T) {
	m := newTestModel(t)
	firstID := m.episode.ID()

	m, _ = press(t, m, " ")
	m, _ = press(t, m, "f")
	assert.True(t, m.showFacts)
	assert.Contains(t, m.View(), "no_breeze")

	m, _ = press(t, m, "r")
	assert.NotEqual(t, firstID, m.episode.ID())
	assert.Len(t, m.lines, 1)
	assert.Empty(t, m.episode.History())
}

func TestLayoutReloadStartsNewEpisode(t *testing.T) {
	m := newTestModel(t)

	bigger := world.Layout{Size: 5, Gold: types.Loc(5, 5), Wumpus: types.Loc(2, 4)}
	next, _ := m.Update(layoutMsg{layout: bigger})
	m = next.(Model)
	assert.Equal(t, 5, m.episode.World().Size())
	assert.Equal(t, "Layout reloaded", m.status)

	next, _ = m.Update(layoutErrMsg{err: errors.New("bad yaml")})
	m = next.(Model)
	assert.Contains(t, m.status, "bad yaml")
	assert.Equal(t, 5, m.episode.World().Size(), "a rejected layout keeps the board")
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(t)
	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestWindowResize(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)
	assert.Equal(t, 116, m.log.Width)
	assert.Equal(t, 120, m.width)
}
