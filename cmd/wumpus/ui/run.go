package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"wumpus/internal/config"
	"wumpus/internal/logging"
	"wumpus/internal/session"
	"wumpus/internal/world"
)

// Run shows the board for ep until the user quits or ctx is cancelled. With
// opts.Watch the layout file is reloaded into a fresh episode whenever it changes.
func Run(ctx context.Context, ep *session.Episode, opts Options) error {
	m := NewModel(ep, opts)

	if opts.Watch && opts.LayoutPath != "" {
		reloads := make(chan tea.Msg, 4)
		defer close(reloads)

		send := func(msg tea.Msg) {
			select {
			case reloads <- msg:
			default:
				logging.Get(logging.CategoryUI).Warn("dropping layout reload: board is busy")
			}
		}
		lw, err := config.NewLayoutWatcher(opts.LayoutPath,
			func(l world.Layout) { send(layoutMsg{layout: l}) },
			func(err error) { send(layoutErrMsg{err: err}) },
		)
		if err != nil {
			return err
		}
		if err := lw.Start(ctx); err != nil {
			lw.Stop()
			return err
		}
		defer lw.Stop()
		m.reloads = reloads
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
