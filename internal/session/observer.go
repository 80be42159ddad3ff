package session

import (
	"wumpus/internal/articulation"
	"wumpus/internal/core"
	"wumpus/internal/logging"
)

// LogObserver narrates every step to the session log.
func LogObserver() core.Observer {
	return core.ObserverFunc(func(rec core.StepRecord) {
		logging.Session("%s", articulation.Narrate(rec))
		if len(rec.Retracted) > 0 {
			logging.SessionDebug("step %d retracted %d facts", rec.N, len(rec.Retracted))
		}
	})
}
