// Package types provides shared value types used across the wumpus packages.
// This package exists to break import cycles between core, world, and articulation.
// Types in this package should be foundational data structures with no complex dependencies.
package types

import "fmt"

// =============================================================================
// GRID GEOMETRY
// =============================================================================

// Location is a 1-indexed board coordinate. X grows to the right, Y grows up.
type Location struct {
	X int `json:"x" yaml:"x" validate:"min=1"`
	Y int `json:"y" yaml:"y" validate:"min=1"`
}

// Loc is a convenience constructor for Location.
func Loc(x, y int) Location { return Location{X: x, Y: y} }

// String renders the location the way the board displays it: (x, y).
func (l Location) String() string {
	return fmt.Sprintf("(%d, %d)", l.X, l.Y)
}

// Step returns the location one cell away in direction d. The result may be out of bounds.
func (l Location) Step(d Direction) Location {
	switch d {
	case Up:
		return Location{X: l.X, Y: l.Y + 1}
	case Down:
		return Location{X: l.X, Y: l.Y - 1}
	case Left:
		return Location{X: l.X - 1, Y: l.Y}
	case Right:
		return Location{X: l.X + 1, Y: l.Y}
	}
	return l
}

// Adjacent reports whether other is a cardinal neighbor of l.
func (l Location) Adjacent(other Location) bool {
	return l.Distance(other) == 1
}

// Distance returns the Manhattan distance between two locations.
func (l Location) Distance(other Location) int {
	return abs(l.X-other.X) + abs(l.Y-other.Y)
}

// Within reports whether l lies on a size×size board.
func (l Location) Within(size int) bool {
	return l.X >= 1 && l.X <= size && l.Y >= 1 && l.Y <= size
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Direction is one of the four cardinal directions.
type Direction int

const (
	NoDirection Direction = iota
	Up
	Down
	Left
	Right
)

// Directions lists the cardinal directions in the order actions are enumerated.
var Directions = []Direction{Up, Down, Left, Right}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "none"
}

// ParseDirection is the inverse of Direction.String.
func ParseDirection(s string) (Direction, error) {
	for _, d := range Directions {
		if d.String() == s {
			return d, nil
		}
	}
	return NoDirection, fmt.Errorf("unknown direction %q", s)
}

// DirectionTo returns the cardinal direction that moves from toward to along a shared
// row or column. ok is false when the two locations share neither coordinate or are equal.
func DirectionTo(from, to Location) (Direction, bool) {
	switch {
	case from.X == to.X && to.Y > from.Y:
		return Up, true
	case from.X == to.X && to.Y < from.Y:
		return Down, true
	case from.Y == to.Y && to.X > from.X:
		return Right, true
	case from.Y == to.Y && to.X < from.X:
		return Left, true
	}
	return NoDirection, false
}

// =============================================================================
// ACTIONS
// =============================================================================

// ActionKind enumerates what the agent can do in one step.
type ActionKind int

const (
	ActionMove ActionKind = iota
	ActionGrab
	ActionClimb
	ActionShoot
)

func (k ActionKind) String() string {
	switch k {
	case ActionMove:
		return "move"
	case ActionGrab:
		return "grab"
	case ActionClimb:
		return "climb"
	case ActionShoot:
		return "shoot"
	}
	return "unknown"
}

// Action is a single agent command. Direction is meaningful for moves and shots.
type Action struct {
	Kind      ActionKind
	Direction Direction
}

// Move returns a move action in direction d.
func Move(d Direction) Action { return Action{Kind: ActionMove, Direction: d} }

// Shoot returns a shoot action in direction d.
func Shoot(d Direction) Action { return Action{Kind: ActionShoot, Direction: d} }

// Grab and Climb carry no direction.
var (
	Grab  = Action{Kind: ActionGrab}
	Climb = Action{Kind: ActionClimb}
)

// String renders actions as move_up, shoot_left, grab, climb.
func (a Action) String() string {
	switch a.Kind {
	case ActionMove, ActionShoot:
		return a.Kind.String() + "_" + a.Direction.String()
	}
	return a.Kind.String()
}

// ParseAction is the inverse of Action.String.
func ParseAction(s string) (Action, error) {
	switch s {
	case "grab":
		return Grab, nil
	case "climb":
		return Climb, nil
	}
	for _, kind := range []ActionKind{ActionMove, ActionShoot} {
		for _, d := range Directions {
			a := Action{Kind: kind, Direction: d}
			if a.String() == s {
				return a, nil
			}
		}
	}
	return Action{}, fmt.Errorf("unknown action %q", s)
}

// =============================================================================
// PERCEPTS AND RESULTS
// =============================================================================

// Percept is the local sensory snapshot at one cell.
type Percept struct {
	Stench  bool `json:"stench"`  // wumpus adjacent
	Breeze  bool `json:"breeze"`  // pit adjacent
	Glitter bool `json:"glitter"` // gold here
}

func (p Percept) String() string {
	return fmt.Sprintf("stench=%t breeze=%t glitter=%t", p.Stench, p.Breeze, p.Glitter)
}

// Outcome is the episode status after an action.
type Outcome int

const (
	Alive Outcome = iota
	Died
	ExitedEmpty
	ExitedWithItem
)

func (o Outcome) String() string {
	switch o {
	case Alive:
		return "alive"
	case Died:
		return "died"
	case ExitedEmpty:
		return "exited_empty"
	case ExitedWithItem:
		return "victory"
	}
	return "unknown"
}

// Terminal reports whether the outcome ends the episode.
func (o Outcome) Terminal() bool {
	return o != Alive
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, error) {
	for _, o := range []Outcome{Alive, Died, ExitedEmpty, ExitedWithItem} {
		if o.String() == s {
			return o, nil
		}
	}
	return Alive, fmt.Errorf("unknown outcome %q", s)
}

// Result is the typed response of the environment to an action.
type Result struct {
	Outcome       Outcome
	HazardKilled  bool // the arrow killed the wumpus
	ItemCollected bool // grab picked up the gold
	Bumped        bool // move blocked by the board edge
	Message       string
}
