package world

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/go-playground/validator/v10"

	"wumpus/internal/logging"
	"wumpus/internal/types"
)

// ErrInvalidLayout is returned when a layout cannot describe a playable board.
var ErrInvalidLayout = errors.New("invalid layout")

// MaxSize bounds generated and loaded boards.
const MaxSize = 32

// DefaultPitProbability matches the classic 20% per-cell pit rate.
const DefaultPitProbability = 0.2

var layoutValidate = validator.New()

// Layout is the serializable ground truth of a board.
type Layout struct {
	Size   int              `json:"size" yaml:"size" validate:"min=2,max=32"`
	Gold   types.Location   `json:"gold" yaml:"gold"`
	Wumpus types.Location   `json:"wumpus" yaml:"wumpus"`
	Pits   []types.Location `json:"pits,omitempty" yaml:"pits,omitempty" validate:"dive"`
}

func (l Layout) clone() Layout {
	c := l
	c.Pits = append([]types.Location(nil), l.Pits...)
	return c
}

// Validate checks field constraints, bounds, that the start cell is empty and
// that gold, wumpus and pits do not share cells.
func (l Layout) Validate() error {
	if err := layoutValidate.Struct(l); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}

	var problems []string
	check := func(name string, loc types.Location) {
		if !loc.Within(l.Size) {
			problems = append(problems, fmt.Sprintf("%s %s is outside the %dx%d board", name, loc, l.Size, l.Size))
		}
		if loc == Start {
			problems = append(problems, fmt.Sprintf("%s may not be placed on the start cell", name))
		}
	}
	check("gold", l.Gold)
	check("wumpus", l.Wumpus)
	if l.Gold == l.Wumpus {
		problems = append(problems, fmt.Sprintf("gold and wumpus share %s", l.Gold))
	}

	seen := make(map[types.Location]bool, len(l.Pits))
	for _, p := range l.Pits {
		check("pit", p)
		if seen[p] {
			problems = append(problems, fmt.Sprintf("duplicate pit at %s", p))
		}
		seen[p] = true
		if p == l.Gold || p == l.Wumpus {
			problems = append(problems, fmt.Sprintf("pit at %s overlaps gold or wumpus", p))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidLayout, strings.Join(problems, "; "))
	}
	return nil
}

// FromLayout builds a deterministic world from a validated layout.
func FromLayout(l Layout) (*World, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return newWorld(l), nil
}

// MustFromLayout is FromLayout for fixtures known to be valid.
func MustFromLayout(l Layout) *World {
	w, err := FromLayout(l)
	if err != nil {
		panic(err)
	}
	return w
}

// Generate places gold and wumpus on distinct random non-start cells, then drops a
// pit on each remaining non-start cell with probability pitProbability.
func Generate(size int, pitProbability float64, rng *rand.Rand) (*World, error) {
	if size < 2 || size > MaxSize {
		return nil, fmt.Errorf("%w: size %d out of range [2, %d]", ErrInvalidLayout, size, MaxSize)
	}
	if pitProbability < 0 || pitProbability > 1 {
		return nil, fmt.Errorf("%w: pit probability %.2f out of range [0, 1]", ErrInvalidLayout, pitProbability)
	}

	l := Layout{Size: size}
	occupied := map[types.Location]bool{}
	randomEmpty := func() types.Location {
		for {
			loc := types.Loc(rng.IntN(size)+1, rng.IntN(size)+1)
			if loc != Start && !occupied[loc] {
				occupied[loc] = true
				return loc
			}
		}
	}
	l.Gold = randomEmpty()
	l.Wumpus = randomEmpty()

	for x := 1; x <= size; x++ {
		for y := 1; y <= size; y++ {
			loc := types.Loc(x, y)
			if loc == Start || occupied[loc] {
				continue
			}
			if rng.Float64() < pitProbability {
				l.Pits = append(l.Pits, loc)
			}
		}
	}

	logging.World("generated %dx%d world: gold %s, wumpus %s, %d pits", size, size, l.Gold, l.Wumpus, len(l.Pits))
	return newWorld(l), nil
}

// NewRand returns the seeded PRNG used for generation and move shuffling.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
