package types

import (
	"fmt"
	"strings"

	"github.com/google/mangle/ast"
)

// =============================================================================
// MANGLE FACT TYPES
// =============================================================================

// Kind is the predicate of a fact. Each kind maps to a binary Mangle predicate over
// the cell coordinates, e.g. Breeze at (2, 3) is stored as breeze(2, 3).
type Kind int

const (
	Breeze Kind = iota
	NoBreeze
	Stench
	NoStench
	Glitter
	Safe
	Danger
	PitAt
	WumpusAt
)

// Kinds lists every fact kind.
var Kinds = []Kind{Breeze, NoBreeze, Stench, NoStench, Glitter, Safe, Danger, PitAt, WumpusAt}

var kindNames = [...]string{"Breeze", "NoBreeze", "Stench", "NoStench", "Glitter", "Safe", "Danger", "PitAt", "WumpusAt"}

var kindPredicates = [...]string{"breeze", "no_breeze", "stench", "no_stench", "glitter", "safe", "danger", "pit_at", "wumpus_at"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Predicate returns the Mangle predicate symbol for the kind.
func (k Kind) Predicate() string {
	if k < 0 || int(k) >= len(kindPredicates) {
		return ""
	}
	return kindPredicates[k]
}

// KindForPredicate maps a Mangle predicate symbol back to its kind.
func KindForPredicate(pred string) (Kind, bool) {
	for i, p := range kindPredicates {
		if p == pred {
			return Kind(i), true
		}
	}
	return 0, false
}

// ParseKind accepts either the display name (NoStench) or the predicate (no_stench).
func ParseKind(s string) (Kind, error) {
	for i := range kindNames {
		if kindNames[i] == s || kindPredicates[i] == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown fact kind %q", s)
}

// Fact is an immutable assertion about one location.
type Fact struct {
	Kind Kind
	At   Location
}

// F is a convenience constructor for Fact.
func F(kind Kind, x, y int) Fact { return Fact{Kind: kind, At: Loc(x, y)} }

// String renders the fact as "Breeze at (2, 3)".
func (f Fact) String() string {
	return f.Kind.String() + " at " + f.At.String()
}

// Datalog renders the fact in Mangle notation: breeze(2, 3).
func (f Fact) Datalog() string {
	return fmt.Sprintf("%s(%d, %d).", f.Kind.Predicate(), f.At.X, f.At.Y)
}

// HasPrefix reports whether the serialized fact starts with prefix.
// "Stench" does not match "NoStench at ..." because the serialized kind differs.
func (f Fact) HasPrefix(prefix string) bool {
	return strings.HasPrefix(f.String(), prefix)
}

// ToAtom converts a Fact to a Mangle AST Atom for direct store insertion.
func (f Fact) ToAtom() ast.Atom {
	return ast.NewAtom(f.Kind.Predicate(), ast.Number(int64(f.At.X)), ast.Number(int64(f.At.Y)))
}

// FactFromAtom converts a stored atom back into a Fact.
func FactFromAtom(atom ast.Atom) (Fact, error) {
	kind, ok := KindForPredicate(atom.Predicate.Symbol)
	if !ok {
		return Fact{}, fmt.Errorf("predicate %s is not a fact kind", atom.Predicate.Symbol)
	}
	if len(atom.Args) != 2 {
		return Fact{}, fmt.Errorf("predicate %s expects 2 args, got %d", atom.Predicate.Symbol, len(atom.Args))
	}
	var coords [2]int
	for i, arg := range atom.Args {
		c, ok := arg.(ast.Constant)
		if !ok || c.Type != ast.NumberType {
			return Fact{}, fmt.Errorf("predicate %s arg %d is not a number: %v", atom.Predicate.Symbol, i, arg)
		}
		coords[i] = int(c.NumValue)
	}
	return Fact{Kind: kind, At: Loc(coords[0], coords[1])}, nil
}
