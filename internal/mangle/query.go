package mangle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/mangle/ast"
	"github.com/google/mangle/parse"

	"wumpus/internal/types"
)

// QueryResult represents the result of a Datalog-style query over the store.
type QueryResult struct {
	Facts    []types.Fact             `json:"facts"`
	Bindings []map[string]interface{} `json:"bindings"`
	Duration time.Duration            `json:"duration"`
}

// Query evaluates a single atom pattern in Mangle notation, e.g. "pit_at(X, Y)",
// "safe(1, Y)" or "?danger(X, X).". Repeated variables must bind to equal values;
// "_" matches anything without binding.
func (s *Store) Query(ctx context.Context, query string) (*QueryResult, error) {
	atom, err := parseQueryAtom(query)
	if err != nil {
		return nil, err
	}
	kind, ok := types.KindForPredicate(atom.Predicate.Symbol)
	if !ok {
		return nil, fmt.Errorf("predicate %s is not declared", atom.Predicate.Symbol)
	}
	if len(atom.Args) != 2 {
		return nil, fmt.Errorf("predicate %s expects 2 args, got %d", atom.Predicate.Symbol, len(atom.Args))
	}

	start := time.Now()
	result := &QueryResult{}
	for _, f := range s.FactsOf(kind) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("query cancelled after %v: %w", time.Since(start), err)
		}
		row, ok := match(atom.Args, []int{f.At.X, f.At.Y})
		if !ok {
			continue
		}
		result.Facts = append(result.Facts, f)
		result.Bindings = append(result.Bindings, row)
	}
	result.Duration = time.Since(start)
	return result, nil
}

func parseQueryAtom(query string) (ast.Atom, error) {
	clean := strings.TrimSpace(query)
	if clean == "" {
		return ast.Atom{}, fmt.Errorf("empty query")
	}
	clean = strings.TrimSpace(strings.TrimPrefix(clean, "?"))
	clean = strings.TrimSpace(strings.TrimSuffix(clean, "."))

	atom, err := parse.Atom(clean)
	if err != nil {
		return ast.Atom{}, fmt.Errorf("failed to parse query %q: %w", query, err)
	}
	return atom, nil
}

// match unifies a query pattern against concrete coordinates.
func match(pattern []ast.BaseTerm, values []int) (map[string]interface{}, bool) {
	row := make(map[string]interface{}, len(pattern))
	for i, term := range pattern {
		v := int64(values[i])
		switch t := term.(type) {
		case ast.Variable:
			if t.Symbol == "_" {
				continue
			}
			if bound, ok := row[t.Symbol]; ok {
				if bound != v {
					return nil, false
				}
				continue
			}
			row[t.Symbol] = v
		case ast.Constant:
			if t.Type != ast.NumberType || t.NumValue != v {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return row, true
}
