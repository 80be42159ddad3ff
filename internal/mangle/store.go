// Package mangle provides the agent's fact store, a typed wrapper around a
// Google Mangle in-memory fact store.
//
// Every fact is a binary atom over board coordinates (breeze(2, 3), safe(1, 2), ...).
// The store is append-only apart from explicit Retract calls, never holds duplicates,
// and answers membership and per-kind enumeration queries.
package mangle

import (
	"sort"
	"sync"
	"time"

	"github.com/google/mangle/ast"
	"github.com/google/mangle/factstore"

	"wumpus/internal/logging"
	"wumpus/internal/types"
)

// Config holds fact store configuration.
type Config struct {
	// FactLimit only triggers a warning when crossed; asserts are never rejected.
	FactLimit int `json:"fact_limit" yaml:"fact_limit"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{FactLimit: 10000}
}

// Store is the agent's knowledge base. One Store belongs to exactly one episode.
type Store struct {
	config Config

	mu              sync.RWMutex
	base            factstore.FactStoreWithRemove
	factCount       int
	factLimitWarned bool
	lastUpdate      time.Time
}

// Stats contains store statistics.
type Stats struct {
	TotalFacts int                `json:"total_facts"`
	KindCounts map[types.Kind]int `json:"kind_counts"`
	LastUpdate time.Time          `json:"last_update"`
}

// NewStore creates an empty store.
func NewStore(cfg Config) *Store {
	return &Store{
		config: cfg,
		base:   factstore.NewSimpleInMemoryStore(),
	}
}

// Assert adds f. It returns true if the fact was new and false if it was already known.
func (s *Store) Assert(f types.Fact) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.base.Add(f.ToAtom()) {
		return false
	}
	s.factCount++
	s.lastUpdate = time.Now()
	s.maybeWarnFactLimit()
	return true
}

// Holds is an exact-match membership query.
func (s *Store) Holds(f types.Fact) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base.Contains(f.ToAtom())
}

// Retract removes f. It returns false if f was not present.
func (s *Store) Retract(f types.Fact) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.base.Remove(f.ToAtom()) {
		return false
	}
	if s.factCount > 0 {
		s.factCount--
	}
	s.lastUpdate = time.Now()
	logging.KernelDebug("retracted %s", f)
	return true
}

// FactsOf returns every fact of one kind, ordered by location.
func (s *Store) FactsOf(kind types.Kind) []types.Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.factsOfLocked(kind)
}

func (s *Store) factsOfLocked(kind types.Kind) []types.Fact {
	sym := ast.PredicateSym{Symbol: kind.Predicate(), Arity: 2}
	var out []types.Fact
	_ = s.base.GetFacts(ast.NewQuery(sym), func(atom ast.Atom) error {
		f, err := types.FactFromAtom(atom)
		if err != nil {
			logging.Get(logging.CategoryKernel).Error("malformed atom in store: %v", err)
			return nil
		}
		out = append(out, f)
		return nil
	})
	SortFacts(out)
	return out
}

// FactsWithPrefix returns every fact whose "Kind at (x, y)" rendering starts with prefix.
// FactsWithPrefix("Stench") does not return NoStench facts.
func (s *Store) FactsWithPrefix(prefix string) []types.Fact {
	var out []types.Fact
	for _, f := range s.All() {
		if f.HasPrefix(prefix) {
			out = append(out, f)
		}
	}
	return out
}

// All returns every fact, ordered by kind then location.
func (s *Store) All() []types.Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.Fact
	for _, kind := range types.Kinds {
		out = append(out, s.factsOfLocked(kind)...)
	}
	return out
}

// Len returns the number of facts currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.factCount
}

// Snapshot returns a frozen copy of the store. Later writes to the store do not
// affect the snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		byKind: make(map[types.Kind][]types.Fact, len(types.Kinds)),
		set:    make(map[types.Fact]struct{}, s.factCount),
	}
	for _, kind := range types.Kinds {
		facts := s.factsOfLocked(kind)
		snap.byKind[kind] = facts
		for _, f := range facts {
			snap.set[f] = struct{}{}
		}
	}
	return snap
}

// GetStats returns overall statistics for the fact store.
func (s *Store) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[types.Kind]int, len(types.Kinds))
	for _, kind := range types.Kinds {
		counts[kind] = len(s.factsOfLocked(kind))
	}
	return Stats{
		TotalFacts: s.factCount,
		KindCounts: counts,
		LastUpdate: s.lastUpdate,
	}
}

// Clear removes all facts from the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = factstore.NewSimpleInMemoryStore()
	s.factCount = 0
	s.factLimitWarned = false
	s.lastUpdate = time.Now()
}

func (s *Store) maybeWarnFactLimit() {
	if s.config.FactLimit <= 0 || s.factLimitWarned {
		return
	}
	utilization := float64(s.factCount) / float64(s.config.FactLimit)
	if utilization >= 0.85 {
		logging.Get(logging.CategoryKernel).Warn("fact store is %.1f%% of configured capacity (%d / %d)",
			utilization*100, s.factCount, s.config.FactLimit)
		s.factLimitWarned = true
	}
}

// Snapshot is an immutable view of the store taken at one instant.
type Snapshot struct {
	byKind map[types.Kind][]types.Fact
	set    map[types.Fact]struct{}
}

// FactsOf returns the facts of one kind at snapshot time, ordered by location.
func (s Snapshot) FactsOf(kind types.Kind) []types.Fact {
	return s.byKind[kind]
}

// Holds reports whether f was present at snapshot time.
func (s Snapshot) Holds(f types.Fact) bool {
	_, ok := s.set[f]
	return ok
}

// Len returns the number of facts in the snapshot.
func (s Snapshot) Len() int {
	return len(s.set)
}

// Diff returns the facts present in s but not in other.
func (s Snapshot) Diff(other Snapshot) []types.Fact {
	var out []types.Fact
	for f := range s.set {
		if !other.Holds(f) {
			out = append(out, f)
		}
	}
	SortFacts(out)
	return out
}

// SortFacts orders facts by kind, then x, then y.
func SortFacts(facts []types.Fact) {
	sort.Slice(facts, func(i, j int) bool {
		a, b := facts[i], facts[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.At.X != b.At.X {
			return a.At.X < b.At.X
		}
		return a.At.Y < b.At.Y
	})
}
