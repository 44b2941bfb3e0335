package logging

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

const (
	LevelError = "error"
	LevelWarn  = "warn"
	LevelInfo  = "info"
	LevelLog   = "log"
	LevelDebug = "debug"
	LevelTrace = "trace"
)

// CanonicalLevels are present in every LevelTable. Their ranks may be
// reassigned but the names are never removed.
var CanonicalLevels = map[string]int{
	LevelError: 1,
	LevelWarn:  2,
	LevelInfo:  3,
	LevelLog:   4,
	LevelDebug: 5,
	LevelTrace: 6,
}

// IsCanonical reports whether level is one of the six canonical levels.
func IsCanonical(level string) bool {
	_, ok := CanonicalLevels[level]
	return ok
}

// LevelTable maps level names to ranks. A higher rank means more verbose.
// Ranks are identifiers only: they need not be unique or ordered.
type LevelTable struct {
	lock   sync.RWMutex
	levels map[string]int
}

// NewLevelTable returns a table holding the canonical levels and the given extra levels.
func NewLevelTable(extra map[string]int) (*LevelTable, error) {
	t := &LevelTable{levels: make(map[string]int, len(CanonicalLevels)+len(extra))}
	for name, rank := range CanonicalLevels {
		t.levels[name] = rank
	}
	for name, rank := range extra {
		if err := t.Set(name, rank); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func defaultLevelTable() *LevelTable {
	t, _ := NewLevelTable(nil)
	return t
}

// Set adds level or changes its rank.
func (t *LevelTable) Set(level string, rank int) error {
	if level == "" {
		return errors.New("level name must not be empty")
	}
	if rank < 1 {
		return errors.Wrapf(ErrInvalidRank, "level=[%s] rank=[%d]", level, rank)
	}
	t.lock.Lock()
	t.levels[level] = rank
	t.lock.Unlock()
	return nil
}

// Delete removes a non-canonical level.
func (t *LevelTable) Delete(level string) error {
	if IsCanonical(level) {
		return errors.Wrapf(ErrCanonicalLevel, "level=[%s]", level)
	}
	t.lock.Lock()
	delete(t.levels, level)
	t.lock.Unlock()
	return nil
}

// Rank returns the rank of level and whether the level exists.
func (t *LevelTable) Rank(level string) (int, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	rank, ok := t.levels[level]
	return rank, ok
}

// Has reports whether level is in the table.
func (t *LevelTable) Has(level string) bool {
	_, ok := t.Rank(level)
	return ok
}

// Len returns the number of levels.
func (t *LevelTable) Len() int {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return len(t.levels)
}

// Names returns the level names ordered by rank, ties broken by name.
func (t *LevelTable) Names() []string {
	ranks := t.Snapshot()
	names := make([]string, 0, len(ranks))
	for name := range ranks {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if ranks[names[i]] != ranks[names[j]] {
			return ranks[names[i]] < ranks[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// Snapshot returns a copy of the table contents.
func (t *LevelTable) Snapshot() map[string]int {
	t.lock.RLock()
	defer t.lock.RUnlock()
	m := make(map[string]int, len(t.levels))
	for k, v := range t.levels {
		m[k] = v
	}
	return m
}
