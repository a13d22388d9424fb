// Package ledger maintains the gamified state derived from classified
// purchases: two metrics bounded to [0,100] plus an append-only history, all
// persisted as a single JSON file. The on-disk keys (zdravie, stastie, and
// the history entry fields) are a compatibility contract and must not change.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"msvec/blocek/internal/logging"
	"msvec/blocek/internal/models"
	"msvec/blocek/internal/taxonomy"
)

const (
	// MinStat and MaxStat bound both metrics after every update.
	MinStat = 0
	MaxStat = 100
)

// State is the persisted ledger: health, happiness and the full audit trail.
type State struct {
	Health    int            `json:"zdravie"`
	Happiness int            `json:"stastie"`
	History   []HistoryEntry `json:"history"`
}

// HistoryEntry records the individual deltas one item contributed, preserving
// auditability of batch updates.
type HistoryEntry struct {
	Date      string `json:"date"`
	Item      string `json:"item"`
	Category  string `json:"category"`
	Health    int    `json:"health"`
	Happiness int    `json:"happiness"`
}

// defaultState is the state a fresh (or lost) ledger re-initializes to.
func defaultState() State {
	return State{
		Health:    MaxStat,
		Happiness: MaxStat,
		History:   []HistoryEntry{},
	}
}

// Engine applies stat deltas to the persisted state. The whole
// load-modify-save cycle runs under a process-local mutex: the original
// behavior raced concurrent applies against each other, and losing audit
// entries buys nothing here. Cross-process writers are still unsynchronized;
// the system assumes a single active writer process.
type Engine struct {
	mu   sync.Mutex
	path string
	tax  *taxonomy.Set
	log  logging.Logger
}

// NewEngine creates an Engine persisting its state at path.
func NewEngine(path string, tax *taxonomy.Set, log logging.Logger) *Engine {
	return &Engine{path: path, tax: tax, log: log}
}

// Load returns the persisted state, re-initializing to defaults when the file
// is absent or corrupt.
func (e *Engine) Load() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.load()
}

// Apply is one ledger transition: per-item deltas are looked up by category
// (zero for anything unrecognized), accumulated across the batch, recorded as
// one history entry per item, and the clamped new state is persisted by full
// overwrite. It returns the batch totals alongside the new state.
func (e *Engine) Apply(items []models.Item, timestamp time.Time) (healthDelta, happinessDelta int, state State, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state = e.load()
	date := timestamp.UTC().Format(time.RFC3339)

	for _, item := range items {
		health, happiness := e.tax.Deltas(item.Category)
		healthDelta += health
		happinessDelta += happiness

		state.History = append(state.History, HistoryEntry{
			Date:      date,
			Item:      item.Product,
			Category:  item.Category,
			Health:    health,
			Happiness: happiness,
		})
	}

	state.Health = clamp(state.Health + healthDelta)
	state.Happiness = clamp(state.Happiness + happinessDelta)

	if err = e.save(state); err != nil {
		return 0, 0, State{}, err
	}

	e.log.WithField("health", state.Health).WithField("happiness", state.Happiness).
		Debug("Applied ledger update")
	return healthDelta, happinessDelta, state, nil
}

// load reads the state file; callers hold the lock.
func (e *Engine) load() State {
	data, err := os.ReadFile(e.path)
	if err != nil {
		if !os.IsNotExist(err) {
			e.log.WithError(err).Warn("Failed to read ledger state, re-initializing")
		}
		return defaultState()
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		e.log.WithError(err).Warn("Corrupt ledger state, re-initializing")
		return defaultState()
	}
	if state.History == nil {
		state.History = []HistoryEntry{}
	}
	return state
}

// save overwrites the whole state file; callers hold the lock.
func (e *Engine) save(state State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding ledger state: %w", err)
	}
	if err := os.WriteFile(e.path, data, 0o644); err != nil {
		return fmt.Errorf("error writing ledger state: %w", err)
	}
	return nil
}

func clamp(value int) int {
	if value < MinStat {
		return MinStat
	}
	if value > MaxStat {
		return MaxStat
	}
	return value
}
