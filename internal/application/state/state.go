// Package state owns the in-memory board projection. Every mutation path goes
// through a Board so the position and placement invariants are checked in one
// place. The projection is optimistic: it is updated before persistence
// resolves and is never rolled back.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/weekplanner/core/internal/domain/entities"
)

// Board holds one principal's task projection.
type Board struct {
	mu     sync.RWMutex
	tasks  []entities.Task
	loaded bool
}

// Loaded reports whether the projection has been primed from the store.
func (b *Board) Loaded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loaded
}

// Snapshot returns a copy of the current task set.
func (b *Board) Snapshot() []entities.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]entities.Task, len(b.tasks))
	copy(out, b.tasks)
	return out
}

// Replace primes the projection from the durable store without invariant
// checks; the store is authoritative at load time.
func (b *Board) Replace(tasks []entities.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = make([]entities.Task, len(tasks))
	copy(b.tasks, tasks)
	b.loaded = true
}

// Apply swaps in a mutated task set after verifying the board invariants.
func (b *Board) Apply(tasks []entities.Task) error {
	if err := Verify(tasks); err != nil {
		return err
	}
	b.Replace(tasks)
	return nil
}

// Upsert inserts or replaces a single task.
func (b *Board) Upsert(task entities.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.tasks {
		if b.tasks[i].ID == task.ID {
			b.tasks[i] = task
			return
		}
	}
	b.tasks = append(b.tasks, task)
}

// Remove drops a task from the projection, reporting whether it was present.
func (b *Board) Remove(id uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.tasks {
		if b.tasks[i].ID == id {
			b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
			return true
		}
	}
	return false
}

// Sweep evicts completed tasks whose completion age reaches the given
// retention window, returning the evicted ids. Incomplete tasks and completed
// tasks without a timestamp are always kept.
func (b *Board) Sweep(now time.Time, window time.Duration) []uuid.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()
	var evicted []uuid.UUID
	kept := b.tasks[:0]
	for _, t := range b.tasks {
		if Expired(t, now, window) {
			evicted = append(evicted, t.ID)
			continue
		}
		kept = append(kept, t)
	}
	b.tasks = kept
	return evicted
}

// Expired reports whether a completed task has aged out of the working set.
// The window comes from the caller so the board and the durable purge always
// apply the same configured value.
func Expired(t entities.Task, now time.Time, window time.Duration) bool {
	if !t.IsCompleted || t.CompletedAt == nil {
		return false
	}
	return now.Sub(*t.CompletedAt) >= window
}

// Verify checks the board invariants: every placement is consistent and no
// column holds duplicate positions. Density is not checked here because the
// vacated side of a cross-column move legitimately keeps its gaps.
func Verify(tasks []entities.Task) error {
	columns := make(map[string]map[int]bool)
	for i := range tasks {
		t := &tasks[i]
		if !t.PlacementConsistent() {
			return fmt.Errorf("task %s: %w", t.ID, entities.ErrInvalidPlacement)
		}
		col := t.ColumnID()
		if columns[col] == nil {
			columns[col] = make(map[int]bool)
		}
		if t.Position < 0 || columns[col][t.Position] {
			return fmt.Errorf("column %s: duplicate or negative position %d", col, t.Position)
		}
		columns[col][t.Position] = true
	}
	return nil
}

// VerifyColumnDense checks that one column's positions form a dense 0..n-1
// sequence. Callers apply it to the destination column after a move.
func VerifyColumnDense(tasks []entities.Task, columnID string) error {
	seen := make(map[int]bool)
	n := 0
	for i := range tasks {
		if tasks[i].ColumnID() != columnID {
			continue
		}
		n++
		seen[tasks[i].Position] = true
	}
	for p := 0; p < n; p++ {
		if !seen[p] {
			return fmt.Errorf("column %s: positions are not a dense 0..%d sequence", columnID, n-1)
		}
	}
	return nil
}

// Manager keys boards by principal id.
type Manager struct {
	mu     sync.Mutex
	boards map[string]*Board
}

// NewManager creates an empty board manager.
func NewManager() *Manager {
	return &Manager{boards: make(map[string]*Board)}
}

// Board returns the principal's board, creating it on first use.
func (m *Manager) Board(userID string) *Board {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[userID]
	if !ok {
		b = &Board{}
		m.boards[userID] = b
	}
	return b
}

// Range calls fn for every known board.
func (m *Manager) Range(fn func(userID string, b *Board)) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.boards))
	for id := range m.boards {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.mu.Lock()
		b := m.boards[id]
		m.mu.Unlock()
		if b != nil {
			fn(id, b)
		}
	}
}
