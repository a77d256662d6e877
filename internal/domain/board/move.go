package board

import (
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/weekplanner/core/internal/domain/entities"
)

// ErrUnknownColumn rejects a move whose destination matches neither the inbox
// nor any column of the displayed week.
var ErrUnknownColumn = errors.New("unknown destination column")

// MoveResult is the outcome of a move computation.
type MoveResult struct {
	// Tasks is the full task set with the move applied. Unaffected tasks are
	// carried over unchanged.
	Tasks []entities.Task
	// Changed holds every task whose stored fields differ from the input: the
	// moved task plus any destination-column task whose position shifted. This
	// is the minimal set the caller must persist.
	Changed []entities.Task
	// Moved is the moved task with its new placement and position.
	Moved entities.Task
	// NoOp is set when the move resolves to the task's current column and
	// index; Tasks is then the input, untouched.
	NoOp bool
}

// Move places the task with the given id into the destination column at the
// given index and renumbers that column to a dense 0..n-1 sequence.
//
// Index semantics follow slice insertion: an index past the end appends, a
// negative index is clamped to 0. The source column of a cross-column move is
// deliberately not renumbered; its gaps are harmless because position is only
// an ordering key within a column.
func Move(tasks []entities.Task, taskID uuid.UUID, columnID string, index int, week Week) (MoveResult, error) {
	moved, found := findTask(tasks, taskID)
	if !found {
		return MoveResult{}, entities.ErrTaskNotFound
	}

	if columnID == InboxColumn {
		moved.Unschedule()
	} else {
		col, ok := week.Column(columnID)
		if !ok {
			return MoveResult{}, ErrUnknownColumn
		}
		date := col.ID
		moved.ScheduledDate = &date
		moved.DayOfWeek = col.Day
	}

	// Destination members, excluding the moved task, in current order.
	dest := columnTasks(tasks, columnID, taskID)
	sortByPosition(dest)

	if index < 0 {
		index = 0
	}
	if index > len(dest) {
		index = len(dest)
	}

	// Same column, same slot: nothing to do.
	if src, srcIdx, ok := currentSlot(tasks, taskID); ok && src == columnID && srcIdx == index {
		return MoveResult{Tasks: tasks, Moved: moved, NoOp: true}, nil
	}

	dest = append(dest, entities.Task{})
	copy(dest[index+1:], dest[index:])
	dest[index] = moved

	changedByID := make(map[uuid.UUID]entities.Task, len(dest))
	for i := range dest {
		dest[i].Position = i
		changedByID[dest[i].ID] = dest[i]
	}
	moved = changedByID[taskID]

	out := make([]entities.Task, len(tasks))
	changed := make([]entities.Task, 0, len(dest))
	for i, t := range tasks {
		upd, ok := changedByID[t.ID]
		if !ok {
			out[i] = t
			continue
		}
		out[i] = upd
		if t.ID == taskID || upd.Position != t.Position {
			changed = append(changed, upd)
		}
	}

	return MoveResult{Tasks: out, Changed: changed, Moved: moved}, nil
}

// currentSlot returns the column id and dense index the task currently
// occupies within that column.
func currentSlot(tasks []entities.Task, taskID uuid.UUID) (string, int, bool) {
	t, found := findTask(tasks, taskID)
	if !found {
		return "", 0, false
	}
	col := t.ColumnID()
	members := columnTasks(tasks, col, uuid.Nil)
	sortByPosition(members)
	for i, m := range members {
		if m.ID == taskID {
			return col, i, true
		}
	}
	return "", 0, false
}

// columnTasks selects the members of a column, skipping the task with the
// exclude id. Inbox membership is by weekday label, dated membership by the
// scheduled date.
func columnTasks(tasks []entities.Task, columnID string, exclude uuid.UUID) []entities.Task {
	var out []entities.Task
	for _, t := range tasks {
		if t.ID == exclude {
			continue
		}
		if columnID == InboxColumn {
			if t.DayOfWeek == entities.DayInbox {
				out = append(out, t)
			}
			continue
		}
		if t.ScheduledDate != nil && *t.ScheduledDate == columnID {
			out = append(out, t)
		}
	}
	return out
}

// ColumnTasks returns the members of a column sorted by position. Ties keep
// their original relative order.
func ColumnTasks(tasks []entities.Task, columnID string) []entities.Task {
	out := columnTasks(tasks, columnID, uuid.Nil)
	sortByPosition(out)
	return out
}

func sortByPosition(tasks []entities.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Position < tasks[j].Position
	})
}

func findTask(tasks []entities.Task, id uuid.UUID) (entities.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return entities.Task{}, false
}

// EndPosition returns the position a task appended to the column would get.
func EndPosition(tasks []entities.Task, columnID string) int {
	return len(columnTasks(tasks, columnID, uuid.Nil))
}
