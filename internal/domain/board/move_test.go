package board

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weekplanner/core/internal/domain/entities"
)

// The fixture week runs Monday 2026-01-05 through Sunday 2026-01-11.
var testWeek = WeekOf(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))

func inboxTask(title string, pos int) entities.Task {
	return entities.Task{
		ID:        uuid.New(),
		Title:     title,
		DayOfWeek: entities.DayInbox,
		Position:  pos,
	}
}

func datedTask(title, date string, pos int) entities.Task {
	day, err := entities.WeekdayOf(date)
	if err != nil {
		panic(err)
	}
	d := date
	return entities.Task{
		ID:            uuid.New(),
		Title:         title,
		DayOfWeek:     day,
		ScheduledDate: &d,
		Position:      pos,
	}
}

func positions(tasks []entities.Task, columnID string) map[string]int {
	out := map[string]int{}
	for _, t := range ColumnTasks(tasks, columnID) {
		out[t.Title] = t.Position
	}
	return out
}

func TestMoveToFrontOfColumn(t *testing.T) {
	a := datedTask("a", "2026-01-05", 0)
	b := datedTask("b", "2026-01-05", 1)
	c := datedTask("c", "2026-01-05", 2)
	tasks := []entities.Task{a, b, c}

	res, err := Move(tasks, c.ID, "2026-01-05", 0, testWeek)
	require.NoError(t, err)
	require.False(t, res.NoOp)

	assert.Equal(t, map[string]int{"c": 0, "a": 1, "b": 2}, positions(res.Tasks, "2026-01-05"))
}

func TestMoveDestinationIsDense(t *testing.T) {
	a := datedTask("a", "2026-01-06", 0)
	b := datedTask("b", "2026-01-06", 3) // sparse input positions
	c := datedTask("c", "2026-01-06", 7)
	tasks := []entities.Task{a, b, c}

	res, err := Move(tasks, a.ID, "2026-01-06", 2, testWeek)
	require.NoError(t, err)

	got := ColumnTasks(res.Tasks, "2026-01-06")
	for i, task := range got {
		assert.Equal(t, i, task.Position)
	}
}

func TestMoveSameSlotIsNoOp(t *testing.T) {
	a := datedTask("a", "2026-01-05", 0)
	b := datedTask("b", "2026-01-05", 1)
	tasks := []entities.Task{a, b}

	res, err := Move(tasks, b.ID, "2026-01-05", 1, testWeek)
	require.NoError(t, err)

	assert.True(t, res.NoOp)
	assert.Empty(t, res.Changed)
	assert.Equal(t, tasks, res.Tasks)
}

func TestMoveToInboxClearsDate(t *testing.T) {
	a := datedTask("a", "2026-01-07", 0)
	inboxed := inboxTask("x", 0)
	tasks := []entities.Task{a, inboxed}

	res, err := Move(tasks, a.ID, InboxColumn, 0, testWeek)
	require.NoError(t, err)

	assert.Nil(t, res.Moved.ScheduledDate)
	assert.Equal(t, entities.DayInbox, res.Moved.DayOfWeek)
	assert.Equal(t, map[string]int{"a": 0, "x": 1}, positions(res.Tasks, InboxColumn))
}

func TestMoveFromInboxToDateSetsWeekday(t *testing.T) {
	a := inboxTask("a", 0)
	tasks := []entities.Task{a}

	res, err := Move(tasks, a.ID, "2026-01-09", 0, testWeek)
	require.NoError(t, err)

	require.NotNil(t, res.Moved.ScheduledDate)
	assert.Equal(t, "2026-01-09", *res.Moved.ScheduledDate)
	assert.Equal(t, entities.DayFriday, res.Moved.DayOfWeek)
}

func TestMoveCrossColumnLeavesSourceGaps(t *testing.T) {
	a := datedTask("a", "2026-01-05", 0)
	b := datedTask("b", "2026-01-05", 1)
	c := datedTask("c", "2026-01-05", 2)
	tasks := []entities.Task{a, b, c}

	res, err := Move(tasks, b.ID, "2026-01-06", 0, testWeek)
	require.NoError(t, err)

	// Source keeps its original numbering; only order matters within it.
	assert.Equal(t, map[string]int{"a": 0, "c": 2}, positions(res.Tasks, "2026-01-05"))
	assert.Equal(t, map[string]int{"b": 0}, positions(res.Tasks, "2026-01-06"))
}

func TestMoveChangedIsMinimal(t *testing.T) {
	a := datedTask("a", "2026-01-05", 0)
	b := datedTask("b", "2026-01-05", 1)
	other := datedTask("other", "2026-01-08", 0)
	moved := inboxTask("moved", 0)
	tasks := []entities.Task{a, b, other, moved}

	res, err := Move(tasks, moved.ID, "2026-01-05", 1, testWeek)
	require.NoError(t, err)

	changed := map[string]bool{}
	for _, task := range res.Changed {
		changed[task.Title] = true
	}
	// a keeps position 0 and the other column is untouched; only the moved
	// task and the shifted b must be written.
	assert.Equal(t, map[string]bool{"moved": true, "b": true}, changed)
}

func TestMoveIndexClamping(t *testing.T) {
	a := datedTask("a", "2026-01-05", 0)
	b := datedTask("b", "2026-01-05", 1)
	x := inboxTask("x", 0)
	tasks := []entities.Task{a, b, x}

	res, err := Move(tasks, x.ID, "2026-01-05", -5, testWeek)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Moved.Position)

	res, err = Move(tasks, x.ID, "2026-01-05", 99, testWeek)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Moved.Position)
}

func TestMoveUnknownColumn(t *testing.T) {
	a := inboxTask("a", 0)

	_, err := Move([]entities.Task{a}, a.ID, "2026-02-20", 0, testWeek)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestMoveMissingTask(t *testing.T) {
	a := inboxTask("a", 0)

	_, err := Move([]entities.Task{a}, uuid.New(), InboxColumn, 0, testWeek)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestEndPosition(t *testing.T) {
	a := datedTask("a", "2026-01-05", 0)
	b := datedTask("b", "2026-01-05", 1)
	tasks := []entities.Task{a, b}

	assert.Equal(t, 2, EndPosition(tasks, "2026-01-05"))
	assert.Equal(t, 0, EndPosition(tasks, InboxColumn))
}
