package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weekplanner/core/internal/application/state"
	"github.com/weekplanner/core/internal/domain/board"
	"github.com/weekplanner/core/internal/domain/entities"
	"github.com/weekplanner/core/internal/ports"
)

const testUser = "user-1"

func seedCategories(t *testing.T, f *serviceFixture) []entities.Category {
	t.Helper()
	categories, err := f.category.List(context.Background(), testUser)
	require.NoError(t, err)
	require.NotEmpty(t, categories)
	return categories
}

func TestCreateAppliesDefaults(t *testing.T) {
	f := newServiceFixture()
	categories := seedCategories(t, f)
	ctx := context.Background()

	task, err := f.tasks.Create(ctx, testUser, ports.CreateTaskRequest{Title: "  buy milk  "})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, task.ID)
	assert.Equal(t, "buy milk", task.Title)
	assert.Equal(t, entities.UrgencyMedium, task.Urgency)
	assert.Equal(t, categories[0].ID, task.CategoryID)
	assert.Equal(t, entities.DayInbox, task.DayOfWeek)
	assert.Nil(t, task.ScheduledDate)
	assert.Equal(t, 0, task.Position)

	listed, err := f.tasks.List(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, task.ID, listed[0].ID)
}

func TestCreateAppendsToColumnEnd(t *testing.T) {
	f := newServiceFixture()
	seedCategories(t, f)
	ctx := context.Background()

	first, err := f.tasks.Create(ctx, testUser, ports.CreateTaskRequest{Title: "first"})
	require.NoError(t, err)
	second, err := f.tasks.Create(ctx, testUser, ports.CreateTaskRequest{Title: "second"})
	require.NoError(t, err)

	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, second.Position)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateScheduledDerivesWeekday(t *testing.T) {
	f := newServiceFixture()
	seedCategories(t, f)

	date := "2026-01-09"
	task, err := f.tasks.Create(context.Background(), testUser, ports.CreateTaskRequest{
		Title:         "dated",
		ScheduledDate: &date,
	})
	require.NoError(t, err)

	assert.Equal(t, entities.DayFriday, task.DayOfWeek)
	require.NotNil(t, task.ScheduledDate)
	assert.Equal(t, date, *task.ScheduledDate)
}

func TestCreateRejectsBlankTitle(t *testing.T) {
	f := newServiceFixture()
	seedCategories(t, f)

	_, err := f.tasks.Create(context.Background(), testUser, ports.CreateTaskRequest{Title: "   "})
	assert.ErrorIs(t, err, entities.ErrEmptyTitle)
}

func TestUpdateMissingTask(t *testing.T) {
	f := newServiceFixture()
	seedCategories(t, f)

	title := "renamed"
	_, err := f.tasks.Update(context.Background(), testUser, uuid.New(), ports.UpdateTaskRequest{Title: &title})
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestUpdateToInbox(t *testing.T) {
	f := newServiceFixture()
	seedCategories(t, f)
	ctx := context.Background()

	date := "2026-01-09"
	task, err := f.tasks.Create(ctx, testUser, ports.CreateTaskRequest{Title: "dated", ScheduledDate: &date})
	require.NoError(t, err)

	updated, err := f.tasks.Update(ctx, testUser, task.ID, ports.UpdateTaskRequest{ToInbox: true})
	require.NoError(t, err)

	assert.Nil(t, updated.ScheduledDate)
	assert.Equal(t, entities.DayInbox, updated.DayOfWeek)
}

func TestCompleteAndRestore(t *testing.T) {
	f := newServiceFixture()
	seedCategories(t, f)
	ctx := context.Background()

	task, err := f.tasks.Create(ctx, testUser, ports.CreateTaskRequest{Title: "finish me"})
	require.NoError(t, err)

	done, err := f.tasks.Complete(ctx, testUser, task.ID)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
	require.NotNil(t, done.CompletedAt)

	back, err := f.tasks.Restore(ctx, testUser, task.ID)
	require.NoError(t, err)
	assert.False(t, back.IsCompleted)
	assert.Nil(t, back.CompletedAt)
}

func TestAppendWorkNotes(t *testing.T) {
	f := newServiceFixture()
	seedCategories(t, f)
	ctx := context.Background()

	task, err := f.tasks.Create(ctx, testUser, ports.CreateTaskRequest{Title: "noted"})
	require.NoError(t, err)

	first, err := f.tasks.AppendWorkNotes(ctx, testUser, task.ID, ports.WorkNotesRequest{Notes: "session one"})
	require.NoError(t, err)
	assert.Equal(t, "session one", first.Notes)

	second, err := f.tasks.AppendWorkNotes(ctx, testUser, task.ID, ports.WorkNotesRequest{Notes: "session two"})
	require.NoError(t, err)
	assert.Equal(t, "session one\n\n---\nsession two", second.Notes)
}

func TestDeleteReportsExistence(t *testing.T) {
	f := newServiceFixture()
	seedCategories(t, f)
	ctx := context.Background()

	task, err := f.tasks.Create(ctx, testUser, ports.CreateTaskRequest{Title: "short lived"})
	require.NoError(t, err)

	deleted, err := f.tasks.Delete(ctx, testUser, task.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = f.tasks.Delete(ctx, testUser, task.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	listed, err := f.tasks.List(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestListFiltered(t *testing.T) {
	f := newServiceFixture()
	categories := seedCategories(t, f)
	ctx := context.Background()

	_, err := f.tasks.Create(ctx, testUser, ports.CreateTaskRequest{
		Title:    "pay rent",
		Urgency:  entities.UrgencyCritical,
		Category: categories[0].ID.String(),
	})
	require.NoError(t, err)
	_, err = f.tasks.Create(ctx, testUser, ports.CreateTaskRequest{
		Title:    "water plants",
		Notes:    "the rubber tree too",
		Category: categories[1].ID.String(),
	})
	require.NoError(t, err)

	byUrgency, err := f.tasks.ListFiltered(ctx, testUser, ports.TaskFilter{Urgency: entities.UrgencyCritical})
	require.NoError(t, err)
	require.Len(t, byUrgency, 1)
	assert.Equal(t, "pay rent", byUrgency[0].Title)

	byCategory, err := f.tasks.ListFiltered(ctx, testUser, ports.TaskFilter{Category: categories[1].ID})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "water plants", byCategory[0].Title)

	// Search also covers notes, case-insensitively.
	bySearch, err := f.tasks.ListFiltered(ctx, testUser, ports.TaskFilter{Search: "RUBBER"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "water plants", bySearch[0].Title)

	all, err := f.tasks.ListFiltered(ctx, testUser, ports.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListFilteredByWeek(t *testing.T) {
	f := newServiceFixture()
	seedCategories(t, f)
	ctx := context.Background()

	week := board.WeekOf(time.Now().UTC())
	following := week.Next()
	thisMonday := week.Columns[0].ID
	nextMonday := following.Columns[0].ID

	_, err := f.tasks.Create(ctx, testUser, ports.CreateTaskRequest{Title: "undated"})
	require.NoError(t, err)
	_, err = f.tasks.Create(ctx, testUser, ports.CreateTaskRequest{Title: "this week", ScheduledDate: &thisMonday})
	require.NoError(t, err)
	_, err = f.tasks.Create(ctx, testUser, ports.CreateTaskRequest{Title: "next week", ScheduledDate: &nextMonday})
	require.NoError(t, err)

	titles := func(tasks []entities.Task) []string {
		out := make([]string, len(tasks))
		for i, task := range tasks {
			out[i] = task.Title
		}
		return out
	}

	// Inbox tasks show alongside whichever week is displayed.
	current, err := f.tasks.ListFiltered(ctx, testUser, ports.TaskFilter{Week: &week})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"undated", "this week"}, titles(current))

	ahead, err := f.tasks.ListFiltered(ctx, testUser, ports.TaskFilter{Week: &following})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"undated", "next week"}, titles(ahead))

	// Stepping back from the following week lands on the original one.
	previous := following.Prev()
	back, err := f.tasks.ListFiltered(ctx, testUser, ports.TaskFilter{Week: &previous})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"undated", "this week"}, titles(back))
}

func TestMovePersistsChangedSet(t *testing.T) {
	f := newServiceFixture()
	seedCategories(t, f)
	ctx := context.Background()

	a, err := f.tasks.Create(ctx, testUser, ports.CreateTaskRequest{Title: "a"})
	require.NoError(t, err)
	b, err := f.tasks.Create(ctx, testUser, ports.CreateTaskRequest{Title: "b"})
	require.NoError(t, err)

	week := board.WeekOf(time.Now().UTC())
	target := week.Columns[0].ID

	tasks, mut, err := f.tasks.Move(ctx, testUser, b.ID, ports.MoveTaskRequest{ColumnID: target, Index: 0})
	require.NoError(t, err)
	require.False(t, mut.Phase() == state.PhaseFailed)

	require.Eventually(t, func() bool {
		return mut.Phase() == state.PhaseConfirmed
	}, time.Second, 10*time.Millisecond)

	moved := board.ColumnTasks(tasks, target)
	require.Len(t, moved, 1)
	assert.Equal(t, b.ID, moved[0].ID)
	assert.Equal(t, 0, moved[0].Position)

	calls := f.store.PositionCalls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0], 1)
	assert.Equal(t, b.ID, calls[0][0].ID)

	// The durable store now agrees with the board.
	stored, err := f.store.List(ctx, testUser)
	require.NoError(t, err)
	for _, task := range stored {
		if task.ID == b.ID {
			require.NotNil(t, task.ScheduledDate)
			assert.Equal(t, target, *task.ScheduledDate)
		}
	}
	_ = a
}

func TestMoveSameSlotSkipsPersistence(t *testing.T) {
	f := newServiceFixture()
	seedCategories(t, f)
	ctx := context.Background()

	task, err := f.tasks.Create(ctx, testUser, ports.CreateTaskRequest{Title: "still"})
	require.NoError(t, err)

	_, mut, err := f.tasks.Move(ctx, testUser, task.ID, ports.MoveTaskRequest{ColumnID: "inbox", Index: 0})
	require.NoError(t, err)

	assert.Equal(t, state.PhaseConfirmed, mut.Phase())
	assert.Empty(t, f.store.PositionCalls())
}

func TestMoveUnknownColumn(t *testing.T) {
	f := newServiceFixture()
	seedCategories(t, f)
	ctx := context.Background()

	task, err := f.tasks.Create(ctx, testUser, ports.CreateTaskRequest{Title: "stuck"})
	require.NoError(t, err)

	_, _, err = f.tasks.Move(ctx, testUser, task.ID, ports.MoveTaskRequest{ColumnID: "1999-12-31", Index: 0})
	assert.ErrorIs(t, err, board.ErrUnknownColumn)
}

func TestHistoryNewestFirst(t *testing.T) {
	f := newServiceFixture()
	seedCategories(t, f)
	ctx := context.Background()

	older, err := f.tasks.Create(ctx, testUser, ports.CreateTaskRequest{Title: "older"})
	require.NoError(t, err)
	newer, err := f.tasks.Create(ctx, testUser, ports.CreateTaskRequest{Title: "newer"})
	require.NoError(t, err)
	_, err = f.tasks.Create(ctx, testUser, ports.CreateTaskRequest{Title: "active"})
	require.NoError(t, err)

	_, err = f.tasks.Complete(ctx, testUser, older.ID)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = f.tasks.Complete(ctx, testUser, newer.ID)
	require.NoError(t, err)

	history, err := f.tasks.History(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "newer", history[0].Title)
	assert.Equal(t, "older", history[1].Title)
}
