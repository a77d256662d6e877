package localstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weekplanner/core/internal/domain/entities"
	"github.com/weekplanner/core/internal/ports"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "planner.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTaskRoundTrip(t *testing.T) {
	store := openTestStore(t)
	repo := NewTaskRepository(store)
	ctx := context.Background()

	date := "2026-01-06"
	task := entities.Task{
		ID:            uuid.New(),
		Title:         "water the plants",
		Urgency:       entities.UrgencyLow,
		DayOfWeek:     entities.DayTuesday,
		ScheduledDate: &date,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}

	require.NoError(t, repo.Create(ctx, "", &task))

	got, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, task.ID, got[0].ID)
	assert.Equal(t, "water the plants", got[0].Title)
	require.NotNil(t, got[0].ScheduledDate)
	assert.Equal(t, date, *got[0].ScheduledDate)
}

func TestTasksSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planner.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	task := entities.Task{ID: uuid.New(), Title: "persisted", DayOfWeek: entities.DayInbox}
	require.NoError(t, NewTaskRepository(store).Create(ctx, "", &task))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	got, err := NewTaskRepository(store).List(ctx, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "persisted", got[0].Title)
}

func TestListSortsByPosition(t *testing.T) {
	store := openTestStore(t)
	repo := NewTaskRepository(store)
	ctx := context.Background()

	for _, pos := range []int{2, 0, 1} {
		task := entities.Task{ID: uuid.New(), Title: "t", DayOfWeek: entities.DayInbox, Position: pos}
		require.NoError(t, repo.Create(ctx, "", &task))
	}

	got, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, task := range got {
		assert.Equal(t, i, task.Position)
	}
}

func TestUpdateMergesFields(t *testing.T) {
	store := openTestStore(t)
	repo := NewTaskRepository(store)
	ctx := context.Background()

	task := entities.Task{ID: uuid.New(), Title: "before", Notes: "keep me", DayOfWeek: entities.DayInbox}
	require.NoError(t, repo.Create(ctx, "", &task))

	title := "after"
	merged, err := repo.Update(ctx, "", task.ID, ports.TaskUpdate{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "after", merged.Title)
	assert.Equal(t, "keep me", merged.Notes)
	assert.False(t, merged.UpdatedAt.IsZero())
}

func TestUpdateMissingTask(t *testing.T) {
	store := openTestStore(t)
	repo := NewTaskRepository(store)

	title := "x"
	_, err := repo.Update(context.Background(), "", uuid.New(), ports.TaskUpdate{Title: &title})
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	repo := NewTaskRepository(store)
	ctx := context.Background()

	task := entities.Task{ID: uuid.New(), Title: "gone", DayOfWeek: entities.DayInbox}
	require.NoError(t, repo.Create(ctx, "", &task))

	deleted, err := repo.Delete(ctx, "", task.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, "", task.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestPurgeCompletedBefore(t *testing.T) {
	store := openTestStore(t)
	repo := NewTaskRepository(store)
	ctx := context.Background()
	now := time.Now().UTC()

	old := now.Add(-40 * 24 * time.Hour)
	recent := now.Add(-time.Hour)
	expired := entities.Task{ID: uuid.New(), DayOfWeek: entities.DayInbox, IsCompleted: true, CompletedAt: &old}
	fresh := entities.Task{ID: uuid.New(), DayOfWeek: entities.DayInbox, IsCompleted: true, CompletedAt: &recent}
	active := entities.Task{ID: uuid.New(), DayOfWeek: entities.DayInbox}
	for _, task := range []entities.Task{expired, fresh, active} {
		task := task
		require.NoError(t, repo.Create(ctx, "", &task))
	}

	purged, err := repo.PurgeCompletedBefore(ctx, "", now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	got, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestUpdatePositions(t *testing.T) {
	store := openTestStore(t)
	repo := NewTaskRepository(store)
	ctx := context.Background()

	a := entities.Task{ID: uuid.New(), Title: "a", DayOfWeek: entities.DayInbox, Position: 0}
	b := entities.Task{ID: uuid.New(), Title: "b", DayOfWeek: entities.DayInbox, Position: 1}
	for _, task := range []*entities.Task{&a, &b} {
		require.NoError(t, repo.Create(ctx, "", task))
	}

	date := "2026-01-07"
	a.ScheduledDate = &date
	a.DayOfWeek = entities.DayWednesday
	a.Position = 0
	b.Position = 0
	require.NoError(t, repo.UpdatePositions(ctx, "", []entities.Task{a, b}))

	got, err := repo.List(ctx, "")
	require.NoError(t, err)
	byTitle := map[string]entities.Task{}
	for _, task := range got {
		byTitle[task.Title] = task
	}
	require.NotNil(t, byTitle["a"].ScheduledDate)
	assert.Equal(t, date, *byTitle["a"].ScheduledDate)
	assert.Equal(t, entities.DayWednesday, byTitle["a"].DayOfWeek)
	assert.Equal(t, 0, byTitle["b"].Position)
}

func TestCategoryRepository(t *testing.T) {
	store := openTestStore(t)
	taskRepo := NewTaskRepository(store)
	repo := NewCategoryRepository(store, taskRepo)
	ctx := context.Background()

	work := entities.Category{ID: uuid.New(), Name: "Work", Color: "#8b5cf6", CreatedAt: time.Now().UTC()}
	home := entities.Category{ID: uuid.New(), Name: "Home", Color: "#3b82f6", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, "", &work))
	require.NoError(t, repo.Create(ctx, "", &home))

	task := entities.Task{ID: uuid.New(), Title: "t", CategoryID: work.ID, DayOfWeek: entities.DayInbox}
	require.NoError(t, taskRepo.Create(ctx, "", &task))

	moved, err := repo.ReassignTasks(ctx, "", work.ID, home.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), moved)

	deleted, err := repo.Delete(ctx, "", work.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	categories, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Home", categories[0].Name)

	tasks, err := taskRepo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, home.ID, tasks[0].CategoryID)
}

func TestCredentialRepository(t *testing.T) {
	store := openTestStore(t)
	repo := NewCredentialRepository(store)
	ctx := context.Background()

	_, err := repo.GetPINHash(ctx)
	assert.ErrorIs(t, err, entities.ErrPINNotSet)

	require.NoError(t, repo.SetPINHash(ctx, "abc123"))

	hash, err := repo.GetPINHash(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc123", hash)

	require.NoError(t, repo.SetPINHash(ctx, "def456"))
	hash, err = repo.GetPINHash(ctx)
	require.NoError(t, err)
	assert.Equal(t, "def456", hash)
}
