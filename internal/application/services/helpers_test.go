package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/weekplanner/core/internal/application/state"
	"github.com/weekplanner/core/internal/domain/entities"
	"github.com/weekplanner/core/internal/infrastructure/logger"
	"github.com/weekplanner/core/internal/ports"
)

// memStore is an in-memory stand-in for both task and category repositories.
// It records position writes so tests can assert what a move persisted.
type memStore struct {
	mu            sync.Mutex
	tasks         map[uuid.UUID]entities.Task
	categories    []entities.Category
	positionCalls [][]entities.Task
	purgeCalls    int
}

func newMemStore() *memStore {
	return &memStore{tasks: make(map[uuid.UUID]entities.Task)}
}

func (m *memStore) List(ctx context.Context, _ string) ([]entities.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entities.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memStore) Create(ctx context.Context, _ string, task *entities.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = *task
	return nil
}

func (m *memStore) Update(ctx context.Context, _ string, id uuid.UUID, upd ports.TaskUpdate) (*entities.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	upd.Apply(&t)
	t.UpdatedAt = time.Now().UTC()
	m.tasks[id] = t
	return &t, nil
}

func (m *memStore) Delete(ctx context.Context, _ string, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[id]
	delete(m.tasks, id)
	return ok, nil
}

func (m *memStore) PurgeCompletedBefore(ctx context.Context, _ string, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeCalls++
	var purged int64
	for id, t := range m.tasks {
		if t.IsCompleted && t.CompletedAt != nil && !t.CompletedAt.After(cutoff) {
			delete(m.tasks, id)
			purged++
		}
	}
	return purged, nil
}

func (m *memStore) UpdatePositions(ctx context.Context, _ string, changed []entities.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	recorded := make([]entities.Task, len(changed))
	copy(recorded, changed)
	m.positionCalls = append(m.positionCalls, recorded)
	for _, c := range changed {
		t, ok := m.tasks[c.ID]
		if !ok {
			continue
		}
		t.DayOfWeek = c.DayOfWeek
		t.ScheduledDate = c.ScheduledDate
		t.Position = c.Position
		m.tasks[c.ID] = t
	}
	return nil
}

func (m *memStore) PurgeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.purgeCalls
}

func (m *memStore) PositionCalls() [][]entities.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]entities.Task, len(m.positionCalls))
	copy(out, m.positionCalls)
	return out
}

// Category repository side.

func (m *memStore) ListCategories(ctx context.Context, _ string) ([]entities.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entities.Category, len(m.categories))
	copy(out, m.categories)
	return out, nil
}

func (m *memStore) CreateCategory(ctx context.Context, _ string, category *entities.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories = append(m.categories, *category)
	return nil
}

func (m *memStore) DeleteCategory(ctx context.Context, _ string, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.categories {
		if m.categories[i].ID == id {
			m.categories = append(m.categories[:i], m.categories[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ReassignTasks(ctx context.Context, _ string, from, to uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var moved int64
	for id, t := range m.tasks {
		if t.CategoryID == from {
			t.CategoryID = to
			m.tasks[id] = t
			moved++
		}
	}
	return moved, nil
}

// categoryView adapts memStore to ports.CategoryRepository.
type categoryView struct{ *memStore }

func (v categoryView) List(ctx context.Context, userID string) ([]entities.Category, error) {
	return v.ListCategories(ctx, userID)
}

func (v categoryView) Create(ctx context.Context, userID string, category *entities.Category) error {
	return v.CreateCategory(ctx, userID, category)
}

func (v categoryView) Delete(ctx context.Context, userID string, id uuid.UUID) (bool, error) {
	return v.DeleteCategory(ctx, userID, id)
}

// memUsers implements ports.UserRepository in memory.
type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]entities.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[uuid.UUID]entities.User)}
}

func (m *memUsers) Create(ctx context.Context, user *entities.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return entities.ErrUserExists
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	return &u, nil
}

// memTokens implements ports.AuthRepository in memory.
type memTokens struct {
	mu     sync.Mutex
	tokens map[string]ports.RefreshToken
	nextID int
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: make(map[string]ports.RefreshToken)}
}

func (m *memTokens) CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.tokens[tokenHash] = ports.RefreshToken{
		ID:        m.nextID,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (m *memTokens) GetRefreshToken(ctx context.Context, tokenHash string) (*ports.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenHash]
	if !ok {
		return nil, entities.ErrUnauthorized
	}
	return &t, nil
}

func (m *memTokens) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[tokenHash]; ok && t.RevokedAt == nil {
		now := time.Now().UTC()
		t.RevokedAt = &now
		m.tokens[tokenHash] = t
	}
	return nil
}

func (m *memTokens) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for hash, t := range m.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			m.tokens[hash] = t
		}
	}
	return nil
}

// memCreds implements ports.CredentialRepository in memory.
type memCreds struct {
	mu   sync.Mutex
	hash string
}

func (m *memCreds) GetPINHash(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hash == "" {
		return "", entities.ErrPINNotSet
	}
	return m.hash, nil
}

func (m *memCreds) SetPINHash(ctx context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hash = hash
	return nil
}

type serviceFixture struct {
	store    *memStore
	boards   *state.Manager
	tasks    *TaskService
	category *CategoryService
}

func newServiceFixture() *serviceFixture {
	store := newMemStore()
	boards := state.NewManager()
	log := logger.NewNop()
	tasks := NewTaskService(store, categoryView{store}, noopCache{}, boards, log)
	category := NewCategoryService(categoryView{store}, store, noopCache{}, boards, log)
	return &serviceFixture{store: store, boards: boards, tasks: tasks, category: category}
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) ([]entities.Task, bool) { return nil, false }
func (noopCache) Set(context.Context, string, []entities.Task)        {}
func (noopCache) Invalidate(context.Context, string)                  {}
