package localstore

import (
	"context"
	"sync"

	"github.com/weekplanner/core/internal/domain/entities"
)

// CredentialRepository implements ports.CredentialRepository on the local
// store. A single PIN hash guards the whole store.
type CredentialRepository struct {
	store *Store
	mu    sync.Mutex
}

// NewCredentialRepository creates a credential repository over the store.
func NewCredentialRepository(store *Store) *CredentialRepository {
	return &CredentialRepository{store: store}
}

func (r *CredentialRepository) GetPINHash(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var hash string
	found, err := r.store.get(ctx, keyPIN, &hash)
	if err != nil {
		return "", err
	}
	if !found || hash == "" {
		return "", entities.ErrPINNotSet
	}

	return hash, nil
}

func (r *CredentialRepository) SetPINHash(ctx context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.put(ctx, keyPIN, hash)
}
