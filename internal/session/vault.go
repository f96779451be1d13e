package session

import (
	"context"
	"sync"
)

// Vault is durable secure storage for named credential values.
type Vault interface {
	// Get returns the stored value and whether it exists.
	Get(ctx context.Context, name string) (string, bool, error)
	Set(ctx context.Context, name, value string) error
	// Delete removes name. Deleting a missing name is not an error.
	Delete(ctx context.Context, name string) error
}

// MemoryVault keeps values in process memory. It never fails and forgets
// everything on exit.
type MemoryVault struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryVault creates an empty MemoryVault
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{values: make(map[string]string)}
}

func (v *MemoryVault) Get(_ context.Context, name string) (string, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	val, ok := v.values[name]
	return val, ok, nil
}

func (v *MemoryVault) Set(_ context.Context, name, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values[name] = value
	return nil
}

func (v *MemoryVault) Delete(_ context.Context, name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.values, name)
	return nil
}
