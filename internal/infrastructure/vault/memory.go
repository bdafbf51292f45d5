package vault

import (
	"context"
	"sync"

	"github.com/stockpilot/backend/internal/domain/integration"
)

// MemoryVault keeps credentials in a map
type MemoryVault struct {
	mu      sync.RWMutex
	secrets map[string]integration.Credentials
}

// NewMemoryVault creates an empty vault
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{secrets: make(map[string]integration.Credentials)}
}

func (v *MemoryVault) Put(_ context.Context, ref string, creds integration.Credentials) error {
	v.mu.Lock()
	v.secrets[ref] = creds
	v.mu.Unlock()
	return nil
}

func (v *MemoryVault) Get(_ context.Context, ref string) (integration.Credentials, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	creds, ok := v.secrets[ref]
	if !ok {
		return integration.Credentials{}, integration.ErrCredentialsNotFound
	}
	return creds, nil
}

func (v *MemoryVault) Delete(_ context.Context, ref string) error {
	v.mu.Lock()
	delete(v.secrets, ref)
	v.mu.Unlock()
	return nil
}

var _ integration.CredentialVault = (*MemoryVault)(nil)
