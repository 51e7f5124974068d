package profile

import (
	"sync"

	"github.com/pkg/errors"
)

// Host is the in-process attachment point for the power management
// framework: the adapter registers against it, and the attribute
// surface queries profiles through it.
type Host struct {
	mu      sync.RWMutex
	name    string
	adapter *Adapter
}

var _ Registrar = &Host{}

func NewHost() *Host {
	return &Host{}
}

// Register satisfies Registrar
func (h *Host) Register(name string, adapter *Adapter) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.adapter != nil {
		return errors.Errorf("profile: %s is already registered", h.name)
	}
	h.name = name
	h.adapter = adapter
	return nil
}

func (h *Host) registered() (*Adapter, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.adapter == nil {
		return nil, ErrUnsupported
	}
	return h.adapter, nil
}

// Probe reports the profiles of the registered adapter
func (h *Host) Probe() ([]Profile, error) {
	adapter, err := h.registered()
	if err != nil {
		return nil, err
	}
	return adapter.Probe()
}

// Get returns the current profile of the registered adapter
func (h *Host) Get() (Profile, error) {
	adapter, err := h.registered()
	if err != nil {
		return 0, err
	}
	return adapter.Get()
}

// Set changes the profile through the registered adapter
func (h *Host) Set(p Profile) error {
	adapter, err := h.registered()
	if err != nil {
		return err
	}
	return adapter.Set(p)
}
