package persist

import (
	"log"
	"sync"
)

// DryConfigHelper keeps configurations in memory only. Used in dry run
// mode and in tests.
type DryConfigHelper struct {
	mu      sync.Mutex
	configs map[string]Registry
	values  map[string][]byte
}

var _ ConfigRegistry = &DryConfigHelper{}

// NewDryConfigHelper returns a ConfigRegistry without actual IOs
func NewDryConfigHelper() (ConfigRegistry, error) {
	return &DryConfigHelper{
		configs: make(map[string]Registry),
		values:  make(map[string][]byte),
	}, nil
}

// Register will add the config to the list
func (h *DryConfigHelper) Register(config Registry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.configs[config.Name()] = config
}

// Load will populate configs from the in-memory store
func (h *DryConfigHelper) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, config := range h.configs {
		if err := config.Load(h.values[config.Name()]); err != nil {
			return err
		}
	}
	return nil
}

// Save will copy each config value into the in-memory store
func (h *DryConfigHelper) Save() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, config := range h.configs {
		log.Printf("[dry run] persist: saving \"%s\"\n", config.Name())
		h.values[config.Name()] = config.Value()
	}
	return nil
}

// Apply will apply each config accordingly
func (h *DryConfigHelper) Apply() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, config := range h.configs {
		if err := config.Apply(); err != nil {
			return err
		}
	}
	return nil
}

// Close will release resources of each config
func (h *DryConfigHelper) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, config := range h.configs {
		if err := config.Close(); err != nil {
			log.Printf("persist: error closing \"%s\": %s\n", config.Name(), err)
		}
	}
}
