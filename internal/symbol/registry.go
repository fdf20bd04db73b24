package symbol

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a codec from configuration parameters.
type Factory func(params map[string]any) (Codec, error)

// Registry manages the registration and creation of symbol codecs.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a codec factory to the registry.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("codec name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("codec factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("codec %s is already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Create instantiates a codec by name with the given parameters.
func (r *Registry) Create(name string, params map[string]any) (Codec, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, name)
	}

	codec, err := factory(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create codec %s: %w", name, err)
	}
	return codec, nil
}

// IsRegistered checks if a codec with the given name is registered.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[name]
	return exists
}

// GetRegisteredNames returns all registered codec names in sorted order.
func (r *Registry) GetRegisteredNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds every built-in codec.
var DefaultRegistry = NewRegistry()

// DefaultCodecName is the codec used when configuration names none.
const DefaultCodecName = "zxing"

// New creates a codec from the default registry. An empty name selects DefaultCodecName.
func New(name string, params map[string]any) (Codec, error) {
	if name == "" {
		name = DefaultCodecName
	}
	return DefaultRegistry.Create(name, params)
}
