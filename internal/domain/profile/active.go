package profile

import "sync"

// ActivePointer holds the name of the active profile. Writers that must
// not follow a concurrent switch read it once and pass the name along.
type ActivePointer struct {
	mu   sync.RWMutex
	name string
}

// NewActivePointer creates a pointer at name
func NewActivePointer(name string) *ActivePointer {
	return &ActivePointer{name: name}
}

// Current returns the active profile name
func (p *ActivePointer) Current() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

// Set changes the active profile name
func (p *ActivePointer) Set(name string) {
	p.mu.Lock()
	p.name = name
	p.mu.Unlock()
}
