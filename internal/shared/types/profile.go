package types

import (
	"sort"
	"time"
)

const (
	// DefaultProfileName is the sentinel profile that always exists and
	// can never be deleted or used as a duplication source.
	DefaultProfileName = "Default"

	// MaxProfileNameLength is the longest accepted profile name, in characters.
	MaxProfileNameLength = 50

	// RegistryVersion is the current profiles.json schema version.
	RegistryVersion = 1
)

// Profile is one entry of the profile registry.
type Profile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	LastUsed    time.Time `json:"last_used"`
}

// IsDefault reports whether p is the sentinel profile.
func (p Profile) IsDefault() bool {
	return p.Name == DefaultProfileName
}

// Registry is the profiles.json document.
type Registry struct {
	Version   int                `json:"version"`
	UpdatedAt time.Time          `json:"updated_at"`
	Profiles  map[string]Profile `json:"profiles"`
}

// Get returns the profile registered under exactly name.
func (r *Registry) Get(name string) (Profile, bool) {
	if r == nil || r.Profiles == nil {
		return Profile{}, false
	}
	p, ok := r.Profiles[name]
	return p, ok
}

// Len returns the number of registered profiles.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Profiles)
}

// Sorted returns the profiles with the sentinel first, then by name.
func (r *Registry) Sorted() []Profile {
	if r == nil {
		return nil
	}
	out := make([]Profile, 0, len(r.Profiles))
	for _, p := range r.Profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault() != out[j].IsDefault() {
			return out[i].IsDefault()
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Clone returns a deep copy so callers can mutate without touching a cache.
func (r *Registry) Clone() *Registry {
	if r == nil {
		return nil
	}
	clone := &Registry{
		Version:   r.Version,
		UpdatedAt: r.UpdatedAt,
		Profiles:  make(map[string]Profile, len(r.Profiles)),
	}
	for k, v := range r.Profiles {
		clone.Profiles[k] = v
	}
	return clone
}
