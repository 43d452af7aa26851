package persona

import "errors"

// ErrUnknownPersona is returned when an identifier resolves to no persona.
// It belongs at the request boundary; dispatch never sees an unknown id.
var ErrUnknownPersona = errors.New("unknown persona")

// Store exposes persona retrieval for HTTP handlers and dispatch.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
}

// MemoryStore implements Store with an in-memory slice; the persona set is
// a closed enumeration with no mutable state.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns the predefined persona list.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}
