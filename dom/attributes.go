package dom

import (
	"fmt"
	"strings"
)

// IsIndexName reports whether name begins with a decimal digit. Those names
// collide with indexed property access and are never stored as attributes.
func IsIndexName(name string) bool {
	if name == "" {
		return false
	}
	c := name[0]
	return c >= '0' && c <= '9'
}

// AttributeStore maps lowercased attribute names to opaque values.
//
// Values are retained while stored. The release function passed to
// NewAttributeStore is called exactly once for every value that leaves the
// store, whether it was overwritten, removed or cleared.
type AttributeStore[V any] struct {
	values  map[string]V
	order   []string
	release func(V)
}

// NewAttributeStore creates an empty store. release may be nil.
func NewAttributeStore[V any](release func(V)) *AttributeStore[V] {
	return &AttributeStore[V]{
		values:  make(map[string]V),
		release: release,
	}
}

// Get returns the value stored under name.
func (s *AttributeStore[V]) Get(name string) (V, bool) {
	var zero V
	if IsIndexName(name) {
		return zero, false
	}
	v, ok := s.values[strings.ToLower(name)]
	return v, ok
}

// Has reports whether name is present.
func (s *AttributeStore[V]) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Set stores value under the lowercased name, releasing any previous value.
func (s *AttributeStore[V]) Set(name string, value V) error {
	if name == "" || IsIndexName(name) {
		return fmt.Errorf("%w: '%s'", ErrInvalidAttributeName, name)
	}
	name = strings.ToLower(name)
	if old, ok := s.values[name]; ok {
		s.values[name] = value
		s.drop(old)
		return nil
	}
	s.values[name] = value
	s.order = append(s.order, name)
	return nil
}

// Remove deletes name and returns the value it held. The returned value has
// already been released.
func (s *AttributeStore[V]) Remove(name string) (V, bool) {
	_, v, ok := s.Take(name)
	return v, ok
}

// Take is Remove that also reports the lowercased key the value was stored
// under.
func (s *AttributeStore[V]) Take(name string) (string, V, bool) {
	var zero V
	if IsIndexName(name) {
		return "", zero, false
	}
	key := strings.ToLower(name)
	old, ok := s.values[key]
	if !ok {
		return "", zero, false
	}
	delete(s.values, key)
	for i, n := range s.order {
		if n == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.drop(old)
	return key, old, true
}

// Names returns attribute names in insertion order.
func (s *AttributeStore[V]) Names() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of stored attributes.
func (s *AttributeStore[V]) Len() int {
	return len(s.values)
}

// Clear releases every stored value. Used when the owning node is destroyed.
func (s *AttributeStore[V]) Clear() {
	for _, name := range s.order {
		s.drop(s.values[name])
	}
	s.values = make(map[string]V)
	s.order = nil
}

func (s *AttributeStore[V]) drop(v V) {
	if s.release != nil {
		s.release(v)
	}
}
