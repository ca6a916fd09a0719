// Package host describes the native services the bridge can call by name,
// such as exporting rendered pixels or querying layout.
package host

import (
	"errors"
	"fmt"
	"sync"
)

// Method names the bridge calls.
const (
	MethodToBlob               = "toBlob"
	QueryGetBoundingClientRect = "getBoundingClientRect"
)

// ErrServiceNotRegistered is returned when no service exists for a name.
var ErrServiceNotRegistered = errors.New("native method is not registered")

// Request carries the arguments of one native call.
type Request struct {
	ContextID string
	Target    int64
	Method    string
	// PixelRatio is used by export services.
	PixelRatio float64
}

// Completion delivers the result of an asynchronous service. It may be
// called from any goroutine, exactly once.
type Completion func(data []byte, err error)

// Service starts asynchronous native work and reports through done.
type Service func(req Request, done Completion)

// Query is a synchronous native call. The bridge flushes pending commands
// before calling it so the native state is current.
type Query func(req Request) ([]byte, error)

// Registry maps method names to native implementations.
type Registry struct {
	mu       sync.RWMutex
	services map[string]Service
	queries  map[string]Query
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		services: make(map[string]Service),
		queries:  make(map[string]Query),
	}
}

// RegisterService installs an asynchronous service, replacing any previous one.
func (r *Registry) RegisterService(name string, svc Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[name] = svc
}

// RegisterQuery installs a synchronous query, replacing any previous one.
func (r *Registry) RegisterQuery(name string, q Query) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries[name] = q
}

// Unregister removes both the service and the query registered under name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.services, name)
	delete(r.queries, name)
}

// Service returns the asynchronous service registered under name.
func (r *Registry) Service(name string) (Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotRegistered, name)
	}
	return svc, nil
}

// Query returns the synchronous query registered under name.
func (r *Registry) Query(name string) (Query, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.queries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotRegistered, name)
	}
	return q, nil
}
