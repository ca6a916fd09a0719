package js

import (
	"sync"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// ElementCreator builds the element for a registered tag. Implementations
// normally call Context.NewElement with their own Behavior.
type ElementCreator func(c *Context, tag string) *Element

type classEntry struct {
	create ElementCreator
	proto  *goja.Object
}

// ClassRegistry maps tag names to element constructors for one context.
// Every registered class gets its own prototype inheriting Element.prototype,
// shared by all of its instances.
type ClassRegistry struct {
	ctx *Context

	mu      sync.RWMutex
	classes map[string]*classEntry
}

func newClassRegistry(c *Context) *ClassRegistry {
	return &ClassRegistry{ctx: c, classes: make(map[string]*classEntry)}
}

// Define registers create for tag. A tag that is already registered keeps its
// first constructor and Define reports false.
func (r *ClassRegistry) Define(tag string, create ElementCreator) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.classes[tag]; ok {
		r.ctx.logger.Debug("Class already defined", zap.String("tag", tag))
		return false
	}
	proto := r.ctx.rt.vm.NewObject()
	_ = proto.SetPrototype(r.ctx.elementProto)
	r.classes[tag] = &classEntry{create: create, proto: proto}
	return true
}

// Lookup returns the constructor registered for tag.
func (r *ClassRegistry) Lookup(tag string) (ElementCreator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.classes[tag]
	if !ok {
		return nil, false
	}
	return entry.create, true
}

// Prototype returns the shared prototype of a registered class, or nil.
// Methods set on it are visible to every instance of the class.
func (r *ClassRegistry) Prototype(tag string) *goja.Object {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.classes[tag]; ok {
		return entry.proto
	}
	return nil
}

// Instantiate resolves tag to an element. The root tag always yields the
// context's root. Registered tags use their constructor and everything else
// becomes a generic element.
func (r *ClassRegistry) Instantiate(tag string) *Element {
	if tag == r.ctx.cfg.RootTag {
		return r.ctx.root
	}
	if create, ok := r.Lookup(tag); ok {
		if el := create(r.ctx, tag); el != nil {
			return el
		}
	}
	return r.ctx.NewElement(tag, nil)
}

// prototypeFor returns the class prototype for tag, falling back to
// Element.prototype.
func (r *ClassRegistry) prototypeFor(tag string) *goja.Object {
	if proto := r.Prototype(tag); proto != nil {
		return proto
	}
	return r.ctx.elementProto
}
