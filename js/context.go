package js

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/chrisuehlinger/nodebridge/command"
	"github.com/chrisuehlinger/nodebridge/config"
	"github.com/chrisuehlinger/nodebridge/dom"
	"github.com/chrisuehlinger/nodebridge/host"
	"github.com/dop251/goja"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// RootID is the fixed target id of the root element.
const RootID = command.RootTarget

// Context is one execution context: a goja runtime plus everything that is
// keyed by it. Nothing here is shared between contexts.
type Context struct {
	ID string

	cfg       config.BridgeConfig
	logger    *zap.Logger
	rt        *Runtime
	buffer    *command.Buffer
	classes   *ClassRegistry
	callbacks *Callbacks
	host      *host.Registry

	elementProto *goja.Object
	blobCtor     *goja.Object
	root         *Element
	body         *Element

	nextID   atomic.Int64
	retained atomic.Int64
	disposed atomic.Int64

	nodesMu sync.Mutex
	nodes   map[int64]weak.Pointer[Element]

	closeOnce sync.Once
	closed    atomic.Bool
}

// Option configures a Context.
type Option func(*Context)

// WithConfig sets the bridge configuration.
func WithConfig(cfg config.BridgeConfig) Option {
	return func(c *Context) { c.cfg = cfg }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Context) { c.logger = logger }
}

// WithHost sets the native service registry.
func WithHost(registry *host.Registry) Option {
	return func(c *Context) { c.host = registry }
}

// NewContext creates a context with its runtime, command buffer, class
// registry and root element.
func NewContext(opts ...Option) *Context {
	c := &Context{
		ID:     uuid.NewString(),
		cfg:    config.NewDefaultConfig().Bridge,
		logger: zap.NewNop(),
		nodes:  make(map[int64]weak.Pointer[Element]),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.host == nil {
		c.host = host.NewRegistry()
	}
	c.logger = c.logger.With(zap.String("context", c.ID))

	c.rt = NewRuntime(c.logger.Named("runtime"))
	c.buffer = command.NewBuffer(c.logger)
	c.classes = newClassRegistry(c)
	c.callbacks = newCallbacks(c.rt, c.logger.Named("callbacks"))

	c.setupElementPrototype()
	c.setupBlob()
	c.root = c.newElement(c.cfg.RootTag, RootID, nil, false)
	c.setupDocument()

	c.logger.Debug("Context created")
	return c
}

// Runtime returns the script runtime.
func (c *Context) Runtime() *Runtime { return c.rt }

// Buffer returns the command buffer consumed by the renderer.
func (c *Context) Buffer() *command.Buffer { return c.buffer }

// Classes returns the class registry.
func (c *Context) Classes() *ClassRegistry { return c.classes }

// Callbacks returns the registry of in-flight native requests.
func (c *Context) Callbacks() *Callbacks { return c.callbacks }

// Host returns the native service registry.
func (c *Context) Host() *host.Registry { return c.host }

// Logger returns the context logger.
func (c *Context) Logger() *zap.Logger { return c.logger }

// Root returns the root element.
func (c *Context) Root() *Element { return c.root }

// RetainedValues returns the number of attribute values currently held by
// live elements.
func (c *Context) RetainedValues() int64 { return c.retained.Load() }

// Disposed returns how many elements have been reclaimed.
func (c *Context) Disposed() int64 { return c.disposed.Load() }

// CreateElement resolves tag through the class registry.
func (c *Context) CreateElement(tag string) *Element {
	return c.classes.Instantiate(tag)
}

// NewElement creates an element for tag with a fresh target id and announces
// it to the native side. A nil behavior means the generic element.
func (c *Context) NewElement(tag string, behavior Behavior) *Element {
	return c.newElement(tag, c.nextID.Add(1), behavior, true)
}

func (c *Context) newElement(tag string, id int64, behavior Behavior, announce bool) *Element {
	if behavior == nil {
		behavior = BaseBehavior{}
	}
	el := &Element{
		ctx:      c,
		id:       id,
		tag:      tag,
		behavior: behavior,
		held:     new(atomic.Int64),
	}
	if announce {
		c.buffer.Append(id, command.CreateElement, tag)
	}
	el.node = dom.NewNode(tag, el, el)
	el.attrs = dom.NewAttributeStore(c.releaseValue(el.held))
	el.style = dom.NewCSSStyleDeclaration(el.styleChanged)
	el.object = c.rt.vm.NewDynamicObject(&propertyTrap{el: el})
	_ = el.object.SetPrototype(c.classes.prototypeFor(tag))

	c.nodesMu.Lock()
	c.nodes[id] = weak.Make(el)
	c.nodesMu.Unlock()

	if id != RootID {
		runtime.AddCleanup(el, c.dispose, disposal{id: id, held: el.held})
	}
	return el
}

// ElementByID returns the live element with the given target id.
func (c *Context) ElementByID(id int64) (*Element, bool) {
	c.nodesMu.Lock()
	defer c.nodesMu.Unlock()
	wp, ok := c.nodes[id]
	if !ok {
		return nil, false
	}
	el := wp.Value()
	return el, el != nil
}

// LiveElements returns the number of elements not yet reclaimed.
func (c *Context) LiveElements() int {
	c.nodesMu.Lock()
	defer c.nodesMu.Unlock()
	return len(c.nodes)
}

// disposal is what survives an element for its cleanup. It must not reach
// the element, so it carries the count of held attribute values and never
// the values themselves: a value may refer back to its element.
type disposal struct {
	id   int64
	held *atomic.Int64
}

// dispose runs on the runtime's cleanup goroutine after the element and its
// script value were collected.
func (c *Context) dispose(d disposal) {
	c.nodesMu.Lock()
	delete(c.nodes, d.id)
	c.nodesMu.Unlock()

	c.retained.Add(-d.held.Swap(0))
	c.disposed.Add(1)
	c.buffer.Append(d.id, command.DisposeEventTarget)
	c.logger.Debug("Element disposed", zap.Int64("target", d.id))
}

// releaseValue returns the release hook for one element's attribute store.
func (c *Context) releaseValue(held *atomic.Int64) func(goja.Value) {
	return func(goja.Value) {
		held.Add(-1)
		c.retained.Add(-1)
	}
}

// Execute runs code in the context.
func (c *Context) Execute(code string) (goja.Value, error) {
	if c.closed.Load() {
		return nil, ErrContextClosed
	}
	return c.rt.Execute(code)
}

// ExecuteScript runs code attributed to src.
func (c *Context) ExecuteScript(code, src string) error {
	if c.closed.Load() {
		return ErrContextClosed
	}
	return c.rt.ExecuteScript(code, src)
}

// Flush blocks until the renderer has processed every queued command or the
// configured timeout expires.
func (c *Context) Flush() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.FlushTimeout)
	defer cancel()
	if err := c.buffer.RequestFlush(ctx); err != nil {
		c.logger.Warn("Flush failed", zap.Error(err))
		return err
	}
	return nil
}

// RunUntilIdle drives the event loop until there are no tasks, timers or
// in-flight native requests left, or ctx is done.
func (c *Context) RunUntilIdle(ctx context.Context) error {
	for {
		if c.closed.Load() {
			return ErrContextClosed
		}
		if c.rt.RunEventLoop() {
			continue
		}
		if !c.rt.HasPendingWork() && c.callbacks.Pending() == 0 {
			return nil
		}
		if err := c.rt.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for pending work: %w", err)
		}
	}
}

// Close rejects every in-flight native request, stops the event loop and
// closes the command buffer.
func (c *Context) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		pending := c.callbacks.close()
		c.rt.RunEventLoop()

		c.rt.mu.Lock()
		for _, cc := range pending {
			err = multierr.Append(err, c.callbacks.settle(cc, nil, ErrContextClosed))
		}
		c.rt.mu.Unlock()

		c.rt.Close()
		c.buffer.Close()
		c.logger.Debug("Context closed", zap.Int("rejected", len(pending)))
	})
	return err
}
