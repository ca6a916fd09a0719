package js

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// Handle identifies one in-flight native request.
type Handle uint64

// ResultBuilder turns native payload bytes into the value a promise resolves
// with. It runs on the loop goroutine.
type ResultBuilder func(vm *goja.Runtime, data []byte) (goja.Value, error)

// CallbackContext correlates a native request with the promise awaiting it.
type CallbackContext struct {
	// Target is the element the request was issued for.
	Target int64
	// PixelRatio is the requested device pixel ratio for exports.
	PixelRatio float64
	// Build converts the success payload. Nil resolves with an ArrayBuffer.
	Build ResultBuilder

	promise *goja.Promise
	resolve func(any) error
	reject  func(any) error
	settled bool
}

// Promise returns the promise settled by this context.
func (cc *CallbackContext) Promise() *goja.Promise { return cc.promise }

// Callbacks tracks in-flight native requests for a context. Each context is
// settled exactly once, on the loop goroutine, no matter how many times the
// native side reports completion.
type Callbacks struct {
	rt     *Runtime
	logger *zap.Logger

	mu      sync.Mutex
	next    Handle
	pending map[Handle]*CallbackContext

	live     atomic.Int64
	released atomic.Int64

	onInternalError func(error)
}

func newCallbacks(rt *Runtime, logger *zap.Logger) *Callbacks {
	return &Callbacks{
		rt:      rt,
		logger:  logger,
		next:    1,
		pending: make(map[Handle]*CallbackContext),
	}
}

// OnInternalError installs a hook for protocol violations by the native side,
// such as duplicate completions. They are otherwise only logged.
func (cb *Callbacks) OnInternalError(fn func(error)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onInternalError = fn
}

// NewContext creates a callback context with a fresh promise capability.
// It must be called on the loop goroutine.
func (cb *Callbacks) NewContext(target int64, pixelRatio float64, build ResultBuilder) *CallbackContext {
	promise, resolve, reject := cb.rt.vm.NewPromise()
	return &CallbackContext{
		Target:     target,
		PixelRatio: pixelRatio,
		Build:      build,
		promise:    promise,
		resolve:    resolve,
		reject:     reject,
	}
}

// Register stores cc under a new handle and then calls invoke with it to
// start the native work.
func (cb *Callbacks) Register(cc *CallbackContext, invoke func(Handle)) Handle {
	cb.mu.Lock()
	h := cb.next
	cb.next++
	cb.pending[h] = cc
	cb.mu.Unlock()
	cb.live.Add(1)

	cb.logger.Debug("Callback registered",
		zap.Uint64("handle", uint64(h)), zap.Int64("target", cc.Target))
	invoke(h)
	return h
}

// Complete reports the outcome of the request behind h. It may be called
// from any goroutine. The promise is settled later on the loop goroutine.
func (cb *Callbacks) Complete(h Handle, data []byte, err error) {
	cb.mu.Lock()
	cc, ok := cb.pending[h]
	if !ok {
		known := h > 0 && h < cb.next
		cb.mu.Unlock()
		if known {
			cb.internalError(fmt.Errorf("%w: handle %d", ErrAlreadySettled, h))
		} else {
			cb.internalError(fmt.Errorf("%w: handle %d", ErrUnknownHandle, h))
		}
		return
	}
	delete(cb.pending, h)
	payload := append([]byte(nil), data...)
	queued := cb.rt.eventLoop.queueGoFunc(func() {
		if serr := cb.settle(cc, payload, err); serr != nil {
			cb.rt.reportError(serr)
		}
	})
	cb.mu.Unlock()

	if !queued {
		cb.logger.Warn("Completion after loop closed", zap.Uint64("handle", uint64(h)))
	}
}

// Pending returns the number of registered contexts not yet released.
func (cb *Callbacks) Pending() int {
	return int(cb.live.Load())
}

// Released returns the number of contexts released so far.
func (cb *Callbacks) Released() int64 {
	return cb.released.Load()
}

// settle resolves or rejects cc and releases it. It runs on the loop
// goroutine with the runtime lock held.
func (cb *Callbacks) settle(cc *CallbackContext, data []byte, err error) error {
	if cc.settled {
		cb.internalError(ErrAlreadySettled)
		return nil
	}
	cc.settled = true
	defer func() {
		cb.live.Add(-1)
		cb.released.Add(1)
	}()

	vm := cb.rt.vm
	if err == nil {
		var value goja.Value
		value, err = cb.build(vm, cc, data)
		if err == nil {
			return cc.resolve(value)
		}
	}

	errObj, nerr := newError(vm, err.Error())
	if nerr != nil {
		return fmt.Errorf("creating rejection for target %d: %w", cc.Target, nerr)
	}
	return cc.reject(errObj)
}

func (cb *Callbacks) build(vm *goja.Runtime, cc *CallbackContext, data []byte) (goja.Value, error) {
	if cc.Build == nil {
		return vm.ToValue(vm.NewArrayBuffer(data)), nil
	}
	return cc.Build(vm, data)
}

// close stops accepting completions and returns the contexts still waiting
// so the caller can reject them.
func (cb *Callbacks) close() []*CallbackContext {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	out := make([]*CallbackContext, 0, len(cb.pending))
	for h, cc := range cb.pending {
		out = append(out, cc)
		delete(cb.pending, h)
	}
	return out
}

func (cb *Callbacks) internalError(err error) {
	cb.logger.Warn("Callback protocol violation", zap.Error(err))
	cb.mu.Lock()
	fn := cb.onInternalError
	cb.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

// newError creates a script Error carrying message.
func newError(vm *goja.Runtime, message string) (*goja.Object, error) {
	ctor, ok := goja.AssertConstructor(vm.Get("Error"))
	if !ok {
		return nil, errors.New("missing Error constructor")
	}
	return ctor(nil, vm.ToValue(message))
}
