package js

import (
	"sync"

	"github.com/dop251/goja"
)

// task represents a queued callback in the event loop.
type task struct {
	callback goja.Callable
	args     []goja.Value
}

// eventLoop orders work that must run on the runtime's goroutine: native
// completions marshaled from other goroutines and microtasks. Timers are
// kept by the timer manager.
type eventLoop struct {
	mu         sync.Mutex
	goFuncs    []func()
	microtasks []task
	wake       chan struct{}
	closed     bool
}

func newEventLoop() *eventLoop {
	return &eventLoop{wake: make(chan struct{}, 1)}
}

// queueGoFunc schedules fn to run on the loop. It is safe to call from any
// goroutine and reports false once the loop is closed.
func (el *eventLoop) queueGoFunc(fn func()) bool {
	el.mu.Lock()
	if el.closed {
		el.mu.Unlock()
		return false
	}
	el.goFuncs = append(el.goFuncs, fn)
	el.mu.Unlock()
	el.signal()
	return true
}

// queueMicrotask adds a microtask to the queue.
// Microtasks run before due timers fire.
func (el *eventLoop) queueMicrotask(callback goja.Callable, args []goja.Value) {
	el.mu.Lock()
	el.microtasks = append(el.microtasks, task{callback: callback, args: args})
	el.mu.Unlock()
	el.signal()
}

// runOnce drains marshaled Go functions and microtasks, then fires due
// timers. The caller must hold the runtime lock.
// Returns true if there is more queued work.
func (el *eventLoop) runOnce(r *Runtime) bool {
	for {
		el.mu.Lock()
		fns := el.goFuncs
		el.goFuncs = nil
		el.mu.Unlock()
		if len(fns) == 0 {
			break
		}
		for _, fn := range fns {
			r.guard("native completion", fn)
		}
	}

	for {
		el.mu.Lock()
		if len(el.microtasks) == 0 {
			el.mu.Unlock()
			break
		}
		t := el.microtasks[0]
		el.microtasks = el.microtasks[1:]
		el.mu.Unlock()

		if _, err := t.callback(goja.Undefined(), t.args...); err != nil {
			r.reportError(err)
		}
	}

	r.timers.process(r)

	return el.hasPending()
}

// hasPending returns true if there are any queued tasks.
func (el *eventLoop) hasPending() bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	return len(el.goFuncs) > 0 || len(el.microtasks) > 0
}

// close drops queued work and rejects further Go functions.
func (el *eventLoop) close() {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.closed = true
	el.goFuncs = nil
	el.microtasks = nil
}

func (el *eventLoop) signal() {
	select {
	case el.wake <- struct{}{}:
	default:
	}
}
