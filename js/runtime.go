// Package js binds the goja JavaScript engine to the native node tree: it
// owns the execution context, the element bridge, the property trap and the
// asynchronous callbacks that settle promises from native completions.
package js

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// Runtime wraps a goja runtime with an event loop. goja is not goroutine
// safe: every call into the VM happens under mu, either from Execute or from
// the event loop.
type Runtime struct {
	vm        *goja.Runtime
	timers    *timerManager
	eventLoop *eventLoop
	logger    *zap.Logger

	mu      sync.Mutex
	errors  []error
	onError func(error)
}

// NewRuntime creates a new JavaScript runtime.
func NewRuntime(logger *zap.Logger) *Runtime {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runtime{
		vm:        goja.New(),
		timers:    newTimerManager(),
		eventLoop: newEventLoop(),
		logger:    logger,
	}
	r.setupConsole()
	r.setupTimers()
	return r
}

// VM returns the underlying goja runtime. Only use it on the loop goroutine.
func (r *Runtime) VM() *goja.Runtime {
	return r.vm
}

// SetOnError sets a callback for JavaScript errors.
func (r *Runtime) SetOnError(handler func(error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onError = handler
}

// Execute runs JavaScript code and returns the result.
func (r *Runtime) Execute(code string) (result goja.Value, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("script execution panic: %v", p)
			r.reportError(err)
		}
	}()

	result, err = r.vm.RunString(code)
	if err != nil {
		r.reportError(err)
	}
	return result, err
}

// ExecuteScript compiles and runs code attributed to src.
func (r *Runtime) ExecuteScript(code, src string) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("script compilation panic in %s: %v", src, p)
			r.reportError(err)
		}
	}()

	program, err := goja.Compile(src, code, false)
	if err != nil {
		r.reportError(err)
		return err
	}
	if _, err = r.vm.RunProgram(program); err != nil {
		r.reportError(err)
	}
	return err
}

// Errors returns all errors that occurred during execution.
func (r *Runtime) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error{}, r.errors...)
}

// ClearErrors clears the error list.
func (r *Runtime) ClearErrors() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = r.errors[:0]
}

// RunOnLoop schedules fn on the runtime goroutine. It is the only way other
// goroutines may touch script values. Returns false after Close.
func (r *Runtime) RunOnLoop(fn func(vm *goja.Runtime)) bool {
	return r.eventLoop.queueGoFunc(func() { fn(r.vm) })
}

// RunEventLoop processes one round of queued work.
// Returns true if there are more events to process.
func (r *Runtime) RunEventLoop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.eventLoop.runOnce(r)
}

// HasPendingWork returns true if there are timers or tasks waiting.
func (r *Runtime) HasPendingWork() bool {
	return r.timers.hasPending() || r.eventLoop.hasPending()
}

// Wait blocks until new work is queued, a timer is due or ctx is done.
func (r *Runtime) Wait(ctx context.Context) error {
	var timerC <-chan time.Time
	if d, ok := r.timers.nextDue(); ok {
		t := time.NewTimer(d)
		defer t.Stop()
		timerC = t.C
	}
	select {
	case <-r.eventLoop.wake:
	case <-timerC:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Close stops the loop. Pending tasks and timers are dropped.
func (r *Runtime) Close() {
	r.eventLoop.close()
	r.timers.clear()
}

// guard runs fn, turning a panic into a reported error. Caller holds mu.
func (r *Runtime) guard(label string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			r.reportError(fmt.Errorf("%s panic: %v", label, p))
		}
	}()
	fn()
}

// reportError records err. Caller holds mu.
func (r *Runtime) reportError(err error) {
	r.errors = append(r.errors, err)
	r.logger.Warn("Script error", zap.Error(err))
	if r.onError != nil {
		r.onError(err)
	}
}

// setupConsole routes console output to the logger.
func (r *Runtime) setupConsole() {
	console := r.vm.NewObject()
	logger := r.logger.Named("console")

	logAt := func(log func(string, ...zap.Field)) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			log(formatArgs(call.Arguments), zap.String("source", "console"))
			return goja.Undefined()
		}
	}
	console.Set("log", logAt(logger.Info))
	console.Set("info", logAt(logger.Info))
	console.Set("warn", logAt(logger.Warn))
	console.Set("error", logAt(logger.Error))
	console.Set("debug", logAt(logger.Debug))

	console.Set("assert", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 || !call.Arguments[0].ToBoolean() {
			msg := "Assertion failed"
			if len(call.Arguments) > 1 {
				msg += ": " + formatArgs(call.Arguments[1:])
			}
			logger.Error(msg, zap.String("source", "console"))
		}
		return goja.Undefined()
	})

	r.vm.Set("console", console)
}

// setupTimers creates setTimeout, setInterval, clearTimeout, clearInterval
// and queueMicrotask.
func (r *Runtime) setupTimers() {
	schedule := func(repeat bool) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			callback, ok := goja.AssertFunction(call.Argument(0))
			if !ok {
				return goja.Undefined()
			}
			delay := call.Argument(1).ToInteger()
			if delay < 0 {
				delay = 0
			}
			var args []goja.Value
			if len(call.Arguments) > 2 {
				args = call.Arguments[2:]
			}
			d := time.Duration(delay) * time.Millisecond
			var interval time.Duration
			if repeat {
				// Intervals are clamped to 4ms.
				if d < 4*time.Millisecond {
					d = 4 * time.Millisecond
				}
				interval = d
			}
			return r.vm.ToValue(r.timers.schedule(callback, d, interval, args))
		}
	}
	clear := func(call goja.FunctionCall) goja.Value {
		r.timers.clearTimer(int(call.Argument(0).ToInteger()))
		return goja.Undefined()
	}

	r.vm.Set("setTimeout", schedule(false))
	r.vm.Set("setInterval", schedule(true))
	r.vm.Set("clearTimeout", clear)
	r.vm.Set("clearInterval", clear)

	r.vm.Set("queueMicrotask", func(call goja.FunctionCall) goja.Value {
		callback, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(r.vm.NewTypeError("Failed to execute 'queueMicrotask': parameter 1 is not of type 'Function'."))
		}
		r.eventLoop.queueMicrotask(callback, nil)
		return goja.Undefined()
	})
}

// formatArgs formats function call arguments for console output.
func formatArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = formatValue(arg)
	}
	return strings.Join(parts, " ")
}

// formatValue formats a single value for output.
func formatValue(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	return v.String()
}
