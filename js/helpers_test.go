package js

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chrisuehlinger/nodebridge/command"
	"github.com/chrisuehlinger/nodebridge/config"
	"github.com/chrisuehlinger/nodebridge/host"
	"github.com/dop251/goja"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testBridgeConfig keeps flush waits short so a missing consumer fails fast.
func testBridgeConfig() config.BridgeConfig {
	cfg := config.NewDefaultConfig().Bridge
	cfg.FlushTimeout = 200 * time.Millisecond
	return cfg
}

func newTestContext(t *testing.T, opts ...Option) *Context {
	t.Helper()
	opts = append([]Option{
		WithConfig(testBridgeConfig()),
		WithLogger(zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))),
	}, opts...)
	c := NewContext(opts...)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// run executes code and fails the test on a script error.
func run(t *testing.T, c *Context, code string) goja.Value {
	t.Helper()
	v, err := c.Execute(code)
	require.NoError(t, err)
	return v
}

// consumer acknowledges every flush, standing in for the renderer. It records
// what it drained.
type consumer struct {
	mu       sync.Mutex
	commands []command.Command
	cancel   context.CancelFunc
	done     chan struct{}
}

func startConsumer(t *testing.T, buf *command.Buffer) *consumer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	cons := &consumer{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(cons.done)
		var last uint64
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-buf.Ready():
				cmds := buf.Drain()
				cons.mu.Lock()
				cons.commands = append(cons.commands, cmds...)
				cons.mu.Unlock()
				if len(cmds) > 0 {
					last = cmds[len(cmds)-1].Seq
				}
				buf.Acknowledge(last)
				if !ok {
					return
				}
			}
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-cons.done
	})
	return cons
}

func (cons *consumer) seen() []command.Command {
	cons.mu.Lock()
	defer cons.mu.Unlock()
	return append([]command.Command(nil), cons.commands...)
}

// commandsFor filters cmds down to one target.
func commandsFor(cmds []command.Command, target int64) []command.Command {
	var out []command.Command
	for _, c := range cmds {
		if c.Target == target {
			out = append(out, c)
		}
	}
	return out
}

// stripSeq zeroes sequence numbers so commands compare by content.
func stripSeq(cmds []command.Command) []command.Command {
	out := make([]command.Command, len(cmds))
	for i, c := range cmds {
		c.Seq = 0
		out[i] = c
	}
	return out
}

// fakeService captures toBlob requests so tests decide how they complete.
type fakeService struct {
	mu       sync.Mutex
	requests []host.Request
	done     []host.Completion
}

func (f *fakeService) serve(req host.Request, done host.Completion) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.done = append(f.done, done)
}

func (f *fakeService) completion(t *testing.T, i int) host.Completion {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Greater(t, len(f.done), i, "no request %d issued", i)
	return f.done[i]
}

func (f *fakeService) request(i int) host.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[i]
}

// settleWithin drives the loop until in-flight requests settle.
func settleWithin(t *testing.T, c *Context, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, c.RunUntilIdle(ctx))
}
