// Package command holds the ordered queue of mutations the script side sends
// to the native renderer.
package command

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrClosed is returned by operations on a closed Buffer.
	ErrClosed = errors.New("command buffer closed")
	// ErrFlushTimeout is returned when no consumer acknowledged a flush in time.
	ErrFlushTimeout = errors.New("flush not acknowledged")
)

// RootTarget is the fixed target id of the root element. The native side
// creates it up front; it is never announced or disposed.
const RootTarget int64 = -1

// Kind identifies a native-side operation.
type Kind int

const (
	CreateElement Kind = iota
	DisposeEventTarget
	InsertAdjacentNode
	RemoveNode
	SetStyle
	SetProperty
	RemoveProperty
)

var kindNames = [...]string{
	CreateElement:      "createElement",
	DisposeEventTarget: "disposeEventTarget",
	InsertAdjacentNode: "insertAdjacentNode",
	RemoveNode:         "removeNode",
	SetStyle:           "setStyle",
	SetProperty:        "setProperty",
	RemoveProperty:     "removeProperty",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown command kind %q", s)
}

// Command is one replayable native mutation.
type Command struct {
	Seq    uint64
	Target int64
	Kind   Kind
	Args   []string
}

type flushRequest struct {
	seq uint64
	ack chan struct{}
}

// Buffer is an append-only queue shared between one script-side producer and
// a native consumer. Appends are never reordered or coalesced.
type Buffer struct {
	mu      sync.Mutex
	pending []Command
	nextSeq uint64
	acked   uint64
	flushes []flushRequest
	closed  bool
	ready   chan struct{}
	logger  *zap.Logger
}

// NewBuffer creates an empty buffer.
func NewBuffer(logger *zap.Logger) *Buffer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Buffer{
		nextSeq: 1,
		ready:   make(chan struct{}, 1),
		logger:  logger.Named("buffer"),
	}
}

// Append queues a command for target and returns its sequence number.
// Appending to a closed buffer drops the command.
func (b *Buffer) Append(target int64, kind Kind, args ...string) uint64 {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.logger.Debug("Dropping command on closed buffer",
			zap.Int64("target", target), zap.Stringer("kind", kind))
		return 0
	}
	seq := b.nextSeq
	b.nextSeq++
	b.pending = append(b.pending, Command{
		Seq:    seq,
		Target: target,
		Kind:   kind,
		Args:   append([]string(nil), args...),
	})
	b.mu.Unlock()

	b.signal()
	return seq
}

// Len returns the number of undrained commands.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Drain removes and returns every queued command in append order.
func (b *Buffer) Drain() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	return out
}

// Ready is signalled after appends and flush requests.
func (b *Buffer) Ready() <-chan struct{} {
	return b.ready
}

// Acknowledge tells waiting flushers that every command up to and including
// seq has been processed.
func (b *Buffer) Acknowledge(seq uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if seq > b.acked {
		b.acked = seq
	}
	kept := b.flushes[:0]
	for _, f := range b.flushes {
		if f.seq <= b.acked {
			close(f.ack)
			continue
		}
		kept = append(kept, f)
	}
	b.flushes = kept
}

// LastSeq returns the sequence number of the most recent append.
func (b *Buffer) LastSeq() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nextSeq - 1
}

// RequestFlush blocks until the consumer has processed every command appended
// before the call. It is the only point where the script side waits on the
// native side.
func (b *Buffer) RequestFlush(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	target := b.nextSeq - 1
	if target <= b.acked {
		b.mu.Unlock()
		return nil
	}
	req := flushRequest{seq: target, ack: make(chan struct{})}
	b.flushes = append(b.flushes, req)
	b.mu.Unlock()

	b.signal()

	select {
	case <-req.ack:
		b.mu.Lock()
		done := b.acked >= target
		b.mu.Unlock()
		if !done {
			return ErrClosed
		}
		return nil
	case <-ctx.Done():
		b.dropFlush(req)
		b.logger.Warn("Flush was not acknowledged",
			zap.Uint64("seq", target), zap.Error(ctx.Err()))
		return fmt.Errorf("%w: seq %d: %v", ErrFlushTimeout, target, ctx.Err())
	}
}

// dropFlush forgets a flush request whose caller stopped waiting.
func (b *Buffer) dropFlush(req flushRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, f := range b.flushes {
		if f.ack == req.ack {
			b.flushes = append(b.flushes[:i], b.flushes[i+1:]...)
			return
		}
	}
}

// Close releases every waiting flusher and rejects further appends.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, f := range b.flushes {
		close(f.ack)
	}
	b.flushes = nil
	close(b.ready)
}

// Closed reports whether Close has been called.
func (b *Buffer) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Buffer) signal() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.ready <- struct{}{}:
	default:
	}
}
