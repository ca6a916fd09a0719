// Package render is a headless native renderer. It consumes the command
// buffer of a bridge context, rebuilds the native tree from it and serves the
// native methods scripts call: pixel export and layout queries.
package render

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/chrisuehlinger/nodebridge/command"
	"github.com/chrisuehlinger/nodebridge/config"
	"github.com/chrisuehlinger/nodebridge/dom"
	"github.com/chrisuehlinger/nodebridge/host"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Renderer owns the native tree for one context.
type Renderer struct {
	cfg    config.RendererConfig
	logger *zap.Logger

	mu   sync.Mutex
	tree *tree
	log  []command.Command

	exports sync.WaitGroup
}

// New creates a renderer with an empty tree holding only the root.
func New(cfg config.RendererConfig, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		cfg:    cfg,
		logger: logger.Named("renderer"),
		tree:   newTree("HTML"),
	}
}

// Run consumes buf until it is closed or ctx is done. Every drained batch is
// applied before it is acknowledged, so a flush returns only once the native
// tree reflects all earlier commands.
func (r *Renderer) Run(ctx context.Context, buf *command.Buffer) error {
	r.logger.Debug("Renderer started")
	var last uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-buf.Ready():
			cmds := buf.Drain()
			if len(cmds) > 0 {
				if err := r.Apply(cmds); err != nil {
					r.logger.Warn("Skipped commands", zap.Error(err))
				}
				last = cmds[len(cmds)-1].Seq
			}
			buf.Acknowledge(last)
			if !ok {
				r.logger.Debug("Command buffer closed", zap.Uint64("last_seq", last))
				return nil
			}
		}
	}
}

// Apply performs cmds in order. A command that cannot be applied, for
// example one naming an unknown target, is skipped; the rest still run.
func (r *Renderer) Apply(cmds []command.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs error
	for _, cmd := range cmds {
		if r.cfg.Record {
			r.log = append(r.log, cmd)
		}
		if err := r.tree.apply(cmd); err != nil {
			r.logger.Debug("Command skipped",
				zap.Uint64("seq", cmd.Seq),
				zap.Int64("target", cmd.Target),
				zap.Stringer("kind", cmd.Kind),
				zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("seq %d: %w", cmd.Seq, err))
		}
	}
	return errs
}

// Log returns the recorded commands in the order they were applied.
func (r *Renderer) Log() []command.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]command.Command(nil), r.log...)
}

// Node returns a snapshot of the native node with the given id.
func (r *Renderer) Node(id int64) (NodeInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.tree.nodes[id]
	if !ok {
		return NodeInfo{}, false
	}
	return n.info(), true
}

// Nodes returns a snapshot of every native node ordered by id.
func (r *Renderer) Nodes() []NodeInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]NodeInfo, 0, len(r.tree.nodes))
	for _, n := range r.tree.nodes {
		out = append(out, n.info())
	}
	slices.SortFunc(out, func(a, b NodeInfo) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Len returns the number of native nodes, the root included.
func (r *Renderer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tree.nodes)
}

// Services registers the renderer's native methods with reg.
func (r *Renderer) Services(reg *host.Registry) {
	reg.RegisterService(host.MethodToBlob, r.exportBlob)
	reg.RegisterQuery(host.QueryGetBoundingClientRect, r.boundingClientRect)
}

// Wait blocks until every export started so far has completed.
func (r *Renderer) Wait() {
	r.exports.Wait()
}

func (r *Renderer) viewport() Rect {
	return Rect{Width: float64(r.cfg.ViewportWidth), Height: float64(r.cfg.ViewportHeight)}
}

// exportBlob paints the target subtree and encodes it as PNG on its own
// goroutine. The display list is captured under the lock so later commands
// do not affect an export already in progress.
func (r *Renderer) exportBlob(req host.Request, done host.Completion) {
	r.mu.Lock()
	n, err := r.tree.lookup(req.Target)
	var (
		list []DisplayCommand
		box  Rect
	)
	if err == nil {
		vp := r.viewport()
		box = boxOf(n, vp.Width, vp.Height)
		list = buildDisplayList(n, box.Width, box.Height)
	}
	r.mu.Unlock()

	r.exports.Add(1)
	go func() {
		defer r.exports.Done()
		if err != nil {
			done(nil, fmt.Errorf("export: %w", err))
			return
		}
		w, h := canvasSize(box)
		canvas := NewCanvas(w, h)
		for _, cmd := range list {
			cmd.Execute(canvas)
		}
		data, err := canvas.EncodePNG(req.PixelRatio)
		if err != nil {
			done(nil, fmt.Errorf("encoding png: %w", err))
			return
		}
		r.logger.Debug("Exported blob",
			zap.Int64("target", req.Target),
			zap.Int("bytes", len(data)),
			zap.Float64("pixel_ratio", req.PixelRatio))
		done(data, nil)
	}()
}

// boundingClientRect reports the target's box from its left, top, width and
// height styles. Detached nodes report an empty rect.
func (r *Renderer) boundingClientRect(req host.Request) ([]byte, error) {
	r.mu.Lock()
	n, err := r.tree.lookup(req.Target)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	var rect dom.DOMRect
	if n.parent != nil || n.id == command.RootTarget {
		b := absoluteBox(n, r.viewport())
		rect = dom.DOMRect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
	}
	r.mu.Unlock()

	return json.Marshal(rect)
}
