package js

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/chrisuehlinger/nodebridge/command"
	"github.com/chrisuehlinger/nodebridge/dom"
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// Behavior is the extension surface for element subtypes. The bridge calls
// these hooks after it has updated its own state; subtypes react to them
// instead of the bridge special-casing tags.
type Behavior interface {
	// AttributeChanged runs after a set or remove. A missing value is null.
	AttributeChanged(el *Element, name string, oldValue, newValue goja.Value)
	// ChildInserted runs on the parent and on every ancestor of it.
	ChildInserted(el, parent, child *Element)
	// ChildRemoved runs on the old parent and on every ancestor of it.
	ChildRemoved(el, parent, child *Element)
	// Inserted runs on an element and its descendants when attached.
	Inserted(el *Element)
	// Removed runs on an element and its descendants when detached.
	Removed(el *Element)
}

// BaseBehavior implements Behavior with no-ops. Embed it to override only
// the hooks a subtype needs.
type BaseBehavior struct{}

func (BaseBehavior) AttributeChanged(*Element, string, goja.Value, goja.Value) {}
func (BaseBehavior) ChildInserted(*Element, *Element, *Element)                {}
func (BaseBehavior) ChildRemoved(*Element, *Element, *Element)                 {}
func (BaseBehavior) Inserted(*Element)                                         {}
func (BaseBehavior) Removed(*Element)                                          {}

// Element is a node that exists both as a goja object and as a native tree
// node. The goja object holds the element and the element holds the object,
// so the collector reclaims the pair together.
//
// Element methods are not safe for concurrent use. Call them from the
// goroutine that drives the owning Context.
type Element struct {
	ctx      *Context
	id       int64
	tag      string
	node     *dom.Node
	attrs    *dom.AttributeStore[goja.Value]
	held     *atomic.Int64
	style    *dom.CSSStyleDeclaration
	behavior Behavior
	object   *goja.Object

	// Instance bindings, created on first access.
	styleObject *goja.Object
	attrsObject *goja.Object
}

// ID returns the target id used to route commands to the native node.
func (el *Element) ID() int64 { return el.id }

// Tag returns the tag name the element was created with.
func (el *Element) Tag() string { return el.tag }

// Object returns the script-side value of the element.
func (el *Element) Object() *goja.Object { return el.object }

// Node returns the native tree node.
func (el *Element) Node() *dom.Node { return el.node }

// Style returns the inline style declaration.
func (el *Element) Style() *dom.CSSStyleDeclaration { return el.style }

// Context returns the owning context.
func (el *Element) Context() *Context { return el.ctx }

// SetAttribute stores value under the lowercased name, notifies the behavior
// and queues a setProperty command. Nothing is stored or queued when the name
// is invalid or when converting the value to its wire form throws; the
// script exception propagates as a panic, as from any goja call.
func (el *Element) SetAttribute(name string, value goja.Value) error {
	if name == "" || dom.IsIndexName(name) {
		return fmt.Errorf("%w: '%s'", dom.ErrInvalidAttributeName, name)
	}
	if value == nil {
		value = goja.Undefined()
	}
	name = strings.ToLower(name)
	wire := wireString(value)

	oldValue, ok := el.attrs.Get(name)
	if !ok {
		oldValue = goja.Null()
	}
	if err := el.attrs.Set(name, value); err != nil {
		return err
	}
	el.held.Add(1)
	el.ctx.retained.Add(1)

	el.behavior.AttributeChanged(el, name, oldValue, value)
	el.ctx.buffer.Append(el.id, command.SetProperty, name, wire)
	return nil
}

// GetAttribute returns the stored value or null.
func (el *Element) GetAttribute(name string) goja.Value {
	if v, ok := el.attrs.Get(name); ok {
		return v
	}
	return goja.Null()
}

// HasAttribute reports whether name is stored.
func (el *Element) HasAttribute(name string) bool {
	return el.attrs.Has(name)
}

// RemoveAttribute removes name and queues a removeProperty command. Absent
// names are a no-op.
func (el *Element) RemoveAttribute(name string) {
	name, oldValue, ok := el.attrs.Take(name)
	if !ok {
		return
	}
	el.behavior.AttributeChanged(el, name, oldValue, goja.Null())
	el.ctx.buffer.Append(el.id, command.RemoveProperty, name)
}

// AttributeNames returns the stored names in insertion order.
func (el *Element) AttributeNames() []string {
	return el.attrs.Names()
}

// AppendChild moves child to the end of el's children.
func (el *Element) AppendChild(child *Element) error {
	if child == nil {
		return dom.ErrHierarchyRequest("The new child is null.")
	}
	if err := el.node.AppendChild(child.node); err != nil {
		return err
	}
	el.ctx.buffer.Append(el.id, command.InsertAdjacentNode, "beforeend", formatID(child.id))
	return nil
}

// InsertBefore moves child in front of ref. A nil ref appends.
func (el *Element) InsertBefore(child, ref *Element) error {
	if ref == nil {
		return el.AppendChild(child)
	}
	if child == nil {
		return dom.ErrHierarchyRequest("The new child is null.")
	}
	if err := el.node.InsertBefore(child.node, ref.node); err != nil {
		return err
	}
	if child != ref {
		el.ctx.buffer.Append(ref.id, command.InsertAdjacentNode, "beforebegin", formatID(child.id))
	}
	return nil
}

// RemoveChild detaches child from el.
func (el *Element) RemoveChild(child *Element) error {
	if child == nil {
		return dom.ErrNotFound("The node to be removed is not a child of this node.")
	}
	if err := el.node.RemoveChild(child.node); err != nil {
		return err
	}
	el.ctx.buffer.Append(child.id, command.RemoveNode)
	return nil
}

// Parent returns the parent element, or nil.
func (el *Element) Parent() *Element {
	return ownerOf(el.node.Parent())
}

// Children returns the child elements in order.
func (el *Element) Children() []*Element {
	nodes := el.node.Children()
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		if child := ownerOf(n); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// ChildInserted implements dom.TreeObserver.
func (el *Element) ChildInserted(parent, child *dom.Node) {
	el.behavior.ChildInserted(el, ownerOf(parent), ownerOf(child))
}

// ChildRemoved implements dom.TreeObserver.
func (el *Element) ChildRemoved(parent, child *dom.Node) {
	el.behavior.ChildRemoved(el, ownerOf(parent), ownerOf(child))
}

// NodeInserted implements dom.TreeObserver.
func (el *Element) NodeInserted(*dom.Node) {
	el.behavior.Inserted(el)
}

// NodeRemoved implements dom.TreeObserver.
func (el *Element) NodeRemoved(*dom.Node) {
	el.behavior.Removed(el)
}

func (el *Element) styleChanged(property, value string) {
	el.ctx.buffer.Append(el.id, command.SetStyle, property, value)
	el.ctx.logger.Debug("Style changed",
		zap.Int64("target", el.id), zap.String("property", property))
}

func ownerOf(n *dom.Node) *Element {
	if n == nil {
		return nil
	}
	el, _ := n.Owner().(*Element)
	return el
}

// wireString is the string form a value takes on the native side.
func wireString(v goja.Value) string {
	return formatValue(v)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
