package js

import (
	"testing"

	"github.com/chrisuehlinger/nodebridge/command"
	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// imageBehavior mirrors how a subtype reacts to its own attributes.
type imageBehavior struct {
	BaseBehavior
	loads []string
}

func (b *imageBehavior) AttributeChanged(el *Element, name string, _, newValue goja.Value) {
	if name == "src" && !goja.IsNull(newValue) {
		b.loads = append(b.loads, newValue.String())
	}
}

func TestClassRegistryDefineIsIdempotent(t *testing.T) {
	c := newTestContext(t)
	first := &imageBehavior{}
	second := &imageBehavior{}

	assert.True(t, c.Classes().Define("img", func(c *Context, tag string) *Element {
		return c.NewElement(tag, first)
	}))
	assert.False(t, c.Classes().Define("img", func(c *Context, tag string) *Element {
		return c.NewElement(tag, second)
	}))

	run(t, c, `new Element("img").setAttribute("src", "a.png")`)
	assert.Equal(t, []string{"a.png"}, first.loads)
	assert.Empty(t, second.loads)
}

func TestClassRegistryInstantiate(t *testing.T) {
	c := newTestContext(t)
	c.Classes().Define("canvas", func(c *Context, tag string) *Element {
		return c.NewElement(tag, nil)
	})
	proto := c.Classes().Prototype("canvas")
	require.NotNil(t, proto)
	proto.Set("getContext", func(goja.FunctionCall) goja.Value { return goja.Null() })

	got := run(t, c, `
		var a = new Element("canvas");
		var b = document.createElement("canvas");
		var d = new Element("div");
		[
			Object.getPrototypeOf(a) === Object.getPrototypeOf(b),
			typeof a.getContext,
			typeof d.getContext,
			d.getContext,
			a instanceof Element,
		];
	`)
	assert.Equal(t, []any{true, "function", "object", nil, true}, got.Export())

	_, ok := c.Classes().Lookup("canvas")
	assert.True(t, ok)
	_, ok = c.Classes().Lookup("video")
	assert.False(t, ok)
	assert.Nil(t, c.Classes().Prototype("video"))
}

func TestClassRegistryRootBypassesRegistry(t *testing.T) {
	c := newTestContext(t)
	called := false
	c.Classes().Define("HTML", func(c *Context, tag string) *Element {
		called = true
		return c.NewElement(tag, nil)
	})

	el := c.CreateElement("HTML")
	assert.Same(t, c.Root(), el)
	assert.False(t, called)
}

func TestClassRegistryNilCreatorFallsBack(t *testing.T) {
	c := newTestContext(t)
	c.Classes().Define("x-empty", func(*Context, string) *Element { return nil })
	c.Buffer().Drain()

	el := c.CreateElement("x-empty")
	require.NotNil(t, el)
	cmds := commandsFor(c.Buffer().Drain(), el.ID())
	require.Len(t, cmds, 1)
	assert.Equal(t, command.CreateElement, cmds[0].Kind)
}

// treeBehavior records structural notifications.
type treeBehavior struct {
	BaseBehavior
	events []string
}

func (b *treeBehavior) ChildInserted(el, parent, child *Element) {
	b.events = append(b.events, el.Tag()+":child+"+child.Tag())
}

func (b *treeBehavior) ChildRemoved(el, parent, child *Element) {
	b.events = append(b.events, el.Tag()+":child-"+child.Tag())
}

func (b *treeBehavior) Inserted(el *Element) { b.events = append(b.events, el.Tag()+":inserted") }
func (b *treeBehavior) Removed(el *Element)  { b.events = append(b.events, el.Tag()+":removed") }

func TestTreeHooksReachSubtypes(t *testing.T) {
	c := newTestContext(t)
	rec := &treeBehavior{}
	for _, tag := range []string{"list", "item"} {
		c.Classes().Define(tag, func(c *Context, tag string) *Element {
			return c.NewElement(tag, rec)
		})
	}

	outer := c.CreateElement("list")
	inner := c.CreateElement("list")
	item := c.CreateElement("item")
	require.NoError(t, outer.AppendChild(inner))
	rec.events = nil

	require.NoError(t, inner.AppendChild(item))
	require.NoError(t, inner.RemoveChild(item))

	assert.Equal(t, []string{
		"list:child+item", "list:child+item", "item:inserted",
		"list:child-item", "list:child-item", "item:removed",
	}, rec.events)
}
