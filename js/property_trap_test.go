package js

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestPropertyTrapSoftFailsUnknownProperties(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := newTestContext(t, WithLogger(zap.New(core)))

	got := run(t, c, `
		var el = new Element("div");
		el.whatever = 42;
		[el.whatever, el.nothingHere, typeof el.setAttribute, delete el.id];
	`)
	assert.Equal(t, []any{nil, nil, "function", true}, got.Export())
	assert.Equal(t, 1, c.Buffer().Len(), "only the create command was queued")

	misses := logs.FilterMessage("Unknown element property").All()
	assert.Len(t, misses, 3)
}

func TestPropertyTrapAccessors(t *testing.T) {
	c := newTestContext(t)

	got := run(t, c, `
		var el = new Element("custom-Tag");
		el.tagName = "nope";
		[el.tagName, el.nodeName, el.localName, el.nodeType, el.offsetWidth, el.scrollTop, el.parentNode, el.isConnected];
	`)
	assert.Equal(t, []any{"CUSTOM-TAG", "CUSTOM-TAG", "custom-tag", int64(1), nil, nil, nil, false}, got.Export())

	got = run(t, c, `
		document.body.appendChild(el);
		[el.isConnected, el.parentNode === document.body, document.body.parentNode === document.documentElement];
	`)
	assert.Equal(t, []any{true, true, true}, got.Export())
}

func TestPropertyTrapReflectedAttributes(t *testing.T) {
	c := newTestContext(t)

	got := run(t, c, `
		var el = new Element("div");
		var before = el.id;
		el.id = "main";
		el.className = "a b";
		[before, el.id, el.getAttribute("id"), el.getAttribute("class"), document.getElementById("main")];
	`)
	values := got.Export().([]any)
	assert.Equal(t, []any{"", "main", "main", "a b", nil}, values, "detached elements are not found by id")

	assert.Equal(t, true, run(t, c, `document.body.appendChild(el); document.getElementById("main") === el`).Export())
}

func TestPropertyTrapObjectPrototypeStillWorks(t *testing.T) {
	c := newTestContext(t)

	got := run(t, c, `
		var el = new Element("div");
		[typeof el.toString, el.hasOwnProperty("tagName"), "style" in el, Object.keys(el).indexOf("tagName") >= 0];
	`)
	assert.Equal(t, []any{"function", true, true, true}, got.Export())
}

func TestPropertyTrapDelegatesAccessorsToClassPrototype(t *testing.T) {
	c := newTestContext(t)
	c.Classes().Define("x-img", func(c *Context, tag string) *Element {
		return c.NewElement(tag, nil)
	})
	proto := c.Classes().Prototype("x-img")
	require.NotNil(t, proto)
	require.NoError(t, c.Runtime().VM().Set("imgProto", proto))

	got := run(t, c, `
		var receivers = [];
		Object.defineProperty(imgProto, "src", {
			get: function() {
				receivers.push(this === imgProto ? "proto" : "instance");
				return this.getAttribute("src");
			},
			set: function(v) { this.setAttribute("src", v); },
		});
		var img = new Element("x-img");
		img.src = "a.png";
		[img.src, img.getAttribute("src"), receivers.join(",")];
	`)
	assert.Equal(t, []any{"a.png", "a.png", "instance"}, got.Export())
}
