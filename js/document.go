package js

import (
	"strings"

	"github.com/dop251/goja"
)

// setupDocument installs the global document object.
func (c *Context) setupDocument() {
	vm := c.rt.vm
	doc := vm.NewObject()

	doc.Set("documentElement", c.root.object)
	doc.Set("createElement", func(call goja.FunctionCall) goja.Value {
		tag, ok := call.Argument(0).Export().(string)
		if !ok || tag == "" {
			panic(vm.NewTypeError("Failed to execute 'createElement' on 'Document': 1 argument required"))
		}
		return c.CreateElement(tag).object
	})
	doc.Set("getElementById", func(id string) goja.Value {
		return objectOrNull(c.ElementByAttributeID(id))
	})
	_ = doc.DefineAccessorProperty("body",
		vm.ToValue(func(goja.FunctionCall) goja.Value { return c.Body().object }),
		nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	vm.Set("document", doc)
}

// Body returns the root's body element, creating and attaching it on first
// use.
func (c *Context) Body() *Element {
	if c.body != nil && c.body.Parent() == c.root {
		return c.body
	}
	for _, child := range c.root.Children() {
		if strings.EqualFold(child.tag, "body") {
			c.body = child
			return child
		}
	}
	c.body = c.CreateElement("BODY")
	if err := c.root.AppendChild(c.body); err != nil {
		c.logger.Warn("Attaching body failed")
	}
	return c.body
}

// ElementByAttributeID finds the first connected element, in tree order,
// whose id attribute equals id.
func (c *Context) ElementByAttributeID(id string) *Element {
	var walk func(el *Element) *Element
	walk = func(el *Element) *Element {
		if v, ok := el.attrs.Get("id"); ok && wireString(v) == id {
			return el
		}
		for _, child := range el.Children() {
			if found := walk(child); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(c.root)
}
