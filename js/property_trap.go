package js

import (
	"slices"
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// accessor computes a read-only element property.
type accessor func(el *Element) goja.Value

// elementAccessors are the properties every element answers without a
// prototype lookup.
var elementAccessors = map[string]accessor{
	"tagName":    func(el *Element) goja.Value { return el.vm().ToValue(strings.ToUpper(el.tag)) },
	"nodeName":   func(el *Element) goja.Value { return el.vm().ToValue(strings.ToUpper(el.tag)) },
	"localName":  func(el *Element) goja.Value { return el.vm().ToValue(strings.ToLower(el.tag)) },
	"nodeType":   func(el *Element) goja.Value { return el.vm().ToValue(1) },
	"targetId":   func(el *Element) goja.Value { return el.vm().ToValue(el.id) },
	"parentNode": func(el *Element) goja.Value { return objectOrNull(el.Parent()) },
	"parentElement": func(el *Element) goja.Value {
		return objectOrNull(el.Parent())
	},
	"firstChild": func(el *Element) goja.Value { return objectOrNull(ownerOf(el.node.FirstChild())) },
	"lastChild":  func(el *Element) goja.Value { return objectOrNull(ownerOf(el.node.LastChild())) },
	"childNodes": childList,
	"children":   childList,
	"isConnected": func(el *Element) goja.Value {
		return el.vm().ToValue(el.ctx.root.node.Contains(el.node))
	},
}

// Geometry is owned by the native side and only available through
// getBoundingClientRect.
var geometryProperties = []string{
	"offsetLeft", "offsetTop", "offsetWidth", "offsetHeight",
	"clientWidth", "clientHeight", "clientTop", "clientLeft",
	"scrollTop", "scrollLeft", "scrollWidth", "scrollHeight",
}

func init() {
	for _, name := range geometryProperties {
		elementAccessors[name] = func(*Element) goja.Value { return goja.Null() }
	}
}

func childList(el *Element) goja.Value {
	children := el.Children()
	values := make([]any, len(children))
	for i, child := range children {
		values[i] = child.object
	}
	return el.vm().NewArray(values...)
}

func objectOrNull(el *Element) goja.Value {
	if el == nil {
		return goja.Null()
	}
	return el.object
}

// propertyTrap is the goja.DynamicObject behind every element value. Property
// reads resolve through instance bindings, then the accessor table, then the
// class prototype. Anything else is a soft miss: null on get, ignored on set.
type propertyTrap struct {
	el *Element
}

func (t *propertyTrap) Get(key string) goja.Value {
	if v, ok := t.instanceBinding(key); ok {
		return v
	}
	if fn, ok := elementAccessors[key]; ok {
		return fn(t.el)
	}
	if t.prototypeHas(key) {
		// nil makes goja continue on the prototype chain.
		return nil
	}
	t.miss("get", key)
	return goja.Null()
}

func (t *propertyTrap) Set(key string, val goja.Value) bool {
	switch key {
	case "style":
		t.el.style.SetCSSText(val.String())
		return true
	case "id", "className":
		name := key
		if key == "className" {
			name = "class"
		}
		if err := t.el.SetAttribute(name, val); err != nil {
			t.miss("set", key)
		}
		return true
	}
	if _, ok := elementAccessors[key]; ok {
		return true
	}
	t.miss("set", key)
	return true
}

func (t *propertyTrap) Has(key string) bool {
	if _, ok := elementAccessors[key]; ok {
		return true
	}
	switch key {
	case "style", "attributes", "id", "className":
		return true
	}
	return false
}

func (t *propertyTrap) Delete(key string) bool {
	return true
}

func (t *propertyTrap) Keys() []string {
	keys := []string{"style", "attributes", "id", "className"}
	for name := range elementAccessors {
		keys = append(keys, name)
	}
	return keys
}

func (t *propertyTrap) instanceBinding(key string) (goja.Value, bool) {
	switch key {
	case "style":
		return t.el.styleBinding(), true
	case "attributes":
		return t.el.attributesBinding(), true
	case "id":
		return t.attributeString("id"), true
	case "className":
		return t.attributeString("class"), true
	}
	return nil, false
}

func (t *propertyTrap) attributeString(name string) goja.Value {
	v := t.el.GetAttribute(name)
	if goja.IsNull(v) {
		return t.el.vm().ToValue("")
	}
	return t.el.vm().ToValue(v.String())
}

// prototypeHas looks for key along the prototype chain by name only. Reading
// the property here would run accessors with the prototype as receiver.
func (t *propertyTrap) prototypeHas(key string) bool {
	for p := t.el.object.Prototype(); p != nil; p = p.Prototype() {
		if slices.Contains(p.GetOwnPropertyNames(), key) {
			return true
		}
	}
	return false
}

func (t *propertyTrap) miss(op, key string) {
	t.el.ctx.logger.Debug("Unknown element property",
		zap.String("op", op),
		zap.String("property", key),
		zap.String("tag", t.el.tag),
		zap.Int64("target", t.el.id))
}

func (el *Element) vm() *goja.Runtime {
	return el.ctx.rt.vm
}
