package js

import (
	"errors"
	"fmt"
	"math"

	"github.com/chrisuehlinger/nodebridge/dom"
	"github.com/chrisuehlinger/nodebridge/host"
	"github.com/dop251/goja"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	toBlobMethod      = host.MethodToBlob
	boundingRectQuery = host.QueryGetBoundingClientRect
)

// setupElementPrototype creates Element.prototype, the Element constructor
// and DOMException.
func (c *Context) setupElementPrototype() {
	vm := c.rt.vm
	proto := vm.NewObject()
	c.elementProto = proto

	method := func(name string, fn func(el *Element, call goja.FunctionCall) goja.Value) {
		proto.Set(name, func(call goja.FunctionCall) goja.Value {
			return fn(c.thisElement(call, name), call)
		})
	}

	method("getAttribute", c.jsGetAttribute)
	method("setAttribute", c.jsSetAttribute)
	method("hasAttribute", c.jsHasAttribute)
	method("removeAttribute", c.jsRemoveAttribute)
	method("appendChild", c.jsAppendChild)
	method("insertBefore", c.jsInsertBefore)
	method("removeChild", c.jsRemoveChild)
	method("remove", func(el *Element, _ goja.FunctionCall) goja.Value {
		if parent := el.Parent(); parent != nil {
			c.throwIfDOMError(parent.RemoveChild(el))
		}
		return goja.Undefined()
	})
	method("getBoundingClientRect", c.jsGetBoundingClientRect)
	method("toBlob", c.jsToBlob)
	for _, name := range []string{"click", "scroll", "scrollBy", "scrollTo", "focus", "blur"} {
		method(name, func(*Element, goja.FunctionCall) goja.Value { return goja.Undefined() })
	}

	ctor := vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
		if len(call.Arguments) == 0 {
			panic(vm.NewTypeError("Illegal constructor"))
		}
		tag, ok := call.Arguments[0].Export().(string)
		if !ok {
			panic(vm.NewTypeError("Illegal constructor"))
		}
		return c.CreateElement(tag).object
	}).ToObject(vm)
	ctor.Set("prototype", proto)
	proto.Set("constructor", ctor)
	vm.Set("Element", ctor)

	c.setupDOMException()
}

// thisElement resolves the receiver of a prototype method.
func (c *Context) thisElement(call goja.FunctionCall, method string) *Element {
	if obj, ok := call.This.(*goja.Object); ok {
		if t, ok := obj.Export().(*propertyTrap); ok && t.el.ctx == c {
			return t.el
		}
	}
	panic(c.rt.vm.NewTypeError(fmt.Sprintf("Failed to execute '%s' on 'Element': Illegal invocation", method)))
}

// attributeName validates the name argument shared by the attribute methods.
func (c *Context) attributeName(call goja.FunctionCall, method string, required int) string {
	vm := c.rt.vm
	if len(call.Arguments) < required {
		noun := "argument"
		if required > 1 {
			noun = "arguments"
		}
		panic(vm.NewTypeError(fmt.Sprintf(
			"Failed to execute '%s' on 'Element': %d %s required, but only %d present",
			method, required, noun, len(call.Arguments))))
	}
	name, ok := call.Arguments[0].Export().(string)
	if !ok {
		panic(vm.NewTypeError(fmt.Sprintf("Failed to execute '%s' on 'Element': name attribute is not valid.", method)))
	}
	return name
}

func (c *Context) jsGetAttribute(el *Element, call goja.FunctionCall) goja.Value {
	if len(call.Arguments) > 1 {
		panic(c.rt.vm.NewTypeError("Failed to execute 'getAttribute' on 'Element': 1 argument required"))
	}
	return el.GetAttribute(c.attributeName(call, "getAttribute", 1))
}

func (c *Context) jsSetAttribute(el *Element, call goja.FunctionCall) goja.Value {
	vm := c.rt.vm
	if len(call.Arguments) != 2 {
		panic(vm.NewTypeError(fmt.Sprintf(
			"Failed to execute 'setAttribute' on 'Element': 2 arguments required, but only %d present",
			len(call.Arguments))))
	}
	name := c.attributeName(call, "setAttribute", 2)
	if err := el.SetAttribute(name, call.Arguments[1]); err != nil {
		if errors.Is(err, dom.ErrInvalidAttributeName) {
			panic(vm.NewTypeError(fmt.Sprintf(
				"Failed to execute 'setAttribute' on 'Element': '%s' is not a valid attribute name.", name)))
		}
		panic(vm.NewGoError(err))
	}
	return goja.Undefined()
}

func (c *Context) jsHasAttribute(el *Element, call goja.FunctionCall) goja.Value {
	return c.rt.vm.ToValue(el.HasAttribute(c.attributeName(call, "hasAttribute", 1)))
}

func (c *Context) jsRemoveAttribute(el *Element, call goja.FunctionCall) goja.Value {
	if len(call.Arguments) > 1 {
		panic(c.rt.vm.NewTypeError("Failed to execute 'removeAttribute' on 'Element': 1 argument required"))
	}
	el.RemoveAttribute(c.attributeName(call, "removeAttribute", 1))
	return goja.Undefined()
}

// elementArg converts a script value to an element of this context, or nil.
func (c *Context) elementArg(v goja.Value) *Element {
	if v == nil || goja.IsNull(v) || goja.IsUndefined(v) {
		return nil
	}
	if obj, ok := v.(*goja.Object); ok {
		if t, ok := obj.Export().(*propertyTrap); ok && t.el.ctx == c {
			return t.el
		}
	}
	panic(c.rt.vm.NewTypeError("parameter is not of type 'Node'."))
}

func (c *Context) jsAppendChild(el *Element, call goja.FunctionCall) goja.Value {
	child := c.elementArg(call.Argument(0))
	if child == nil {
		panic(c.rt.vm.NewTypeError("Failed to execute 'appendChild' on 'Node': parameter 1 is not of type 'Node'."))
	}
	c.throwIfDOMError(el.AppendChild(child))
	return child.object
}

func (c *Context) jsInsertBefore(el *Element, call goja.FunctionCall) goja.Value {
	child := c.elementArg(call.Argument(0))
	if child == nil {
		panic(c.rt.vm.NewTypeError("Failed to execute 'insertBefore' on 'Node': parameter 1 is not of type 'Node'."))
	}
	c.throwIfDOMError(el.InsertBefore(child, c.elementArg(call.Argument(1))))
	return child.object
}

func (c *Context) jsRemoveChild(el *Element, call goja.FunctionCall) goja.Value {
	child := c.elementArg(call.Argument(0))
	if child == nil {
		panic(c.rt.vm.NewTypeError("Failed to execute 'removeChild' on 'Node': parameter 1 is not of type 'Node'."))
	}
	c.throwIfDOMError(el.RemoveChild(child))
	return child.object
}

// jsGetBoundingClientRect flushes pending commands so the native side is
// current, then asks it for the element's box.
func (c *Context) jsGetBoundingClientRect(el *Element, _ goja.FunctionCall) goja.Value {
	vm := c.rt.vm
	query, err := c.host.Query(boundingRectQuery)
	if err != nil {
		panic(vm.NewTypeError(fmt.Sprintf(
			"Failed to execute 'getBoundingClientRect': native method (%s) is not registered.", boundingRectQuery)))
	}
	_ = c.Flush()

	rect := &dom.DOMRect{}
	data, err := query(host.Request{ContextID: c.ID, Target: el.id, Method: boundingRectQuery})
	if err != nil {
		c.logger.Warn("Bounding rect query failed", zap.Int64("target", el.id), zap.Error(err))
	} else if err := json.Unmarshal(data, rect); err != nil {
		c.logger.Warn("Malformed bounding rect", zap.Int64("target", el.id), zap.Error(err))
	}
	return c.rectObject(rect)
}

func (c *Context) rectObject(r *dom.DOMRect) *goja.Object {
	obj := c.rt.vm.NewObject()
	obj.Set("x", r.X)
	obj.Set("y", r.Y)
	obj.Set("width", r.Width)
	obj.Set("height", r.Height)
	obj.Set("top", r.Top())
	obj.Set("right", r.Right())
	obj.Set("bottom", r.Bottom())
	obj.Set("left", r.Left())
	return obj
}

// jsToBlob exports the element's rendering. Argument and availability errors
// throw; native failures reject the returned promise.
func (c *Context) jsToBlob(el *Element, call goja.FunctionCall) goja.Value {
	vm := c.rt.vm
	ratio := c.cfg.DefaultPixelRatio
	if len(call.Arguments) > 0 {
		switch v := call.Arguments[0].Export().(type) {
		case int64:
			ratio = float64(v)
		case float64:
			ratio = v
		default:
			panic(vm.NewTypeError("Failed to export blob: parameter 2 (devicePixelRatio) is not an number."))
		}
		if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			panic(vm.NewTypeError("Failed to export blob: parameter 2 (devicePixelRatio) is not finite."))
		}
	}

	svc, err := c.host.Service(toBlobMethod)
	if err != nil {
		panic(vm.NewTypeError(fmt.Sprintf("Failed to export blob: native method (%s) is not registered.", toBlobMethod)))
	}
	_ = c.Flush()

	cc := c.callbacks.NewContext(el.id, ratio, c.blobFromBytes)
	c.callbacks.Register(cc, func(h Handle) {
		svc(host.Request{
			ContextID:  c.ID,
			Target:     el.id,
			Method:     toBlobMethod,
			PixelRatio: ratio,
		}, func(data []byte, err error) {
			c.callbacks.Complete(h, data, err)
		})
	})
	return vm.ToValue(cc.Promise())
}

// setupDOMException installs a minimal DOMException inheriting Error.
func (c *Context) setupDOMException() {
	vm := c.rt.vm
	proto := vm.NewObject()
	errorProto := vm.Get("Error").ToObject(vm).Get("prototype").ToObject(vm)
	_ = proto.SetPrototype(errorProto)

	ctor := vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
		message, name := "", "Error"
		if len(call.Arguments) > 0 {
			message = call.Arguments[0].String()
		}
		if len(call.Arguments) > 1 {
			name = call.Arguments[1].String()
		}
		call.This.Set("message", message)
		call.This.Set("name", name)
		return call.This
	}).ToObject(vm)
	ctor.Set("prototype", proto)
	proto.Set("constructor", ctor)
	vm.Set("DOMException", ctor)
}

// throwIfDOMError rethrows a tree error as a DOMException.
func (c *Context) throwIfDOMError(err error) {
	if err == nil {
		return
	}
	vm := c.rt.vm
	var domErr *dom.DOMError
	if !errors.As(err, &domErr) {
		panic(vm.NewGoError(err))
	}
	ctor, ok := goja.AssertConstructor(vm.Get("DOMException"))
	if !ok {
		panic(vm.NewTypeError(domErr.Message))
	}
	exc, cerr := ctor(nil, vm.ToValue(domErr.Message), vm.ToValue(domErr.Name))
	if cerr != nil {
		panic(vm.NewTypeError(domErr.Message))
	}
	panic(exc)
}
