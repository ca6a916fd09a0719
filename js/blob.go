package js

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

// Blob is immutable binary data with a media type.
type Blob struct {
	data []byte
	typ  string
}

// NewBlob copies data into a new Blob.
func NewBlob(data []byte, typ string) *Blob {
	return &Blob{data: append([]byte(nil), data...), typ: strings.ToLower(typ)}
}

// Bytes returns the blob's contents. Callers must not modify them.
func (b *Blob) Bytes() []byte { return b.data }

// Type returns the media type.
func (b *Blob) Type() string { return b.typ }

// Size returns the length in bytes.
func (b *Blob) Size() int { return len(b.data) }

// Slice returns the bytes between start and end. Negative offsets count from
// the end, the same as Array.prototype.slice.
func (b *Blob) Slice(start, end int, typ string) *Blob {
	clamp := func(i int) int {
		if i < 0 {
			i += len(b.data)
		}
		return max(0, min(i, len(b.data)))
	}
	start, end = clamp(start), clamp(end)
	if end < start {
		end = start
	}
	return NewBlob(b.data[start:end], typ)
}

// blobObject is the script value of a Blob: size and type are own
// properties and the methods live on Blob.prototype.
type blobObject struct {
	blob *Blob
	vm   *goja.Runtime
}

func (o *blobObject) Get(key string) goja.Value {
	switch key {
	case "size":
		return o.vm.ToValue(o.blob.Size())
	case "type":
		return o.vm.ToValue(o.blob.typ)
	}
	return nil
}

func (o *blobObject) Set(string, goja.Value) bool { return true }
func (o *blobObject) Has(key string) bool          { return key == "size" || key == "type" }
func (o *blobObject) Delete(string) bool           { return true }
func (o *blobObject) Keys() []string               { return []string{"size", "type"} }

// setupBlob installs the Blob constructor.
func (c *Context) setupBlob() {
	vm := c.rt.vm
	proto := vm.NewObject()

	thisBlob := func(call goja.FunctionCall, method string) *Blob {
		if obj, ok := call.This.(*goja.Object); ok {
			if o, ok := obj.Export().(*blobObject); ok {
				return o.blob
			}
		}
		panic(vm.NewTypeError(fmt.Sprintf("Failed to execute '%s' on 'Blob': Illegal invocation", method)))
	}
	resolved := func(v any) goja.Value {
		promise, resolve, _ := vm.NewPromise()
		_ = resolve(v)
		return vm.ToValue(promise)
	}

	proto.Set("arrayBuffer", func(call goja.FunctionCall) goja.Value {
		b := thisBlob(call, "arrayBuffer")
		return resolved(vm.NewArrayBuffer(append([]byte(nil), b.data...)))
	})
	proto.Set("text", func(call goja.FunctionCall) goja.Value {
		return resolved(string(thisBlob(call, "text").data))
	})
	proto.Set("slice", func(call goja.FunctionCall) goja.Value {
		b := thisBlob(call, "slice")
		start, end := 0, b.Size()
		if v := call.Argument(0); !goja.IsUndefined(v) {
			start = int(v.ToInteger())
		}
		if v := call.Argument(1); !goja.IsUndefined(v) {
			end = int(v.ToInteger())
		}
		typ := ""
		if v := call.Argument(2); !goja.IsUndefined(v) {
			typ = v.String()
		}
		return c.blobValue(b.Slice(start, end, typ))
	})

	ctor := vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
		var data []byte
		if parts := call.Argument(0); !goja.IsUndefined(parts) && !goja.IsNull(parts) {
			items, ok := parts.Export().([]any)
			if !ok {
				panic(vm.NewTypeError("Failed to construct 'Blob': The provided value cannot be converted to a sequence."))
			}
			for _, item := range items {
				data = append(data, blobPart(item)...)
			}
		}
		typ := ""
		if opts, ok := call.Argument(1).(*goja.Object); ok {
			if v := opts.Get("type"); v != nil && !goja.IsUndefined(v) {
				typ = v.String()
			}
		}
		return c.blobValue(&Blob{data: data, typ: strings.ToLower(typ)})
	}).ToObject(vm)
	ctor.Set("prototype", proto)
	proto.Set("constructor", ctor)
	vm.Set("Blob", ctor)
	c.blobCtor = ctor
}

func (c *Context) blobValue(b *Blob) *goja.Object {
	vm := c.rt.vm
	obj := vm.NewDynamicObject(&blobObject{blob: b, vm: vm})
	_ = obj.SetPrototype(c.blobCtor.Get("prototype").ToObject(vm))
	return obj
}

// blobFromBytes wraps a native payload the way script would: an ArrayBuffer
// handed to the Blob constructor.
func (c *Context) blobFromBytes(vm *goja.Runtime, data []byte) (goja.Value, error) {
	ctor, ok := goja.AssertConstructor(c.blobCtor)
	if !ok {
		return nil, errors.New("missing Blob constructor")
	}
	buf := vm.NewArrayBuffer(data)
	return ctor(nil, vm.NewArray(vm.ToValue(buf)))
}

// BlobOf returns the Blob behind a script value.
func BlobOf(v goja.Value) (*Blob, bool) {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, false
	}
	o, ok := obj.Export().(*blobObject)
	if !ok {
		return nil, false
	}
	return o.blob, true
}

func blobPart(item any) []byte {
	switch p := item.(type) {
	case goja.ArrayBuffer:
		return p.Bytes()
	case []byte:
		return p
	case *blobObject:
		return p.blob.data
	case string:
		return []byte(p)
	case nil:
		return []byte("null")
	default:
		return []byte(fmt.Sprint(p))
	}
}
