package js

import (
	"strings"

	"github.com/chrisuehlinger/nodebridge/dom"
	"github.com/dop251/goja"
)

// styleObject exposes an element's CSSStyleDeclaration. Property assignment
// accepts camelCase or kebab-case names; every change becomes a setStyle
// command through the declaration's change hook.
type styleObject struct {
	el *Element
}

var styleMembers = []string{
	"cssText", "length", "item", "getPropertyValue", "getPropertyPriority",
	"setProperty", "removeProperty",
}

func (el *Element) styleBinding() *goja.Object {
	if el.styleObject == nil {
		el.styleObject = el.vm().NewDynamicObject(&styleObject{el: el})
	}
	return el.styleObject
}

func (s *styleObject) Get(key string) goja.Value {
	vm := s.el.vm()
	style := s.el.style
	switch key {
	case "cssText":
		return vm.ToValue(style.CSSText())
	case "length":
		return vm.ToValue(style.Length())
	case "item":
		return vm.ToValue(func(index int) string { return style.Item(index) })
	case "getPropertyValue":
		return vm.ToValue(func(name string) string { return style.GetPropertyValue(name) })
	case "getPropertyPriority":
		return vm.ToValue(func(name string) string { return style.GetPropertyPriority(name) })
	case "setProperty":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) < 2 {
				panic(vm.NewTypeError("Failed to execute 'setProperty' on 'CSSStyleDeclaration': 2 arguments required"))
			}
			priority := ""
			if len(call.Arguments) > 2 {
				priority = call.Arguments[2].String()
			}
			style.SetProperty(call.Arguments[0].String(), styleValue(call.Arguments[1]), priority)
			return goja.Undefined()
		})
	case "removeProperty":
		return vm.ToValue(func(name string) string { return style.RemoveProperty(name) })
	}
	if isIndex(key) || vm.NewObject().Get(key) != nil {
		return nil
	}
	// Unset properties read as the empty string, like CSSOM.
	return vm.ToValue(style.GetPropertyValue(dom.NormalizeCSSPropertyName(key)))
}

func (s *styleObject) Set(key string, val goja.Value) bool {
	switch key {
	case "cssText":
		s.el.style.SetCSSText(val.String())
		return true
	case "length":
		return true
	}
	s.el.style.SetProperty(dom.NormalizeCSSPropertyName(key), styleValue(val))
	return true
}

func (s *styleObject) Has(key string) bool {
	for _, m := range styleMembers {
		if m == key {
			return true
		}
	}
	return s.el.style.GetPropertyValue(dom.NormalizeCSSPropertyName(key)) != ""
}

func (s *styleObject) Delete(key string) bool {
	s.el.style.RemoveProperty(dom.NormalizeCSSPropertyName(key))
	return true
}

func (s *styleObject) Keys() []string {
	names := s.el.style.PropertyNames()
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = dom.CamelCasePropertyName(name)
	}
	return keys
}

// styleValue stringifies a style value; null and undefined clear it.
func styleValue(v goja.Value) string {
	if v == nil || goja.IsNull(v) || goja.IsUndefined(v) {
		return ""
	}
	return v.String()
}

func isIndex(key string) bool {
	return key != "" && strings.IndexFunc(key, func(r rune) bool { return r < '0' || r > '9' }) == -1
}

// attributesObject is a live view of an element's attributes.
type attributesObject struct {
	el *Element
}

func (el *Element) attributesBinding() *goja.Object {
	if el.attrsObject == nil {
		el.attrsObject = el.vm().NewDynamicObject(&attributesObject{el: el})
	}
	return el.attrsObject
}

func (a *attributesObject) attr(name string) goja.Value {
	if !a.el.HasAttribute(name) {
		return goja.Null()
	}
	obj := a.el.vm().NewObject()
	obj.Set("name", strings.ToLower(name))
	obj.Set("value", wireString(a.el.GetAttribute(name)))
	return obj
}

func (a *attributesObject) Get(key string) goja.Value {
	vm := a.el.vm()
	switch key {
	case "length":
		return vm.ToValue(a.el.attrs.Len())
	case "getNamedItem":
		return vm.ToValue(func(name string) goja.Value { return a.attr(name) })
	case "item":
		return vm.ToValue(func(index int) goja.Value {
			names := a.el.AttributeNames()
			if index < 0 || index >= len(names) {
				return goja.Null()
			}
			return a.attr(names[index])
		})
	}
	if a.el.HasAttribute(key) {
		return a.attr(key)
	}
	return nil
}

func (a *attributesObject) Set(string, goja.Value) bool { return true }

func (a *attributesObject) Has(key string) bool {
	return key == "length" || a.el.HasAttribute(key)
}

func (a *attributesObject) Delete(string) bool { return true }

func (a *attributesObject) Keys() []string {
	return a.el.AttributeNames()
}
