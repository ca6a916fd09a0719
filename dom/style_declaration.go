package dom

import (
	"strings"
)

// CSSStyleDeclaration is an element's presentation sub-object. It keeps the
// inline declarations in set order and reports every change to the owner,
// which forwards it to the native side.
type CSSStyleDeclaration struct {
	declarations  map[string]*styleProperty
	propertyOrder []string
	onChange      func(property, value string)
}

type styleProperty struct {
	value    string
	priority string
}

// NewCSSStyleDeclaration creates an empty declaration block. onChange is
// called with the kebab-case property name and the new value ("" when the
// property is removed). It may be nil.
func NewCSSStyleDeclaration(onChange func(property, value string)) *CSSStyleDeclaration {
	return &CSSStyleDeclaration{
		declarations: make(map[string]*styleProperty),
		onChange:     onChange,
	}
}

// CSSText returns the textual representation of the declaration block.
func (sd *CSSStyleDeclaration) CSSText() string {
	var parts []string
	for _, prop := range sd.propertyOrder {
		sp := sd.declarations[prop]
		part := prop + ": " + sp.value
		if sp.priority == "important" {
			part += " !important"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "; ")
}

// SetCSSText replaces every declaration with the ones parsed from cssText.
func (sd *CSSStyleDeclaration) SetCSSText(cssText string) {
	for _, prop := range sd.PropertyNames() {
		sd.RemoveProperty(prop)
	}
	for _, part := range strings.Split(cssText, ";") {
		colon := strings.Index(part, ":")
		if colon == -1 {
			continue
		}
		property := strings.TrimSpace(part[:colon])
		value := strings.TrimSpace(part[colon+1:])
		priority := ""
		if strings.HasSuffix(strings.ToLower(value), "!important") {
			priority = "important"
			value = strings.TrimSpace(value[:len(value)-len("!important")])
		}
		sd.SetProperty(property, value, priority)
	}
}

// Length returns the number of properties set.
func (sd *CSSStyleDeclaration) Length() int {
	return len(sd.declarations)
}

// Item returns the property name at index, or "".
func (sd *CSSStyleDeclaration) Item(index int) string {
	if index < 0 || index >= len(sd.propertyOrder) {
		return ""
	}
	return sd.propertyOrder[index]
}

// GetPropertyValue returns the value of a CSS property.
func (sd *CSSStyleDeclaration) GetPropertyValue(property string) string {
	if sp, ok := sd.declarations[NormalizeCSSPropertyName(property)]; ok {
		return sp.value
	}
	return ""
}

// GetPropertyPriority returns "important" or "".
func (sd *CSSStyleDeclaration) GetPropertyPriority(property string) string {
	if sp, ok := sd.declarations[NormalizeCSSPropertyName(property)]; ok {
		return sp.priority
	}
	return ""
}

// SetProperty sets a CSS property. An empty value removes it.
func (sd *CSSStyleDeclaration) SetProperty(property, value string, priority ...string) {
	property = NormalizeCSSPropertyName(property)
	if property == "" {
		return
	}
	if value == "" {
		sd.RemoveProperty(property)
		return
	}

	pri := ""
	if len(priority) > 0 && strings.EqualFold(priority[0], "important") {
		pri = "important"
	}
	if _, exists := sd.declarations[property]; !exists {
		sd.propertyOrder = append(sd.propertyOrder, property)
	}
	sd.declarations[property] = &styleProperty{value: value, priority: pri}
	if sd.onChange != nil {
		sd.onChange(property, value)
	}
}

// RemoveProperty removes a CSS property and returns its old value.
func (sd *CSSStyleDeclaration) RemoveProperty(property string) string {
	property = NormalizeCSSPropertyName(property)
	sp, ok := sd.declarations[property]
	if !ok {
		return ""
	}
	delete(sd.declarations, property)
	for i, p := range sd.propertyOrder {
		if p == property {
			sd.propertyOrder = append(sd.propertyOrder[:i], sd.propertyOrder[i+1:]...)
			break
		}
	}
	if sd.onChange != nil {
		sd.onChange(property, "")
	}
	return sp.value
}

// PropertyNames returns all property names in declaration order.
func (sd *CSSStyleDeclaration) PropertyNames() []string {
	return append([]string(nil), sd.propertyOrder...)
}

// NormalizeCSSPropertyName converts camelCase to kebab-case and lowercases.
// Examples: "backgroundColor" -> "background-color", "WebkitTransform" -> "-webkit-transform"
func NormalizeCSSPropertyName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.Contains(name, "-") {
		return strings.ToLower(name)
	}

	var result strings.Builder
	for _, r := range name {
		if r >= 'A' && r <= 'Z' {
			result.WriteByte('-')
			result.WriteByte(byte(r - 'A' + 'a'))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// CamelCasePropertyName converts kebab-case to camelCase.
// Examples: "background-color" -> "backgroundColor", "-webkit-transform" -> "WebkitTransform"
func CamelCasePropertyName(name string) string {
	vendor := strings.HasPrefix(name, "-")
	name = strings.TrimPrefix(name, "-")

	var result strings.Builder
	for i, part := range strings.Split(name, "-") {
		if part == "" {
			continue
		}
		if i == 0 && !vendor {
			result.WriteString(part)
		} else {
			result.WriteString(strings.ToUpper(part[:1]) + part[1:])
		}
	}
	return result.String()
}
