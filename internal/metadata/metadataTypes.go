package metadata

import (
	"fmt"
	"strings"
)

// Kind enumerates the closed set of value types an object can expose.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindI8
	KindI16
	KindI32
	KindU8
	KindU16
	KindU32
	KindF32
	KindF64
	KindColor
	KindDate
	KindDateTime
	KindPoint
	KindPointF
	KindRect
	KindRectF
	KindSize
	KindSizeF
	KindString
	KindTime
	KindURL
	KindVariant
	KindOwnedPointer
	KindObjectReference
)

// Spelling of every kind in the descriptor file.
var kindNames = map[Kind]string{
	KindBool:            "bool",
	KindI8:              "i8",
	KindI16:             "i16",
	KindI32:             "i32",
	KindU8:              "u8",
	KindU16:             "u16",
	KindU32:             "u32",
	KindF32:             "f32",
	KindF64:             "f64",
	KindColor:           "color",
	KindDate:            "date",
	KindDateTime:        "datetime",
	KindPoint:           "point",
	KindPointF:          "pointf",
	KindRect:            "rect",
	KindRectF:           "rectf",
	KindSize:            "size",
	KindSizeF:           "sizef",
	KindString:          "string",
	KindTime:            "time",
	KindURL:             "url",
	KindVariant:         "variant",
	KindOwnedPointer:    "owned",
	KindObjectReference: "this",
}

var kindsByName = func() map[string]Kind {
	kinds := make(map[string]Kind, len(kindNames))
	for kind, name := range kindNames {
		kinds[name] = kind
	}
	return kinds
}()

func (k Kind) String() string {
	if name, found := kindNames[k]; found {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsPrimitive reports whether values of the kind are passed by value everywhere.
func (k Kind) IsPrimitive() bool {
	return k >= KindBool && k <= KindF64
}

// IsOpaque reports whether the kind is one of the structured framework types.
func (k Kind) IsOpaque() bool {
	return k >= KindColor && k <= KindVariant
}

// OpaqueKinds lists the structured framework types in declaration order.
func OpaqueKinds() []Kind {
	kinds := make([]Kind, 0, KindVariant-KindColor+1)
	for k := KindColor; k <= KindVariant; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

type ValueType struct {
	Kind Kind
	// Set only for KindOwnedPointer.
	Inner *ValueType
}

func Primitive(kind Kind) ValueType {
	return ValueType{Kind: kind}
}

func OwnedPointer(inner ValueType) ValueType {
	return ValueType{Kind: KindOwnedPointer, Inner: &inner}
}

func ObjectReference() ValueType {
	return ValueType{Kind: KindObjectReference}
}

func (t ValueType) String() string {
	if t.Kind == KindOwnedPointer {
		if t.Inner == nil {
			return "owned<?>"
		}
		return fmt.Sprintf("owned<%s>", t.Inner)
	}
	return t.Kind.String()
}

// IsOpaque resolves an owned pointer to the opacity of the value it wraps.
func (t ValueType) IsOpaque() bool {
	if t.Kind == KindOwnedPointer {
		return t.Inner != nil && t.Inner.IsOpaque()
	}
	return t.Kind.IsOpaque()
}

func (t ValueType) IsThis() bool {
	return t.Kind == KindObjectReference
}

// NeedsConversion reports whether a value must be converted before host logic sees it.
func (t ValueType) NeedsConversion() bool {
	return t.IsOpaque() || t.IsThis()
}

// ParseValueType parses the descriptor spelling of a type, e.g. "i32" or "owned<color>".
func ParseValueType(text string) (ValueType, error) {
	text = strings.TrimSpace(text)
	if inner, found := strings.CutPrefix(text, "owned<"); found {
		inner, closed := strings.CutSuffix(inner, ">")
		if !closed {
			return ValueType{}, unknownTypeError(text)
		}
		innerType, err := ParseValueType(inner)
		if err != nil {
			return ValueType{}, err
		}
		return OwnedPointer(innerType), nil
	}

	kind, found := kindsByName[text]
	if !found || kind == KindOwnedPointer {
		return ValueType{}, unknownTypeError(text)
	}
	return ValueType{Kind: kind}, nil
}

type Parameter struct {
	Name        string
	Type        ValueType
	IsMutable   bool
	IsReference bool
}

type Property struct {
	Name   string
	Type   ValueType
	Getter string
	Setter string
	Notify string
	// Literal applied while the object is constructing.
	Default    string
	HasDefault bool
}

// IsPointerBacked reports whether the native side stores and owns a pointer for the property.
func (p Property) IsPointerBacked() bool {
	return p.Type.Kind == KindOwnedPointer
}

type Invokable struct {
	Name      string
	IsMutable bool
	Params    []Parameter
	Returns   *ValueType
	// Empty unless a parameter or the return value needs conversion.
	Wrapper string
}

// NeedsWrapper reports whether any parameter or the return value crosses the boundary as a handle.
func (i Invokable) NeedsWrapper() bool {
	if i.Returns != nil && i.Returns.NeedsConversion() {
		return true
	}
	for _, param := range i.Params {
		if param.Type.NeedsConversion() {
			return true
		}
	}
	return false
}

type Signal struct {
	Name   string
	Emit   string
	Params []Parameter
}

type Object struct {
	Name           string
	Namespace      string
	Properties     []Property
	Invokables     []Invokable
	Signals        []Signal
	UpdateRequests bool
}

// NamespaceSegments splits the namespace on "::" or ".".
func (o Object) NamespaceSegments() []string {
	if o.Namespace == "" {
		return nil
	}
	normalized := strings.ReplaceAll(o.Namespace, "::", ".")
	segments := make([]string, 0, 2)
	for _, segment := range strings.Split(normalized, ".") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

// QualifiedName is the fully qualified C++ class name, e.g. "demo::MyObject".
func (o Object) QualifiedName() string {
	return strings.Join(append(o.NamespaceSegments(), o.Name), "::")
}

// UsedOpaqueKinds returns every structured kind the object mentions, in declaration order.
func (o Object) UsedOpaqueKinds() []Kind {
	seen := make(map[Kind]bool)
	note := func(t ValueType) {
		if t.Kind == KindOwnedPointer && t.Inner != nil {
			t = *t.Inner
		}
		if t.Kind.IsOpaque() {
			seen[t.Kind] = true
		}
	}

	for _, property := range o.Properties {
		note(property.Type)
	}
	for _, invokable := range o.Invokables {
		for _, param := range invokable.Params {
			note(param.Type)
		}
		if invokable.Returns != nil {
			note(*invokable.Returns)
		}
	}
	for _, signal := range o.Signals {
		for _, param := range signal.Params {
			note(param.Type)
		}
	}

	kinds := make([]Kind, 0, len(seen))
	for _, kind := range OpaqueKinds() {
		if seen[kind] {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}
