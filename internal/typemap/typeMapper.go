// Package typemap derives the native, boundary and host spelling of every value type.
package typemap

import (
	"fmt"
	"strings"

	"goqtgen/internal/metadata"

	"github.com/ygrebnov/errorc"
)

// Mapping holds the three synchronized representations of one value type.
type Mapping struct {
	Kind metadata.Kind
	// C++/Qt type, e.g. "qint32" or "QColor".
	NativeName string
	// C ABI type, e.g. "int32_t" or the handle "goqt_color_t".
	BoundaryName string
	// Go type, e.g. "int32", or the marker type name in the host runtime, e.g. "Color".
	HostName string
	// Qt header declaring NativeName, empty for builtin types.
	Include string

	IsConst     bool
	IsReference bool
	IsPointer   bool
	IsOpaque    bool
	IsThis      bool
}

// Context selects where a mapped type is spelled.
type Context int

const (
	// Q_PROPERTY type.
	ContextMeta Context = iota
	// Member storage in the native class.
	ContextStorage
	ContextGetter
	ContextSetter
	// Invokable or immediate signal parameter.
	ContextParam
	// Queued signal parameter, owned by the closure that emits it.
	ContextQueuedParam
	// Invokable return value.
	ContextReturn
	// Value returned by take.
	ContextTake
	// Value accepted by give.
	ContextGive
	// Boundary argument of an immediate signal.
	ContextImmediate
	// Boundary argument of a queued signal.
	ContextQueued
	// Argument passed from native into host.
	ContextInput
	// Value returned from host into native.
	ContextOutput
)

type primitiveNames struct {
	native   string
	boundary string
	host     string
}

var primitives = map[metadata.Kind]primitiveNames{
	metadata.KindBool: {"bool", "bool", "bool"},
	metadata.KindI8:   {"qint8", "int8_t", "int8"},
	metadata.KindI16:  {"qint16", "int16_t", "int16"},
	metadata.KindI32:  {"qint32", "int32_t", "int32"},
	metadata.KindU8:   {"quint8", "uint8_t", "uint8"},
	metadata.KindU16:  {"quint16", "uint16_t", "uint16"},
	metadata.KindU32:  {"quint32", "uint32_t", "uint32"},
	metadata.KindF32:  {"float", "float", "float32"},
	metadata.KindF64:  {"double", "double", "float64"},
}

type opaqueNames struct {
	native  string
	handle  string
	marker  string
	include string
}

var opaques = map[metadata.Kind]opaqueNames{
	metadata.KindColor:    {"QColor", "goqt_color_t", "Color", "<QtGui/QColor>"},
	metadata.KindDate:     {"QDate", "goqt_date_t", "Date", "<QtCore/QDate>"},
	metadata.KindDateTime: {"QDateTime", "goqt_datetime_t", "DateTime", "<QtCore/QDateTime>"},
	metadata.KindPoint:    {"QPoint", "goqt_point_t", "Point", "<QtCore/QPoint>"},
	metadata.KindPointF:   {"QPointF", "goqt_pointf_t", "PointF", "<QtCore/QPointF>"},
	metadata.KindRect:     {"QRect", "goqt_rect_t", "Rect", "<QtCore/QRect>"},
	metadata.KindRectF:    {"QRectF", "goqt_rectf_t", "RectF", "<QtCore/QRectF>"},
	metadata.KindSize:     {"QSize", "goqt_size_t", "Size", "<QtCore/QSize>"},
	metadata.KindSizeF:    {"QSizeF", "goqt_sizef_t", "SizeF", "<QtCore/QSizeF>"},
	metadata.KindString:   {"QString", "goqt_string_t", "String", "<QtCore/QString>"},
	metadata.KindTime:     {"QTime", "goqt_time_t", "Time", "<QtCore/QTime>"},
	metadata.KindURL:      {"QUrl", "goqt_url_t", "URL", "<QtCore/QUrl>"},
	metadata.KindVariant:  {"QVariant", "goqt_variant_t", "Variant", "<QtCore/QVariant>"},
}

// Map resolves a value type. Types outside the supported taxonomy yield ErrUnsupportedType.
func Map(t metadata.ValueType) (Mapping, error) {
	switch {
	case t.Kind.IsPrimitive():
		names := primitives[t.Kind]
		return Mapping{
			Kind:         t.Kind,
			NativeName:   names.native,
			BoundaryName: names.boundary,
			HostName:     names.host,
		}, nil

	case t.Kind.IsOpaque():
		names := opaques[t.Kind]
		return Mapping{
			Kind:         t.Kind,
			NativeName:   names.native,
			BoundaryName: names.handle,
			HostName:     names.marker,
			Include:      names.include,
			IsConst:      true,
			IsReference:  true,
			IsOpaque:     true,
		}, nil

	case t.Kind == metadata.KindOwnedPointer:
		if t.Inner == nil || !t.Inner.Kind.IsOpaque() {
			return Mapping{}, unsupported(t)
		}
		inner, err := Map(*t.Inner)
		if err != nil {
			return Mapping{}, err
		}
		inner.Kind = metadata.KindOwnedPointer
		inner.IsPointer = true
		return inner, nil

	case t.Kind == metadata.KindObjectReference:
		return Mapping{
			Kind:        t.Kind,
			IsReference: true,
			IsThis:      true,
		}, nil
	}

	return Mapping{}, unsupported(t)
}

// MustMap is Map for types already accepted by a contract.
func MustMap(t metadata.ValueType) Mapping {
	mapping, err := Map(t)
	if err != nil {
		panic(err)
	}
	return mapping
}

// NativeType spells the C++ type for the given context. Object references have no native spelling.
func (m Mapping) NativeType(context Context) string {
	if m.IsThis {
		return ""
	}
	if !m.IsOpaque {
		return m.NativeName
	}

	switch context {
	case ContextMeta, ContextStorage:
		if m.IsPointer {
			return fmt.Sprintf("const %s*", m.NativeName)
		}
		return m.NativeName
	case ContextGetter, ContextSetter:
		if m.IsPointer {
			return fmt.Sprintf("const %s*", m.NativeName)
		}
		return fmt.Sprintf("const %s&", m.NativeName)
	case ContextQueuedParam, ContextTake, ContextGive:
		return fmt.Sprintf("std::unique_ptr<%s>", m.NativeName)
	case ContextReturn:
		return m.NativeName
	}
	// Owned pointers unwrap to the pointee in parameter position.
	return fmt.Sprintf("const %s&", m.NativeName)
}

// BoundaryType spells the C type for the given context. Object references resolve to the
// object handle, which only the contract knows, so they yield an empty string.
func (m Mapping) BoundaryType(context Context) string {
	if m.IsThis {
		return ""
	}
	if !m.IsOpaque {
		return m.BoundaryName
	}

	switch context {
	case ContextGetter, ContextSetter, ContextImmediate, ContextParam, ContextMeta, ContextStorage:
		return fmt.Sprintf("const %s*", m.BoundaryName)
	}
	return fmt.Sprintf("%s*", m.BoundaryName)
}

// DropFunction is the boundary function releasing an owned handle of this type.
func (m Mapping) DropFunction() string {
	if !m.IsOpaque {
		return ""
	}
	return strings.TrimSuffix(m.BoundaryName, "_t") + "_drop"
}

// Table maps every variant of the closed taxonomy, owned pointers wrapping each opaque type included.
func Table() map[string]Mapping {
	table := make(map[string]Mapping)
	for kind := range primitives {
		table[kind.String()] = MustMap(metadata.Primitive(kind))
	}
	for kind := range opaques {
		table[kind.String()] = MustMap(metadata.Primitive(kind))
		owned := metadata.OwnedPointer(metadata.Primitive(kind))
		table[owned.String()] = MustMap(owned)
	}
	table[metadata.KindObjectReference.String()] = MustMap(metadata.ObjectReference())
	return table
}

func unsupported(t metadata.ValueType) error {
	return errorc.With(ErrUnsupportedType, errorc.String(ErrorFieldType, t.String()))
}
