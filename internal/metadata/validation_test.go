package metadata

import (
	"errors"
	"strings"
	"testing"
)

func validObject() Object {
	return Object{
		Name:      "Counter",
		Namespace: "demo::app",
		Properties: []Property{
			{Name: "counter", Type: Primitive(KindI32), Getter: "getCounter", Setter: "setCounter", Notify: "counterChanged", Default: "0", HasDefault: true},
		},
		Invokables: []Invokable{
			{Name: "reset", Params: []Parameter{{Name: "cpp", Type: ObjectReference(), IsReference: true}}, Wrapper: "resetWrapper"},
		},
		Signals: []Signal{
			{Name: "overflow", Emit: "emitOverflow", Params: []Parameter{{Name: "value", Type: Primitive(KindU32)}}},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(o *Object)
		sentinel error
		contains string
	}{
		{
			name:   "valid",
			mutate: func(o *Object) {},
		},
		{
			name:     "missing notify",
			mutate:   func(o *Object) { o.Properties[0].Notify = "" },
			sentinel: ErrMissingAccessor,
			contains: "notify",
		},
		{
			name:     "invalid object name",
			mutate:   func(o *Object) { o.Name = "1Counter" },
			sentinel: ErrInvalidIdentifier,
		},
		{
			name:     "reserved parameter name",
			mutate:   func(o *Object) { o.Signals[0].Params[0].Name = "self" },
			sentinel: ErrReservedIdentifier,
			contains: "self",
		},
		{
			name:     "parameter shadowing a generated local",
			mutate:   func(o *Object) { o.Signals[0].Params[0].Name = "signal_success" },
			sentinel: ErrReservedIdentifier,
		},
		{
			name:     "keyword property name",
			mutate:   func(o *Object) { o.Properties[0].Name = "range" },
			sentinel: ErrReservedIdentifier,
		},
		{
			name: "parameters equal after case conversion",
			mutate: func(o *Object) {
				o.Signals[0].Params = append(o.Signals[0].Params,
					Parameter{Name: "my_value", Type: Primitive(KindI32)},
					Parameter{Name: "myValue", Type: Primitive(KindI32)},
				)
			},
			sentinel: ErrDuplicateMember,
			contains: "myValue",
		},
		{
			name:     "parameter becoming a keyword after case conversion",
			mutate:   func(o *Object) { o.Signals[0].Params[0].Name = "do_" },
			sentinel: ErrReservedIdentifier,
		},
		{
			name: "duplicate member across kinds",
			mutate: func(o *Object) {
				o.Signals[0].Name = "Counter"
			},
			sentinel: ErrDuplicateMember,
		},
		{
			name: "object reference in signal",
			mutate: func(o *Object) {
				o.Signals[0].Params[0].Type = ObjectReference()
			},
			sentinel: ErrMisplacedObjectRef,
		},
		{
			name: "two object references",
			mutate: func(o *Object) {
				o.Invokables[0].Params = append(o.Invokables[0].Params, Parameter{Name: "other", Type: ObjectReference()})
			},
			sentinel: ErrMisplacedObjectRef,
		},
		{
			name: "object reference as return",
			mutate: func(o *Object) {
				ref := ObjectReference()
				o.Invokables[0].Returns = &ref
			},
			sentinel: ErrMisplacedObjectRef,
		},
		{
			name:     "default out of range",
			mutate:   func(o *Object) { o.Properties[0].Default = "4294967296" },
			sentinel: ErrInvalidDefault,
		},
		{
			name: "default on pointer-backed property",
			mutate: func(o *Object) {
				o.Properties[0].Type = OwnedPointer(Primitive(KindColor))
			},
			sentinel: ErrInvalidDefault,
		},
		{
			name: "nested owned pointer",
			mutate: func(o *Object) {
				o.Properties[0].HasDefault = false
				o.Properties[0].Type = OwnedPointer(OwnedPointer(Primitive(KindColor)))
			},
			sentinel: ErrInvalidOwnedPointer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			object := validObject()
			tt.mutate(&object)
			err := object.Validate()

			if tt.sentinel == nil {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.sentinel)
			}
			if tt.contains != "" && !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q should mention %q", err, tt.contains)
			}
		})
	}
}

func TestValidate_Keywords(t *testing.T) {
	for _, keyword := range []string{
		"do", "try", "register", "sizeof", "true", "nullptr",
		"extern", "volatile", "typedef", "emit", "nil",
	} {
		t.Run(keyword, func(t *testing.T) {
			object := validObject()
			object.Signals[0].Params[0].Name = keyword
			if err := object.Validate(); !errors.Is(err, ErrReservedIdentifier) {
				t.Errorf("parameter %s: Validate() error = %v, want ErrReservedIdentifier", keyword, err)
			}

			object = validObject()
			object.Properties[0].Name = keyword
			if err := object.Validate(); !errors.Is(err, ErrReservedIdentifier) {
				t.Errorf("property %s: Validate() error = %v, want ErrReservedIdentifier", keyword, err)
			}
		})
	}
}

func TestParseDefault(t *testing.T) {
	tests := []struct {
		kind    Kind
		literal string
		want    any
	}{
		{KindBool, "true", true},
		{KindI8, "-8", int8(-8)},
		{KindI32, "0x10", int32(16)},
		{KindU16, "65535", uint16(65535)},
		{KindF32, "1.5", float32(1.5)},
		{KindF64, "2.25", 2.25},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			got, err := ParseDefault(tt.kind, tt.literal)
			if err != nil {
				t.Fatalf("ParseDefault(%v, %q) error = %v", tt.kind, tt.literal, err)
			}
			if got != tt.want {
				t.Errorf("ParseDefault(%v, %q) = %#v, want %#v", tt.kind, tt.literal, got, tt.want)
			}
		})
	}

	if _, err := ParseDefault(KindColor, "red"); !errors.Is(err, ErrInvalidDefault) {
		t.Errorf("ParseDefault(color) error = %v, want ErrInvalidDefault", err)
	}
}
