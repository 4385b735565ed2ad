package metadata

import (
	"regexp"
	"strconv"
	"strings"

	"goqtgen/internal"

	"github.com/ygrebnov/errorc"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Names used by generated code for its own parameters, locals and imports.
var generatedNames = map[string]bool{
	"rs":            true,
	"self":          true,
	"object":        true,
	"result":        true,
	"guard":         true,
	"signalSuccess": true,
	"unsafe":        true,
	"qtrt":          true,
	"C":             true,
	"any":           true,
	"int8":          true,
	"int16":         true,
	"int32":         true,
	"uint8":         true,
	"uint16":        true,
	"uint32":        true,
	"float32":       true,
	"float64":       true,
	"uintptr":       true,
}

// Keywords of either target language that cannot name a member or parameter.
var keywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
	"nil": true, "iota": true,

	"alignas": true, "alignof": true, "and": true, "and_eq": true, "asm": true,
	"auto": true, "bitand": true, "bitor": true, "bool": true, "catch": true,
	"char": true, "char8_t": true, "char16_t": true, "char32_t": true, "class": true,
	"compl": true, "concept": true, "consteval": true, "constexpr": true, "constinit": true,
	"const_cast": true, "co_await": true, "co_return": true, "co_yield": true, "decltype": true,
	"delete": true, "do": true, "double": true, "dynamic_cast": true, "enum": true,
	"explicit": true, "export": true, "extern": true, "false": true, "float": true,
	"friend": true, "inline": true, "int": true, "long": true, "mutable": true,
	"namespace": true, "new": true, "noexcept": true, "not": true, "not_eq": true,
	"nullptr": true, "operator": true, "or": true, "or_eq": true, "private": true,
	"protected": true, "public": true, "register": true, "reinterpret_cast": true, "requires": true,
	"short": true, "signed": true, "sizeof": true, "static": true, "static_assert": true,
	"static_cast": true, "template": true, "this": true, "thread_local": true, "throw": true,
	"true": true, "try": true, "typedef": true, "typeid": true, "typename": true,
	"union": true, "unsigned": true, "using": true, "virtual": true, "void": true,
	"volatile": true, "wchar_t": true, "while": true, "xor": true, "xor_eq": true,

	"emit": true, "foreach": true, "forever": true, "signals": true, "slots": true,
}

// Validate checks the invariants both emitters rely on.
func (o Object) Validate() error {
	if err := checkIdentifier(o, "", o.Name); err != nil {
		return err
	}
	for _, segment := range o.NamespaceSegments() {
		if err := checkIdentifier(o, "", segment); err != nil {
			return err
		}
	}

	members := make(map[string]bool)
	claim := func(member string) error {
		key := strings.ToLower(strings.ReplaceAll(member, "_", ""))
		if members[key] {
			return memberError(ErrDuplicateMember, o, member)
		}
		members[key] = true
		return nil
	}

	for _, property := range o.Properties {
		if err := checkIdentifier(o, property.Name, property.Name); err != nil {
			return err
		}
		if err := claim(property.Name); err != nil {
			return err
		}
		if err := validateProperty(o, property); err != nil {
			return err
		}
	}

	for _, invokable := range o.Invokables {
		if err := checkIdentifier(o, invokable.Name, invokable.Name); err != nil {
			return err
		}
		if err := claim(invokable.Name); err != nil {
			return err
		}
		if err := validateInvokable(o, invokable); err != nil {
			return err
		}
	}

	for _, signal := range o.Signals {
		if err := checkIdentifier(o, signal.Name, signal.Name); err != nil {
			return err
		}
		if err := claim(signal.Name); err != nil {
			return err
		}
		if err := checkIdentifier(o, signal.Name, signal.Emit); err != nil {
			return err
		}
		if err := validateParameters(o, signal.Name, signal.Params, false); err != nil {
			return err
		}
	}

	return nil
}

func validateProperty(o Object, property Property) error {
	accessors := []struct {
		name  string
		value string
	}{
		{"getter", property.Getter},
		{"setter", property.Setter},
		{"notify", property.Notify},
	}
	for _, accessor := range accessors {
		if accessor.value == "" {
			return errorc.With(ErrMissingAccessor,
				errorc.String(ErrorFieldObject, o.Name),
				errorc.String(ErrorFieldMember, property.Name),
				errorc.String(ErrorFieldAccessor, accessor.name),
			)
		}
		if err := checkIdentifier(o, property.Name, accessor.value); err != nil {
			return err
		}
	}

	if err := validateType(o, property.Name, property.Type, false); err != nil {
		return err
	}

	if property.HasDefault {
		return validateDefault(o, property)
	}
	return nil
}

func validateInvokable(o Object, invokable Invokable) error {
	if err := validateParameters(o, invokable.Name, invokable.Params, true); err != nil {
		return err
	}
	if invokable.Returns != nil {
		if err := validateType(o, invokable.Name, *invokable.Returns, false); err != nil {
			return err
		}
	}
	if invokable.Wrapper != "" {
		return checkIdentifier(o, invokable.Name, invokable.Wrapper)
	}
	return nil
}

func validateParameters(o Object, member string, params []Parameter, allowThis bool) error {
	names := make(map[string]bool, len(params))
	thisCount := 0
	for _, param := range params {
		if err := checkIdentifier(o, member, param.Name); err != nil {
			return err
		}
		// Both emitters spell parameters in camelCase.
		camel := internal.ToCamel(param.Name)
		if keywords[camel] {
			return reservedError(o, member, param.Name)
		}
		if names[camel] {
			return memberError(ErrDuplicateMember, o, member+"."+param.Name)
		}
		names[camel] = true

		if param.Type.IsThis() {
			thisCount++
			if thisCount > 1 {
				return memberError(ErrMisplacedObjectRef, o, member+"."+param.Name)
			}
		}
		if err := validateType(o, member+"."+param.Name, param.Type, allowThis); err != nil {
			return err
		}
	}
	return nil
}

func validateType(o Object, member string, t ValueType, allowThis bool) error {
	switch t.Kind {
	case KindObjectReference:
		if !allowThis {
			return memberError(ErrMisplacedObjectRef, o, member)
		}
	case KindOwnedPointer:
		if t.Inner == nil || t.Inner.Kind == KindOwnedPointer || t.Inner.Kind == KindObjectReference {
			return errorc.With(ErrInvalidOwnedPointer,
				errorc.String(ErrorFieldObject, o.Name),
				errorc.String(ErrorFieldMember, member),
				errorc.String(ErrorFieldType, t.String()),
			)
		}
	case KindInvalid:
		return errorc.With(ErrUnknownType,
			errorc.String(ErrorFieldObject, o.Name),
			errorc.String(ErrorFieldMember, member),
		)
	}
	return nil
}

func validateDefault(o Object, property Property) error {
	invalid := func() error {
		return errorc.With(ErrInvalidDefault,
			errorc.String(ErrorFieldObject, o.Name),
			errorc.String(ErrorFieldMember, property.Name),
			errorc.String(ErrorFieldDefault, property.Default),
		)
	}

	if !property.Type.Kind.IsPrimitive() {
		return invalid()
	}
	if _, err := ParseDefault(property.Type.Kind, property.Default); err != nil {
		return invalid()
	}
	return nil
}

// ParseDefault converts a default literal to the Go value matching the kind.
func ParseDefault(kind Kind, literal string) (any, error) {
	literal = strings.TrimSpace(literal)
	switch kind {
	case KindBool:
		return strconv.ParseBool(literal)
	case KindI8:
		v, err := strconv.ParseInt(literal, 0, 8)
		return int8(v), err
	case KindI16:
		v, err := strconv.ParseInt(literal, 0, 16)
		return int16(v), err
	case KindI32:
		v, err := strconv.ParseInt(literal, 0, 32)
		return int32(v), err
	case KindU8:
		v, err := strconv.ParseUint(literal, 0, 8)
		return uint8(v), err
	case KindU16:
		v, err := strconv.ParseUint(literal, 0, 16)
		return uint16(v), err
	case KindU32:
		v, err := strconv.ParseUint(literal, 0, 32)
		return uint32(v), err
	case KindF32:
		v, err := strconv.ParseFloat(literal, 32)
		return float32(v), err
	case KindF64:
		return strconv.ParseFloat(literal, 64)
	}
	return nil, errorc.With(ErrInvalidDefault, errorc.String(ErrorFieldType, kind.String()))
}

func checkIdentifier(o Object, member, identifier string) error {
	if !identifierPattern.MatchString(identifier) {
		return errorc.With(ErrInvalidIdentifier,
			errorc.String(ErrorFieldObject, o.Name),
			errorc.String(ErrorFieldMember, member),
			errorc.String(ErrorFieldIdentifier, identifier),
		)
	}
	if keywords[identifier] || generatedNames[identifier] || generatedNames[internal.ToCamel(identifier)] ||
		strings.HasPrefix(strings.ToLower(identifier), "goqt") {
		return reservedError(o, member, identifier)
	}
	return nil
}

func reservedError(o Object, member, identifier string) error {
	return errorc.With(ErrReservedIdentifier,
		errorc.String(ErrorFieldObject, o.Name),
		errorc.String(ErrorFieldMember, member),
		errorc.String(ErrorFieldIdentifier, identifier),
	)
}

func memberError(err error, o Object, member string) error {
	return errorc.With(err,
		errorc.String(ErrorFieldObject, o.Name),
		errorc.String(ErrorFieldMember, member),
	)
}
