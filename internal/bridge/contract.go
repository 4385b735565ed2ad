// Package bridge derives the boundary contract both emitters share: symbol names,
// C signatures and the declaration block embedded in the native header and the
// host module.
package bridge

import (
	"fmt"
	"strings"

	"goqtgen/internal"
	"goqtgen/internal/metadata"
	"goqtgen/internal/typemap"

	"github.com/ygrebnov/errorc"
)

// Direction tells which side implements a boundary function.
type Direction int

const (
	// Implemented by the host module (exported from Go), called by the native class.
	NativeToHost Direction = iota
	// Implemented by the native class (extern "C" shim), called by the host module.
	HostToNative
)

// Role identifies what a boundary function is for.
type Role int

const (
	RoleCreate Role = iota
	RoleInitialise
	RoleDrop
	RoleGetter
	RoleSetter
	RoleTake
	RoleGive
	RoleInvokable
	RoleSignalImmediate
	RoleSignalQueued
	RoleNewCppObject
	RoleUpdateRequester
	RoleHandleUpdate
)

type Param struct {
	Name  string
	CType string
	// Zero for the receiver handle and the host state handle.
	Mapping typemap.Mapping
	IsSelf  bool
}

type Symbol struct {
	Role      Role
	Direction Direction
	// Descriptor member the symbol belongs to; empty for object lifecycle symbols.
	Member   string
	Boundary string
	// Native class member the boundary function reaches or is reached from.
	Native string
	// Go identifier the boundary function reaches or is reached from.
	Host   string
	Params []Param
	Return string
	// Zero when Return is "void" or a handle of the object itself.
	ReturnMapping typemap.Mapping
}

// Signature is the C declaration of the symbol, without the trailing semicolon.
func (s Symbol) Signature() string {
	params := make([]string, 0, len(s.Params))
	for _, param := range s.Params {
		params = append(params, fmt.Sprintf("%s %s", param.CType, param.Name))
	}
	if len(params) == 0 {
		params = append(params, "void")
	}
	return fmt.Sprintf("%s %s(%s)", s.Return, s.Boundary, strings.Join(params, ", "))
}

type symbolKey struct {
	role   Role
	member string
}

// Contract is the boundary of one object.
type Contract struct {
	Object metadata.Object
	// Common prefix of every boundary symbol, e.g. "goqt_demo_my_object_".
	Prefix string
	// Opaque C type standing for the native object, e.g. "goqt_demo_my_object_t".
	HandleType string

	symbols    []Symbol
	byKey      map[symbolKey]int
	byBoundary map[string]int
	byNative   map[string]int
	byHost     map[string]int
}

// Build derives the contract of a validated object.
func Build(object metadata.Object) (*Contract, error) {
	segments := []string{"goqt"}
	for _, segment := range object.NamespaceSegments() {
		segments = append(segments, internal.ToSnake(segment))
	}
	segments = append(segments, internal.ToSnake(object.Name))
	prefix := strings.Join(segments, "_") + "_"

	contract := &Contract{
		Object:     object,
		Prefix:     prefix,
		HandleType: prefix + "t",
		byKey:      make(map[symbolKey]int),
		byBoundary: make(map[string]int),
		byNative:   make(map[string]int),
		byHost:     make(map[string]int),
	}

	builder := contractBuilder{contract: contract}
	builder.lifecycle()
	builder.properties()
	builder.invokables()
	builder.signals()
	builder.updates()

	if builder.err != nil {
		return nil, builder.err
	}
	return contract, nil
}

// Symbols returns all symbols in declaration order.
func (c *Contract) Symbols() []Symbol {
	return c.symbols
}

// Find returns the symbol playing the role for the member.
func (c *Contract) Find(role Role, member string) (Symbol, bool) {
	index, found := c.byKey[symbolKey{role, member}]
	if !found {
		return Symbol{}, false
	}
	return c.symbols[index], true
}

// MustFind is Find for symbols the contract always contains for a validated member.
func (c *Contract) MustFind(role Role, member string) Symbol {
	symbol, found := c.Find(role, member)
	if !found {
		internal.PanicOnError(errorc.With(ErrMissingSymbol,
			errorc.String(ErrorFieldObject, c.Object.Name),
			errorc.String(ErrorFieldMember, member),
		))
	}
	return symbol
}

func (c *Contract) ByBoundary(name string) (Symbol, bool) {
	return lookup(c, c.byBoundary, name)
}

func (c *Contract) ByNative(name string) (Symbol, bool) {
	return lookup(c, c.byNative, name)
}

// ByHost looks up a Go identifier. Host names are unique per direction only,
// since each direction's names live on a different Go type.
func (c *Contract) ByHost(direction Direction, name string) (Symbol, bool) {
	return lookup(c, c.byHost, hostKey(direction, name))
}

func lookup(c *Contract, index map[string]int, name string) (Symbol, bool) {
	position, found := index[name]
	if !found {
		return Symbol{}, false
	}
	return c.symbols[position], true
}

// SelfType is the receiver parameter type for the given constness.
func (c *Contract) SelfType(isConst bool) string {
	if isConst {
		return fmt.Sprintf("const %s*", c.HandleType)
	}
	return c.HandleType + "*"
}

// CheckDisjoint fails when two contracts generated together declare the same boundary symbol.
func CheckDisjoint(contracts ...*Contract) error {
	owners := make(map[string]string)
	for _, contract := range contracts {
		for _, name := range append([]string{contract.HandleType}, boundaryNames(contract)...) {
			if owner, found := owners[name]; found {
				return errorc.With(ErrSymbolCollision,
					errorc.String(ErrorFieldSymbol, name),
					errorc.String(ErrorFieldObject, contract.Object.QualifiedName()),
					errorc.String(ErrorFieldOther, owner),
				)
			}
			owners[name] = contract.Object.QualifiedName()
		}
	}
	return nil
}

func boundaryNames(c *Contract) []string {
	names := make([]string, 0, len(c.symbols))
	for _, symbol := range c.symbols {
		names = append(names, symbol.Boundary)
	}
	return names
}
