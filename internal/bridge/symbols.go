package bridge

import (
	"fmt"

	"goqtgen/internal"
	"goqtgen/internal/typemap"

	"github.com/ygrebnov/errorc"
)

// Host methods the emitters generate on the object wrapper without a boundary symbol.
var generatedHostMethods = []string{"EmitQueued", "EmitImmediate"}

type contractBuilder struct {
	contract *Contract
	natives  map[string]bool
	hosts    map[string]bool
	err      error
}

func hostKey(direction Direction, name string) string {
	return fmt.Sprintf("%d:%s", direction, name)
}

func (b *contractBuilder) rs() Param {
	return Param{Name: "rs", CType: "uintptr_t"}
}

func (b *contractBuilder) self(isConst bool) Param {
	return Param{Name: "self", CType: b.contract.SelfType(isConst), IsSelf: true}
}

func (b *contractBuilder) lifecycle() {
	c := b.contract
	b.natives = make(map[string]bool)
	b.hosts = make(map[string]bool)
	for _, name := range generatedHostMethods {
		b.hosts[hostKey(HostToNative, name)] = true
	}

	b.add(Symbol{
		Role:      RoleCreate,
		Direction: NativeToHost,
		Boundary:  c.Prefix + "create_rs",
		Return:    "uintptr_t",
	})
	b.add(Symbol{
		Role:      RoleInitialise,
		Direction: NativeToHost,
		Boundary:  c.Prefix + "initialise_cpp",
		Host:      "Initialise",
		Params:    []Param{b.rs(), b.self(false)},
		Return:    "void",
	})
	b.add(Symbol{
		Role:      RoleDrop,
		Direction: NativeToHost,
		Boundary:  c.Prefix + "drop_rs",
		Params:    []Param{b.rs()},
		Return:    "void",
	})
	b.add(Symbol{
		Role:      RoleNewCppObject,
		Direction: HostToNative,
		Boundary:  c.Prefix + "new_cpp_object",
		Native:    "newCppObject",
		Host:      "New" + c.Object.Name + "Cpp",
		Return:    c.SelfType(false),
	})
}

func (b *contractBuilder) properties() {
	c := b.contract
	for _, property := range c.Object.Properties {
		mapping, err := typemap.Map(property.Type)
		if err != nil {
			b.fail(property.Name, err)
			return
		}

		snake := internal.ToSnake(property.Name)
		pascal := internal.ToPascal(property.Name)
		b.reserveNative(property.Name, property.Setter)
		b.reserveNative(property.Name, property.Notify)

		b.add(Symbol{
			Role:          RoleGetter,
			Direction:     HostToNative,
			Member:        property.Name,
			Boundary:      c.Prefix + "get_" + snake,
			Native:        property.Getter,
			Host:          pascal,
			Params:        []Param{b.self(true)},
			Return:        mapping.BoundaryType(typemap.ContextGetter),
			ReturnMapping: mapping,
		})

		setter := Symbol{
			Role:      RoleSetter,
			Direction: HostToNative,
			Member:    property.Name,
			Boundary:  c.Prefix + "set_" + snake,
			Native:    "store" + pascal,
			Params: []Param{
				b.self(false),
				{Name: "value", CType: mapping.BoundaryType(typemap.ContextSetter), Mapping: mapping},
			},
			Return: "void",
		}
		// Pointer-backed properties are only written through take and give on the host.
		if !property.IsPointerBacked() {
			setter.Host = "Set" + pascal
		}
		b.add(setter)

		if !property.IsPointerBacked() {
			continue
		}
		b.add(Symbol{
			Role:          RoleTake,
			Direction:     HostToNative,
			Member:        property.Name,
			Boundary:      c.Prefix + "take_" + snake,
			Native:        "take" + pascal,
			Host:          "Take" + pascal,
			Params:        []Param{b.self(false)},
			Return:        mapping.BoundaryType(typemap.ContextTake),
			ReturnMapping: mapping,
		})
		b.add(Symbol{
			Role:      RoleGive,
			Direction: HostToNative,
			Member:    property.Name,
			Boundary:  c.Prefix + "give_" + snake,
			Native:    "give" + pascal,
			Host:      "Give" + pascal,
			Params: []Param{
				b.self(false),
				{Name: "value", CType: mapping.BoundaryType(typemap.ContextGive), Mapping: mapping},
			},
			Return: "void",
		})
	}
}

func (b *contractBuilder) invokables() {
	c := b.contract
	for _, invokable := range c.Object.Invokables {
		params := []Param{b.rs()}
		for _, param := range invokable.Params {
			mapping, err := typemap.Map(param.Type)
			if err != nil {
				b.fail(invokable.Name+"."+param.Name, err)
				return
			}
			cType := mapping.BoundaryType(typemap.ContextInput)
			if mapping.IsThis {
				cType = c.SelfType(false)
			}
			params = append(params, Param{Name: param.Name, CType: cType, Mapping: mapping})
		}

		symbol := Symbol{
			Role:      RoleInvokable,
			Direction: NativeToHost,
			Member:    invokable.Name,
			Boundary:  c.Prefix + internal.ToSnake(invokable.Name),
			Native:    internal.ToCamel(invokable.Name),
			Host:      internal.ToPascal(invokable.Name),
			Params:    params,
			Return:    "void",
		}
		if invokable.Wrapper != "" {
			symbol.Boundary += "_wrapper"
			symbol.Host = invokable.Wrapper
		}
		if invokable.Returns != nil {
			mapping, err := typemap.Map(*invokable.Returns)
			if err != nil {
				b.fail(invokable.Name, err)
				return
			}
			symbol.Return = mapping.BoundaryType(typemap.ContextOutput)
			symbol.ReturnMapping = mapping
		}
		b.add(symbol)
	}
}

func (b *contractBuilder) signals() {
	c := b.contract
	for _, signal := range c.Object.Signals {
		immediate := []Param{b.self(false)}
		queued := []Param{b.self(false)}
		for _, param := range signal.Params {
			mapping, err := typemap.Map(param.Type)
			if err != nil {
				b.fail(signal.Name+"."+param.Name, err)
				return
			}
			immediate = append(immediate, Param{Name: param.Name, CType: mapping.BoundaryType(typemap.ContextImmediate), Mapping: mapping})
			queued = append(queued, Param{Name: param.Name, CType: mapping.BoundaryType(typemap.ContextQueued), Mapping: mapping})
		}

		b.add(Symbol{
			Role:      RoleSignalImmediate,
			Direction: HostToNative,
			Member:    signal.Name,
			Boundary:  c.Prefix + internal.ToSnake(signal.Name),
			Native:    internal.ToCamel(signal.Name),
			Params:    immediate,
			Return:    "void",
		})
		b.add(Symbol{
			Role:      RoleSignalQueued,
			Direction: HostToNative,
			Member:    signal.Name,
			Boundary:  c.Prefix + internal.ToSnake(signal.Emit),
			Native:    signal.Emit,
			Params:    queued,
			Return:    "void",
		})
	}
}

func (b *contractBuilder) updates() {
	c := b.contract
	if !c.Object.UpdateRequests {
		return
	}

	b.add(Symbol{
		Role:      RoleUpdateRequester,
		Direction: HostToNative,
		Boundary:  c.Prefix + "update_requester",
		Native:    "updateRequester",
		Host:      "UpdateRequester",
		Params:    []Param{b.self(false)},
		Return:    "goqt_update_requester_t*",
	})
	b.add(Symbol{
		Role:      RoleHandleUpdate,
		Direction: NativeToHost,
		Boundary:  c.Prefix + "handle_update_request",
		Native:    "updateState",
		Host:      "HandleUpdateRequest",
		Params:    []Param{b.rs(), b.self(false)},
		Return:    "void",
	})
}

func (b *contractBuilder) reserveNative(member, name string) {
	if b.err != nil {
		return
	}
	if b.natives[name] {
		b.collide(member, name)
		return
	}
	b.natives[name] = true
}

func (b *contractBuilder) add(symbol Symbol) {
	if b.err != nil {
		return
	}
	c := b.contract

	if _, found := c.byBoundary[symbol.Boundary]; found || symbol.Boundary == c.HandleType {
		b.collide(symbol.Member, symbol.Boundary)
		return
	}
	if symbol.Native != "" {
		if b.natives[symbol.Native] {
			b.collide(symbol.Member, symbol.Native)
			return
		}
		b.natives[symbol.Native] = true
	}
	if symbol.Host != "" {
		key := hostKey(symbol.Direction, symbol.Host)
		if b.hosts[key] {
			b.collide(symbol.Member, symbol.Host)
			return
		}
		b.hosts[key] = true
	}

	index := len(c.symbols)
	c.symbols = append(c.symbols, symbol)
	c.byKey[symbolKey{symbol.Role, symbol.Member}] = index
	c.byBoundary[symbol.Boundary] = index
	if symbol.Native != "" {
		c.byNative[symbol.Native] = index
	}
	if symbol.Host != "" {
		c.byHost[hostKey(symbol.Direction, symbol.Host)] = index
	}
}

func (b *contractBuilder) collide(member, name string) {
	b.err = errorc.With(ErrSymbolCollision,
		errorc.String(ErrorFieldObject, b.contract.Object.QualifiedName()),
		errorc.String(ErrorFieldMember, member),
		errorc.String(ErrorFieldSymbol, name),
	)
}

func (b *contractBuilder) fail(member string, err error) {
	if b.err != nil {
		return
	}
	b.err = fmt.Errorf("%s.%s: %w", b.contract.Object.QualifiedName(), member, err)
}
