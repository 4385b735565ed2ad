package generation

import (
	"fmt"
	"strings"

	"goqtgen/internal"
	"goqtgen/internal/bridge"
	"goqtgen/internal/metadata"
	"goqtgen/internal/typemap"

	"github.com/dave/jennifer/jen"
)

// hostEmitter writes the cgo module mirroring one native class.
type hostEmitter struct {
	contract    *bridge.Contract
	object      metadata.Object
	runtimePath string
	file        *jen.File
	// Go type wrapping the native object, e.g. "MyObjectCpp".
	cppType string
	// Helper resolving a host handle to the user's state.
	fromHandle string
}

func emitHost(contract *bridge.Contract, packageName, runtimePath string) *jen.File {
	h := &hostEmitter{
		contract:    contract,
		object:      contract.Object,
		runtimePath: runtimePath,
		file:        jen.NewFile(packageName),
		cppType:     cppTypeName(contract.Object),
		fromHandle:  fromHandleName(contract.Object),
	}

	h.file.HeaderComment("Code generated by goqtgen. DO NOT EDIT.")
	h.file.CgoPreamble(contract.Block())
	h.file.ImportAlias(runtimePath, "qtrt")

	h.registerDrops()
	h.cppWrapper()
	h.properties()
	h.updateRequester()
	h.signals()
	h.lifecycle()
	h.invokables()
	h.updateHandler()

	return h.file
}

func (h *hostEmitter) rt(name string) *jen.Statement {
	return jen.Qual(h.runtimePath, name)
}

func (h *hostEmitter) receiver() *jen.Statement {
	return jen.Id("cpp").Op("*").Id(h.cppType)
}

// loadObject spells qtrt.Load[*qtrt.Object[T]].
func (h *hostEmitter) loadObject() *jen.Statement {
	return h.rt("Load").Types(jen.Op("*").Add(h.rt("Object")).Types(jen.Id(h.object.Name)))
}

func (h *hostEmitter) registerDrops() {
	kinds := h.object.UsedOpaqueKinds()
	if len(kinds) == 0 {
		return
	}

	h.file.Func().Id("init").Params().BlockFunc(func(g *jen.Group) {
		for _, kind := range kinds {
			mapping := typemap.MustMap(metadata.Primitive(kind))
			g.Add(h.rt("RegisterDrop")).Types(h.rt(mapping.HostName)).Call(
				jen.Func().Params(jen.Id("ptr").Qual("unsafe", "Pointer")).Block(
					jen.Qual("C", mapping.DropFunction()).Call(
						jen.Parens(jen.Op("*").Qual("C", mapping.BoundaryName)).Call(jen.Id("ptr")),
					),
				),
			)
		}
	})
	h.file.Line()
}

func (h *hostEmitter) cppWrapper() {
	newSymbol := h.contract.MustFind(bridge.RoleNewCppObject, "")

	h.file.Commentf("%s is a thread-confined reference to a native %s.", h.cppType, h.object.QualifiedName())
	h.file.Type().Id(h.cppType).Struct(
		jen.Id("ptr").Op("*").Qual("C", h.contract.HandleType),
	)
	h.file.Line()

	h.file.Commentf("%s constructs a native %s. The caller hands it to Qt, for instance by parenting it.",
		newSymbol.Host, h.object.QualifiedName())
	h.file.Func().Id(newSymbol.Host).Params().Op("*").Id(h.cppType).Block(
		jen.Return(jen.Op("&").Id(h.cppType).Values(jen.Dict{
			jen.Id("ptr"): jen.Qual("C", newSymbol.Boundary).Call(),
		})),
	)
	h.file.Line()
}

func (h *hostEmitter) properties() {
	for _, property := range h.object.Properties {
		getter := h.contract.MustFind(bridge.RoleGetter, property.Name)
		mapping := getter.ReturnMapping
		read := jen.Qual("C", getter.Boundary).Call(jen.Id("cpp").Dot("ptr"))

		h.file.Func().Params(h.receiver()).Id(getter.Host).Params().Add(h.inputType(mapping)).Block(
			jen.Return(h.fromC(mapping, read)),
		)
		h.file.Line()

		if !property.IsPointerBacked() {
			setter := h.contract.MustFind(bridge.RoleSetter, property.Name)
			h.file.Func().Params(h.receiver()).Id(setter.Host).Params(jen.Id("value").Add(h.inputType(mapping))).Block(
				jen.Qual("C", setter.Boundary).Call(jen.Id("cpp").Dot("ptr"), h.toC(mapping, jen.Id("value"), "Ptr")),
			)
			h.file.Line()
			continue
		}

		take := h.contract.MustFind(bridge.RoleTake, property.Name)
		give := h.contract.MustFind(bridge.RoleGive, property.Name)

		h.file.Commentf("%s detaches the owned value and leaves %s unset.", take.Host, property.Name)
		h.file.Func().Params(h.receiver()).Id(take.Host).Params().Add(h.ownedType(mapping)).Block(
			jen.Return(h.rt("Adopt").Types(h.rt(mapping.HostName)).Call(
				jen.Qual("unsafe", "Pointer").Call(jen.Qual("C", take.Boundary).Call(jen.Id("cpp").Dot("ptr"))),
			)),
		)
		h.file.Line()

		h.file.Commentf("%s moves ownership of value into %s. Giving no value fails with qtrt.ErrNilValue, "+
			"giving the value %s already holds with qtrt.ErrSelfAssignment.", give.Host, property.Name, property.Name)
		h.file.Func().Params(h.receiver()).Id(give.Host).Params(jen.Id("value").Add(h.ownedType(mapping))).Error().Block(
			h.requireValue("value", jen.Id("value")),
			jen.If(
				jen.Err().Op(":=").Add(h.rt("CheckGive")).Call(jen.Id("cpp").Dot(getter.Host).Call().Dot("Ptr").Call(), jen.Id("value")),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Err())),
			jen.Qual("C", give.Boundary).Call(jen.Id("cpp").Dot("ptr"), h.toC(mapping, jen.Id("value"), "Release")),
			jen.Return(jen.Nil()),
		)
		h.file.Line()
	}
}

func (h *hostEmitter) updateRequester() {
	if !h.object.UpdateRequests {
		return
	}
	symbol := h.contract.MustFind(bridge.RoleUpdateRequester, "")
	handle := strings.TrimSuffix(symbol.Return, "*")
	forward := func(function string) *jen.Statement {
		return jen.Func().Params(jen.Id("ptr").Qual("unsafe", "Pointer")).Block(
			jen.Qual("C", function).Call(jen.Parens(jen.Op("*").Qual("C", handle)).Call(jen.Id("ptr"))),
		)
	}

	h.file.Comment("UpdateRequester returns a handle that asks the object to run HandleUpdateRequest on its own thread.")
	h.file.Func().Params(h.receiver()).Id(symbol.Host).Params().Op("*").Add(h.rt("UpdateRequester")).Block(
		jen.Return(h.rt("NewUpdateRequester").Call(
			jen.Qual("unsafe", "Pointer").Call(jen.Qual("C", symbol.Boundary).Call(jen.Id("cpp").Dot("ptr"))),
			forward("goqt_update_requester_request_update"),
			forward("goqt_update_requester_drop"),
		)),
	)
	h.file.Line()
}

func (h *hostEmitter) signals() {
	if len(h.object.Signals) == 0 {
		return
	}

	signalInterface := signalInterfaceName(h.object)
	marker := "is" + signalInterface
	h.file.Commentf("%s is one of the signals %s can emit.", signalInterface, h.object.Name)
	h.file.Type().Id(signalInterface).Interface(jen.Id(marker).Params())
	h.file.Line()

	hasParams := false
	for _, signal := range h.object.Signals {
		variant := h.signalVariant(signal)
		hasParams = hasParams || len(signal.Params) > 0

		h.file.Type().Id(variant).StructFunc(func(g *jen.Group) {
			immediate := h.contract.MustFind(bridge.RoleSignalImmediate, signal.Name)
			for i, param := range signal.Params {
				g.Id(internal.ToPascal(param.Name)).Add(h.fieldType(immediate.Params[i+1].Mapping))
			}
		})
		h.file.Line()
		h.file.Func().Params(jen.Id(variant)).Id(marker).Params().Block()
		h.file.Line()
	}

	emit := func(name, doc string, role bridge.Role, transfer string) {
		subject := jen.Id("signal").Assert(jen.Type())
		if hasParams {
			subject = jen.Id("s").Op(":=").Add(subject)
		}

		h.file.Comment(doc)
		h.file.Func().Params(h.receiver()).Id(name).Params(jen.Id("signal").Id(signalInterface)).Error().Block(
			jen.Switch(subject).BlockFunc(func(g *jen.Group) {
				for _, signal := range h.object.Signals {
					symbol := h.contract.MustFind(role, signal.Name)
					g.Case(jen.Id(h.signalVariant(signal))).BlockFunc(func(body *jen.Group) {
						for i, param := range signal.Params {
							if symbol.Params[i+1].Mapping.IsOpaque {
								body.Add(h.requireValue(param.Name, jen.Id("s").Dot(internal.ToPascal(param.Name))))
							}
						}
						body.Qual("C", symbol.Boundary).CallFunc(func(args *jen.Group) {
							args.Id("cpp").Dot("ptr")
							for i, param := range signal.Params {
								field := jen.Id("s").Dot(internal.ToPascal(param.Name))
								args.Add(h.toC(symbol.Params[i+1].Mapping, field, transfer))
							}
						})
					})
				}
			}),
			jen.Return(jen.Nil()),
		)
		h.file.Line()
	}

	emit("EmitQueued",
		"EmitQueued posts the signal onto the object's thread. Owned values move to the native side; "+
			"a signal missing one fails with qtrt.ErrNilValue and emits nothing.",
		bridge.RoleSignalQueued, "Release")
	emit("EmitImmediate",
		"EmitImmediate emits the signal synchronously. Call it only from the object's thread; owned values stay with the caller "+
			"and must be present.",
		bridge.RoleSignalImmediate, "Ptr")
}

func (h *hostEmitter) signalVariant(signal metadata.Signal) string {
	return signalVariantName(h.object, signal)
}

func cppTypeName(object metadata.Object) string {
	return object.Name + "Cpp"
}

func fromHandleName(object metadata.Object) string {
	return internal.ToCamel(object.Name) + "FromHandle"
}

func signalInterfaceName(object metadata.Object) string {
	return object.Name + "Signal"
}

func signalVariantName(object metadata.Object, signal metadata.Signal) string {
	return object.Name + internal.ToPascal(signal.Name) + "Signal"
}

// packageIdentifiers lists the package-level Go names a host file declares,
// together with the object type the user declares next to it.
func packageIdentifiers(contract *bridge.Contract) []string {
	object := contract.Object
	names := []string{
		object.Name,
		cppTypeName(object),
		contract.MustFind(bridge.RoleNewCppObject, "").Host,
		fromHandleName(object),
	}
	if len(object.Signals) > 0 {
		names = append(names, signalInterfaceName(object))
	}
	for _, signal := range object.Signals {
		names = append(names, signalVariantName(object, signal))
	}
	return names
}

func (h *hostEmitter) lifecycle() {
	create := h.contract.MustFind(bridge.RoleCreate, "")
	initialise := h.contract.MustFind(bridge.RoleInitialise, "")
	drop := h.contract.MustFind(bridge.RoleDrop, "")
	rs := jen.Id("rs").Qual("C", "uintptr_t")
	handle := jen.Id("uintptr").Call(jen.Id("rs"))

	h.file.Func().Id(h.fromHandle).Params(rs.Clone()).Op("*").Id(h.object.Name).Block(
		jen.Return(h.loadObject().Call(handle.Clone()).Dot("Value").Call()),
	)
	h.file.Line()

	h.export(create.Boundary)
	h.file.Func().Id(create.Boundary).Params().Qual("C", "uintptr_t").Block(
		jen.Return(jen.Qual("C", "uintptr_t").Call(
			h.rt("NewHandle").Call(h.rt("NewObject").Call(jen.New(jen.Id(h.object.Name)))),
		)),
	)
	h.file.Line()

	hook := jen.Interface(jen.Id(initialise.Host).Params(jen.Op("*").Id(h.cppType)))
	h.export(initialise.Boundary)
	h.file.Func().Id(initialise.Boundary).Params(rs.Clone(), jen.Id("self").Op("*").Qual("C", h.contract.HandleType)).BlockFunc(func(g *jen.Group) {
		g.Id("object").Op(":=").Add(h.loadObject()).Call(handle.Clone())
		g.Id("cpp").Op(":=").Op("&").Id(h.cppType).Values(jen.Dict{jen.Id("ptr"): jen.Id("self")})
		for _, property := range h.object.Properties {
			if !property.HasDefault {
				continue
			}
			value, err := metadata.ParseDefault(property.Type.Kind, property.Default)
			internal.PanicOnError(err)
			setter := h.contract.MustFind(bridge.RoleSetter, property.Name)
			g.Id("cpp").Dot(setter.Host).Call(jen.Lit(value))
		}
		g.If(
			jen.List(jen.Id("initialiser"), jen.Id("ok")).Op(":=").Id("any").Call(jen.Id("object").Dot("Value").Call()).Assert(hook),
			jen.Id("ok"),
		).Block(
			jen.Id("initialiser").Dot(initialise.Host).Call(jen.Id("cpp")),
		)
		g.Add(h.rt("Must")).Call(jen.Id("object").Dot("MarkInitialized").Call())
	})
	h.file.Line()

	h.export(drop.Boundary)
	h.file.Func().Id(drop.Boundary).Params(rs.Clone()).Block(
		jen.Id("object").Op(":=").Add(h.loadObject()).Call(handle.Clone()),
		h.rt("Must").Call(jen.Id("object").Dot("MarkDestroyed").Call()),
		h.rt("Must").Call(h.rt("Release").Call(handle.Clone())),
	)
	h.file.Line()
}

func (h *hostEmitter) invokables() {
	for _, invokable := range h.object.Invokables {
		symbol := h.contract.MustFind(bridge.RoleInvokable, invokable.Name)
		method := internal.ToPascal(invokable.Name)

		boundaryParams := make([]jen.Code, 0, len(symbol.Params))
		forwarded := make([]jen.Code, 0, len(symbol.Params))
		converted := make([]jen.Code, 0, len(symbol.Params))
		for _, param := range symbol.Params[1:] {
			name := internal.ToCamel(param.Name)
			boundaryParams = append(boundaryParams, jen.Id(name).Add(cgoType(param.CType)))
			forwarded = append(forwarded, jen.Id(name))
			converted = append(converted, h.fromC(param.Mapping, jen.Id(name)))
		}

		var result jen.Code = jen.Null()
		if invokable.Returns != nil {
			result = cgoType(symbol.Return)
		}
		target := jen.Id(h.fromHandle).Call(jen.Id("rs"))

		h.export(symbol.Boundary)
		if invokable.Wrapper == "" {
			call := target.Dot(method).Call(converted...)
			h.file.Func().Id(symbol.Boundary).Params(append([]jen.Code{jen.Id("rs").Qual("C", "uintptr_t")}, boundaryParams...)...).Add(result).Block(
				h.returnOrCall(invokable, symbol.ReturnMapping, call),
			)
			h.file.Line()
			continue
		}

		h.file.Func().Id(symbol.Boundary).Params(append([]jen.Code{jen.Id("rs").Qual("C", "uintptr_t")}, boundaryParams...)...).Add(result).Block(
			h.returnOrCall(invokable, typemap.Mapping{}, target.Dot(symbol.Host).Call(forwarded...)),
		)
		h.file.Line()

		h.file.Commentf("%s converts boundary values for %s.", symbol.Host, method)
		h.file.Func().Params(jen.Id("object").Op("*").Id(h.object.Name)).Id(symbol.Host).Params(boundaryParams...).Add(result).BlockFunc(func(g *jen.Group) {
			call := jen.Id("object").Dot(method).Call(converted...)
			if invokable.Returns == nil {
				g.Add(call)
				return
			}
			g.Id("result").Op(":=").Add(call)
			g.Return(h.toC(symbol.ReturnMapping, jen.Id("result"), "Release"))
		})
		h.file.Line()
	}
}

// returnOrCall returns the call's result converted by mapping, or just makes the call.
func (h *hostEmitter) returnOrCall(invokable metadata.Invokable, mapping typemap.Mapping, call *jen.Statement) *jen.Statement {
	if invokable.Returns == nil {
		return call
	}
	if mapping.HostName == "" {
		return jen.Return(call)
	}
	return jen.Return(h.toC(mapping, call, "Release"))
}

func (h *hostEmitter) updateHandler() {
	if !h.object.UpdateRequests {
		return
	}
	symbol := h.contract.MustFind(bridge.RoleHandleUpdate, "")

	h.file.Var().Id("_").Interface(
		jen.Id(symbol.Host).Params(jen.Op("*").Id(h.cppType)),
	).Op("=").Parens(jen.Op("*").Id(h.object.Name)).Call(jen.Nil())
	h.file.Line()

	h.export(symbol.Boundary)
	h.file.Func().Id(symbol.Boundary).Params(
		jen.Id("rs").Qual("C", "uintptr_t"),
		jen.Id("self").Op("*").Qual("C", h.contract.HandleType),
	).Block(
		jen.Id(h.fromHandle).Call(jen.Id("rs")).Dot(symbol.Host).Call(
			jen.Op("&").Id(h.cppType).Values(jen.Dict{jen.Id("ptr"): jen.Id("self")}),
		),
	)
}

// requireValue returns early when an owned value about to cross the boundary is missing.
func (h *hostEmitter) requireValue(name string, value *jen.Statement) *jen.Statement {
	return jen.If(
		jen.Err().Op(":=").Add(h.rt("RequireValue")).Call(jen.Lit(name), value),
		jen.Err().Op("!=").Nil(),
	).Block(jen.Return(jen.Err()))
}

func (h *hostEmitter) export(name string) {
	h.file.Comment("//export " + name)
}

// inputType is the Go type of a value the host receives: primitives by value,
// framework values as borrowed references, object references as the wrapper.
func (h *hostEmitter) inputType(mapping typemap.Mapping) *jen.Statement {
	switch {
	case mapping.IsThis:
		return jen.Op("*").Id(h.cppType)
	case mapping.IsOpaque:
		return h.rt("Ref").Types(h.rt(mapping.HostName))
	}
	return jen.Id(mapping.HostName)
}

func (h *hostEmitter) ownedType(mapping typemap.Mapping) *jen.Statement {
	return jen.Op("*").Add(h.rt("Owned")).Types(h.rt(mapping.HostName))
}

// fieldType is the Go type of a signal parameter, which owns framework values.
func (h *hostEmitter) fieldType(mapping typemap.Mapping) *jen.Statement {
	if mapping.IsOpaque {
		return h.ownedType(mapping)
	}
	return jen.Id(mapping.HostName)
}

// fromC converts a boundary value into its host representation.
func (h *hostEmitter) fromC(mapping typemap.Mapping, value *jen.Statement) *jen.Statement {
	switch {
	case mapping.IsThis:
		return jen.Op("&").Id(h.cppType).Values(jen.Dict{jen.Id("ptr"): value})
	case mapping.IsOpaque:
		return h.rt("Borrow").Types(h.rt(mapping.HostName)).Call(jen.Qual("unsafe", "Pointer").Call(value))
	}
	return jen.Id(mapping.HostName).Call(value)
}

// toC converts a host value into its boundary representation. Framework
// values hand over their pointer through accessor, "Ptr" to lend it or
// "Release" to transfer ownership.
func (h *hostEmitter) toC(mapping typemap.Mapping, value *jen.Statement, accessor string) *jen.Statement {
	if mapping.IsOpaque {
		return jen.Parens(jen.Op("*").Qual("C", mapping.BoundaryName)).Call(value.Dot(accessor).Call())
	}
	return jen.Qual("C", mapping.BoundaryName).Call(value)
}

// cgoType spells a boundary C type as seen from Go.
func cgoType(cType string) *jen.Statement {
	cType = strings.TrimPrefix(cType, "const ")
	if base, found := strings.CutSuffix(cType, "*"); found {
		return jen.Op("*").Qual("C", base)
	}
	return jen.Qual("C", cType)
}

func hostFileName(object metadata.Object) string {
	return fmt.Sprintf("%s_goqt.go", internal.ToSnake(object.Name))
}
