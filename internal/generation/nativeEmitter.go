package generation

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"goqtgen/internal"
	"goqtgen/internal/bridge"
	"goqtgen/internal/typemap"
	"goqtgen/internal/writer"
)

const lockGuard = "const std::lock_guard<std::mutex> guard(m_hostObjMutex);"

// Headers every generated class needs regardless of its members.
var baseIncludes = []string{
	"<memory>",
	"<mutex>",
	"<QtCore/QMetaObject>",
	"<QtCore/QObject>",
}

const convertInclude = `"goqt/convert.h"`

// nativeEmitter fills the C++ class document of one object.
type nativeEmitter struct {
	contract *bridge.Contract
	document writer.NativeDocument
	includes map[string]bool
}

func emitNative(contract *bridge.Contract, headerName string) writer.NativeDocument {
	object := contract.Object
	segments := object.NamespaceSegments()
	internalNamespace := append(slices.Clone(segments), "goqt_"+internal.ToSnake(object.Name))

	e := &nativeEmitter{
		contract: contract,
		includes: make(map[string]bool),
		document: writer.NativeDocument{
			HeaderName:        headerName,
			Block:             contract.Block(),
			Namespace:         strings.Join(segments, "::"),
			ClassName:         object.Name,
			QualifiedName:     object.QualifiedName(),
			InternalNamespace: strings.Join(internalNamespace, "::"),
			HandleType:        contract.HandleType,
			CreateSymbol:      contract.MustFind(bridge.RoleCreate, "").Boundary,
			InitialiseSymbol:  contract.MustFind(bridge.RoleInitialise, "").Boundary,
			DropSymbol:        contract.MustFind(bridge.RoleDrop, "").Boundary,
		},
	}

	e.properties()
	e.invokables()
	e.signals()
	e.updates()
	e.newCppObject()

	e.document.Includes = e.includeList()
	return e.document
}

func (e *nativeEmitter) properties() {
	d := &e.document
	for _, property := range e.contract.Object.Properties {
		getter := e.contract.MustFind(bridge.RoleGetter, property.Name)
		setter := e.contract.MustFind(bridge.RoleSetter, property.Name)
		mapping := getter.ReturnMapping
		e.include(mapping)

		member := "m_" + internal.ToCamel(property.Name)
		getterType := mapping.NativeType(typemap.ContextGetter)
		setterType := mapping.NativeType(typemap.ContextSetter)

		d.Meta = append(d.Meta, fmt.Sprintf("Q_PROPERTY(%s %s READ %s WRITE %s NOTIFY %s)",
			mapping.NativeType(typemap.ContextMeta), internal.ToCamel(property.Name),
			property.Getter, property.Setter, property.Notify))
		d.Public = append(d.Public,
			fmt.Sprintf("%s %s() const;", getterType, property.Getter),
			fmt.Sprintf("void %s(%s value);", setter.Native, setterType),
		)
		d.Slots = append(d.Slots, fmt.Sprintf("void %s(%s value);", property.Setter, setterType))
		d.Signals = append(d.Signals, fmt.Sprintf("void %s();", property.Notify))

		d.Definitions = append(d.Definitions,
			e.definition(getterType, property.Getter, "", true, "return "+member+";"),
			e.definition("void", property.Setter, setterType+" value", false,
				lockGuard,
				setter.Native+"(value);",
			),
		)

		if !property.IsPointerBacked() {
			d.Members = append(d.Members, fmt.Sprintf("%s %s{};", mapping.NativeType(typemap.ContextStorage), member))
			d.Definitions = append(d.Definitions,
				e.definition("void", setter.Native, setterType+" value", false, storeBody(member, property.Notify, nil)...))
			e.valueShims(getter, setter)
			continue
		}

		take := e.contract.MustFind(bridge.RoleTake, property.Name)
		give := e.contract.MustFind(bridge.RoleGive, property.Name)
		owned := "m_owned" + internal.ToPascal(property.Name)
		ownedType := mapping.NativeType(typemap.ContextTake)
		release := []string{
			fmt.Sprintf("if (%s.get() != value) {", owned),
			fmt.Sprintf("  %s.reset();", owned),
			"}",
		}

		d.Members = append(d.Members,
			fmt.Sprintf("%s %s = nullptr;", mapping.NativeType(typemap.ContextStorage), member),
			fmt.Sprintf("%s %s;", ownedType, owned),
		)
		d.Public = append(d.Public,
			fmt.Sprintf("%s %s();", ownedType, take.Native),
			fmt.Sprintf("void %s(%s value);", give.Native, mapping.NativeType(typemap.ContextGive)),
		)

		giveBody := []string{
			fmt.Sprintf("Q_ASSERT(value.get() != %s);", member),
			fmt.Sprintf("%s = std::move(value);", owned),
			fmt.Sprintf("%s = %s.get();", member, owned),
			"",
			"if (m_initialised) {",
		}
		giveBody = append(giveBody, nest(queuedNotify(property.Notify)...)...)
		giveBody = append(giveBody, "}")

		d.Definitions = append(d.Definitions,
			e.definition("void", setter.Native, setterType+" value", false, storeBody(member, property.Notify, release)...),
			e.definition(ownedType, take.Native, "", false,
				fmt.Sprintf("auto value = std::move(%s);", owned),
				setter.Native+"(nullptr);",
				"return value;",
			),
			e.definition("void", give.Native, mapping.NativeType(typemap.ContextGive)+" value", false, giveBody...),
		)
		e.pointerShims(getter, setter, take, give)
	}
}

// storeBody writes the value silently while constructing and notifies
// through the event queue on change once initialised.
func storeBody(member, notify string, release []string) []string {
	body := []string{"if (!m_initialised) {"}
	body = append(body, nest(release...)...)
	body = append(body,
		fmt.Sprintf("  %s = value;", member),
		"  return;",
		"}",
		"",
		fmt.Sprintf("if (value != %s) {", member),
	)
	body = append(body, nest(release...)...)
	body = append(body, fmt.Sprintf("  %s = value;", member), "")
	body = append(body, nest(queuedNotify(notify)...)...)
	return append(body, "}")
}

func queuedNotify(notify string) []string {
	return []string{
		"const auto signalSuccess =",
		fmt.Sprintf("  QMetaObject::invokeMethod(this, %q, Qt::QueuedConnection);", notify),
		"Q_ASSERT(signalSuccess);",
	}
}

func (e *nativeEmitter) valueShims(getter, setter bridge.Symbol) {
	mapping := getter.ReturnMapping
	value := "value"
	if mapping.IsOpaque {
		value = fmt.Sprintf("::goqt::fromBoundary<%s>(value)", mapping.NativeName)
	}

	e.document.Shims = append(e.document.Shims,
		shim(getter, "return "+toBoundary(mapping, e.self()+"."+getter.Native+"()")+";"),
		shim(setter, fmt.Sprintf("%s.%s(%s);", e.self(), setter.Native, value)),
	)
}

func (e *nativeEmitter) pointerShims(getter, setter, take, give bridge.Symbol) {
	mapping := getter.ReturnMapping
	e.document.Shims = append(e.document.Shims,
		shim(getter, "return "+toBoundary(mapping, e.self()+"."+getter.Native+"()")+";"),
		shim(setter, fmt.Sprintf("%s.%s(::goqt::fromBoundaryPtr<%s>(value));", e.self(), setter.Native, mapping.NativeName)),
		shim(take, fmt.Sprintf("return ::goqt::toBoundaryOwned<%s>(%s.%s());", mapping.BoundaryName, e.self(), take.Native)),
		shim(give, fmt.Sprintf("%s.%s(::goqt::fromBoundaryOwned<%s>(value));", e.self(), give.Native, mapping.NativeName)),
	)
}

func (e *nativeEmitter) invokables() {
	d := &e.document
	for _, invokable := range e.contract.Object.Invokables {
		symbol := e.contract.MustFind(bridge.RoleInvokable, invokable.Name)

		hasThis := false
		params := make([]string, 0, len(invokable.Params))
		args := []string{"m_hostObj"}
		for i, param := range invokable.Params {
			mapping := symbol.Params[i+1].Mapping
			name := internal.ToCamel(param.Name)
			switch {
			case mapping.IsThis:
				hasThis = true
				args = append(args, fmt.Sprintf("::goqt::toBoundary<%s>(*this)", e.contract.HandleType))
			case mapping.IsOpaque:
				e.include(mapping)
				params = append(params, mapping.NativeType(typemap.ContextParam)+" "+name)
				// Host inputs are declared without const to match the cgo export prototypes.
				args = append(args, fmt.Sprintf("const_cast<%s*>(::goqt::toBoundary<%s>(%s))",
					mapping.BoundaryName, mapping.BoundaryName, name))
			default:
				params = append(params, mapping.NativeType(typemap.ContextParam)+" "+name)
				args = append(args, name)
			}
		}

		returnType := "void"
		call := fmt.Sprintf("%s(%s)", symbol.Boundary, strings.Join(args, ", "))
		statement := call + ";"
		if invokable.Returns != nil {
			mapping := symbol.ReturnMapping
			e.include(mapping)
			returnType = mapping.NativeType(typemap.ContextReturn)
			if mapping.IsOpaque {
				call = fmt.Sprintf("::goqt::convert<%s, %s>{}(%s)",
					mapping.NativeName, mapping.BoundaryType(typemap.ContextOutput), call)
			}
			statement = "return " + call + ";"
		}

		isConst := !invokable.IsMutable && !hasThis
		qualifier := ""
		if isConst {
			qualifier = " const"
		}
		paramList := strings.Join(params, ", ")
		d.Public = append(d.Public, fmt.Sprintf("Q_INVOKABLE %s %s(%s)%s;", returnType, symbol.Native, paramList, qualifier))
		d.Definitions = append(d.Definitions, e.definition(returnType, symbol.Native, paramList, isConst, lockGuard, statement))
	}
}

func (e *nativeEmitter) signals() {
	d := &e.document
	for _, signal := range e.contract.Object.Signals {
		immediate := e.contract.MustFind(bridge.RoleSignalImmediate, signal.Name)
		queued := e.contract.MustFind(bridge.RoleSignalQueued, signal.Name)

		var params, queuedParams, emitArgs, immediateArgs, queuedArgs []string
		captures := []string{"this"}
		for i := range signal.Params {
			boundary := immediate.Params[i+1]
			mapping := boundary.Mapping
			e.include(mapping)
			name := internal.ToCamel(boundary.Name)

			params = append(params, mapping.NativeType(typemap.ContextParam)+" "+name)
			queuedParams = append(queuedParams, mapping.NativeType(typemap.ContextQueuedParam)+" "+name)
			if mapping.IsOpaque {
				captures = append(captures, fmt.Sprintf("%s = std::move(%s)", name, name))
				emitArgs = append(emitArgs, "*"+name)
				immediateArgs = append(immediateArgs, fmt.Sprintf("::goqt::fromBoundary<%s>(%s)", mapping.NativeName, boundary.Name))
				queuedArgs = append(queuedArgs, fmt.Sprintf("::goqt::fromBoundaryOwned<%s>(%s)", mapping.NativeName, boundary.Name))
				continue
			}
			captures = append(captures, name)
			emitArgs = append(emitArgs, name)
			immediateArgs = append(immediateArgs, boundary.Name)
			queuedArgs = append(queuedArgs, boundary.Name)
		}

		d.Signals = append(d.Signals, fmt.Sprintf("void %s(%s);", immediate.Native, strings.Join(params, ", ")))
		d.Public = append(d.Public, fmt.Sprintf("void %s(%s);", queued.Native, strings.Join(queuedParams, ", ")))
		d.Definitions = append(d.Definitions, e.definition("void", queued.Native, strings.Join(queuedParams, ", "), false,
			"const auto signalSuccess = QMetaObject::invokeMethod(",
			"  this,",
			fmt.Sprintf("  [%s]() mutable {", strings.Join(captures, ", ")),
			fmt.Sprintf("    Q_EMIT %s(%s);", immediate.Native, strings.Join(emitArgs, ", ")),
			"  },",
			"  Qt::QueuedConnection);",
			"Q_ASSERT(signalSuccess);",
		))

		d.Shims = append(d.Shims,
			shim(immediate, fmt.Sprintf("Q_EMIT %s.%s(%s);", e.self(), immediate.Native, strings.Join(immediateArgs, ", "))),
			shim(queued, fmt.Sprintf("%s.%s(%s);", e.self(), queued.Native, strings.Join(queuedArgs, ", "))),
		)
	}
}

func (e *nativeEmitter) updates() {
	if !e.contract.Object.UpdateRequests {
		return
	}
	d := &e.document
	requester := e.contract.MustFind(bridge.RoleUpdateRequester, "")
	handle := e.contract.MustFind(bridge.RoleHandleUpdate, "")
	requesterType := "std::unique_ptr<::goqt::UpdateRequester>"

	d.Public = append(d.Public, fmt.Sprintf("%s %s();", requesterType, requester.Native))
	d.Private = append(d.Private, fmt.Sprintf("Q_INVOKABLE void %s();", handle.Native))
	d.Definitions = append(d.Definitions,
		e.definition(requesterType, requester.Native, "", false,
			fmt.Sprintf("return std::make_unique<::goqt::UpdateRequester>(this, %q);", handle.Native)),
		e.definition("void", handle.Native, "", false,
			lockGuard,
			fmt.Sprintf("%s(m_hostObj, ::goqt::toBoundary<%s>(*this));", handle.Boundary, e.contract.HandleType)),
	)
	d.Shims = append(d.Shims, shim(requester, fmt.Sprintf("return ::goqt::toBoundaryOwned<%s>(%s.%s());",
		strings.TrimSuffix(requester.Return, "*"), e.self(), requester.Native)))
}

func (e *nativeEmitter) newCppObject() {
	symbol := e.contract.MustFind(bridge.RoleNewCppObject, "")
	e.document.Shims = append(e.document.Shims, shim(symbol, fmt.Sprintf("return ::goqt::toBoundaryOwned<%s>(::%s::%s());",
		e.contract.HandleType, e.document.InternalNamespace, symbol.Native)))
}

// self resolves the receiver handle of a shim to the class instance.
func (e *nativeEmitter) self() string {
	return fmt.Sprintf("::goqt::fromBoundary<%s>(self)", e.contract.Object.QualifiedName())
}

func (e *nativeEmitter) definition(returnType, name, params string, isConst bool, body ...string) string {
	qualifier := ""
	if isConst {
		qualifier = " const"
	}
	return fmt.Sprintf("%s\n%s::%s(%s)%s\n{\n%s}\n", returnType, e.contract.Object.Name, name, params, qualifier, indent(body))
}

func (e *nativeEmitter) include(mapping typemap.Mapping) {
	if mapping.Include != "" {
		e.includes[mapping.Include] = true
	}
}

func (e *nativeEmitter) includeList() []string {
	framework := make([]string, 0, len(e.includes))
	for include := range e.includes {
		framework = append(framework, include)
	}
	sort.Strings(framework)

	includes := slices.Clone(baseIncludes)
	includes = append(includes, framework...)
	return append(includes, convertInclude)
}

func shim(symbol bridge.Symbol, body ...string) string {
	declaration := strings.TrimPrefix(symbol.Signature(), symbol.Return+" ")
	return fmt.Sprintf("%s\n%s\n{\n%s}\n", symbol.Return, declaration, indent(body))
}

func toBoundary(mapping typemap.Mapping, expression string) string {
	if !mapping.IsOpaque {
		return expression
	}
	return fmt.Sprintf("::goqt::toBoundary<%s>(%s)", mapping.BoundaryName, expression)
}

func nest(lines ...string) []string {
	nested := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			nested = append(nested, line)
			continue
		}
		nested = append(nested, "  "+line)
	}
	return nested
}

func indent(lines []string) string {
	var builder strings.Builder
	for _, line := range lines {
		if line == "" {
			builder.WriteString("\n")
			continue
		}
		builder.WriteString("  " + line + "\n")
	}
	return builder.String()
}
