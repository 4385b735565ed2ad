package bridge

import (
	"errors"
	"strings"
	"testing"

	"goqtgen/internal/metadata"
	"goqtgen/internal/typemap"

	"github.com/google/go-cmp/cmp"
)

func sampleObject() metadata.Object {
	stringType := metadata.Primitive(metadata.KindString)
	colorType := metadata.Primitive(metadata.KindColor)
	i32 := metadata.Primitive(metadata.KindI32)

	return metadata.Object{
		Name:           "MyObject",
		Namespace:      "demo",
		UpdateRequests: true,
		Properties: []metadata.Property{
			{Name: "number", Type: i32, Getter: "getNumber", Setter: "setNumber", Notify: "numberChanged"},
			{Name: "color", Type: metadata.OwnedPointer(colorType), Getter: "getColor", Setter: "setColor", Notify: "colorChanged"},
		},
		Invokables: []metadata.Invokable{
			{
				Name:    "say_hi",
				Params:  []metadata.Parameter{{Name: "message", Type: stringType, IsReference: true}, {Name: "count", Type: i32}},
				Wrapper: "sayHiWrapper",
			},
			{Name: "make_color", Returns: &colorType, Wrapper: "makeColorWrapper"},
			{Name: "double_number", IsMutable: true, Params: []metadata.Parameter{{Name: "amount", Type: i32}}, Returns: &i32},
		},
		Signals: []metadata.Signal{
			{Name: "ready", Emit: "emitReady"},
			{Name: "data_changed", Emit: "emitDataChanged", Params: []metadata.Parameter{{Name: "value", Type: stringType}, {Name: "count", Type: i32}}},
		},
	}
}

func TestBuild_Symbols(t *testing.T) {
	contract, err := Build(sampleObject())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if contract.Prefix != "goqt_demo_my_object_" {
		t.Errorf("Prefix = %q", contract.Prefix)
	}
	if contract.HandleType != "goqt_demo_my_object_t" {
		t.Errorf("HandleType = %q", contract.HandleType)
	}

	var got []string
	for _, symbol := range contract.Symbols() {
		got = append(got, strings.TrimPrefix(symbol.Boundary, contract.Prefix))
	}
	want := []string{
		"create_rs", "initialise_cpp", "drop_rs", "new_cpp_object",
		"get_number", "set_number",
		"get_color", "set_color", "take_color", "give_color",
		"say_hi_wrapper", "make_color_wrapper", "double_number",
		"ready", "emit_ready", "data_changed", "emit_data_changed",
		"update_requester", "handle_update_request",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("boundary symbols mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_Signatures(t *testing.T) {
	contract, err := Build(sampleObject())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	tests := []struct {
		role   Role
		member string
		want   string
	}{
		{RoleCreate, "", "uintptr_t goqt_demo_my_object_create_rs(void)"},
		{RoleInitialise, "", "void goqt_demo_my_object_initialise_cpp(uintptr_t rs, goqt_demo_my_object_t* self)"},
		{RoleGetter, "number", "int32_t goqt_demo_my_object_get_number(const goqt_demo_my_object_t* self)"},
		{RoleSetter, "number", "void goqt_demo_my_object_set_number(goqt_demo_my_object_t* self, int32_t value)"},
		{RoleGetter, "color", "const goqt_color_t* goqt_demo_my_object_get_color(const goqt_demo_my_object_t* self)"},
		{RoleTake, "color", "goqt_color_t* goqt_demo_my_object_take_color(goqt_demo_my_object_t* self)"},
		{RoleGive, "color", "void goqt_demo_my_object_give_color(goqt_demo_my_object_t* self, goqt_color_t* value)"},
		{RoleInvokable, "say_hi", "void goqt_demo_my_object_say_hi_wrapper(uintptr_t rs, goqt_string_t* message, int32_t count)"},
		{RoleInvokable, "make_color", "goqt_color_t* goqt_demo_my_object_make_color_wrapper(uintptr_t rs)"},
		{RoleInvokable, "double_number", "int32_t goqt_demo_my_object_double_number(uintptr_t rs, int32_t amount)"},
		{RoleSignalImmediate, "data_changed", "void goqt_demo_my_object_data_changed(goqt_demo_my_object_t* self, const goqt_string_t* value, int32_t count)"},
		{RoleSignalQueued, "data_changed", "void goqt_demo_my_object_emit_data_changed(goqt_demo_my_object_t* self, goqt_string_t* value, int32_t count)"},
		{RoleUpdateRequester, "", "goqt_update_requester_t* goqt_demo_my_object_update_requester(goqt_demo_my_object_t* self)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			symbol, found := contract.Find(tt.role, tt.member)
			if !found {
				t.Fatalf("Find(%d, %q) not found", tt.role, tt.member)
			}
			if got := symbol.Signature(); got != tt.want {
				t.Errorf("Signature() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuild_SignalConventions(t *testing.T) {
	contract, err := Build(sampleObject())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for _, signal := range contract.Object.Signals {
		immediate := contract.MustFind(RoleSignalImmediate, signal.Name)
		queued := contract.MustFind(RoleSignalQueued, signal.Name)
		if len(immediate.Params) != len(queued.Params) {
			t.Fatalf("%s: parameter counts differ", signal.Name)
		}
		for i := range immediate.Params {
			same := immediate.Params[i].CType == queued.Params[i].CType
			if immediate.Params[i].Mapping.IsOpaque == same {
				t.Errorf("%s.%s: immediate %q vs queued %q", signal.Name, immediate.Params[i].Name,
					immediate.Params[i].CType, queued.Params[i].CType)
			}
		}
	}
}

func TestContract_Lookups(t *testing.T) {
	contract, err := Build(sampleObject())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	byBoundary, found := contract.ByBoundary("goqt_demo_my_object_take_color")
	if !found || byBoundary.Native != "takeColor" || byBoundary.Host != "TakeColor" {
		t.Errorf("ByBoundary(take_color) = %+v, %v", byBoundary, found)
	}

	byNative, found := contract.ByNative("storeNumber")
	if !found || byNative.Boundary != "goqt_demo_my_object_set_number" {
		t.Errorf("ByNative(storeNumber) = %+v, %v", byNative, found)
	}

	byHost, found := contract.ByHost(NativeToHost, "sayHiWrapper")
	if !found || byHost.Native != "sayHi" {
		t.Errorf("ByHost(sayHiWrapper) = %+v, %v", byHost, found)
	}

	if _, found := contract.ByHost(HostToNative, "SetColor"); found {
		t.Errorf("pointer-backed setter must not be exposed on the host")
	}
	if _, found := contract.Find(RoleTake, "number"); found {
		t.Errorf("value-backed property must not have take")
	}
}

func TestBlock(t *testing.T) {
	contract, err := Build(sampleObject())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	block := contract.Block()

	for _, want := range []string{
		"#ifndef GOQT_DEMO_MY_OBJECT_BRIDGE_H",
		"#include \"goqt/update_requester.h\"",
		"extern \"C\" {",
		"typedef struct goqt_demo_my_object goqt_demo_my_object_t;",
		"uintptr_t goqt_demo_my_object_create_rs(void);",
		"void goqt_demo_my_object_handle_update_request(uintptr_t rs, goqt_demo_my_object_t* self);",
		"#endif // GOQT_DEMO_MY_OBJECT_BRIDGE_H",
	} {
		if !strings.Contains(block, want) {
			t.Errorf("block does not contain %q", want)
		}
	}

	if strings.Contains(block, "/*") || strings.Contains(block, "*/") {
		t.Errorf("block must not contain block comments")
	}
	if !strings.HasPrefix(block, "#ifndef") {
		t.Errorf("block must start with its include guard")
	}

	hostSection := strings.Index(block, "Implemented by the host module.")
	nativeSection := strings.Index(block, "Implemented by the native class.")
	createAt := strings.Index(block, "create_rs(")
	getterAt := strings.Index(block, "get_number(")
	if !(hostSection < createAt && createAt < nativeSection && nativeSection < getterAt) {
		t.Errorf("symbols are not grouped by implementing side")
	}
}

func TestBlock_WithoutUpdateRequests(t *testing.T) {
	object := sampleObject()
	object.UpdateRequests = false
	contract, err := Build(object)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	block := contract.Block()
	for _, absent := range []string{"update_requester", "handle_update_request"} {
		if strings.Contains(block, absent) {
			t.Errorf("block should not mention %q", absent)
		}
	}
	if _, found := contract.Find(RoleHandleUpdate, ""); found {
		t.Errorf("handle update symbol should be absent")
	}
}

func TestBuild_Collisions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *metadata.Object)
	}{
		{
			name: "signal named like a getter",
			mutate: func(o *metadata.Object) {
				o.Signals = append(o.Signals, metadata.Signal{Name: "get_number", Emit: "emitGetNumber"})
			},
		},
		{
			name: "invokable named like a setter",
			mutate: func(o *metadata.Object) {
				o.Invokables = append(o.Invokables, metadata.Invokable{Name: "set_number"})
			},
		},
		{
			name: "signal named like a notify signal",
			mutate: func(o *metadata.Object) {
				o.Signals = append(o.Signals, metadata.Signal{Name: "number_changed", Emit: "emitNumberChanged"})
			},
		},
		{
			name: "property shadowing a generated host method",
			mutate: func(o *metadata.Object) {
				i32 := metadata.Primitive(metadata.KindI32)
				o.Properties = append(o.Properties, metadata.Property{
					Name: "emit_queued", Type: i32, Getter: "getEmitQueued", Setter: "setEmitQueued", Notify: "emitQueuedChanged",
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			object := sampleObject()
			tt.mutate(&object)
			if _, err := Build(object); !errors.Is(err, ErrSymbolCollision) {
				t.Fatalf("Build() error = %v, want ErrSymbolCollision", err)
			}
		})
	}
}

func TestBuild_UnsupportedType(t *testing.T) {
	object := sampleObject()
	object.Properties[0].Type = metadata.OwnedPointer(metadata.Primitive(metadata.KindI32))

	_, err := Build(object)
	if !errors.Is(err, typemap.ErrUnsupportedType) {
		t.Fatalf("Build() error = %v, want ErrUnsupportedType", err)
	}
	if !strings.Contains(err.Error(), "demo::MyObject.number") {
		t.Errorf("error %q should name the member", err)
	}
}

func TestCheckDisjoint(t *testing.T) {
	first, err := Build(metadata.Object{Name: "MyObject", Namespace: "demo"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Build(metadata.Object{Name: "my_object", Namespace: "demo"})
	if err != nil {
		t.Fatal(err)
	}
	third, err := Build(metadata.Object{Name: "MyObject", Namespace: "other"})
	if err != nil {
		t.Fatal(err)
	}

	if err := CheckDisjoint(first, third); err != nil {
		t.Errorf("CheckDisjoint() unexpected error: %v", err)
	}
	if err := CheckDisjoint(first, second); !errors.Is(err, ErrSymbolCollision) {
		t.Errorf("CheckDisjoint() error = %v, want ErrSymbolCollision", err)
	}
}
