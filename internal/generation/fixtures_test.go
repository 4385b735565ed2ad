package generation

import (
	"strings"
	"testing"

	"goqtgen/internal/bridge"
	"goqtgen/internal/metadata"
)

const myObjectDescriptor = `
version: "1.0"
objects:
  - name: MyObject
    namespace: demo
    update_requests: true
    properties:
      - name: number
        type: i32
        default: "5"
      - name: color
        type: owned<color>
      - name: title
        type: string
    invokables:
      - name: say_hi
        parameters:
          - {name: message, type: string}
          - {name: count, type: i32}
      - name: double_number
        parameters:
          - {name: amount, type: i32}
        returns: i32
      - name: make_color
        returns: color
      - name: reset
        mutable: true
        parameters:
          - {name: cpp, type: this}
    signals:
      - name: ready
      - name: data_changed
        parameters:
          - {name: value, type: string}
`

const counterDescriptor = `
version: "1.0"
objects:
  - name: Counter
    properties:
      - name: counter
        type: i32
        default: "0"
`

func readObjects(t *testing.T, descriptor string) []metadata.Object {
	t.Helper()
	reader, err := metadata.ParseDescriptor([]byte(descriptor))
	if err != nil {
		t.Fatalf("ParseDescriptor() error = %v", err)
	}
	return reader.Objects()
}

func buildContract(t *testing.T, descriptor string) *bridge.Contract {
	t.Helper()
	contract, err := bridge.Build(readObjects(t, descriptor)[0])
	if err != nil {
		t.Fatalf("bridge.Build() error = %v", err)
	}
	return contract
}

func assertContains(t *testing.T, what, text string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(text, want) {
			t.Errorf("%s does not contain:\n%s\n--- %s:\n%s", what, want, what, text)
		}
	}
}

func assertNotContains(t *testing.T, what, text string, unwanted ...string) {
	t.Helper()
	for _, u := range unwanted {
		if strings.Contains(text, u) {
			t.Errorf("%s should not contain %q", what, u)
		}
	}
}
