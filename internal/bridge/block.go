package bridge

import (
	"fmt"
	"strings"
)

// Includes lists the headers the boundary block needs. The update requester
// header only appears when the object opted into update requests.
func (c *Contract) Includes() []string {
	includes := []string{"<stdbool.h>", "<stdint.h>", `"goqt/types.h"`}
	if c.Object.UpdateRequests {
		includes = append(includes, `"goqt/update_requester.h"`)
	}
	return includes
}

// Guard is the include guard macro of the block.
func (c *Contract) Guard() string {
	return strings.ToUpper(c.Prefix) + "BRIDGE_H"
}

// Block renders the declaration block embedded byte-for-byte in both the
// native header and the host module's cgo preamble. It never contains block
// comments, so it can sit inside one.
func (c *Contract) Block() string {
	var builder strings.Builder
	guard := c.Guard()

	fmt.Fprintf(&builder, "#ifndef %s\n#define %s\n\n", guard, guard)
	fmt.Fprintf(&builder, "// Boundary of %s.\n", c.Object.QualifiedName())
	for _, include := range c.Includes() {
		fmt.Fprintf(&builder, "#include %s\n", include)
	}

	builder.WriteString("\n#ifdef __cplusplus\nextern \"C\" {\n#endif\n\n")
	fmt.Fprintf(&builder, "typedef struct %s %s;\n", strings.TrimSuffix(c.HandleType, "_t"), c.HandleType)

	c.writeSection(&builder, "Implemented by the host module.", NativeToHost)
	c.writeSection(&builder, "Implemented by the native class.", HostToNative)

	builder.WriteString("\n#ifdef __cplusplus\n}\n#endif\n\n")
	fmt.Fprintf(&builder, "#endif // %s\n", guard)
	return builder.String()
}

func (c *Contract) writeSection(builder *strings.Builder, title string, direction Direction) {
	fmt.Fprintf(builder, "\n// %s\n", title)
	for _, symbol := range c.symbols {
		if symbol.Direction == direction {
			fmt.Fprintf(builder, "%s;\n", symbol.Signature())
		}
	}
}
