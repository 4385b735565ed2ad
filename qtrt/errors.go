package qtrt

import "github.com/ygrebnov/errorc"

var namespace = errorc.Namespace("qtrt")

// Sentinel errors of the host runtime. Use errors.Is to match.
var (
	ErrUnknownHandle     = namespace.NewError("unknown handle")
	ErrHandleType        = namespace.NewError("handle holds a different type")
	ErrTableClosed       = namespace.NewError("handle table closed")
	ErrInvalidTransition = namespace.NewError("invalid lifecycle transition")
	ErrSelfAssignment    = namespace.NewError("value is already owned by the property")
	ErrNoDropper         = namespace.NewError("no drop function registered")
	ErrReleased          = namespace.NewError("handle already released")
	ErrNilValue          = namespace.NewError("no value to hand over")
)

var newKey = errorc.KeyFactory("qtrt")

var (
	ErrorFieldHandle = newKey("handle")
	ErrorFieldType   = newKey("type")
	ErrorFieldFrom   = newKey("from")
	ErrorFieldTo     = newKey("to")
	ErrorFieldValue  = newKey("value")
)

// Must panics on error. Exported boundary functions use it where the native
// caller has no way to receive an error.
func Must(err error) {
	if err != nil {
		panic(err)
	}
}
