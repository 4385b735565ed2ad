package metadata

import "github.com/ygrebnov/errorc"

var namespace = errorc.Namespace("goqtgen.metadata")

// Sentinel errors returned while reading and validating descriptors. Use errors.Is to match.
var (
	ErrUnknownType         = namespace.NewError("unknown value type")
	ErrUnsupportedVersion  = namespace.NewError("unsupported descriptor version")
	ErrInvalidIdentifier   = namespace.NewError("invalid identifier")
	ErrReservedIdentifier  = namespace.NewError("reserved identifier")
	ErrMissingAccessor     = namespace.NewError("missing accessor identifier")
	ErrDuplicateMember     = namespace.NewError("duplicate member")
	ErrMisplacedObjectRef  = namespace.NewError("object reference outside invokable parameters")
	ErrInvalidDefault      = namespace.NewError("invalid default value")
	ErrInvalidOwnedPointer = namespace.NewError("invalid owned pointer")
	ErrDuplicateObject     = namespace.NewError("duplicate object")
	ErrEmptyDescriptor     = namespace.NewError("descriptor declares no objects")
)

var newKey = errorc.KeyFactory("goqtgen.metadata")

// Structured error field keys.
var (
	ErrorFieldObject     = newKey("object")
	ErrorFieldMember     = newKey("member")
	ErrorFieldAccessor   = newKey("accessor")
	ErrorFieldType       = newKey("type")
	ErrorFieldIdentifier = newKey("identifier")
	ErrorFieldVersion    = newKey("version")
	ErrorFieldDefault    = newKey("default")
)

func unknownTypeError(text string) error {
	return errorc.With(ErrUnknownType, errorc.String(ErrorFieldType, text))
}
