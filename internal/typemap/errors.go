package typemap

import "github.com/ygrebnov/errorc"

var namespace = errorc.Namespace("goqtgen.typemap")

// ErrUnsupportedType is returned for value types the mapper has no representation for.
var ErrUnsupportedType = namespace.NewError("unsupported value type")

var newKey = errorc.KeyFactory("goqtgen.typemap")

var ErrorFieldType = newKey("type")
