package generation

import "github.com/ygrebnov/errorc"

var namespace = errorc.Namespace("goqtgen.generation")

var (
	ErrNoObjects           = namespace.NewError("no objects registered")
	ErrOutputCollision     = namespace.NewError("objects write the same output file")
	ErrIdentifierCollision = namespace.NewError("objects declare the same Go identifier")
	ErrEmission            = namespace.NewError("emission failed")
)

var newKey = errorc.KeyFactory("goqtgen.generation")

var (
	ErrorFieldObject     = newKey("object")
	ErrorFieldOther      = newKey("other")
	ErrorFieldFile       = newKey("file")
	ErrorFieldCause      = newKey("cause")
	ErrorFieldIdentifier = newKey("identifier")
)
