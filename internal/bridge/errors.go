package bridge

import "github.com/ygrebnov/errorc"

var namespace = errorc.Namespace("goqtgen.bridge")

var (
	ErrSymbolCollision = namespace.NewError("boundary symbol collision")
	ErrMissingSymbol   = namespace.NewError("symbol missing from contract")
)

var newKey = errorc.KeyFactory("goqtgen.bridge")

var (
	ErrorFieldObject = newKey("object")
	ErrorFieldMember = newKey("member")
	ErrorFieldSymbol = newKey("symbol")
	ErrorFieldOther  = newKey("other")
)
