package internal

// Panics if given non-nil error.
// Should be used only in case of non-recoverable developer error,
// e.g. a template that fails to parse or a symbol the contract must contain.
func PanicOnError(err error) {
	if err != nil {
		panic(err)
	}
}
