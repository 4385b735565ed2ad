package qtrt

// Object is the host state of one native object together with its lifecycle.
// Generated modules store *Object[T] behind the handle the native side keeps.
type Object[T any] struct {
	value     *T
	lifecycle Lifecycle
}

// NewObject wraps host state of an object whose native side is being constructed.
func NewObject[T any](value *T) *Object[T] {
	object := &Object[T]{value: value}
	Must(object.lifecycle.Transition(Constructing))
	return object
}

func (o *Object[T]) Value() *T {
	return o.value
}

func (o *Object[T]) Phase() Phase {
	return o.lifecycle.Phase()
}

// MarkInitialized ends construction. Property writes notify from now on.
func (o *Object[T]) MarkInitialized() error {
	return o.lifecycle.Transition(Initialized)
}

func (o *Object[T]) MarkDestroyed() error {
	return o.lifecycle.Transition(Destroyed)
}
