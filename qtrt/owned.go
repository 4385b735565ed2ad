package qtrt

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ygrebnov/errorc"
)

// Marker types naming the structured framework value a handle points at.
type (
	Color    struct{}
	Date     struct{}
	DateTime struct{}
	Point    struct{}
	PointF   struct{}
	Rect     struct{}
	RectF    struct{}
	Size     struct{}
	SizeF    struct{}
	String   struct{}
	Time     struct{}
	URL      struct{}
	Variant  struct{}
)

// Opaque is satisfied by the marker types only.
type Opaque interface {
	Color | Date | DateTime | Point | PointF | Rect | RectF | Size | SizeF | String | Time | URL | Variant
}

type dropKey[T Opaque] struct{}

var droppers sync.Map

// RegisterDrop installs the function releasing native values of type T.
// Generated modules register from init; the first registration wins.
func RegisterDrop[T Opaque](drop func(unsafe.Pointer)) {
	droppers.LoadOrStore(dropKey[T]{}, drop)
}

func dropperFor[T Opaque]() (func(unsafe.Pointer), bool) {
	value, found := droppers.Load(dropKey[T]{})
	if !found {
		return nil, false
	}
	return value.(func(unsafe.Pointer)), true
}

func typeName[T Opaque]() string {
	var marker T
	return fmt.Sprintf("%T", marker)
}

// Owned is an indirect-ownership handle: the host owns the native value until
// it releases the pointer back across the boundary or closes the handle.
// A nil *Owned stands for "no value".
type Owned[T Opaque] struct {
	mu  sync.Mutex
	ptr unsafe.Pointer
}

// Adopt takes ownership of a native value. A nil pointer yields a nil handle.
// Values never released or closed are dropped when the handle is collected.
func Adopt[T Opaque](ptr unsafe.Pointer) *Owned[T] {
	if ptr == nil {
		return nil
	}
	owned := &Owned[T]{ptr: ptr}
	runtime.SetFinalizer(owned, (*Owned[T]).finalize)
	return owned
}

func (o *Owned[T]) Ptr() unsafe.Pointer {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ptr
}

func (o *Owned[T]) IsNil() bool {
	return o.Ptr() == nil
}

// Release gives up ownership and returns the pointer for the native side to own.
func (o *Owned[T]) Release() unsafe.Pointer {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	ptr := o.ptr
	o.ptr = nil
	runtime.SetFinalizer(o, nil)
	return ptr
}

// Close drops the native value. Closing twice is a no-op.
func (o *Owned[T]) Close() error {
	if o == nil {
		return nil
	}
	drop, found := dropperFor[T]()
	if !found {
		return errorc.With(ErrNoDropper, errorc.String(ErrorFieldType, typeName[T]()))
	}
	if ptr := o.Release(); ptr != nil {
		drop(ptr)
	}
	return nil
}

// Borrow returns a reference valid while the handle keeps ownership.
func (o *Owned[T]) Borrow() Ref[T] {
	return Ref[T]{ptr: o.Ptr()}
}

func (o *Owned[T]) finalize() {
	if drop, found := dropperFor[T](); found && o.ptr != nil {
		drop(o.ptr)
	}
}

// Ref is a borrowed pointer to a native value the host does not own.
type Ref[T Opaque] struct {
	ptr unsafe.Pointer
}

func Borrow[T Opaque](ptr unsafe.Pointer) Ref[T] {
	return Ref[T]{ptr: ptr}
}

func (r Ref[T]) Ptr() unsafe.Pointer {
	return r.ptr
}

func (r Ref[T]) IsNil() bool {
	return r.ptr == nil
}

// RequireValue fails with ErrNilValue when value holds no native value, which
// is the case for a nil handle and for one already released or closed.
func RequireValue[T Opaque](name string, value *Owned[T]) error {
	if value.IsNil() {
		return errorc.With(ErrNilValue,
			errorc.String(ErrorFieldValue, name),
			errorc.String(ErrorFieldType, typeName[T]()),
		)
	}
	return nil
}

// CheckGive rejects handing a pointer-backed property the value it already
// stores, which the native side treats as a fatal contract violation.
func CheckGive[T Opaque](current unsafe.Pointer, value *Owned[T]) error {
	if value.Ptr() == current {
		return errorc.With(ErrSelfAssignment, errorc.String(ErrorFieldType, typeName[T]()))
	}
	return nil
}
