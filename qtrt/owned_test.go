package qtrt

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"unsafe"
)

// dropLog records which native values were dropped.
type dropLog struct {
	mu      sync.Mutex
	dropped []unsafe.Pointer
}

func (l *dropLog) drop(ptr unsafe.Pointer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dropped = append(l.dropped, ptr)
}

func (l *dropLog) count(ptr unsafe.Pointer) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, dropped := range l.dropped {
		if dropped == ptr {
			n++
		}
	}
	return n
}

var colorDrops = &dropLog{}

func init() {
	RegisterDrop[Color](colorDrops.drop)
}

func nativeValue() unsafe.Pointer {
	return unsafe.Pointer(new(int64))
}

func TestAdopt_Nil(t *testing.T) {
	owned := Adopt[Color](nil)
	if owned != nil {
		t.Fatalf("Adopt(nil) = %v, want nil", owned)
	}
	if !owned.IsNil() || owned.Ptr() != nil || owned.Release() != nil {
		t.Errorf("nil handle must behave as no value")
	}
	if err := owned.Close(); err != nil {
		t.Errorf("Close() on nil handle error = %v", err)
	}
}

func TestOwned_Release(t *testing.T) {
	ptr := nativeValue()
	owned := Adopt[Color](ptr)

	if owned.Ptr() != ptr {
		t.Fatalf("Ptr() does not return the adopted pointer")
	}
	if owned.Borrow().Ptr() != ptr {
		t.Errorf("Borrow() does not reference the adopted pointer")
	}
	if got := owned.Release(); got != ptr {
		t.Fatalf("Release() = %v, want %v", got, ptr)
	}
	if !owned.IsNil() {
		t.Errorf("handle still owns a value after Release()")
	}
	if err := owned.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := colorDrops.count(ptr); got != 0 {
		t.Errorf("released value dropped %d times, want 0", got)
	}
}

func TestOwned_Close(t *testing.T) {
	ptr := nativeValue()
	owned := Adopt[Color](ptr)

	if err := owned.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := owned.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if got := colorDrops.count(ptr); got != 1 {
		t.Errorf("value dropped %d times, want 1", got)
	}
}

func TestOwned_CloseWithoutDropper(t *testing.T) {
	owned := Adopt[Time](nativeValue())
	defer owned.Release()

	if err := owned.Close(); !errors.Is(err, ErrNoDropper) {
		t.Fatalf("Close() error = %v, want ErrNoDropper", err)
	}
	if owned.IsNil() {
		t.Errorf("failed Close() must keep ownership")
	}
}

func TestRef(t *testing.T) {
	ptr := nativeValue()
	ref := Borrow[String](ptr)
	if ref.Ptr() != ptr || ref.IsNil() {
		t.Errorf("Borrow() does not reference the pointer")
	}
	if !(Ref[String]{}).IsNil() {
		t.Errorf("zero Ref must be nil")
	}
}

// colorProperty mirrors the storage of a pointer-backed property: the raw
// pointer the native side stores and the host's view of it.
type colorProperty struct {
	lifecycle     Lifecycle
	current       unsafe.Pointer
	notifications int
}

func (p *colorProperty) give(value *Owned[Color]) error {
	if err := CheckGive(p.current, value); err != nil {
		return err
	}
	p.current = value.Release()
	if p.lifecycle.Phase() == Initialized {
		p.notifications++
	}
	return nil
}

func (p *colorProperty) take() *Owned[Color] {
	value := Adopt[Color](p.current)
	if p.current != nil && p.lifecycle.Phase() == Initialized {
		p.notifications++
	}
	p.current = nil
	return value
}

func TestCheckGive_OwnershipTransfer(t *testing.T) {
	property := &colorProperty{}
	Must(property.lifecycle.Transition(Constructing))
	Must(property.lifecycle.Transition(Initialized))

	ptrA := nativeValue()
	if err := property.give(Adopt[Color](ptrA)); err != nil {
		t.Fatalf("give(A) error = %v", err)
	}
	if property.current != ptrA {
		t.Fatalf("property does not store A")
	}

	again := Adopt[Color](ptrA)
	err := property.give(again)
	if !errors.Is(err, ErrSelfAssignment) {
		t.Fatalf("give(A) again error = %v, want ErrSelfAssignment", err)
	}
	if again.Ptr() != ptrA {
		t.Errorf("rejected give must leave ownership with the caller")
	}
	again.Release()

	taken := property.take()
	if taken.Ptr() != ptrA {
		t.Errorf("take() = %v, want A", taken.Ptr())
	}
	if property.current != nil {
		t.Errorf("property must be unset after take()")
	}
	if property.notifications != 2 {
		t.Errorf("notifications = %d, want 2 (give, take)", property.notifications)
	}
	taken.Release()
}

func TestRequireValue(t *testing.T) {
	tests := []struct {
		name    string
		value   func() *Owned[Color]
		wantErr bool
	}{
		{name: "live", value: func() *Owned[Color] { return Adopt[Color](nativeValue()) }},
		{name: "nil handle", value: func() *Owned[Color] { return nil }, wantErr: true},
		{name: "released", value: func() *Owned[Color] {
			owned := Adopt[Color](nativeValue())
			owned.Release()
			return owned
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value := tt.value()
			err := RequireValue("color", value)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("RequireValue() error = %v", err)
				}
				value.Release()
				return
			}
			if !errors.Is(err, ErrNilValue) {
				t.Fatalf("RequireValue() error = %v, want ErrNilValue", err)
			}
			for _, want := range []string{"color", "qtrt.Color"} {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q should mention %q", err, want)
				}
			}
		})
	}
}
