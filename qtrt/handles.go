// Package qtrt is the host runtime imported by generated Go modules. It keeps
// host state reachable from native objects through integer handles, tracks each
// object's lifecycle and models the indirect-ownership handles of structured
// framework values.
package qtrt

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/ygrebnov/errorc"
)

// Table maps integer handles to Go values so native code never holds Go pointers.
// Handle 0 is never issued.
type Table struct {
	entries  []any
	freeList []uintptr
	live     int
	mu       sync.RWMutex
	closed   bool
}

func NewTable() *Table {
	return &Table{
		entries:  make([]any, 0, 64),
		freeList: make([]uintptr, 0, 16),
	}
}

// Insert stores a value and returns its handle.
func (t *Table) Insert(value any) (uintptr, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrTableClosed
	}

	t.live++
	if len(t.freeList) > 0 {
		handle := t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		t.entries[handle-1] = value
		return handle, nil
	}

	t.entries = append(t.entries, value)
	return uintptr(len(t.entries)), nil
}

func (t *Table) Get(handle uintptr) (any, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if handle == 0 || handle > uintptr(len(t.entries)) || t.entries[handle-1] == nil {
		return nil, unknownHandle(handle)
	}
	return t.entries[handle-1], nil
}

// Remove frees the handle for reuse.
func (t *Table) Remove(handle uintptr) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if handle == 0 || handle > uintptr(len(t.entries)) || t.entries[handle-1] == nil {
		return unknownHandle(handle)
	}
	t.entries[handle-1] = nil
	t.freeList = append(t.freeList, handle)
	t.live--
	return nil
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.live
}

// Close rejects further inserts. Existing handles stay readable.
func (t *Table) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}

var handles = NewTable()

// NewHandle stores host state in the process-wide table.
func NewHandle(value any) uintptr {
	handle, err := handles.Insert(value)
	Must(err)
	return handle
}

// TryLoad returns the value behind a handle if it holds a T.
func TryLoad[T any](handle uintptr) (T, error) {
	var zero T
	value, err := handles.Get(handle)
	if err != nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, errorc.With(ErrHandleType,
			errorc.String(ErrorFieldHandle, strconv.FormatUint(uint64(handle), 10)),
			errorc.String(ErrorFieldType, fmt.Sprintf("%T", value)),
		)
	}
	return typed, nil
}

// Load is TryLoad for handles the native side is known to hold. A stale or
// mistyped handle is a broken invariant and panics.
func Load[T any](handle uintptr) T {
	value, err := TryLoad[T](handle)
	Must(err)
	return value
}

// Release removes the handle from the process-wide table.
func Release(handle uintptr) error {
	return handles.Remove(handle)
}

func unknownHandle(handle uintptr) error {
	return errorc.With(ErrUnknownHandle, errorc.String(ErrorFieldHandle, strconv.FormatUint(uint64(handle), 10)))
}
