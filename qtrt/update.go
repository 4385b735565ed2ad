package qtrt

import (
	"sync"
	"unsafe"
)

// UpdateRequester asks a native object to run its update handler on the
// object's own thread. It is safe to use from any goroutine.
type UpdateRequester struct {
	mu      sync.Mutex
	ptr     unsafe.Pointer
	request func(unsafe.Pointer)
	drop    func(unsafe.Pointer)
}

func NewUpdateRequester(ptr unsafe.Pointer, request, drop func(unsafe.Pointer)) *UpdateRequester {
	return &UpdateRequester{ptr: ptr, request: request, drop: drop}
}

// RequestUpdate queues one call of the update handler.
func (u *UpdateRequester) RequestUpdate() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.ptr == nil {
		return ErrReleased
	}
	u.request(u.ptr)
	return nil
}

// Close releases the native requester. Later requests fail with ErrReleased.
func (u *UpdateRequester) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.ptr == nil {
		return
	}
	u.drop(u.ptr)
	u.ptr = nil
}
