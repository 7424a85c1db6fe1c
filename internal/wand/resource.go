package wand

import (
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/ironsheep/image-wand/internal/magick"
)

// Resource owns one native handle and guarantees that it is destroyed
// exactly once. Operations borrow the handle for the duration of a native
// call; a Release issued while a borrow is outstanding marks the resource
// closed and defers the destroy until the last borrow is returned.
//
// A Resource that becomes unreachable without being released is destroyed
// by a runtime cleanup and the leak is logged.
type Resource struct {
	state   *guardState
	cleanup runtime.Cleanup
}

// guardState is kept apart from Resource so the runtime cleanup can reach
// it without keeping the Resource alive.
type guardState struct {
	mu      sync.Mutex
	lib     magick.Library
	kind    magick.Kind
	handle  magick.Handle
	borrows int
	closed  bool
	retired []magick.Handle
	log     *zap.Logger
}

// Acquire calls factory and takes ownership of the handle it returns.
// A zero handle fails with ErrAllocation.
func Acquire(lib magick.Library, kind magick.Kind, factory func() magick.Handle) (*Resource, error) {
	return acquire(lib, kind, factory, Logger())
}

func acquire(lib magick.Library, kind magick.Kind, factory func() magick.Handle, log *zap.Logger) (*Resource, error) {
	h := factory()
	if h == 0 {
		return nil, NewError("acquire", KindAllocation).
			Message("unable to allocate %s wand", kind).
			Build()
	}
	return adopt(lib, kind, h, log), nil
}

func adopt(lib magick.Library, kind magick.Kind, h magick.Handle, log *zap.Logger) *Resource {
	r := &Resource{
		state: &guardState{
			lib:    lib,
			kind:   kind,
			handle: h,
			log:    log,
		},
	}
	r.cleanup = runtime.AddCleanup(r, (*guardState).reclaim, r.state)
	return r
}

// Kind returns the family of the owned handle.
func (r *Resource) Kind() magick.Kind {
	return r.state.kind
}

// Handle returns the owned handle, or 0 once the resource is closed.
// The handle must not be used without a borrow.
func (r *Resource) Handle() magick.Handle {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	return s.handle
}

// Closed reports whether Release has been called.
func (r *Resource) Closed() bool {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Borrow pins the handle for one operation. The returned function ends
// the borrow; calling it more than once has no further effect.
func (r *Resource) Borrow(op string) (magick.Handle, func(), error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, func() {}, closedError(op)
	}
	s.borrows++

	var once sync.Once
	return s.handle, func() { once.Do(s.unborrow) }, nil
}

// Release destroys the handle, or schedules its destruction for when the
// last borrow ends. Calling Release again has no effect.
func (r *Resource) Release() {
	r.cleanup.Stop()
	r.state.release()
}

// Clone asks the library for a deep copy of the handle and returns a new
// Resource owning it. When status is not nil the source handle's
// exceptions are drained after the call and a native failure is reported
// with its code. A zero handle from the library fails with ErrClone.
func (r *Resource) Clone(op string, status *StatusTranslator) (*Resource, error) {
	h, done, err := r.Borrow(op)
	if err != nil {
		return nil, err
	}
	defer done()

	s := r.state
	c := cloneHandle(s.lib, s.kind, h)
	if status != nil {
		if err := status.Verify(op, h, s.kind, c != 0); err != nil {
			if c != 0 {
				destroyHandle(s.lib, s.kind, c)
			}
			return nil, reclassify(err, KindClone)
		}
	}
	if c == 0 {
		return nil, NewError(op, KindClone).
			Message("unable to clone %s wand", s.kind).
			Build()
	}
	return adopt(s.lib, s.kind, c, s.log), nil
}

// Swap replaces the owned handle with h, which the Resource now owns.
// The previous handle is destroyed once no borrow references it. Swapping
// into a closed resource destroys h and fails with ErrClosed.
func (r *Resource) Swap(op string, h magick.Handle) error {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		destroyHandle(s.lib, s.kind, h)
		return closedError(op)
	}

	old := s.handle
	s.handle = h
	if s.borrows > 0 {
		s.retired = append(s.retired, old)
		return nil
	}
	destroyHandle(s.lib, s.kind, old)
	return nil
}

// detach closes the resource without destroying its handle and hands
// ownership of the handle to the caller.
func (r *Resource) detach(op string) (magick.Handle, error) {
	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, closedError(op)
	}
	if s.borrows > 0 {
		return 0, NewError(op, KindOperation).Message("resource is borrowed").Build()
	}
	r.cleanup.Stop()
	h := s.handle
	s.handle = 0
	s.closed = true
	return h, nil
}

func (s *guardState) unborrow() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.borrows--
	if s.borrows > 0 {
		return
	}
	for _, h := range s.retired {
		destroyHandle(s.lib, s.kind, h)
	}
	s.retired = nil
	if s.closed {
		s.destroyLocked()
	}
}

func (s *guardState) release() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.closed = true
	if s.borrows == 0 {
		s.destroyLocked()
	}
	return true
}

func (s *guardState) destroyLocked() {
	if s.handle == 0 {
		return
	}
	destroyHandle(s.lib, s.kind, s.handle)
	s.handle = 0
}

// reclaim runs when the owning Resource is garbage collected unreleased.
func (s *guardState) reclaim() {
	s.mu.Lock()
	h := s.handle
	s.mu.Unlock()

	if s.release() {
		s.log.Warn("wand leaked without Close",
			zap.Stringer("kind", s.kind),
			zap.Uint64("handle", uint64(h)))
	}
}

func destroyHandle(lib magick.Library, kind magick.Kind, h magick.Handle) {
	switch kind {
	case magick.KindMagick:
		lib.DestroyMagickWand(h)
	case magick.KindPixel:
		lib.DestroyPixelWand(h)
	case magick.KindDrawing:
		lib.DestroyDrawingWand(h)
	}
}

func cloneHandle(lib magick.Library, kind magick.Kind, h magick.Handle) magick.Handle {
	switch kind {
	case magick.KindMagick:
		return lib.CloneMagickWand(h)
	case magick.KindPixel:
		return lib.ClonePixelWand(h)
	case magick.KindDrawing:
		return lib.CloneDrawingWand(h)
	}
	return 0
}
