package magick

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// DefaultJPEGQuality is used when encoding JPEG without an explicit quality.
const DefaultJPEGQuality = 92

// Engine is the in-process implementation of Library. Wands live in a
// handle table; every handle carries its own FIFO exception queue that
// records the status of the calls made on it.
//
// The handle table is safe for concurrent use. Calls on one wand are not:
// callers serialize access per handle.
type Engine struct {
	mu      sync.RWMutex
	entries map[Handle]*entry
	next    Handle
	limit   int
	quality int
	log     *zap.Logger
}

type entry struct {
	kind  Kind
	value wand
}

// wand is implemented by the per-kind wand states.
type wand interface {
	status() *exceptionQueue
	clone() wand
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithHandleLimit caps the number of live handles across all kinds.
// Allocations beyond the cap fail and return handle 0. Zero means no cap.
func WithHandleLimit(n int) EngineOption {
	return func(e *Engine) {
		e.limit = n
	}
}

// WithJPEGQuality sets the JPEG encoding quality. Values outside 1..100
// are clamped at encode time and a warning is queued on the wand.
func WithJPEGQuality(q int) EngineOption {
	return func(e *Engine) {
		e.quality = q
	}
}

// WithLogger overrides the package logger for this engine.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// NewEngine creates an empty engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		entries: make(map[Handle]*entry, 64),
		quality: DefaultJPEGQuality,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = Logger()
	}
	return e
}

var (
	defaultEngine     *Engine
	defaultEngineOnce sync.Once
)

// Default returns the process-wide engine shared by callers that do not
// supply their own Library.
func Default() *Engine {
	defaultEngineOnce.Do(func() {
		defaultEngine = NewEngine()
	})
	return defaultEngine
}

// Len returns the number of live handles.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.entries)
}

// LenKind returns the number of live handles of one kind.
func (e *Engine) LenKind(k Kind) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n := 0
	for _, ent := range e.entries {
		if ent.kind == k {
			n++
		}
	}
	return n
}

// Throw queues an exception on a wand of any kind. It is how engine calls
// report failure and is exported so callers can inject status records.
func (e *Engine) Throw(h Handle, t ExceptionType, reason string) bool {
	w := e.lookup(h, 0)
	if w == nil {
		return false
	}
	w.status().push(Exception{Type: t, Reason: reason})
	return true
}

func (e *Engine) insert(k Kind, w wand) Handle {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.limit > 0 && len(e.entries) >= e.limit {
		e.log.Warn("handle limit reached",
			zap.Stringer("kind", k),
			zap.Int("limit", e.limit))
		return 0
	}

	e.next++
	h := e.next
	e.entries[h] = &entry{kind: k, value: w}
	e.log.Debug("wand created", zap.Stringer("kind", k), zap.Uint64("handle", uint64(h)))
	return h
}

// lookup returns the wand behind h, or nil when h is not live or is of a
// different kind. A zero kind matches any kind.
func (e *Engine) lookup(h Handle, k Kind) wand {
	if h == 0 {
		return nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	ent, ok := e.entries[h]
	if !ok || (k != 0 && ent.kind != k) {
		return nil
	}
	return ent.value
}

func (e *Engine) remove(h Handle, k Kind) {
	if h == 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.entries[h]
	if !ok || ent.kind != k {
		e.log.Warn("destroy of unknown wand", zap.Stringer("kind", k), zap.Uint64("handle", uint64(h)))
		return
	}
	delete(e.entries, h)
	e.log.Debug("wand destroyed", zap.Stringer("kind", k), zap.Uint64("handle", uint64(h)))
}

func (e *Engine) cloneOf(h Handle, k Kind) Handle {
	w := e.lookup(h, k)
	if w == nil {
		return 0
	}
	c := e.insert(k, w.clone())
	if c == 0 {
		w.status().throw(ResourceLimitError, fmt.Sprintf("MemoryAllocationFailed `handle limit %d'", e.limit))
	}
	return c
}

func (e *Engine) getException(h Handle, k Kind) Exception {
	w := e.lookup(h, k)
	if w == nil {
		return Exception{}
	}
	return w.status().pop()
}

func (e *Engine) clearException(h Handle, k Kind) {
	if w := e.lookup(h, k); w != nil {
		w.status().clear()
	}
}

// exceptionQueue holds the status records raised on one wand, oldest first.
type exceptionQueue struct {
	items []Exception
}

func (q *exceptionQueue) push(ex Exception) {
	q.items = append(q.items, ex)
}

func (q *exceptionQueue) pop() Exception {
	if len(q.items) == 0 {
		return Exception{}
	}
	ex := q.items[0]
	q.items = q.items[1:]
	return ex
}

func (q *exceptionQueue) clear() {
	q.items = nil
}

func (q *exceptionQueue) throw(t ExceptionType, reason string) bool {
	q.push(Exception{Type: t, Reason: reason})
	return false
}
