package disposable

import (
	"sync"
	"sync/atomic"
)

// Disposable releases a resource or cancels pending work.
//
// Contract:
// - Concurrency: Dispose must be safe to call from any goroutine.
// - Idempotency: only the first call has an effect.
type Disposable interface {
	Dispose()
}

// Empty is a Disposable that does nothing.
var Empty Disposable = emptyDisposable{}

type emptyDisposable struct{}

func (emptyDisposable) Dispose() {}

// Func runs a function on the first Dispose call.
type Func struct {
	once sync.Once
	fn   func()
}

// NewFunc creates a Disposable that calls fn once.
func NewFunc(fn func()) *Func {
	return &Func{fn: fn}
}

// Dispose calls the wrapped function if it has not been called yet.
func (f *Func) Dispose() {
	f.once.Do(func() {
		if f.fn != nil {
			f.fn()
		}
	})
}

// Boolean tracks whether it has been disposed.
type Boolean struct {
	disposed atomic.Bool
}

// NewBoolean creates a Boolean disposable.
func NewBoolean() *Boolean {
	return &Boolean{}
}

// Dispose marks the disposable as disposed.
func (b *Boolean) Dispose() {
	b.disposed.Store(true)
}

// IsDisposed reports whether Dispose has been called.
func (b *Boolean) IsDisposed() bool {
	return b.disposed.Load()
}

// Single holds at most one target, assigned once.
// Disposing before assignment disposes the target as soon as it arrives.
type Single struct {
	mu       sync.Mutex
	target   Disposable
	assigned bool
	disposed bool
}

// NewSingle creates an unassigned Single.
func NewSingle() *Single {
	return &Single{}
}

// Set assigns the target. A second assignment panics.
func (s *Single) Set(d Disposable) {
	s.mu.Lock()
	if s.assigned {
		s.mu.Unlock()
		panic("disposable: single target already assigned")
	}
	s.assigned = true
	if s.disposed {
		s.mu.Unlock()
		if d != nil {
			d.Dispose()
		}
		return
	}
	s.target = d
	s.mu.Unlock()
}

// Dispose disposes the current target, if any.
func (s *Single) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	target := s.target
	s.target = nil
	s.mu.Unlock()

	if target != nil {
		target.Dispose()
	}
}

// IsDisposed reports whether Dispose has been called.
func (s *Single) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Serial holds a replaceable target.
//
// Setting a new target disposes the previous one. Once the Serial is
// disposed, any target set afterwards is disposed immediately.
type Serial struct {
	mu       sync.Mutex
	target   Disposable
	disposed bool
}

// NewSerial creates an empty Serial.
func NewSerial() *Serial {
	return &Serial{}
}

// Set swaps in a new target and disposes the old one.
func (s *Serial) Set(d Disposable) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		if d != nil {
			d.Dispose()
		}
		return
	}
	old := s.target
	s.target = d
	s.mu.Unlock()

	if old != nil {
		old.Dispose()
	}
}

// Dispose disposes the current target and every future one.
func (s *Serial) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	target := s.target
	s.target = nil
	s.mu.Unlock()

	if target != nil {
		target.Dispose()
	}
}

// IsDisposed reports whether Dispose has been called.
func (s *Serial) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}
