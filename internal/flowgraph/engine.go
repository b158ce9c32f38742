package flowgraph

import (
	"sync"
	"sync/atomic"
)

// Engine is the execution engine's reconfiguration lock. Streaming work runs
// through Do while holding it, so a graph rewired between Lock and Unlock is
// never processed half-wired.
type Engine struct {
	mu            sync.Mutex
	rec           *Recorder
	onRevalidate  func()
	revalidations atomic.Int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder logs lock and unlock events to rec.
func WithRecorder(rec *Recorder) Option {
	return func(e *Engine) { e.rec = rec }
}

// WithRevalidate installs a hook run on every Revalidate call.
func WithRevalidate(fn func()) Option {
	return func(e *Engine) { e.onRevalidate = fn }
}

// NewEngine creates an engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Lock acquires the reconfiguration lock.
func (e *Engine) Lock() {
	e.mu.Lock()
	e.rec.Record("lock")
}

// Unlock releases the reconfiguration lock.
func (e *Engine) Unlock() {
	e.rec.Record("unlock")
	e.mu.Unlock()
}

// Revalidate notes that a receiver's validity may have changed.
func (e *Engine) Revalidate() {
	e.revalidations.Add(1)
	if e.onRevalidate != nil {
		e.onRevalidate()
	}
}

// Revalidations returns how many times Revalidate was called.
func (e *Engine) Revalidations() int64 {
	return e.revalidations.Load()
}

// Do runs fn while holding the lock.
func (e *Engine) Do(fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn()
}
