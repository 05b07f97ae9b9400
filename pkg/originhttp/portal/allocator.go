package portal

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/valyala/bytebufferpool"
)

// Allocator is the core's only process-wide mutable singleton: an
// init→in-use→deinit-detects-leak lifecycle wrapped around one of two
// pooling backends. Checkout/Release replace a hand-rolled sync.Pool
// wrapper with the same pooling discipline the teacher's buffer pool
// used, backed by a real third-party pool implementation for the
// default mode.
//
// mode 0 ("system malloc") pools through bytebufferpool.
// mode 1 ("debug allocator") pools through a size-classed raw-byte pool
// that tracks hit/miss/discard counts, for preset.allocator == 1
// deployments that want pooling behavior visible at teardown.
type Allocator struct {
	mode  int
	pool  bytebufferpool.Pool
	debug *debugPool

	debugLeakCheck bool
	outstanding    atomic.Int64
	mu             sync.Mutex
	liveSet        map[*bytebufferpool.ByteBuffer]struct{}

	initialized atomic.Bool
	log         *logrus.Logger
}

// NewAllocator constructs an Allocator. mode mirrors preset.allocator
// (0 or 1, see Allocator's doc comment); any other value falls back to
// mode 0. debugLeakCheck mirrors preset.allocator_debug_leak_check:
// when set, every outstanding checkout is also recorded in a live set.
// Deinit's leak report does not depend on it: Deinit always reports the
// count of checkouts never released.
func NewAllocator(mode int, debugLeakCheck bool, log *logrus.Logger) *Allocator {
	a := &Allocator{mode: mode, debugLeakCheck: debugLeakCheck, log: log}
	if mode == 1 {
		a.debug = newDebugPool()
	}
	if debugLeakCheck {
		a.liveSet = make(map[*bytebufferpool.ByteBuffer]struct{})
	}
	return a
}

// Init marks the allocator in-use. Calling Init twice is a fatal
// double-init per the error taxonomy.
func (a *Allocator) Init() error {
	if !a.initialized.CompareAndSwap(false, true) {
		return errAllocatorDoubleInit
	}
	return nil
}

// Checkout returns a pooled buffer sized for one connection's read/write
// cycle.
func (a *Allocator) Checkout() *bytebufferpool.ByteBuffer {
	var b *bytebufferpool.ByteBuffer
	if a.mode == 1 {
		b = &bytebufferpool.ByteBuffer{B: a.debug.get()}
	} else {
		b = a.pool.Get()
	}
	a.outstanding.Add(1)
	if a.debugLeakCheck {
		a.mu.Lock()
		a.liveSet[b] = struct{}{}
		a.mu.Unlock()
	}
	return b
}

// Release returns a buffer to the pool.
func (a *Allocator) Release(b *bytebufferpool.ByteBuffer) {
	if a.debugLeakCheck {
		a.mu.Lock()
		delete(a.liveSet, b)
		a.mu.Unlock()
	}
	a.outstanding.Add(-1)
	if a.mode == 1 {
		a.debug.put(b.B)
		return
	}
	a.pool.Put(b)
}

// DebugMetrics reports the debug allocator's pool hit rate. Zero value
// when the allocator was constructed with mode 0.
func (a *Allocator) DebugMetrics() DebugMetrics {
	if a.debug == nil {
		return DebugMetrics{}
	}
	return a.debug.metrics()
}

// Deinit tears the allocator down. Returns true if a leak (an
// outstanding checkout never released) was detected, matching exit code
// 1 in the process's exit-code table.
func (a *Allocator) Deinit() (leaked bool) {
	n := a.outstanding.Load()
	if n > 0 {
		leaked = true
		if a.log != nil {
			a.log.WithField("outstanding", n).Error("allocator: buffers still checked out at teardown")
		}
	}
	a.initialized.Store(false)
	return leaked
}

var errAllocatorDoubleInit = newFatalError("portal: allocator already initialized")
