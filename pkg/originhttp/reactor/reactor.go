// Package reactor exposes the completion-I/O contract the connection
// state machine is written against: an operation submission returns an
// identifier, a callback fires exactly once with a signed result and the
// userdata supplied at submission, and cancellation by userdata produces
// a distinguishable status rather than a syscall error.
//
// The real completion-I/O runtime (submission queue, kernel reaping,
// zero-copy buffer registration) is an external collaborator this
// server's core does not implement. Engine is a working substitute: one
// dispatch goroutine delivers every callback, which is what gives the
// connection state machine its single-threaded-reactor and per-FD
// delivery-order guarantees, while the actual blocking syscalls run on
// background goroutines.
package reactor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Result codes mirroring the cqe_res encoding: negative values are
// errors, with two reserved meanings distinguishable from a raw errno.
const (
	StatusExpired  int32 = -62
	StatusCanceled int32 = -125
)

// Callback is invoked on the engine's single dispatch goroutine, with the
// signed result and the userdata the operation was submitted with. A
// Submit'd operation completes once while the engine runs; a timer
// cancelled before it fires delivers nothing (see SubmitTimeout).
type Callback func(res int32, userdata any)

// OpFunc performs the actual blocking work for a submission. It must
// return promptly once ctx is done; a non-zero, non-cancel return after
// ctx is done is still honored as Canceled by the engine.
type OpFunc func(ctx context.Context) (res int32)

type inflight struct {
	userdata any
	cancel   context.CancelFunc
}

type completion struct {
	res      int32
	userdata any
	cb       Callback
}

// Engine is the goroutine-backed completion-I/O substitute. Zero value is
// not usable; construct with New.
type Engine struct {
	baseCtx    context.Context
	stop       context.CancelFunc
	nextID     atomic.Uint64
	completion chan completion

	mu         sync.Mutex
	inflightByID       map[uint64]*inflight
	inflightByUserdata map[any]uint64

	wg sync.WaitGroup
}

// New constructs an Engine. Run must be called (typically in its own
// goroutine) to begin delivering callbacks.
func New() *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		baseCtx:            ctx,
		stop:               cancel,
		completion:         make(chan completion, 256),
		inflightByID:       make(map[uint64]*inflight),
		inflightByUserdata: make(map[any]uint64),
	}
}

// Submit posts params-free async work: fn runs on a background goroutine;
// its result is delivered to cb on the dispatch goroutine. userdata
// identifies this submission for Cancel. Returns a submission id.
func (e *Engine) Submit(userdata any, cb Callback, fn OpFunc) uint64 {
	id := e.nextID.Add(1)
	ctx, cancel := context.WithCancel(e.baseCtx)

	e.mu.Lock()
	e.inflightByID[id] = &inflight{userdata: userdata, cancel: cancel}
	e.inflightByUserdata[userdata] = id
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		res := fn(ctx)
		if ctx.Err() != nil {
			res = StatusCanceled
		}
		e.deliver(id, userdata, res, cb)
	}()
	return id
}

func (e *Engine) deliver(id uint64, userdata any, res int32, cb Callback) {
	e.mu.Lock()
	delete(e.inflightByID, id)
	if e.inflightByUserdata[userdata] == id {
		delete(e.inflightByUserdata, userdata)
	}
	e.mu.Unlock()

	select {
	case e.completion <- completion{res: res, userdata: userdata, cb: cb}:
	case <-e.baseCtx.Done():
	}
}

// Cancel cancels the outstanding submission registered under userdata, if
// any. The eventual callback observes StatusCanceled. Canceling an
// unknown or already-completed userdata is a no-op.
func (e *Engine) Cancel(userdata any) {
	e.mu.Lock()
	id, ok := e.inflightByUserdata[userdata]
	var cancel context.CancelFunc
	if ok {
		cancel = e.inflightByID[id].cancel
	}
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Run drains completions and invokes their callbacks, one at a time, on
// the calling goroutine. Once Stop is called it invokes the completions
// already queued at that moment and returns; it does not wait for
// submissions still in flight.
func (e *Engine) Run() {
	for {
		select {
		case c := <-e.completion:
			c.cb(c.res, c.userdata)
		case <-e.baseCtx.Done():
			e.drain()
			return
		}
	}
}

// drain delivers any completions already queued before Run observes
// cancellation, so callbacks still see a matching Cancel/Close pair.
func (e *Engine) drain() {
	for {
		select {
		case c := <-e.completion:
			c.cb(c.res, c.userdata)
		default:
			return
		}
	}
}

// Stop cancels every in-flight submission and waits for their goroutines
// to exit before returning. Because Run stops pumping once Stop is
// called, the Canceled completions of those submissions are not
// guaranteed to reach their callbacks.
func (e *Engine) Stop() {
	e.stop()
	e.wg.Wait()
}

// TimerHandle represents an in-flight TIMEOUT submission. Unlike a plain
// Submit, a timer's deadline can be adjusted in place via Modify —
// the completion-I/O contract's "timeout-modify" operation — instead of
// being cancelled and resubmitted.
type TimerHandle struct {
	timer    *time.Timer
	mu       sync.Mutex
	canceled bool
}

// SubmitTimeout arms a TIMEOUT completion after d. On firing, cb observes
// StatusExpired. Unlike a Submit'd operation, an explicitly cancelled
// timer delivers nothing: no StatusCanceled completion is produced, so
// the cancellation is absorbed silently.
func (e *Engine) SubmitTimeout(d time.Duration, userdata any, cb Callback) *TimerHandle {
	h := &TimerHandle{}
	h.timer = time.AfterFunc(d, func() {
		h.mu.Lock()
		canceled := h.canceled
		h.mu.Unlock()
		if canceled {
			return
		}
		select {
		case e.completion <- completion{res: StatusExpired, userdata: userdata, cb: cb}:
		case <-e.baseCtx.Done():
		}
	})
	return h
}

// Modify resets the timer's deadline to fire d from now, implementing
// timeout-modify without tearing down and resubmitting the operation.
func (h *TimerHandle) Modify(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.canceled {
		return
	}
	h.timer.Reset(d)
}

// Cancel stops the timer. If it already fired, Cancel is a harmless
// no-op; if it has not, no completion is delivered for it.
func (h *TimerHandle) Cancel() {
	h.mu.Lock()
	h.canceled = true
	h.mu.Unlock()
	h.timer.Stop()
}
