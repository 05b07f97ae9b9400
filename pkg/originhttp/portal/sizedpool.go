package portal

import (
	"sync"
	"sync/atomic"
)

// debugBufferSize is the class a debugPool pools at. The allocator's
// buffers are all sized for one connection's read/write cycle, so a
// single class is enough; a production-scale version would add more
// classes the way the pack's size-classed pool did.
const debugBufferSize = 16 * 1024

// debugPool is a size-classed raw-byte pool with hit/miss accounting,
// the allocator's backend when preset.allocator selects the debug
// variant. Unlike the bytebufferpool-backed default it tracks enough to
// answer "is pooling actually helping" at teardown.
type debugPool struct {
	pool sync.Pool

	gets, misses, discards counter
}

type counter struct{ n atomic.Uint64 }

func (c *counter) add() { c.n.Add(1) }

func newDebugPool() *debugPool {
	dp := &debugPool{}
	dp.pool.New = func() any {
		dp.misses.add()
		buf := make([]byte, debugBufferSize)
		return &buf
	}
	return dp
}

func (dp *debugPool) get() []byte {
	dp.gets.add()
	bufPtr := dp.pool.Get().(*[]byte)
	return (*bufPtr)[:0]
}

func (dp *debugPool) put(buf []byte) {
	if cap(buf) < debugBufferSize {
		dp.discards.add()
		return
	}
	buf = buf[:debugBufferSize]
	dp.pool.Put(&buf)
}

// DebugMetrics reports the debug allocator's pooling behavior. Zero
// value when preset.allocator selects the default backend.
type DebugMetrics struct {
	Gets, Misses, Discards uint64
	HitRate                float64
}

func (dp *debugPool) metrics() DebugMetrics {
	gets, misses, discards := dp.gets.n.Load(), dp.misses.n.Load(), dp.discards.n.Load()
	m := DebugMetrics{Gets: gets, Misses: misses, Discards: discards}
	if gets > 0 && gets >= misses {
		m.HitRate = float64(gets-misses) / float64(gets) * 100.0
	}
	return m
}
