// Package conn implements the per-connection lifecycle state machine:
// accept → read → parse → dispatch → write-head → write-body → terminate
// → close, where every transition is the completion callback of an
// asynchronous operation submitted to a reactor.Engine. The current state
// is an explicit enumerated value stored on the Conn. Each submitted
// operation completes into its own method (onRecv, onTimeout, onHeadSent,
// onBodySent, onTerminatingRecv) that performs the transition for that
// state; there is no single completion handler switching on the state.
// A zero-byte or failed RECV in Reading, and a failed SEND in either
// writing state, close the connection directly.
package conn

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/originhttp/pkg/originhttp/executor"
	"github.com/yourusername/originhttp/pkg/originhttp/httpcore"
	"github.com/yourusername/originhttp/pkg/originhttp/portal"
	"github.com/yourusername/originhttp/pkg/originhttp/reactor"
	"github.com/yourusername/originhttp/pkg/originhttp/router"
)

// state identifies which completion a Conn is currently waiting for.
type state int32

const (
	stateAccepting state = iota
	stateReading
	stateDispatching
	stateWritingHead
	stateWritingBody
	stateTerminating
	stateExpiring
	stateClosing
)

func (s state) String() string {
	switch s {
	case stateAccepting:
		return "Accepting"
	case stateReading:
		return "Reading"
	case stateDispatching:
		return "Dispatching"
	case stateWritingHead:
		return "WritingHead"
	case stateWritingBody:
		return "WritingBody"
	case stateTerminating:
		return "Terminating"
	case stateExpiring:
		return "Expiring"
	case stateClosing:
		return "Closing"
	default:
		return "Unknown"
	}
}

// Settings carries the per-connection knobs derived from configuration.
type Settings struct {
	IdleTimeout      time.Duration
	ReadHeadTimeout  time.Duration
	ReuseConnections bool
}

// Conn owns one accepted socket's entire lifecycle. It is allocated once
// per connection, by the server's accept loop, immediately after ACCEPT
// succeeds, and destroyed exactly once, on the final CLOSE completion.
type Conn struct {
	netConn net.Conn
	react   *reactor.Engine
	pool    *executor.Pool
	table   *router.Table
	portal  *portal.Portal
	log     *logrus.Logger
	cfg     Settings

	traceID  string
	peerAddr string
	started  time.Time

	// buf backs both the received request head and the formatted
	// response head, per the buffer-discipline rule: one 16 KiB buffer,
	// reused, never copied between the two roles. Its address also
	// serves as the stable userdata token identifying this connection's
	// RECV submissions to the reactor.
	buf [httpcore.ConnBufferSize]byte

	req         httpcore.Request
	respHeaders httpcore.ResponseHeaders
	resp        httpcore.Response

	st    atomic.Int32
	stale atomic.Bool
	timer *reactor.TimerHandle

	method string // retained past the next Parse's internal reset, for the access log
	url    string

	onClose func()
}

// OnClose registers fn to run once this connection reaches Closing. Used
// by the owning server to track in-flight connections for a graceful
// drain; at most one hook is supported.
func (c *Conn) OnClose(fn func()) {
	c.onClose = fn
}

// New allocates connection state for a freshly accepted socket. This is
// the "allocate connection state" half of the Accepting row's success
// transition; Start immediately performs the other half, "go to
// Reading".
func New(netConn net.Conn, react *reactor.Engine, pool *executor.Pool, table *router.Table, p *portal.Portal, log *logrus.Logger, cfg Settings) *Conn {
	c := &Conn{
		netConn:  netConn,
		react:    react,
		pool:     pool,
		table:    table,
		portal:   p,
		log:      log,
		cfg:      cfg,
		traceID:  uuid.NewString(),
		peerAddr: netConn.RemoteAddr().String(),
		started:  time.Now(),
	}
	c.st.Store(int32(stateAccepting))
	return c
}

// Start arms the first RECV and the first TIMEOUT, entering Reading.
// While Reading, both are in flight. A successful RECV cancels the
// TIMEOUT, so no timer runs during dispatch, writing, or Terminating; a
// new one is armed only when the connection re-enters Reading.
func (c *Conn) Start() {
	c.enterReading()
}

func (c *Conn) setState(s state) {
	c.st.Store(int32(s))
}

func (c *Conn) state() state {
	return state(c.st.Load())
}

// recvToken and timeoutToken are distinct, stable pointers identifying
// this connection's RECV and TIMEOUT submissions so the reactor's
// cancel/deliver-by-userdata bookkeeping never confuses the two
// operations that are concurrently in flight for the same connection.
func (c *Conn) recvToken() any    { return &c.buf }
func (c *Conn) timeoutToken() any { return &c.timer }

// --- Reading ---

func (c *Conn) enterReading() {
	c.setState(stateReading)
	c.respHeaders.Reset()
	c.armTimeout()
	c.react.Submit(c.recvToken(), c.onRecv, func(ctx context.Context) int32 {
		n, err := c.netConn.Read(c.buf[:])
		if err != nil || n == 0 {
			if err != nil && !isTimeoutErr(err) {
				return -1
			}
			return 0
		}
		return int32(n)
	})
}

func (c *Conn) armTimeout() {
	d := c.cfg.ReadHeadTimeout
	if d <= 0 {
		d = c.cfg.IdleTimeout
	}
	if d <= 0 {
		d = 30 * time.Second
	}
	c.timer = c.react.SubmitTimeout(d, c.timeoutToken(), c.onTimeout)
}

// onTimeout is the idle/read-head TIMEOUT completion. The first timeout
// for a connection initiates a graceful half-close and pokes the
// in-flight RECV off its blocking read with a past deadline; the
// resulting RECV completion (EOF or error) finds the connection already
// stale and forces the hard close. A second timeout delivered against an
// already-stale connection forces the close directly.
func (c *Conn) onTimeout(res int32, _ any) {
	if res != reactor.StatusExpired {
		return
	}
	if !c.stale.CompareAndSwap(false, true) {
		c.enterClosing()
		return
	}
	c.setState(stateExpiring)
	c.shutdownWrite()
	_ = c.netConn.SetReadDeadline(time.Now())
}

// onRecv handles the Reading row: success submits parse+dispatch to the
// worker pool; zero bytes (EOF) or a negative syscall-error result both
// end the connection.
func (c *Conn) onRecv(res int32, _ any) {
	if res > 0 {
		c.timer.Cancel()
		c.dispatchParse(int(res))
		return
	}
	c.enterClosing()
}

func isTimeoutErr(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

func (c *Conn) dispatchParse(n int) {
	c.setState(stateDispatching)
	head := c.buf[:n]
	err := c.pool.Submit(func(any) {
		c.runDispatch(head)
	}, c)
	if err != nil {
		c.logErr("submit to worker pool failed: " + err.Error())
		c.enterWritingHead(httpcore.NewEmptyResponse(httpcore.StatusServiceUnavailable))
	}
}

// runDispatch executes on a worker goroutine: parse, then route lookup
// and handler invocation, per the dispatch outcome table. It touches the
// reactor only through enterWritingHead, which re-arms the next op; two
// dispatches for the same connection never run concurrently because
// Reading only arms one RECV at a time.
func (c *Conn) runDispatch(head []byte) {
	if err := httpcore.Parse(head, &c.req); err != nil {
		c.dispatchParseError(err)
		return
	}

	c.method = c.req.Method.String()
	c.url = string(c.req.URL)

	c.dispatchRoute()
}

// dispatchParseError maps a parse failure per the preserved status
// mapping: LimitExceeded is the caller's fault in a way worth
// distinguishing (413); every other parse error collapses to 500.
func (c *Conn) dispatchParseError(err error) {
	status := httpcore.StatusInternalServerError
	if err == httpcore.ErrLimitExceeded {
		status = httpcore.StatusPayloadTooLarge
	}
	c.enterWritingHead(httpcore.NewEmptyResponse(status))
}

// dispatchRoute implements the five outcomes of the dispatch-paths table:
// tunnel/no-match/method-mismatch/websocket-lane/post-reserved all short
// circuit to a status-only response; a GET match with passing guards
// reaches the agent's own handler.
func (c *Conn) dispatchRoute() {
	if router.IsTunnelRequest(&c.req.Header) {
		c.enterWritingHead(httpcore.NewEmptyResponse(httpcore.StatusServiceUnavailable))
		return
	}

	route, methodOK := c.table.LookupMethod(string(c.req.URL), c.req.Method)
	if route == nil {
		c.enterWritingHead(httpcore.NewEmptyResponse(httpcore.StatusNotFound))
		return
	}
	if !methodOK {
		c.enterWritingHead(httpcore.NewEmptyResponse(httpcore.StatusMethodNotAllowed))
		return
	}
	if route.Kind == router.WebSocket {
		c.enterWritingHead(httpcore.NewEmptyResponse(httpcore.StatusServiceUnavailable))
		return
	}
	if c.req.Method == httpcore.MethodPost {
		// Request-body ingestion beyond the head is not yet implemented.
		c.enterWritingHead(httpcore.NewEmptyResponse(httpcore.StatusServiceUnavailable))
		return
	}

	for _, g := range route.Guards {
		resp, err := g.Handler(c.portal, &c.req, &c.respHeaders)
		if err != nil {
			c.enterWritingHead(httpcore.NewEmptyResponse(httpcore.StatusInternalServerError))
			return
		}
		if resp.Status.Code != 0 {
			c.enterWritingHead(resp)
			return
		}
	}

	resp, err := route.Handler(c.portal, &c.req, &c.respHeaders)
	if err != nil {
		c.enterWritingHead(httpcore.NewEmptyResponse(httpcore.StatusInternalServerError))
		return
	}
	c.enterWritingHead(resp)
}

// --- WritingHead / WritingBody ---

// enterWritingHead formats the status line and response headers into the
// shared connection buffer (the same bytes that held the request head)
// and arms the head SEND.
func (c *Conn) enterWritingHead(resp httpcore.Response) {
	c.resp = resp
	c.setState(stateWritingHead)

	_ = c.respHeaders.SetNumber("Content-Length", uint64(resp.BodyLength))

	head := c.buf[:0]
	head = resp.Status.WriteStatusLine(head)
	head = c.respHeaders.WriteTo(head)

	c.armSend(head, c.onHeadSent)
}

func (c *Conn) onHeadSent(res int32, _ any) {
	if res < 0 {
		c.logErr("send head failed")
		c.enterClosing()
		return
	}
	c.enterWritingBody()
}

func (c *Conn) enterWritingBody() {
	c.setState(stateWritingBody)
	if c.resp.Done() {
		c.enterTerminating()
		return
	}
	chunk := c.resp.Remaining()
	c.armSend(chunk, c.onBodySent)
}

func (c *Conn) onBodySent(res int32, _ any) {
	if res < 0 {
		c.logErr("send body failed")
		c.enterClosing()
		return
	}
	c.resp.BytesSent += int(res)
	if !c.resp.Done() {
		c.enterWritingBody()
		return
	}
	c.resp.Free()
	c.enterTerminating()
}

// armSend always keys its submission on &c.resp: a send never overlaps a
// RECV (&c.buf) or a TIMEOUT (&c.timer) for the same connection, so all
// three tokens can safely stay distinct for the connection's lifetime.
func (c *Conn) armSend(data []byte, cb reactor.Callback) {
	c.react.Submit(&c.resp, cb, func(ctx context.Context) int32 {
		n, err := c.netConn.Write(data)
		if err != nil {
			return -1
		}
		return int32(n)
	})
}

// --- Terminating / Expiring / Closing ---

// enterTerminating is reached once a full response has been sent. With
// connection reuse enabled it loops straight back to Reading for the
// next request on the same socket; otherwise it half-closes the write
// side and waits for the peer's own close before freeing the socket.
func (c *Conn) enterTerminating() {
	c.setState(stateTerminating)
	c.logAccess()

	if c.cfg.ReuseConnections {
		c.enterReading()
		return
	}

	c.shutdownWrite()
	c.react.Submit(c.recvToken(), c.onTerminatingRecv, func(ctx context.Context) int32 {
		var scratch [64]byte
		n, err := c.netConn.Read(scratch[:])
		if err != nil || n == 0 {
			return 0
		}
		return int32(n)
	})
}

func (c *Conn) onTerminatingRecv(res int32, _ any) {
	c.enterClosing()
}

func (c *Conn) shutdownWrite() {
	if tcp, ok := c.netConn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
	}
}

func (c *Conn) enterClosing() {
	if c.timer != nil {
		c.timer.Cancel()
	}
	c.setState(stateClosing)
	_ = c.netConn.Close()
	if c.onClose != nil {
		c.onClose()
	}
}

func (c *Conn) logErr(msg string) {
	if c.log == nil {
		return
	}
	c.log.WithFields(logrus.Fields{
		"trace_id": c.traceID,
		"peer":     c.peerAddr,
		"state":    c.state().String(),
	}).Error(msg)
}

func (c *Conn) logAccess() {
	if c.log == nil {
		return
	}
	c.log.WithFields(logrus.Fields{
		"trace_id":   c.traceID,
		"peer":       c.peerAddr,
		"method":     c.method,
		"url":        c.url,
		"status":     c.resp.Status.Code,
		"bytes_sent": c.resp.BytesSent,
		"duration":   time.Since(c.started).String(),
	}).Info("request")
}
