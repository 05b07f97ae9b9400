package conn

import (
	"net"
	"testing"
	"time"

	"github.com/yourusername/originhttp/pkg/originhttp/executor"
	"github.com/yourusername/originhttp/pkg/originhttp/httpcore"
	"github.com/yourusername/originhttp/pkg/originhttp/portal"
	"github.com/yourusername/originhttp/pkg/originhttp/reactor"
	"github.com/yourusername/originhttp/pkg/originhttp/router"
)

func buildTable(t *testing.T) *router.Table {
	t.Helper()
	lanes := []router.Lane{
		{
			Kind:  router.WebPage,
			Scope: "",
			Agents: []router.Agent{
				{Method: httpcore.MethodGet, Suffix: "/", Handler: func(p *portal.Portal, req *httpcore.Request, h *httpcore.ResponseHeaders) (httpcore.Response, error) {
					return httpcore.NewStaticResponse(httpcore.StatusOK, []byte("hi")), nil
				}},
			},
		},
	}
	tbl, err := router.Build(lanes)
	if err != nil {
		t.Fatalf("router.Build: %v", err)
	}
	return tbl
}

func newHarness(t *testing.T) (*reactor.Engine, *executor.Pool, func()) {
	t.Helper()
	eng := reactor.New()
	go eng.Run()
	pool := executor.Init()
	return eng, pool, func() {
		pool.Deinit()
		eng.Stop()
	}
}

func TestConnSimpleGetRoundTrip(t *testing.T) {
	eng, pool, stop := newHarness(t)
	defer stop()

	table := buildTable(t)
	p := portal.New(portal.NewAllocator(0, false, nil), mustTemplateEngine(t), nil)

	server, client := net.Pipe()
	defer client.Close()

	c := New(server, eng, pool, table, p, nil, Settings{IdleTimeout: time.Second, ReadHeadTimeout: time.Second})
	c.Start()

	if _, err := client.Write([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n")); err != nil {
		t.Fatalf("write request: %v", err)
	}

	resp := readAll(t, client)
	if !contains(resp, "200") || !contains(resp, "hi") {
		t.Fatalf("unexpected response: %q", resp)
	}
}

// readAll drains client until it stops receiving new bytes for a short
// interval, accumulating across the head and body SENDs a Conn
// issues as two independent Write calls on the underlying net.Pipe.
func readAll(t *testing.T, client net.Conn) string {
	t.Helper()
	var out []byte
	buf := make([]byte, 512)
	for i := 0; i < 4; i++ {
		client.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, err := client.Read(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err != nil {
			break
		}
	}
	return string(out)
}

func TestConnUnknownRouteReturns404(t *testing.T) {
	eng, pool, stop := newHarness(t)
	defer stop()

	table := buildTable(t)
	p := portal.New(portal.NewAllocator(0, false, nil), mustTemplateEngine(t), nil)

	server, client := net.Pipe()
	defer client.Close()

	c := New(server, eng, pool, table, p, nil, Settings{IdleTimeout: time.Second, ReadHeadTimeout: time.Second})
	c.Start()

	if _, err := client.Write([]byte("GET /nope HTTP/1.1\r\nHost: x\r\n\r\n")); err != nil {
		t.Fatalf("write request: %v", err)
	}

	resp := readAll(t, client)
	if !contains(resp, "404") {
		t.Fatalf("expected 404, got %q", resp)
	}
}

func mustTemplateEngine(t *testing.T) *portal.TemplateEngine {
	t.Helper()
	e, err := portal.NewTemplateEngine("", 0)
	if err != nil {
		t.Fatalf("NewTemplateEngine: %v", err)
	}
	return e
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
