package router

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/yourusername/originhttp/pkg/originhttp/httpcore"
)

// Route is a single flattened binding: the concatenation of a lane's
// scope and an agent's suffix, together with the lane's kind, guards
// filtered to the agent's method, and body limits.
type Route struct {
	Kind         Kind
	URL          string
	Method       httpcore.Method
	Handler      HandlerFunc
	Tunnel       TunnelFunc
	Guards       []Guard
	BodyLimit    int
	BodyCapacity int
}

// Table is the immutable, ordered route vector. Lookup is a linear
// equality scan — deliberately not a map or trie: at the scale this
// server targets, a small table fits comfortably in cache and a linear
// compare beats hashing once amortized over the table's lifetime.
type Table struct {
	routes []Route
}

// Build flattens lanes into a Table and runs every startup verification.
// Any violation is a fatal, non-recoverable configuration error — the
// caller must not open the listening socket if Build returns an error.
func Build(lanes []Lane) (*Table, error) {
	t := &Table{}
	seen := make(map[string]struct{})

	for _, lane := range lanes {
		for _, agent := range lane.Agents {
			if err := verifyLaneLegality(lane.Kind, agent); err != nil {
				return nil, err
			}

			url := lane.Scope + agent.Suffix
			if _, dup := seen[url]; dup {
				return nil, fmt.Errorf("router: duplicate route url %q", url)
			}
			seen[url] = struct{}{}

			guards := filterGuards(lane.Guards, agent.Method)

			t.routes = append(t.routes, Route{
				Kind:         lane.Kind,
				URL:          url,
				Method:       agent.Method,
				Handler:      agent.Handler,
				Tunnel:       agent.Tunnel,
				Guards:       guards,
				BodyLimit:    lane.BodyLimit,
				BodyCapacity: lane.BodyCapacity,
			})
		}
	}

	return t, nil
}

func verifyLaneLegality(kind Kind, agent Agent) error {
	isTunnel := agent.Tunnel != nil
	switch kind {
	case DataApi:
		if isTunnel {
			return fmt.Errorf("router: DataApi lane forbids a TUNNEL agent (suffix %q)", agent.Suffix)
		}
	case WebPage:
		if isTunnel || agent.Method != httpcore.MethodGet {
			return fmt.Errorf("router: WebPage lane accepts only GET agents (suffix %q)", agent.Suffix)
		}
	case WebSocket:
		if !isTunnel {
			return fmt.Errorf("router: WebSocket lane accepts only TUNNEL agents (suffix %q)", agent.Suffix)
		}
	default:
		return fmt.Errorf("router: unknown lane kind %v", kind)
	}
	return nil
}

func filterGuards(guards []Guard, method httpcore.Method) []Guard {
	if len(guards) == 0 {
		return nil
	}
	out := make([]Guard, 0, len(guards))
	for _, g := range guards {
		if g.Method == method {
			out = append(out, g)
		}
	}
	return out
}

// Lookup performs the linear exact-URL scan. A nil return means no
// match; the caller maps that to a 404 per the dispatch table.
func (t *Table) Lookup(url string) *Route {
	for i := range t.routes {
		if t.routes[i].URL == url {
			return &t.routes[i]
		}
	}
	return nil
}

// LookupMethod is Lookup plus the method-mismatch check folded in,
// mirroring dispatch outcomes 1 and 2: nil, false means no match (404);
// non-nil, false means a match with the wrong method (405).
func (t *Table) LookupMethod(url string, method httpcore.Method) (route *Route, methodOK bool) {
	r := t.Lookup(url)
	if r == nil {
		return nil, false
	}
	return r, r.Method == method
}

// IsTunnelRequest recognizes a WebSocket upgrade attempt from the raw
// request headers, using gorilla/websocket's own upgrade-detection logic
// rather than hand-rolling an Upgrade/Connection token scan. The core
// never completes the handshake (WebSocket upgrade is explicitly out of
// scope); this is used only to route such requests to the 503 dispatch
// path instead of silently matching a DataApi/WebPage agent.
func IsTunnelRequest(header *httpcore.Headers) bool {
	h := make(http.Header, 2)
	if v := header.Get([]byte("Upgrade")); v != nil {
		h.Set("Upgrade", string(v))
	}
	if v := header.Get([]byte("Connection")); v != nil {
		h.Set("Connection", string(v))
	}
	probe := &http.Request{Header: h, Method: http.MethodGet, Proto: "HTTP/1.1"}
	return websocket.IsWebSocketUpgrade(probe)
}
