package router

import (
	"testing"

	"github.com/yourusername/originhttp/pkg/originhttp/httpcore"
	"github.com/yourusername/originhttp/pkg/originhttp/portal"
)

func okHandler(p *portal.Portal, req *httpcore.Request, h *httpcore.ResponseHeaders) (httpcore.Response, error) {
	return httpcore.NewStaticResponse(httpcore.StatusOK, []byte("hi")), nil
}

func TestBuildRejectsDuplicateURLs(t *testing.T) {
	lanes := []Lane{
		{Kind: WebPage, Scope: "/", Agents: []Agent{{Method: httpcore.MethodGet, Suffix: "", Handler: okHandler}}},
		{Kind: WebPage, Scope: "/", Agents: []Agent{{Method: httpcore.MethodGet, Suffix: "", Handler: okHandler}}},
	}
	if _, err := Build(lanes); err == nil {
		t.Fatal("expected duplicate-URL rejection, got nil error")
	}
}

func TestBuildRejectsNonGetWebPage(t *testing.T) {
	lanes := []Lane{
		{Kind: WebPage, Scope: "/home", Agents: []Agent{{Method: httpcore.MethodPost, Suffix: "", Handler: okHandler}}},
	}
	if _, err := Build(lanes); err == nil {
		t.Fatal("expected WebPage non-GET rejection, got nil error")
	}
}

func TestBuildRejectsTunnelInDataApi(t *testing.T) {
	lanes := []Lane{
		{Kind: DataApi, Scope: "/api", Agents: []Agent{{Suffix: "/ws", Tunnel: func(*portal.Portal, *httpcore.Request) error { return nil }}}},
	}
	if _, err := Build(lanes); err == nil {
		t.Fatal("expected DataApi-forbids-TUNNEL rejection, got nil error")
	}
}

func TestBuildRejectsNonTunnelInWebSocket(t *testing.T) {
	lanes := []Lane{
		{Kind: WebSocket, Scope: "/live", Agents: []Agent{{Method: httpcore.MethodGet, Suffix: "", Handler: okHandler}}},
	}
	if _, err := Build(lanes); err == nil {
		t.Fatal("expected WebSocket-accepts-only-TUNNEL rejection, got nil error")
	}
}

func TestLookupExactMatch(t *testing.T) {
	lanes := []Lane{
		{Kind: WebPage, Scope: "/", Agents: []Agent{{Method: httpcore.MethodGet, Suffix: "", Handler: okHandler}}},
		{Kind: WebPage, Scope: "/home", Agents: []Agent{{Method: httpcore.MethodGet, Suffix: "", Handler: okHandler}}},
	}
	table, err := Build(lanes)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if r := table.Lookup("/home"); r == nil {
		t.Fatal("expected /home to match")
	}
	if r := table.Lookup("/missing"); r != nil {
		t.Fatal("expected /missing to have no match")
	}
}

func TestLookupMethodMismatch(t *testing.T) {
	lanes := []Lane{
		{Kind: WebPage, Scope: "/", Agents: []Agent{{Method: httpcore.MethodGet, Suffix: "", Handler: okHandler}}},
	}
	table, err := Build(lanes)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	route, ok := table.LookupMethod("/", httpcore.MethodPost)
	if route == nil {
		t.Fatal("expected a route match for /")
	}
	if ok {
		t.Fatal("expected method mismatch for POST against a GET-only route")
	}
}
