// Package router builds the flat, immutable route vector the connection
// state machine looks up against. Routes are declared as lanes — groups
// sharing a scope prefix, kind, guards, and body limits — and flattened
// into a linear-scan table at startup, before the listening socket opens.
package router

import (
	"github.com/yourusername/originhttp/pkg/originhttp/httpcore"
	"github.com/yourusername/originhttp/pkg/originhttp/portal"
)

// Kind distinguishes the three lane shapes the FSM dispatches by tag
// rather than by subtype polymorphism.
type Kind uint8

const (
	DataApi Kind = iota
	WebPage
	WebSocket
)

func (k Kind) String() string {
	switch k {
	case DataApi:
		return "DataApi"
	case WebPage:
		return "WebPage"
	case WebSocket:
		return "WebSocket"
	default:
		return "Unknown"
	}
}

// HandlerFunc is a GET-style or DataApi-style handler: given the shared
// Portal and the request, it fills headers and returns a Response or an
// error (translated to 500 by the caller). Handlers may mutate headers
// but never the request.
type HandlerFunc func(p *portal.Portal, req *httpcore.Request, headers *httpcore.ResponseHeaders) (httpcore.Response, error)

// TunnelFunc is the WebSocket-lane handler shape. The core never invokes
// it — WebSocket lanes always dispatch to a 503 per the current design —
// but the type exists so a lane can be declared and verified.
type TunnelFunc func(p *portal.Portal, req *httpcore.Request) error

// Agent binds a method and a URL suffix to a handler inside a lane.
type Agent struct {
	Method  httpcore.Method
	Suffix  string
	Handler HandlerFunc
	Tunnel  TunnelFunc
}

// Guard is a pre-handler filtered by method; a failing guard short-
// circuits the agent's handler by returning its own Response. Guards are
// not yet exercised by any registered lane in this tree, matching the
// "design-level, not yet exercised in source" note on the dispatch path.
type Guard struct {
	Method  httpcore.Method
	Handler HandlerFunc
}

// Lane is a declarative grouping of routes: a kind, a scope prefix,
// optional body limit/capacity (KiB, consulted only once POST body
// ingestion exists), and ordered guards and agents.
type Lane struct {
	Kind        Kind
	Scope       string
	BodyLimit   int
	BodyCapacity int
	Guards      []Guard
	Agents      []Agent
}
