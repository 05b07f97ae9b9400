// Package app registers the example lanes a deployment wires into the
// route table: a static landing page, a page that demonstrates query
// parsing, a POST data-API agent showing the reserved/unimplemented
// path, and a system health-check lane.
package app

import (
	"fmt"

	"github.com/yourusername/originhttp/pkg/originhttp/httpcore"
	"github.com/yourusername/originhttp/pkg/originhttp/portal"
	"github.com/yourusername/originhttp/pkg/originhttp/router"
)

var contentTypeTextPlain = []byte("text/plain; charset=utf-8")
var contentTypeJSON = []byte("application/json")

// Lanes returns the full set of lanes a default deployment registers.
// Callers pass this straight to router.Build.
func Lanes() []router.Lane {
	return []router.Lane{
		rootLane(),
		homeLane(),
		userAPILane(),
		systemLane(),
	}
}

func rootLane() router.Lane {
	return router.Lane{
		Kind:  router.WebPage,
		Scope: "",
		Agents: []router.Agent{
			{Method: httpcore.MethodGet, Suffix: "/", Handler: rootHandler},
		},
	}
}

func rootHandler(p *portal.Portal, req *httpcore.Request, headers *httpcore.ResponseHeaders) (httpcore.Response, error) {
	_ = headers.SetStatic("Content-Type", contentTypeTextPlain)
	return httpcore.NewStaticResponse(httpcore.StatusOK, []byte("hi")), nil
}

func homeLane() router.Lane {
	return router.Lane{
		Kind:  router.WebPage,
		Scope: "",
		Agents: []router.Agent{
			{Method: httpcore.MethodGet, Suffix: "/home", Handler: homeHandler},
		},
	}
}

// homeHandler demonstrates reading query pairs off the request and
// building a response body through the shared Allocator rather than a
// bare string concatenation, the way a real page handler composing more
// than a literal would.
func homeHandler(p *portal.Portal, req *httpcore.Request, headers *httpcore.ResponseHeaders) (httpcore.Response, error) {
	_ = headers.SetStatic("Content-Type", contentTypeTextPlain)

	buf := p.Allocator.Checkout()
	buf.WriteString("home")
	for i := 0; i < req.QueryOffset(); i++ {
		name, value := req.Query(i)
		buf.WriteByte(' ')
		buf.Write(name)
		buf.WriteByte('=')
		buf.Write(value)
	}
	body := append([]byte(nil), buf.B...)
	p.Allocator.Release(buf)

	return httpcore.NewDynamicResponse(httpcore.StatusOK, body), nil
}

func userAPILane() router.Lane {
	return router.Lane{
		Kind:  router.DataApi,
		Scope: "/api/user",
		Agents: []router.Agent{
			{Method: httpcore.MethodPost, Suffix: "/add", Handler: userAddHandler},
		},
	}
}

// userAddHandler is never actually invoked: the connection state machine
// maps every POST to 503 before a route's handler runs, since request
// body ingestion beyond the head isn't implemented. The agent is
// registered anyway so the route table carries the binding a future
// implementation of POST would dispatch to.
func userAddHandler(p *portal.Portal, req *httpcore.Request, headers *httpcore.ResponseHeaders) (httpcore.Response, error) {
	_ = headers.SetStatic("Content-Type", contentTypeJSON)
	return httpcore.NewStaticResponse(httpcore.StatusOK, []byte(`{"added":true}`)), nil
}

func systemLane() router.Lane {
	return router.Lane{
		Kind:  router.DataApi,
		Scope: "",
		Agents: []router.Agent{
			{Method: httpcore.MethodGet, Suffix: "/status", Handler: statusHandler},
		},
	}
}

func statusHandler(p *portal.Portal, req *httpcore.Request, headers *httpcore.ResponseHeaders) (httpcore.Response, error) {
	_ = headers.SetStatic("Content-Type", contentTypeJSON)

	var accepted, active int64
	if p.Stats != nil {
		accepted, active = p.Stats.Accepted(), p.Stats.Active()
	}
	body := fmt.Sprintf(`{"status":"ok","accepted":%d,"active":%d}`, accepted, active)
	return httpcore.NewDynamicResponse(httpcore.StatusOK, []byte(body)), nil
}
