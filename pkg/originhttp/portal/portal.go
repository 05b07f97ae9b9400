// Package portal defines the capability object handed explicitly to
// handlers, carrying the allocator, the page-template engine, and the
// connection counters. It is deliberately not implicit context: callers
// pass *Portal by pointer the way the design already does, rather than
// smuggling it through a context.Context value.
package portal

import "github.com/yourusername/originhttp/pkg/originhttp/stats"

// Portal bundles the process-wide capabilities a handler may need.
type Portal struct {
	Allocator *Allocator
	Templates *TemplateEngine
	Stats     *stats.Stats
}

// New builds a Portal from its capabilities. stats may be nil; callers
// that never register a lane reading it (tests, for instance) can skip
// constructing one.
func New(alloc *Allocator, tmpl *TemplateEngine, st *stats.Stats) *Portal {
	return &Portal{Allocator: alloc, Templates: tmpl, Stats: st}
}
