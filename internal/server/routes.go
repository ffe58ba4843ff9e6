package server

import (
	"net/http"
	"strings"
)

// RouteDoc describes one mounted dynasty API route for the route-listing
// endpoint.
type RouteDoc struct {
	Method      string `json:"method"`
	Pattern     string `json:"pattern"`
	Summary     string `json:"summary,omitempty"`
	ExampleBody string `json:"example_body,omitempty"`
}

// RouteRegistry collects documentation for every route as it is mounted, so
// the API stays self-describing without a separate doc file drifting out of
// date.
type RouteRegistry struct {
	docs []RouteDoc
}

// Handle mounts a handler on the mux and records its documentation. The
// pattern is the method-prefixed ServeMux form ("POST /api/dynasty/tick").
func (rr *RouteRegistry) Handle(mux *http.ServeMux, pattern, summary, exampleBody string, h http.HandlerFunc) {
	method, path, ok := strings.Cut(pattern, " ")
	if !ok {
		method, path = "", pattern
	}
	rr.docs = append(rr.docs, RouteDoc{
		Method:      method,
		Pattern:     path,
		Summary:     summary,
		ExampleBody: exampleBody,
	})
	mux.HandleFunc(pattern, h)
}

// Docs returns a copy of the recorded route documentation, in mount order.
func (rr *RouteRegistry) Docs() []RouteDoc {
	out := make([]RouteDoc, len(rr.docs))
	copy(out, rr.docs)
	return out
}
