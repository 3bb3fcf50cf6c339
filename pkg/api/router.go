package api

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Route names reported for requests that never reach a registered handler.
const (
	RoutePreflight = "preflight"
	RouteNotFound  = "not_found"
)

// Request is a routed request. Body is nil unless the adapter collected one.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

// Response is an encoded envelope and its status.
type Response struct {
	Status int
	Body   []byte
}

// HandlerFunc serves a request on an exact path.
type HandlerFunc func(ctx context.Context, req *Request) Response

// IDHandlerFunc serves a request on a parameterised path. id is always
// positive.
type IDHandlerFunc func(ctx context.Context, req *Request, id int) Response

type exactRoute struct {
	method  string
	path    string
	name    string
	handler HandlerFunc
}

type idRoute struct {
	method  string
	prefix  string
	suffix  string
	name    string
	handler IDHandlerFunc
}

// Router matches exact paths first, then parameterised paths by longest
// prefix. A method mismatch is not a match.
type Router struct {
	exact []exactRoute
	ids   []idRoute
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{}
}

// Handle registers h for method on exactly path.
func (r *Router) Handle(method, path, name string, h HandlerFunc) {
	r.exact = append(r.exact, exactRoute{method: method, path: path, name: name, handler: h})
}

// HandleID registers h for paths of the form prefix + id + suffix, where id
// is a positive decimal integer.
func (r *Router) HandleID(method, prefix, suffix, name string, h IDHandlerFunc) {
	r.ids = append(r.ids, idRoute{method: method, prefix: prefix, suffix: suffix, name: name, handler: h})
	sort.SliceStable(r.ids, func(i, j int) bool {
		return len(r.ids[i].prefix) > len(r.ids[j].prefix)
	})
}

// Dispatch routes req. OPTIONS is answered with an empty envelope before
// any route is consulted.
func (r *Router) Dispatch(ctx context.Context, req *Request) Response {
	if req.Method == http.MethodOptions {
		return preflight()
	}

	name, h := r.match(req.Method, req.Path)
	if name == RouteNotFound {
		return Error(http.StatusNotFound, "Not found")
	}
	return h(ctx, req)
}

// RouteName returns the name of the route method and path would reach, for
// labelling metrics and logs.
func (r *Router) RouteName(method, path string) string {
	if method == http.MethodOptions {
		return RoutePreflight
	}
	name, _ := r.match(method, path)
	return name
}

func (r *Router) match(method, path string) (string, HandlerFunc) {
	for _, rt := range r.exact {
		if rt.path == path && rt.method == method {
			return rt.name, rt.handler
		}
	}

	for _, rt := range r.ids {
		if rt.method != method || !strings.HasPrefix(path, rt.prefix) {
			continue
		}
		rest := path[len(rt.prefix):]
		if rt.suffix != "" {
			if !strings.HasSuffix(rest, rt.suffix) {
				continue
			}
			rest = rest[:len(rest)-len(rt.suffix)]
		}
		id, ok := parseID(rest)
		if !ok {
			continue
		}
		h := rt.handler
		return rt.name, func(ctx context.Context, req *Request) Response {
			return h(ctx, req, id)
		}
	}

	return RouteNotFound, nil
}

// parseID accepts only ASCII digits forming a positive int.
func parseID(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
