package proxy

import "net/http"

// Route is one operation of the event service reachable through the gateway.
type Route struct {
	Name    string
	Method  string
	Path    string
	Admin   bool
	HasBody bool
}

// Pattern returns the ServeMux pattern for the route.
func (r Route) Pattern() string {
	return r.Method + " " + r.Path
}

// Routes lists every forwarded operation. Paths are forwarded unchanged.
var Routes = []Route{
	{Name: "list events (user)", Method: http.MethodGet, Path: "/event"},
	{Name: "list events (admin)", Method: http.MethodGet, Path: "/admin/event", Admin: true},
	{Name: "create event", Method: http.MethodPost, Path: "/admin/event", Admin: true, HasBody: true},
	{Name: "add reward to event", Method: http.MethodPatch, Path: "/admin/event", Admin: true, HasBody: true},
	{Name: "list rewards (user)", Method: http.MethodGet, Path: "/reward"},
	{Name: "list rewards (admin)", Method: http.MethodGet, Path: "/admin/reward", Admin: true},
	{Name: "create reward", Method: http.MethodPost, Path: "/admin/reward", Admin: true, HasBody: true},
	{Name: "request reward", Method: http.MethodPost, Path: "/request", HasBody: true},
	{Name: "user request history", Method: http.MethodGet, Path: "/request/history/{identity}"},
	{Name: "admin request history", Method: http.MethodGet, Path: "/admin/request/history", Admin: true},
}
