package chat

import "sync"

type route struct {
	match func(PlayerID) bool
	to    Transport
}

// Router is a Transport that picks the transport owning each player. Routes
// are tried in the order they were added; players no route matches go to
// the fallback. Messages for players nobody owns are dropped.
type Router struct {
	mu       sync.RWMutex
	routes   []route
	fallback Transport
}

// Route sends messages for players matching match to t.
func (r *Router) Route(match func(PlayerID) bool, t Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route{match: match, to: t})
}

// Fallback sets the transport for players no route matches.
func (r *Router) Fallback(t Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = t
}

// Send implements Transport.
func (r *Router) Send(to PlayerID, msg Message) {
	r.mu.RLock()
	t := r.fallback
	for _, rt := range r.routes {
		if rt.match(to) {
			t = rt.to
			break
		}
	}
	r.mu.RUnlock()
	if t != nil {
		t.Send(to, msg)
	}
}
