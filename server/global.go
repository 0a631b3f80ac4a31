package wl

import (
	"cmp"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// GlobalID identifies a global. It is the name that the global is
// advertised under in wl_registry.
type GlobalID uint32

// ClientFilter decides whether a global is visible to a client. It is
// called once whenever the global is advertised to one of the client's
// registries and once per bind attempt. It may inspect the client, for
// example its credentials, but must not modify shared state, and it
// must be safe to call concurrently.
type ClientFilter func(*Client) bool

// AllClients is a ClientFilter that allows every client.
func AllClients(*Client) bool {
	return true
}

// BindFunc initializes the object that a client creates by binding a
// global. The version of id has already been checked against the
// global's.
type BindFunc func(client *Client, id NewID)

// Global is an object advertised to clients through wl_registry.
type Global struct {
	name    GlobalID
	iface   string
	version uint32
	filter  ClientFilter
	bind    BindFunc
}

func (g *Global) Name() GlobalID {
	return g.name
}

func (g *Global) Interface() string {
	return g.iface
}

func (g *Global) Version() uint32 {
	return g.version
}

// Visible reports whether the global's filter allows client to see it.
func (g *Global) Visible(client *Client) bool {
	return (g.filter == nil) || g.filter(client)
}

// CreateGlobal advertises a new global at the given version. Clients
// for which filter returns false will never see it and can't bind it.
// A nil filter allows every client. bind is called each time a client
// binds the global.
func (server *Server) CreateGlobal(iface string, version uint32, filter ClientFilter, bind BindFunc) GlobalID {
	server.nextName++
	g := Global{
		name:    server.nextName,
		iface:   iface,
		version: version,
		filter:  filter,
		bind:    bind,
	}
	server.globals[g.name] = &g

	for client := range server.clients {
		for _, r := range client.registries {
			r.advertise(&g)
		}
	}

	return g.name
}

// RemoveGlobal stops advertising a global. Objects that clients have
// already bound it to are unaffected.
func (server *Server) RemoveGlobal(name GlobalID) {
	if _, ok := server.globals[name]; !ok {
		return
	}
	delete(server.globals, name)

	for client := range server.clients {
		for _, r := range client.registries {
			r.remove(name)
		}
	}
}

// Global returns the global with the given name, or nil.
func (server *Server) Global(name GlobalID) *Global {
	return server.globals[name]
}

// Globals returns a snapshot of the currently advertised globals.
func (server *Server) Globals() map[GlobalID]*Global {
	return maps.Clone(server.globals)
}

// sortedGlobals returns the globals in the order they were created.
func (server *Server) sortedGlobals() []*Global {
	globals := maps.Values(server.globals)
	slices.SortFunc(globals, func(g1, g2 *Global) int {
		return cmp.Compare(g1.name, g2.name)
	})
	return globals
}
