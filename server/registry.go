package wl

import (
	"fmt"

	"deedles.dev/wlkde/internal/debug"
	"deedles.dev/wlkde/internal/set"
	"deedles.dev/wlkde/wire"
	"github.com/sirupsen/logrus"
)

// Registry is a wl_registry. Each one tracks which globals it has
// advertised so that removals are only sent for globals the client
// knows about.
type Registry struct {
	Resource
	advertised set.Set[GlobalID]
}

func (r *Registry) Interface() string {
	return RegistryInterface
}

func (r *Registry) MethodName(op uint16) string {
	return RequestName(registryRequests[:], op)
}

func (r *Registry) Dispatch(msg *wire.MessageBuffer) error {
	args := NewArgs(r, msg)

	switch msg.Op() {
	case opRegistryBind:
		name := GlobalID(args.Uint())
		iface, id := args.UntypedNewID()
		if err := args.Err(); err != nil {
			return err
		}
		return r.bind(name, iface, id)

	default:
		return wire.UnknownOpError{Interface: RegistryInterface, Type: "request", Op: msg.Op()}
	}
}

func (r *Registry) bind(name GlobalID, iface string, id NewID) error {
	g := r.client.server.globals[name]
	if (g == nil) || !g.Visible(r.client) {
		return ProtocolError{
			Object:  r.id,
			Code:    DisplayErrorInvalidObject,
			Message: fmt.Sprintf("invalid global %v (%v)", iface, name),
		}
	}

	if iface != g.iface {
		return ProtocolError{
			Object:  r.id,
			Code:    DisplayErrorInvalidObject,
			Message: fmt.Sprintf("invalid interface for global %v: have %v, wanted %v", name, iface, g.iface),
		}
	}

	if (id.version == 0) || (id.version > g.version) {
		return ProtocolError{
			Object:  r.id,
			Code:    DisplayErrorInvalidObject,
			Message: fmt.Sprintf("invalid version for global %v (%v): have %v, wanted %v", g.iface, name, id.version, g.version),
		}
	}

	debug.WithFields(logrus.Fields{
		"client":    r.client,
		"interface": g.iface,
		"version":   id.version,
		"id":        id.id,
	}).Trace("Binding global")

	g.bind(r.client, id)
	return nil
}

func (r *Registry) advertise(g *Global) {
	if !r.Alive() || !g.Visible(r.client) {
		return
	}
	r.advertised.Add(g.name)

	msg := NewEvent(r, evRegistryGlobal, "global", g.name, g.iface, g.version)
	msg.WriteUint(uint32(g.name))
	msg.WriteString(g.iface)
	msg.WriteUint(g.version)
	r.client.Send(msg)
}

func (r *Registry) remove(name GlobalID) {
	if !r.Alive() || !r.advertised.Has(name) {
		return
	}
	r.advertised.Remove(name)

	msg := NewEvent(r, evRegistryGlobalRemove, "global_remove", name)
	msg.WriteUint(uint32(name))
	r.client.Send(msg)
}
