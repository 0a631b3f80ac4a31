package wl

import (
	"deedles.dev/wlkde/wire"
)

// CompositorListener is notified about objects created through
// wl_compositor. Set a Listener on new surfaces from CreateSurface to
// be told about their commits.
type CompositorListener interface {
	CreateSurface(*Surface)
	CreateRegion(*Region)
}

// Compositor is a client's binding of the wl_compositor global.
type Compositor struct {
	Resource
	listener CompositorListener
}

// CreateCompositor advertises the wl_compositor global. lis may be
// nil.
func (server *Server) CreateCompositor(lis CompositorListener, filter ClientFilter) GlobalID {
	return server.CreateGlobal(CompositorInterface, CompositorVersion, filter, func(client *Client, id NewID) {
		c := Compositor{listener: lis}
		id.Init(&c)
	})
}

func (c *Compositor) Interface() string {
	return CompositorInterface
}

func (c *Compositor) MethodName(op uint16) string {
	return RequestName(compositorRequests[:], op)
}

func (c *Compositor) Dispatch(msg *wire.MessageBuffer) error {
	args := NewArgs(c, msg)

	switch msg.Op() {
	case opCompositorCreateSurface:
		id := args.NewID()
		if err := args.Err(); err != nil {
			return err
		}

		s := newSurface()
		id.Init(s)
		if c.listener != nil {
			c.listener.CreateSurface(s)
		}
		return nil

	case opCompositorCreateRegion:
		id := args.NewID()
		if err := args.Err(); err != nil {
			return err
		}

		var r Region
		id.Init(&r)
		if c.listener != nil {
			c.listener.CreateRegion(&r)
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: CompositorInterface, Type: "request", Op: msg.Op()}
	}
}
