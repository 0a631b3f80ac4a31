// Package wltest drives a wl.Server from tests through real socket
// pairs, playing the part of a client that sends raw requests and
// records the events that it receives.
package wltest

import (
	"errors"
	"fmt"
	"image"
	"net"
	"os"
	"testing"
	"time"

	wl "deedles.dev/wlkde/server"
	"deedles.dev/wlkde/wire"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slices"
	"golang.org/x/sys/unix"
)

// Opcodes of the core requests that the test client sends.
const (
	opDisplaySync             = 0
	opDisplayGetRegistry      = 1
	opRegistryBind            = 0
	opCompositorCreateSurface = 0
	opCompositorCreateRegion  = 1
	opRegionDestroy           = 0
	opRegionAdd               = 1

	evDisplayError    = 0
	evDisplayDeleteID = 1
	evRegistryGlobal  = 0
	evCallbackDone    = 0
)

// Timeout bounds every Roundtrip.
var Timeout = 5 * time.Second

// Server is a wl.Server that isn't listening on any socket.
type Server struct {
	*wl.Server

	// Errs collects every error returned by Flush.
	Errs []error
}

// NewServer creates a server that is closed when the test finishes.
func NewServer(t testing.TB) *Server {
	srv := Server{Server: wl.NewServer(nil)}
	t.Cleanup(func() { srv.Close() })
	return &srv
}

// Flush flushes the server, recording any error.
func (srv *Server) Flush() {
	err := srv.Server.Flush()
	if err != nil {
		srv.Errs = append(srv.Errs, err)
	}
}

// Err returns all errors recorded so far, joined.
func (srv *Server) Err() error {
	return errors.Join(srv.Errs...)
}

// Connect connects a new test client to srv.
func (srv *Server) Connect(t testing.TB) *Client {
	t.Helper()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)

	local, err := fileConn(fds[0])
	require.NoError(t, err)
	remote, err := fileConn(fds[1])
	require.NoError(t, err)

	c := Client{
		t:      t,
		server: srv,
		conn:   wire.NewConn(local),
		msgs:   make(chan *wire.MessageBuffer),
		done:   make(chan struct{}),
		nextID: 1,
		syncs:  make(map[uint32]struct{}),
	}
	c.Remote = srv.AddClient(remote)
	go c.listen()
	t.Cleanup(func() {
		close(c.done)
		c.conn.Close()
	})

	return &c
}

func fileConn(fd int) (*net.UnixConn, error) {
	file := os.NewFile(uintptr(fd), "socketpair")
	defer file.Close()

	c, err := net.FileConn(file)
	if err != nil {
		return nil, err
	}
	uc, ok := c.(*net.UnixConn)
	if !ok {
		c.Close()
		return nil, fmt.Errorf("socketpair end is a %T", c)
	}
	return uc, nil
}

// Client is the client end of a test connection.
type Client struct {
	t      testing.TB
	server *Server
	conn   *wire.Conn
	msgs   chan *wire.MessageBuffer
	done   chan struct{}
	nextID uint32
	closed bool

	// Remote is the server's side of the connection.
	Remote *wl.Client

	// Events holds every event received so far, except for
	// wl_display.delete_id and the done events of roundtrip callbacks.
	Events []*wire.MessageBuffer

	registry uint32
	syncs    map[uint32]struct{}
	deleted  []uint32
}

func (c *Client) listen() {
	defer close(c.msgs)

	for {
		msg, err := wire.ReadMessage(c.conn)
		if err != nil {
			return
		}
		select {
		case <-c.done:
			msg.Close()
			return
		case c.msgs <- msg:
		}
	}
}

// NewID allocates a new object ID.
func (c *Client) NewID() uint32 {
	c.nextID++
	return c.nextID
}

// Request sends a request from the object sender. Arguments may be
// int32, uint32, which is also used for object and new_id arguments,
// or string.
func (c *Client) Request(sender uint32, op uint16, args ...any) {
	c.t.Helper()

	msg := wire.NewMessage(proxy(sender), op)
	for _, arg := range args {
		switch arg := arg.(type) {
		case int32:
			msg.WriteInt(arg)
		case uint32:
			msg.WriteUint(arg)
		case string:
			msg.WriteString(arg)
		default:
			c.t.Fatalf("unsupported request argument type %T", arg)
		}
	}
	require.NoError(c.t, msg.Build(c.conn))
}

// Roundtrip sends a wl_display.sync and flushes the server until the
// callback is done, collecting all events received in the meantime.
// It returns false if the server disconnected the client instead.
func (c *Client) Roundtrip() bool {
	c.t.Helper()

	if c.closed {
		return false
	}

	cb := c.NewID()
	c.syncs[cb] = struct{}{}
	c.Request(1, opDisplaySync, cb)

	timeout := time.NewTimer(Timeout)
	defer timeout.Stop()
	for {
		c.server.Flush()

		select {
		case msg, ok := <-c.msgs:
			if !ok {
				c.closed = true
				return false
			}
			if (msg.Sender() == cb) && (msg.Op() == evCallbackDone) {
				return true
			}
			if (msg.Sender() == 1) && (msg.Op() == evDisplayDeleteID) {
				c.deleteID(msg.ReadUint())
				continue
			}
			c.Events = append(c.Events, msg)

		case <-time.After(time.Millisecond):
		case <-timeout.C:
			c.t.Fatalf("roundtrip timed out after %v", Timeout)
		}
	}
}

// Take removes and returns the recorded events sent by the object
// sender.
func (c *Client) Take(sender uint32) []*wire.MessageBuffer {
	var taken []*wire.MessageBuffer
	c.Events = slices.DeleteFunc(c.Events, func(msg *wire.MessageBuffer) bool {
		if msg.Sender() == sender {
			taken = append(taken, msg)
			return true
		}
		return false
	})
	return taken
}

// ProtocolError returns the wl_display.error event that the client
// received, if any.
func (c *Client) ProtocolError() (wl.ProtocolError, bool) {
	for _, msg := range c.Events {
		if (msg.Sender() == 1) && (msg.Op() == evDisplayError) {
			perr := wl.ProtocolError{
				Object:  msg.ReadUint(),
				Code:    msg.ReadUint(),
				Message: msg.ReadString(),
			}
			return perr, true
		}
	}
	return wl.ProtocolError{}, false
}

func (c *Client) deleteID(id uint32) {
	if _, ok := c.syncs[id]; ok {
		delete(c.syncs, id)
		return
	}
	c.deleted = append(c.deleted, id)
}

// DeletedIDs returns the IDs acknowledged by wl_display.delete_id
// events, except for those of roundtrip callbacks.
func (c *Client) DeletedIDs() []uint32 {
	return slices.Clone(c.deleted)
}

// Globals creates a registry and returns the globals that it
// advertised by interface name.
func (c *Client) Globals() map[string]wl.GlobalID {
	c.t.Helper()

	c.registry = c.NewID()
	c.Request(1, opDisplayGetRegistry, c.registry)
	require.True(c.t, c.Roundtrip(), "get registry")

	globals := make(map[string]wl.GlobalID)
	for _, msg := range c.Take(c.registry) {
		if msg.Op() != evRegistryGlobal {
			continue
		}
		name := msg.ReadUint()
		iface := msg.ReadString()
		msg.ReadUint()
		globals[iface] = wl.GlobalID(name)
	}
	return globals
}

// Bind binds the global name as iface at the given version. It does
// not wait for the server to process the request.
func (c *Client) Bind(name wl.GlobalID, iface string, version uint32) uint32 {
	c.t.Helper()

	if c.registry == 0 {
		c.Globals()
	}

	id := c.NewID()
	c.Request(c.registry, opRegistryBind, uint32(name), iface, version, id)
	return id
}

// BindInterface binds the global advertised with iface.
func (c *Client) BindInterface(iface string, version uint32) uint32 {
	c.t.Helper()

	name, ok := c.Globals()[iface]
	require.True(c.t, ok, "global %v is not advertised", iface)
	return c.Bind(name, iface, version)
}

// CreateSurface creates a wl_surface through compositor.
func (c *Client) CreateSurface(compositor uint32) uint32 {
	id := c.NewID()
	c.Request(compositor, opCompositorCreateSurface, id)
	return id
}

// CreateRegion creates a wl_region through compositor and adds rects
// to it.
func (c *Client) CreateRegion(compositor uint32, rects ...image.Rectangle) uint32 {
	id := c.NewID()
	c.Request(compositor, opCompositorCreateRegion, id)
	for _, r := range rects {
		c.Request(id, opRegionAdd, int32(r.Min.X), int32(r.Min.Y), int32(r.Dx()), int32(r.Dy()))
	}
	return id
}

// DestroyRegion destroys a region created with CreateRegion.
func (c *Client) DestroyRegion(region uint32) {
	c.Request(region, opRegionDestroy)
}

// Object returns the server's object for id, which must be of type T.
func Object[T wl.Object](c *Client, id uint32) T {
	c.t.Helper()

	obj, ok := c.Remote.Get(id).(T)
	require.True(c.t, ok, "object %v is a %T", id, c.Remote.Get(id))
	return obj
}

type proxy uint32

func (p proxy) ID() uint32                         { return uint32(p) }
func (p proxy) SetID(uint32)                       {}
func (p proxy) Delete()                            {}
func (p proxy) Dispatch(*wire.MessageBuffer) error { return nil }
func (p proxy) MethodName(op uint16) string        { return fmt.Sprint(op) }
func (p proxy) String() string                     { return fmt.Sprintf("proxy@%d", uint32(p)) }

// Close disconnects the client.
func (c *Client) Close() error {
	return c.conn.Close()
}
