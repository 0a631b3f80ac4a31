// Package wl implements the server side of the Wayland protocol: the
// client connections, their object tables, the registry of globals,
// and the core objects that protocol extensions attach to.
//
// All requests are dispatched, and all listeners and bind functions
// called, from within Server.Flush, so a compositor that calls Flush
// from a single goroutine never needs to synchronize its own state.
package wl

import (
	"errors"
	"net"
	"sync"

	"deedles.dev/wlkde/internal/ev"
	"deedles.dev/wlkde/internal/set"
	"deedles.dev/wlkde/wire"
)

//go:generate go run deedles.dev/wlkde/cmd/wlgen -pkg wl -prefix wl_ -out protocol.go -xml ../protocol/xml/wayland.xml

// Listener is notified about clients connecting and disconnecting.
type Listener interface {
	Client(*Client)
	ClientRemove(*Client)
}

// DefaultMaxBufferSize is the default limit, in bytes, on the events
// waiting to be written to a single client.
const DefaultMaxBufferSize = 4096

// ErrBufferFull is reported when a client is disconnected because it
// stopped reading events.
var ErrBufferFull = errors.New("outgoing buffer is full")

type Server struct {
	// Listener, if not nil, is notified about client connections.
	Listener Listener

	// MaxBufferSize limits how many bytes of events may wait for a
	// client that isn't reading them. If it is zero,
	// DefaultMaxBufferSize is used.
	MaxBufferSize int

	done     chan struct{}
	close    sync.Once
	lis      *net.UnixListener
	clients  set.Set[*Client]
	globals  map[GlobalID]*Global
	nextName GlobalID
	serial   uint32
	queue    *ev.Queue
}

// ListenAndServe creates a server listening on a newly created socket
// in $XDG_RUNTIME_DIR.
func ListenAndServe() (*Server, error) {
	lis, err := wire.Listen()
	if err != nil {
		return nil, err
	}
	return NewServer(lis), nil
}

// NewServer creates a server that accepts clients from lis. If lis is
// nil, clients can only be added with AddClient.
func NewServer(lis *net.UnixListener) *Server {
	server := Server{
		done:    make(chan struct{}),
		lis:     lis,
		clients: make(set.Set[*Client]),
		globals: make(map[GlobalID]*Global),
		queue:   ev.NewQueue(),
	}
	if lis != nil {
		go server.listen()
	}

	return &server
}

func (server *Server) listen() {
	for {
		c, err := server.lis.AcceptUnix()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}

			select {
			case <-server.done:
				return
			case server.queue.Add() <- func() error { return err }:
				continue
			}
		}

		select {
		case <-server.done:
			c.Close()
			return
		case server.queue.Add() <- func() error { server.AddClient(c); return nil }:
		}
	}
}

// Addr returns the address that the server is listening on, or nil.
func (server *Server) Addr() net.Addr {
	if server.lis == nil {
		return nil
	}
	return server.lis.Addr()
}

// AddClient starts serving a client on an already connected socket.
// It must be called from the goroutine that calls Flush.
func (server *Server) AddClient(c *net.UnixConn) *Client {
	client := newClient(server, wire.NewConn(c))
	server.clients.Add(client)
	if server.Listener != nil {
		server.Listener.Client(client)
	}
	return client
}

func (server *Server) removeClient(client *Client) {
	if !server.clients.Has(client) {
		return
	}
	server.clients.Remove(client)
	if server.Listener != nil {
		server.Listener.ClientRemove(client)
	}
}

func (server *Server) maxBufferSize() int {
	if server.MaxBufferSize <= 0 {
		return DefaultMaxBufferSize
	}
	return server.MaxBufferSize
}

// Clients returns the number of connected clients.
func (server *Server) Clients() int {
	return len(server.clients)
}

// NextSerial returns a new serial number for events that need one.
func (server *Server) NextSerial() uint32 {
	server.serial++
	return server.serial
}

// Flush accepts pending connections, dispatches every request that
// has been received since the last flush, and writes queued events to
// every client that can take them without blocking. It returns all errors encountered, including
// protocol errors that caused clients to be disconnected.
func (server *Server) Flush() error {
	var errs []error
	select {
	case queue := <-server.queue.Get():
		errs = ev.Flush(queue)
	default:
	}

	for client := range server.clients {
		errs = append(errs, client.flush()...)
	}
	return errors.Join(errs...)
}

// Close stops accepting clients and disconnects all existing ones.
func (server *Server) Close() error {
	var err error
	server.close.Do(func() {
		close(server.done)
		if server.lis != nil {
			err = server.lis.Close()
		}
		for client := range server.clients {
			client.destroy()
		}
		server.queue.Stop()
	})
	return err
}
