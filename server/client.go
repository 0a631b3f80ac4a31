package wl

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"deedles.dev/wlkde/internal/debug"
	"deedles.dev/wlkde/internal/ev"
	"deedles.dev/wlkde/internal/objstore"
	"deedles.dev/wlkde/wire"
	"github.com/sirupsen/logrus"
)

const displayID = 1

// Client is the server side of a single client connection.
type Client struct {
	server     *Server
	done       chan struct{}
	close      sync.Once
	remove     sync.Once
	conn       *wire.Conn
	creds      wire.Credentials
	credsErr   error
	store      *objstore.Store
	queue      *ev.Queue
	registries []*Registry
	errs       []error
	dead       bool
	broken     bool
}

func newClient(server *Server, conn *wire.Conn) *Client {
	client := Client{
		server: server,
		done:   make(chan struct{}),
		conn:   conn,
		store:  objstore.New(objstore.ServerIDStart),
		queue:  ev.NewQueue(),
	}
	client.creds, client.credsErr = conn.Credentials()

	display := Display{}
	NewID{client: &client, id: displayID, version: DisplayVersion}.Init(&display)

	go client.listen()

	return &client
}

func (client *Client) listen() {
	defer client.enqueue(func() error {
		client.destroy()
		return nil
	})

	for {
		msg, err := wire.ReadMessage(client.conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}

			client.enqueue(func() error { return fmt.Errorf("client %v: %w", client, err) })
			return
		}

		if !client.enqueue(func() error { return client.dispatch(msg) }) {
			return
		}
	}
}

// enqueue adds f to the client's queue. It returns false if the client
// has already been removed.
func (client *Client) enqueue(f func() error) bool {
	select {
	case <-client.done:
		return false
	case client.queue.Add() <- f:
		return true
	}
}

func (client *Client) dispatch(msg *wire.MessageBuffer) error {
	defer msg.Close()

	if client.dead {
		return nil
	}

	obj := client.store.Get(msg.Sender())
	if obj == nil {
		return client.fail(ProtocolError{
			Object:  displayID,
			Code:    DisplayErrorInvalidObject,
			Message: wire.UnknownSenderIDError{Sender: msg.Sender(), Op: msg.Op()}.Error(),
		})
	}

	err := obj.Dispatch(msg)
	if debug.Tracing() {
		debug.Printf("%v", msg.Debug(obj))
	}
	if err != nil {
		var unknownOp wire.UnknownOpError
		if errors.As(err, &unknownOp) {
			err = ProtocolError{
				Object:  msg.Sender(),
				Code:    DisplayErrorInvalidMethod,
				Message: err.Error(),
			}
		}
		return client.fail(err)
	}
	return nil
}

// fail posts err to the client, if it is a ProtocolError, and
// disconnects it.
func (client *Client) fail(err error) error {
	var perr ProtocolError
	if !errors.As(err, &perr) {
		perr = ProtocolError{
			Object:  displayID,
			Code:    DisplayErrorImplementation,
			Message: err.Error(),
		}
	}

	client.PostError(perr)
	return fmt.Errorf("client %v: %w", client, err)
}

// PostError sends a fatal protocol error to the client and then
// disconnects it. Requests that have already been received from the
// client are discarded.
func (client *Client) PostError(err ProtocolError) {
	if client.dead {
		return
	}
	client.dead = true

	debug.WithFields(logrus.Fields{
		"client": client,
		"object": err.Object,
		"code":   err.Code,
	}).Warn(err.Message)

	client.Display().Error(err.Object, err.Code, err.Message)
	client.enqueue(func() error {
		client.Close()
		return nil
	})
}

// Send queues msg to be written to the client. Messages are written
// in the order that Send is called, so events always reach the client
// in the order that the requests that caused them were dispatched.
// Send never blocks: a client that stops reading is disconnected once
// its backlog grows past the server's MaxBufferSize, and the failure
// is reported by the next Flush.
func (client *Client) Send(msg *wire.MessageBuilder) {
	if client.broken {
		return
	}
	select {
	case <-client.done:
		return
	default:
	}

	if debug.Tracing() {
		debug.Printf(" -> %v", msg)
	}
	err := client.conn.Enqueue(msg)
	if err != nil {
		client.sendFailed(fmt.Errorf("send %v: %w", msg, err))
		return
	}

	if client.conn.Buffered() <= client.server.maxBufferSize() {
		return
	}
	err = client.conn.Flush()
	if err != nil {
		client.sendFailed(err)
		return
	}
	if client.conn.Buffered() > client.server.maxBufferSize() {
		client.sendFailed(ErrBufferFull)
	}
}

// sendFailed disconnects the client after a write failure. Requests
// that have already been received from it are discarded.
func (client *Client) sendFailed(err error) {
	client.broken = true
	client.dead = true
	if !errors.Is(err, net.ErrClosed) {
		client.errs = append(client.errs, fmt.Errorf("client %v: %w", client, err))
	}
	client.Close()
}

// Get returns the object with the given ID, or nil if there isn't one.
func (client *Client) Get(id uint32) Object {
	obj, _ := client.store.Get(id).(Object)
	return obj
}

// Add adds a server-allocated object to the client's object table,
// assigning it an ID from the server's range.
func (client *Client) Add(obj Object, version uint32) {
	r := obj.resource()
	r.version = version
	r.iface = obj.Interface()
	r.client = client
	client.store.Add(obj)
}

// Destroy removes obj from the client's object table. If the client
// allocated the object's ID, the client is told that the ID may be
// reused.
func (client *Client) Destroy(obj Object) {
	id := obj.ID()
	if client.store.Get(id) != obj {
		return
	}

	client.store.Delete(id)
	if id <= objstore.MaxClientID {
		client.Display().DeleteID(id)
	}
}

func (client *Client) Display() *Display {
	return client.store.Get(displayID).(*Display)
}

// Server returns the server that the client is connected to.
func (client *Client) Server() *Server {
	return client.server
}

// Credentials returns the credentials of the client process as seen
// when it connected. The boolean is false if they couldn't be
// determined.
func (client *Client) Credentials() (wire.Credentials, bool) {
	return client.creds, client.credsErr == nil
}

// Close disconnects the client. Its objects are removed during the
// next flush.
func (client *Client) Close() error {
	var err error
	client.close.Do(func() { err = client.conn.Close() })
	return err
}

func (client *Client) destroy() {
	client.remove.Do(func() {
		client.dead = true
		client.Close()
		client.store.Clear()
		client.registries = nil

		client.server.removeClient(client)

		close(client.done)
		client.queue.Stop()
	})
}

// flush processes all queued requests and writes as much of the
// client's outgoing buffer as its socket accepts.
func (client *Client) flush() (errs []error) {
	select {
	case queue := <-client.queue.Get():
		errs = ev.Flush(queue)
	default:
	}

	if !client.broken {
		err := client.conn.Flush()
		if err != nil {
			client.sendFailed(err)
		}
	}

	errs = append(errs, client.errs...)
	client.errs = nil
	return errs
}

func (client *Client) String() string {
	if client.credsErr != nil {
		return fmt.Sprintf("%p", client)
	}
	return fmt.Sprintf("pid %v", client.creds.PID)
}
