package wl

import (
	"deedles.dev/wlkde/internal/set"
	"deedles.dev/wlkde/wire"
)

// Display is the wl_display singleton that every client starts with.
type Display struct {
	Resource
}

func (d *Display) Interface() string {
	return DisplayInterface
}

func (d *Display) MethodName(op uint16) string {
	return RequestName(displayRequests[:], op)
}

func (d *Display) Dispatch(msg *wire.MessageBuffer) error {
	args := NewArgs(d, msg)

	switch msg.Op() {
	case opDisplaySync:
		id := args.NewID()
		if err := args.Err(); err != nil {
			return err
		}

		var cb Callback
		id.Init(&cb)
		cb.Done(d.client.server.NextSerial())
		return nil

	case opDisplayGetRegistry:
		id := args.NewID()
		if err := args.Err(); err != nil {
			return err
		}

		r := Registry{advertised: make(set.Set[GlobalID])}
		id.Init(&r)
		d.client.registries = append(d.client.registries, &r)
		for _, g := range d.client.server.sortedGlobals() {
			r.advertise(g)
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: DisplayInterface, Type: "request", Op: msg.Op()}
	}
}

// Error sends a wl_display.error event. Most code should use
// Client.PostError instead, which also disconnects the client.
func (d *Display) Error(object, code uint32, message string) {
	msg := NewEvent(d, evDisplayError, "error", object, code, message)
	msg.WriteUint(object)
	msg.WriteUint(code)
	msg.WriteString(message)
	d.client.Send(msg)
}

// DeleteID acknowledges the destruction of a client-allocated object.
func (d *Display) DeleteID(id uint32) {
	msg := NewEvent(d, evDisplayDeleteId, "delete_id", id)
	msg.WriteUint(id)
	d.client.Send(msg)
}

// Callback is a wl_callback. It has no requests and is destroyed by
// sending its done event.
type Callback struct {
	Resource
}

func (cb *Callback) Interface() string {
	return CallbackInterface
}

func (cb *Callback) MethodName(op uint16) string {
	return RequestName(nil, op)
}

func (cb *Callback) Dispatch(msg *wire.MessageBuffer) error {
	return wire.UnknownOpError{Interface: CallbackInterface, Type: "request", Op: msg.Op()}
}

// Done sends the callback's done event and destroys it.
func (cb *Callback) Done(data uint32) {
	if !cb.Alive() {
		return
	}

	msg := NewEvent(cb, evCallbackDone, "done", data)
	msg.WriteUint(data)
	cb.client.Send(msg)
	cb.client.Destroy(cb)
}
