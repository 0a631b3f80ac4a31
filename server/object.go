package wl

import (
	"fmt"

	"deedles.dev/wlkde/internal/objstore"
	"deedles.dev/wlkde/wire"
)

// Object is a protocol object in a client's object table. Types
// implement it by embedding Resource and providing Interface,
// Dispatch, and MethodName.
type Object interface {
	wire.Object

	// Interface returns the protocol interface name of the object.
	Interface() string

	resource() *Resource
}

// Resource holds the state common to every object in a client's
// object table.
type Resource struct {
	id       uint32
	version  uint32
	iface    string
	client   *Client
	deleted  bool
	onDelete []func()
}

func (r *Resource) resource() *Resource {
	return r
}

func (r *Resource) ID() uint32 {
	return r.id
}

func (r *Resource) SetID(id uint32) {
	r.id = id
}

// Version is the version of the interface that the client is using
// for this object.
func (r *Resource) Version() uint32 {
	return r.version
}

// Client returns the client that owns the object.
func (r *Resource) Client() *Client {
	return r.client
}

// Alive reports whether the object is still in its client's object
// table.
func (r *Resource) Alive() bool {
	return (r.client != nil) && !r.deleted
}

// OnDelete registers f to be called when the object is removed from
// its client's object table, either because it was destroyed or
// because the client disconnected. Functions are called in the
// reverse of the order in which they were registered.
func (r *Resource) OnDelete(f func()) {
	r.onDelete = append(r.onDelete, f)
}

// Delete implements wire.Object. It should not be called directly.
// Use Client.Destroy instead.
func (r *Resource) Delete() {
	if r.deleted {
		return
	}
	r.deleted = true

	for i := len(r.onDelete) - 1; i >= 0; i-- {
		r.onDelete[i]()
	}
	r.onDelete = nil
}

func (r *Resource) String() string {
	return fmt.Sprintf("%v@%v", r.iface, r.id)
}

// RequestName returns the name of the request with opcode op from a
// generated table of request names. It is meant for implementing
// Object.MethodName.
func RequestName(names []string, op uint16) string {
	if int(op) < len(names) {
		return names[op]
	}
	return fmt.Sprintf("unknown_%v", op)
}

// NewID is a client-allocated object ID that has been validated but
// not yet bound to an object.
type NewID struct {
	client  *Client
	id      uint32
	version uint32
}

func (id NewID) ID() uint32 {
	return id.id
}

// Version is the interface version that the new object will have.
func (id NewID) Version() uint32 {
	return id.version
}

func (id NewID) Client() *Client {
	return id.client
}

// Init binds obj to the ID and adds it to the client's object table.
// It must be called exactly once per NewID.
func (id NewID) Init(obj Object) {
	r := obj.resource()
	r.id = id.id
	r.version = id.version
	r.iface = obj.Interface()
	r.client = id.client
	id.client.store.Add(obj)
}

// Args decodes the arguments of a message sent to an object. Decoding
// stops at the first error, which Err then reports as a ProtocolError.
type Args struct {
	obj    Object
	client *Client
	msg    *wire.MessageBuffer
	err    error
}

// NewArgs returns an argument decoder for msg, which was sent to obj.
func NewArgs(obj Object, msg *wire.MessageBuffer) *Args {
	return &Args{
		obj:    obj,
		client: obj.resource().client,
		msg:    msg,
	}
}

func (args *Args) failed() bool {
	return (args.err != nil) || (args.msg.Err() != nil)
}

func (args *Args) fail(code uint32, format string, a ...any) {
	if args.err != nil {
		return
	}
	args.err = ProtocolError{
		Object:  displayID,
		Code:    code,
		Message: fmt.Sprintf(format, a...),
	}
}

func (args *Args) Int() int32 {
	return args.msg.ReadInt()
}

func (args *Args) Uint() uint32 {
	return args.msg.ReadUint()
}

func (args *Args) String() string {
	return args.msg.ReadString()
}

// NewID reads a typed new_id argument. The new object will have the
// same version as the object the message was sent to.
func (args *Args) NewID() NewID {
	return args.newID(args.obj.resource().version)
}

// UntypedNewID reads a new_id argument that carries its own interface
// name and version, as used by wl_registry.bind.
func (args *Args) UntypedNewID() (string, NewID) {
	iface := args.msg.ReadString()
	version := args.msg.ReadUint()
	return iface, args.newID(version)
}

func (args *Args) newID(version uint32) NewID {
	id := args.msg.ReadUint()
	if args.failed() {
		return NewID{}
	}

	if (id == 0) || (id > objstore.MaxClientID) || args.client.store.Has(id) {
		args.fail(DisplayErrorInvalidObject, "invalid new id %v", id)
		return NewID{}
	}

	return NewID{client: args.client, id: id, version: version}
}

// Err returns the first error encountered while decoding.
func (args *Args) Err() error {
	if args.err != nil {
		return args.err
	}
	if err := args.msg.Err(); err != nil {
		return ProtocolError{
			Object:  displayID,
			Code:    DisplayErrorInvalidMethod,
			Message: wire.ArgError{Interface: args.obj.Interface(), Method: args.obj.MethodName(args.msg.Op()), Err: err}.Error(),
		}
	}
	return nil
}

// ReadObject reads an object argument and resolves it in the client's
// object table. A null object yields the zero value of T if nullable
// is true and is an error otherwise.
func ReadObject[T Object](args *Args, nullable bool) (v T) {
	id := args.msg.ReadUint()
	if args.failed() {
		return v
	}

	if id == 0 {
		if !nullable {
			args.fail(DisplayErrorInvalidMethod, "null object passed to non-nullable argument of %v.%v", args.obj, args.obj.MethodName(args.msg.Op()))
		}
		return v
	}

	obj := args.client.store.Get(id)
	if obj == nil {
		args.fail(DisplayErrorInvalidObject, "unknown object (%v), message %v.%v", id, args.obj, args.obj.MethodName(args.msg.Op()))
		return v
	}

	v, ok := obj.(T)
	if !ok {
		args.fail(DisplayErrorInvalidObject, "invalid object (%v), type (%v), message %v.%v", id, obj, args.obj, args.obj.MethodName(args.msg.Op()))
		return v
	}
	return v
}

// ProtocolError is a fatal error caused by a client violating the
// protocol. The client is sent a wl_display.error event and then
// disconnected.
type ProtocolError struct {
	Object  uint32
	Code    uint32
	Message string
}

func (err ProtocolError) Error() string {
	return fmt.Sprintf("protocol error %v on object %v: %v", err.Code, err.Object, err.Message)
}

// NewEvent starts building an event sent from obj. The name and args
// are kept for debugging output.
func NewEvent(obj Object, op uint16, name string, args ...any) *wire.MessageBuilder {
	msg := wire.NewMessage(obj, op)
	msg.Method = name
	msg.Args = args
	return msg
}
