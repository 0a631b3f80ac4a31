// Package wire defines types helpful for dealing with the Wayland
// wire protocol. It is primarly intended for usage by generated code.
package wire

import (
	"errors"
	"io"
	"net"

	"golang.org/x/sys/unix"
)

// MaxMessageSize is the largest message, header included, that the
// protocol can describe.
const MaxMessageSize = 1<<16 - 1

// unixTee reads from c, but also reads out-of-band data
// simultaneously, writing it into oob.
type unixTee struct {
	c   *net.UnixConn
	oob io.Writer
}

func (t unixTee) Read(buf []byte) (int, error) {
	oob := make([]byte, unix.CmsgSpace(maxFDs*4))
	n, oobn, _, _, err := t.c.ReadMsgUnix(buf, oob)
	_, ooberr := t.oob.Write(oob[:oobn])
	return n, errors.Join(err, ooberr)
}

// maxFDs is the number of file descriptors libwayland allows in a
// single message.
const maxFDs = 28

func padding(length uint32) uint32 {
	return (4 - length%4) % 4
}

// NewID is the decoded form of an untyped new_id argument, which
// carries the interface and version of the object being created along
// with its ID.
type NewID struct {
	Interface string
	Version   uint32
	ID        uint32
}

// Object represents a Wayland protocol object.
type Object interface {
	// ID returns the object's ID, or 0 if it has not been assigned one
	// yet.
	ID() uint32

	// SetID assigns the object's ID.
	SetID(id uint32)

	// Delete is called when the object is removed from its object
	// table.
	Delete()

	// Dispatch pertforms the operation requested by the message in the
	// buffer.
	Dispatch(msg *MessageBuffer) error

	// MethodName returns the name of the request with the given
	// opcode. It is used for debugging.
	MethodName(op uint16) string
}
