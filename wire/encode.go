package wire

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"runtime"

	"deedles.dev/wlkde/internal/bin"
	"golang.org/x/sys/unix"
)

// MessageBuilder is a message that is under construction.
type MessageBuilder struct {
	// Method is the name of the method being called. It is included
	// purely for debugging purposes.
	Method string

	// Args is the original set of arguments passed to the function from
	// which this MessageBuilder was generated. It is included purely
	// for debugging purposes.
	Args []any

	sender Object
	op     uint16
	data   bytes.Buffer
	fds    []int
	err    error
}

func NewMessage(sender Object, op uint16) *MessageBuilder {
	return &MessageBuilder{
		sender: sender,
		op:     op,
	}
}

func (mb *MessageBuilder) Sender() Object {
	return mb.sender
}

func (mb *MessageBuilder) Op() uint16 {
	return mb.op
}

func (mb *MessageBuilder) WriteInt(v int32) {
	if mb.err != nil {
		return
	}

	mb.err = bin.Write(&mb.data, v)
}

func (mb *MessageBuilder) WriteUint(v uint32) {
	if mb.err != nil {
		return
	}

	mb.err = bin.Write(&mb.data, v)
}

// WriteObject writes the ID of v, or 0 if v is nil.
func (mb *MessageBuilder) WriteObject(v Object) {
	var id uint32
	if !isNil(v) {
		id = v.ID()
	}
	mb.WriteUint(id)
}

func (mb *MessageBuilder) WriteNewID(v NewID) {
	if mb.err != nil {
		return
	}

	mb.WriteString(v.Interface)
	mb.WriteUint(v.Version)
	mb.WriteUint(v.ID)
}

func (mb *MessageBuilder) WriteFixed(v Fixed) {
	if mb.err != nil {
		return
	}

	mb.err = bin.Write(&mb.data, v)
}

func (mb *MessageBuilder) WriteString(v string) {
	if mb.err != nil {
		return
	}

	pad := padding(uint32(len(v) + 1))
	bin.Write(&mb.data, uint32(len(v)+1))
	mb.data.WriteString(v)
	mb.data.WriteByte(0)
	for i := uint32(0); i < pad; i++ {
		mb.data.WriteByte(0)
	}
}

func (mb *MessageBuilder) WriteArray(v []byte) {
	if mb.err != nil {
		return
	}

	pad := padding(uint32(len(v)))
	bin.Write(&mb.data, uint32(len(v)))
	mb.data.Write(v)
	for i := uint32(0); i < pad; i++ {
		mb.data.WriteByte(0)
	}
}

// WriteFile duplicates the file descriptor of v so that it can be
// sent along with the message. The original may be closed afterwards.
func (mb *MessageBuilder) WriteFile(v *os.File) {
	if mb.err != nil {
		return
	}

	fd, err := unix.Dup(int(v.Fd()))
	if err != nil {
		mb.err = err
		return
	}

	if len(mb.fds) == 0 {
		runtime.SetFinalizer(mb, (*MessageBuilder).close)
	}

	mb.fds = append(mb.fds, fd)
}

// Build builds the message and writes it to c, blocking until the
// write completes. The MessageBuilder should not be used again after
// this method is called.
func (mb *MessageBuilder) Build(c *Conn) error {
	defer mb.close()

	data, fds, err := mb.encode()
	if err != nil {
		return err
	}
	defer closeFDs(fds)

	var oob []byte
	if len(fds) > 0 {
		oob = unix.UnixRights(fds...)
	}

	_, _, err = c.conn.WriteMsgUnix(data, oob, nil)
	return err
}

// encode returns the message in its wire format along with the file
// descriptors to send with it. The caller becomes responsible for
// closing the file descriptors.
func (mb *MessageBuilder) encode() ([]byte, []int, error) {
	if mb.err != nil {
		return nil, nil, mb.err
	}

	length := uint32(8 + mb.data.Len())
	if length > MaxMessageSize {
		return nil, nil, fmt.Errorf("message %v is too large: %v bytes", mb, length)
	}

	msg := bytes.NewBuffer(make([]byte, 0, length))
	bin.Write(msg, mb.sender.ID())
	bin.Write(msg, (length<<16)|uint32(mb.op))
	msg.Write(mb.data.Bytes())

	fds := mb.fds
	mb.fds = nil
	runtime.SetFinalizer(mb, nil)

	return msg.Bytes(), fds, nil
}

func (mb *MessageBuilder) close() {
	err := closeFDs(mb.fds)
	if mb.err == nil {
		mb.err = err
	}
	mb.fds = nil
	runtime.SetFinalizer(mb, nil)
}

func closeFDs(fds []int) error {
	errs := make([]error, 0, len(fds))
	for _, fd := range fds {
		errs = append(errs, unix.Close(fd))
	}
	return errors.Join(errs...)
}

func (mb *MessageBuilder) String() string {
	return fmt.Sprintf("%v.%v(%v)", mb.sender, mb.Method, formatArgs(mb.Args))
}

func isNil(v Object) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return (rv.Kind() == reflect.Pointer) && rv.IsNil()
}
