package wire

import (
	"io"
	"net"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

type testObject uint32

func (obj testObject) ID() uint32                    { return uint32(obj) }
func (obj testObject) SetID(uint32)                  {}
func (obj testObject) Delete()                       {}
func (obj testObject) Dispatch(*MessageBuffer) error { return nil }
func (obj testObject) MethodName(op uint16) string   { return "test" }

func socketpair(t *testing.T) (*Conn, *Conn) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)

	conns := make([]*Conn, 2)
	for i, fd := range fds {
		file := os.NewFile(uintptr(fd), "socketpair")
		c, err := net.FileConn(file)
		file.Close()
		require.NoError(t, err)

		conns[i] = NewConn(c.(*net.UnixConn))
		t.Cleanup(func() { conns[i].Close() })
	}
	return conns[0], conns[1]
}

func TestMessage(t *testing.T) {
	w, r := socketpair(t)

	msg := NewMessage(testObject(7), 3)
	msg.WriteInt(-12)
	msg.WriteUint(0xdeadbeef)
	msg.WriteString("org.example.App")
	msg.WriteString("")
	msg.WriteArray([]byte{1, 2, 3, 4, 5})
	msg.WriteFixed(FixedFloat(1.5))
	msg.WriteObject(nil)
	msg.WriteNewID(NewID{Interface: "wl_surface", Version: 4, ID: 9})
	require.NoError(t, msg.Build(w))

	buf, err := ReadMessage(r)
	require.NoError(t, err)
	defer buf.Close()

	assert.Equal(t, uint32(7), buf.Sender())
	assert.Equal(t, uint16(3), buf.Op())
	assert.Equal(t, int32(-12), buf.ReadInt())
	assert.Equal(t, uint32(0xdeadbeef), buf.ReadUint())
	assert.Equal(t, "org.example.App", buf.ReadString())
	assert.Equal(t, "", buf.ReadString())
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, buf.ReadArray())
	assert.Equal(t, 1.5, buf.ReadFixed().Float())
	assert.Zero(t, buf.ReadUint())
	assert.Equal(t, NewID{Interface: "wl_surface", Version: 4, ID: 9}, buf.ReadNewID())
	require.NoError(t, buf.Err())

	buf.ReadUint()
	assert.ErrorIs(t, buf.Err(), io.ErrUnexpectedEOF)
}

func TestMessageFile(t *testing.T) {
	w, r := socketpair(t)

	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	defer pr.Close()
	defer pw.Close()

	msg := NewMessage(testObject(1), 0)
	msg.WriteFile(pw)
	require.NoError(t, msg.Build(w))

	buf, err := ReadMessage(r)
	require.NoError(t, err)
	defer buf.Close()

	file := buf.ReadFile()
	require.NotNil(t, file)
	defer file.Close()

	_, err = file.Write([]byte("ok"))
	require.NoError(t, err)
	data := make([]byte, 2)
	_, err = io.ReadFull(pr, data)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))

	assert.Nil(t, buf.ReadFile())
	assert.Error(t, buf.Err())
}

func TestMessageFileOrder(t *testing.T) {
	w, r := socketpair(t)

	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	defer pr.Close()
	defer pw.Close()

	first := NewMessage(testObject(1), 0)
	first.WriteUint(1)
	require.NoError(t, w.Enqueue(first))
	second := NewMessage(testObject(1), 1)
	second.WriteFile(pw)
	require.NoError(t, w.Enqueue(second))
	require.NoError(t, w.Flush())
	assert.Zero(t, w.Buffered())

	buf, err := ReadMessage(r)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), buf.ReadUint())
	require.NoError(t, buf.Close())

	buf, err = ReadMessage(r)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), buf.Op())
	file := buf.ReadFile()
	require.NotNil(t, file)
	defer file.Close()
	require.NoError(t, buf.Err())

	_, err = file.Write([]byte("ok"))
	require.NoError(t, err)
	data := make([]byte, 2)
	_, err = io.ReadFull(pr, data)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}

func TestFlushDoesNotBlock(t *testing.T) {
	w, _ := socketpair(t)

	var queued int
	for w.Buffered() == 0 {
		msg := NewMessage(testObject(1), 0)
		msg.WriteArray(make([]byte, 4096))
		require.NoError(t, w.Enqueue(msg))
		queued++
		require.NoError(t, w.Flush())
		require.Less(t, queued, 100000, "socket never filled up")
	}

	assert.NotZero(t, w.Buffered())
	require.NoError(t, w.Close())
	assert.Zero(t, w.Buffered())
}

func TestStringTooLong(t *testing.T) {
	w, r := socketpair(t)

	msg := NewMessage(testObject(1), 0)
	msg.WriteUint(100)
	require.NoError(t, msg.Build(w))

	buf, err := ReadMessage(r)
	require.NoError(t, err)
	assert.Equal(t, "", buf.ReadString())
	assert.ErrorIs(t, buf.Err(), io.ErrUnexpectedEOF)
}

func TestMessageTooLarge(t *testing.T) {
	w, _ := socketpair(t)

	msg := NewMessage(testObject(1), 0)
	msg.WriteArray(make([]byte, MaxMessageSize))
	assert.Error(t, msg.Build(w))
}

func TestFixed(t *testing.T) {
	assert.Equal(t, 3, FixedInt(3).Int())
	assert.Equal(t, 0, FixedInt(3).Frac())
	assert.Equal(t, -2, FixedFloat(-1.5).Int())
	assert.Equal(t, 128, FixedFloat(-1.5).Frac())
	assert.Equal(t, "0.25", FixedFloat(0.25).String())
}

func TestPadding(t *testing.T) {
	assert.Equal(t, uint32(0), padding(0))
	assert.Equal(t, uint32(3), padding(1))
	assert.Equal(t, uint32(0), padding(4))
	assert.Equal(t, uint32(2), padding(6))
}
