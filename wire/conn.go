package wire

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"deedles.dev/wlkde/internal/set"
	"golang.org/x/sys/unix"
)

func xdgRuntimeDir() string {
	dir, ok := os.LookupEnv("XDG_RUNTIME_DIR")
	if ok {
		return dir
	}
	return fmt.Sprintf("/var/run/user/%v", os.Getuid())
}

// SocketPath determines the path to the Wayland Unix domain socket
// based on the contents of the $WAYLAND_DISPLAY environment variable.
// It does not attempt to determine if the value corresponds to an
// actual socket.
func SocketPath() string {
	v, ok := os.LookupEnv("WAYLAND_DISPLAY")
	if !ok {
		v = "wayland-0"
	}
	return socketPath(v)
}

func socketPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(xdgRuntimeDir(), name)
}

// NewSocketPath attempts to generate a valid path for opening a new
// socket to listen on.
func NewSocketPath() (string, error) {
	dir := xdgRuntimeDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	names := make(set.Set[int], len(entries))
	for _, ent := range entries {
		after, ok := strings.CutPrefix(ent.Name(), "wayland-")
		if !ok {
			continue
		}
		after = strings.TrimSuffix(after, ".lock")
		n, err := strconv.ParseInt(after, 10, 0)
		if err != nil {
			continue
		}
		names.Add(int(n))
	}

	var num int
	for names.Has(num) {
		num++
	}

	return filepath.Join(dir, fmt.Sprintf("wayland-%v", num)), nil
}

// Listen opens a new socket for clients to connect to at the first
// unused wayland-N path in $XDG_RUNTIME_DIR.
func Listen() (*net.UnixListener, error) {
	path, err := NewSocketPath()
	if err != nil {
		return nil, fmt.Errorf("find socket path: %w", err)
	}
	return ListenPath(path)
}

// ListenPath opens a new socket for clients to connect to. If path is
// relative, it is interpreted relative to $XDG_RUNTIME_DIR.
func ListenPath(path string) (*net.UnixListener, error) {
	lis, err := net.ListenUnix("unix", &net.UnixAddr{Name: socketPath(path), Net: "unix"})
	if err != nil {
		return nil, err
	}
	lis.SetUnlinkOnClose(true)
	return lis, nil
}

// Conn represents a low-level Wayland connection. It is not generally
// used directly, instead being handled automatically by a State
// implementation.
type Conn struct {
	conn *net.UnixConn

	// in holds received file descriptors until a message claims them.
	in fdQueue

	outm   sync.Mutex
	out    bytes.Buffer
	outFDs []int
}

// NewConn creates a new Conn that wraps c. After this is called, use
// the provided Close method to close c instead of calling its own
// Close method.
func NewConn(c *net.UnixConn) *Conn {
	return &Conn{
		conn: c,
	}
}

// Close closes the underlying connection along with any file
// descriptors that were received but never claimed or queued but
// never sent.
func (c *Conn) Close() error {
	err := c.conn.Close()

	c.outm.Lock()
	defer c.outm.Unlock()

	fds := c.outFDs
	c.outFDs = nil
	c.out.Reset()

	return errors.Join(err, closeFDs(fds), c.in.close())
}

// Enqueue appends mb to the connection's outgoing buffer without
// writing anything to the socket. Call Flush to send it. The
// MessageBuilder should not be used again after this method is
// called.
func (c *Conn) Enqueue(mb *MessageBuilder) error {
	defer mb.close()

	data, fds, err := mb.encode()
	if err != nil {
		return err
	}

	c.outm.Lock()
	defer c.outm.Unlock()

	c.out.Write(data)
	c.outFDs = append(c.outFDs, fds...)
	return nil
}

// Buffered returns the number of bytes in the outgoing buffer.
func (c *Conn) Buffered() int {
	c.outm.Lock()
	defer c.outm.Unlock()

	return c.out.Len()
}

// Flush writes as much of the outgoing buffer as the socket will
// accept without blocking. Whatever doesn't fit stays buffered for the
// next call.
func (c *Conn) Flush() error {
	c.outm.Lock()
	defer c.outm.Unlock()

	for c.out.Len() > 0 {
		fds := c.outFDs[:min(len(c.outFDs), maxFDs)]
		var oob []byte
		if len(fds) > 0 {
			oob = unix.UnixRights(fds...)
		}

		n, err := c.sendmsg(c.out.Bytes(), oob)
		if errors.Is(err, unix.EAGAIN) {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		// The kernel takes the descriptors along with the first byte.
		closeFDs(fds)
		c.outFDs = c.outFDs[len(fds):]
		c.out.Next(n)
	}

	return nil
}

func (c *Conn) sendmsg(p, oob []byte) (n int, err error) {
	raw, err := c.conn.SyscallConn()
	if err != nil {
		return 0, err
	}

	rerr := raw.Write(func(fd uintptr) bool {
		n, err = unix.SendmsgN(int(fd), p, oob, nil, unix.MSG_DONTWAIT)
		return true
	})
	if rerr != nil {
		return 0, rerr
	}
	return n, err
}

// fdQueue holds file descriptors received on a connection. Descriptors
// arrive with whichever bytes happen to be read alongside them, so
// they are handed out in order to the messages that ask for them
// instead of being tied to the message being read when they arrived.
type fdQueue struct {
	m   sync.Mutex
	fds []int
}

func (q *fdQueue) push(fds ...int) {
	q.m.Lock()
	defer q.m.Unlock()

	q.fds = append(q.fds, fds...)
}

func (q *fdQueue) pop() (int, bool) {
	q.m.Lock()
	defer q.m.Unlock()

	if len(q.fds) == 0 {
		return -1, false
	}
	fd := q.fds[0]
	q.fds = q.fds[1:]
	return fd, true
}

func (q *fdQueue) close() error {
	q.m.Lock()
	defer q.m.Unlock()

	fds := q.fds
	q.fds = nil
	return closeFDs(fds)
}

// SetReadDeadline sets the deadline for future message reads.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// Dial opens a connection to the Wayland socket based on the current
// environment. It follows the procedure outlined at
// https://wayland-book.com/protocol-design/wire-protocol.html#transports
func Dial() (*Conn, error) {
	if v, ok := os.LookupEnv("WAYLAND_SOCKET"); ok {
		fd, err := strconv.ParseInt(v, 10, 0)
		if err != nil {
			return nil, fmt.Errorf("parse WAYLAND_SOCKET fd: %w", err)
		}
		file := os.NewFile(uintptr(fd), "WAYLAND_SOCKET")
		defer file.Close()

		c, err := net.FileConn(file)
		if err != nil {
			return nil, fmt.Errorf("open WAYLAND_SOCKET connection: %w", err)
		}
		uc, ok := c.(*net.UnixConn)
		if !ok {
			c.Close()
			return nil, fmt.Errorf("WAYLAND_SOCKET is a %T, not a Unix socket", c)
		}
		return NewConn(uc), nil
	}

	s, err := net.Dial("unix", SocketPath())
	if err != nil {
		return nil, err
	}
	return NewConn(s.(*net.UnixConn)), nil
}
