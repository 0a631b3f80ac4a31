package wire

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Credentials returns the credentials of the process on the other end
// of the connection, as recorded by the kernel when it connected.
func (c *Conn) Credentials() (Credentials, error) {
	raw, err := c.conn.SyscallConn()
	if err != nil {
		return Credentials{}, err
	}

	var cred *unix.Ucred
	var credErr error
	err = raw.Control(func(fd uintptr) {
		cred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if err := errors.Join(err, credErr); err != nil {
		return Credentials{}, err
	}

	return Credentials{PID: cred.Pid, UID: cred.Uid, GID: cred.Gid}, nil
}
