//go:build !linux

package wire

import "errors"

// Credentials returns the credentials of the process on the other end
// of the connection. Only Linux is currently supported.
func (c *Conn) Credentials() (Credentials, error) {
	return Credentials{}, errors.ErrUnsupported
}
