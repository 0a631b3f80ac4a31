package wire

// Credentials identify the process that opened a connection.
type Credentials struct {
	PID int32
	UID uint32
	GID uint32
}
