package ports

import "context"

// Conn is a live handle to one remote process variable. Read blocks until
// the current scalar value arrives or the context deadline expires; a
// deadline is the only way a slow read returns early.
type Conn interface {
	Read(ctx context.Context) (float64, error)
}

// Dialer opens named channels on whatever transport backs the beamline
// (OPC UA gateway, Modbus bridge, simulators in tests). Implementations
// may share one session across channels; Close tears the session down.
type Dialer interface {
	Dial(ctx context.Context, address string) (Conn, error)
	Close(ctx context.Context) error
}
