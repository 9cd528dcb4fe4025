package connection

import (
	"context"

	"github.com/PauloFerreira25/velostream/driver/common"
)

// Connection is a single multiplexed channel to one database host.
type Connection interface {
	// Initialize connects, performs the protocol handshake and the
	// authentication exchange. It must be called exactly once before the
	// first Execute; a second call returns a UsageError.
	Initialize(ctx context.Context) error

	// Execute sends the request and awaits its response. Safe for
	// concurrent use; responses may complete out of submission order.
	Execute(ctx context.Context, req *common.Request) (*common.Response, error)

	// IsConnected reports whether the connection currently holds a live
	// session
	IsConnected() bool

	// Host returns the endpoint this connection is bound to
	Host() common.HostDescription

	// Close disposes the connection. Idempotent; in-flight requests fail
	// with a connection-closed error.
	Close() error
}
