package client

import (
	"context"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"

	"github.com/PauloFerreira25/velostream/driver/common"
	"github.com/PauloFerreira25/velostream/driver/connection"
	"github.com/PauloFerreira25/velostream/driver/pool"
	"github.com/PauloFerreira25/velostream/driver/scheduler"
)

var Logger = logger.GetLogger("client")

// Communication is the driver façade. It owns the executor fleet and the
// connection pool and routes every request through them.
type Communication interface {
	// Initialize connects to the configured seed hosts. Must be called
	// exactly once before the first Execute.
	Initialize(ctx context.Context) error

	// Execute routes the request according to the configured topology
	Execute(ctx context.Context, req *common.Request) (*common.Response, error)

	// Close shuts the pool and the executor fleet down
	Close() error
}

// communication implements Communication
type communication struct {
	config      common.CommunicationConfig
	fleet       *scheduler.Fleet
	pool        pool.ConnectionPool
	initialized atomic.Bool
	closed      atomic.Bool
}

// New creates a Communication from the given configuration. The
// configuration is validated and defaults are filled in.
func New(config common.CommunicationConfig) (Communication, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &communication{
		config: config,
		fleet:  scheduler.NewFleet(config.Executors),
	}
	c.pool = pool.NewConnectionPool(&c.config, func(host common.HostDescription) connection.Connection {
		return connection.NewVstConnection(host, c.config.Authentication, c.config.Connection, c.fleet)
	})

	Logger.Debugf("created communication: %s", config.String())
	return c, nil
}

// --------------------------------------------------------------------------
// Interface Methods
// --------------------------------------------------------------------------

func (c *communication) Initialize(ctx context.Context) error {
	if !c.initialized.CompareAndSwap(false, true) {
		return &common.UsageError{Reason: "communication already initialized"}
	}

	err := c.pool.UpdateConnections(ctx, c.config.Hosts)
	if err == nil {
		return nil
	}
	if len(c.pool.Hosts()) == 0 {
		return err
	}

	// a partially reachable deployment stays usable
	Logger.Warningf("some hosts contributed no connections: %v", err)
	return nil
}

func (c *communication) Execute(ctx context.Context, req *common.Request) (*common.Response, error) {
	if c.closed.Load() {
		return nil, &common.UsageError{Reason: "execute on closed communication"}
	}
	return c.pool.Execute(ctx, req)
}

func (c *communication) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := c.pool.Close()
	c.fleet.Shutdown()
	return err
}
