package pool

import (
	"context"

	"github.com/PauloFerreira25/velostream/driver/common"
	"github.com/PauloFerreira25/velostream/driver/connection"
)

// ConnectionFactory creates an uninitialized connection to the given host.
// The pool initializes every connection before exposing it to routing.
type ConnectionFactory func(host common.HostDescription) connection.Connection

// ConnectionPool routes requests to hosts according to the configured
// topology.
type ConnectionPool interface {
	// UpdateConnections reconciles the pool against the given host list:
	// new hosts get their connections created and initialized, removed
	// hosts get theirs closed. A host whose connections fail to initialize
	// is dropped again and reported, without aborting the other hosts.
	UpdateConnections(ctx context.Context, hosts []common.HostDescription) error

	// Execute routes the request to a connection picked per topology
	Execute(ctx context.Context, req *common.Request) (*common.Response, error)

	// Hosts returns the hosts currently contributing connections
	Hosts() []common.HostDescription

	// Close closes every connection of the pool
	Close() error
}

// NewConnectionPool creates a pool for the configured topology
func NewConnectionPool(config *common.CommunicationConfig, factory ConnectionFactory) ConnectionPool {
	base := &connectionPool{
		config:      config,
		factory:     factory,
		connsByHost: map[common.HostDescription][]connection.Connection{},
	}
	if config.Topology == common.TopologyActiveFailover {
		return &activeFailoverPool{connectionPool: base}
	}
	return base
}
