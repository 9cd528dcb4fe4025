package pool

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/lni/dragonboat/v4/logger"

	"github.com/PauloFerreira25/velostream/driver/common"
	"github.com/PauloFerreira25/velostream/driver/connection"
)

var Logger = logger.GetLogger("pool")

// --------------------------------------------------------------------------
// Base pool
// --------------------------------------------------------------------------

// connectionPool is the base implementation routing to a random connection
// of a random host. It serves SINGLE_SERVER and CLUSTER directly and is
// embedded by the ACTIVE_FAILOVER pool.
type connectionPool struct {
	config  *common.CommunicationConfig
	factory ConnectionFactory

	mu          sync.RWMutex
	connsByHost map[common.HostDescription][]connection.Connection
}

// --------------------------------------------------------------------------
// Interface Methods (docu see interface.go)
// --------------------------------------------------------------------------

func (p *connectionPool) UpdateConnections(ctx context.Context, hosts []common.HostDescription) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updateConnectionsLocked(ctx, hosts)
}

func (p *connectionPool) Execute(ctx context.Context, req *common.Request) (*common.Response, error) {
	conn, err := p.randomConnection()
	if err != nil {
		return nil, err
	}
	return conn.Execute(ctx, req)
}

func (p *connectionPool) Hosts() []common.HostDescription {
	return p.hostsSnapshot()
}

func (p *connectionPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var wg sync.WaitGroup
	for host, conns := range p.connsByHost {
		for _, conn := range conns {
			wg.Add(1)
			go func(conn connection.Connection) {
				defer wg.Done()
				_ = conn.Close()
			}(conn)
		}
		delete(p.connsByHost, host)
	}
	wg.Wait()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// updateConnectionsLocked reconciles the host map. Callers hold p.mu.
func (p *connectionPool) updateConnectionsLocked(ctx context.Context, hosts []common.HostDescription) error {
	wanted := map[common.HostDescription]bool{}
	for _, host := range hosts {
		wanted[host] = true
	}

	// close connections of removed hosts in parallel
	var closeWg sync.WaitGroup
	for host, conns := range p.connsByHost {
		if wanted[host] {
			continue
		}
		Logger.Infof("removing host %s from pool", host)
		for _, conn := range conns {
			closeWg.Add(1)
			go func(conn connection.Connection) {
				defer closeWg.Done()
				_ = conn.Close()
			}(conn)
		}
		delete(p.connsByHost, host)
	}

	// add missing hosts in parallel, all-or-nothing per host
	type hostResult struct {
		host  common.HostDescription
		conns []connection.Connection
		err   error
	}

	var additions []common.HostDescription
	for _, host := range hosts {
		if _, ok := p.connsByHost[host]; !ok {
			additions = append(additions, host)
		}
	}

	results := make(chan hostResult, len(additions))
	for _, host := range additions {
		go func(host common.HostDescription) {
			conns, err := p.connectHost(ctx, host)
			results <- hostResult{host: host, conns: conns, err: err}
		}(host)
	}

	var errs []error
	for range additions {
		r := <-results
		if r.err != nil {
			Logger.Warningf("host %s contributed no connections: %v", r.host, r.err)
			errs = append(errs, fmt.Errorf("host %s: %w", r.host, r.err))
			continue
		}
		Logger.Infof("added host %s with %d connections", r.host, len(r.conns))
		p.connsByHost[r.host] = r.conns
	}

	closeWg.Wait()
	return errors.Join(errs...)
}

// connectHost creates and initializes the configured number of connections
// for one host. Either all succeed or none are kept.
func (p *connectionPool) connectHost(ctx context.Context, host common.HostDescription) ([]connection.Connection, error) {
	n := p.config.ConnectionsPerHost
	conns := make([]connection.Connection, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		conns[i] = p.factory(host)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = conns[i].Initialize(ctx)
		}(i)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		for _, conn := range conns {
			_ = conn.Close()
		}
		return nil, err
	}
	return conns, nil
}

// randomConnection picks a random connection of a random host
func (p *connectionPool) randomConnection() (connection.Connection, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.connsByHost) == 0 {
		return nil, common.NewTransportError("route", errors.New("no host reachable"))
	}

	hosts := make([]common.HostDescription, 0, len(p.connsByHost))
	for host := range p.connsByHost {
		hosts = append(hosts, host)
	}
	conns := p.connsByHost[hosts[rand.Intn(len(hosts))]]
	return conns[rand.Intn(len(conns))], nil
}

// randomOf picks a random connection from a non-empty list
func (p *connectionPool) randomOf(conns []connection.Connection) connection.Connection {
	return conns[rand.Intn(len(conns))]
}

// connectionsFor returns a snapshot of the connections of one host
func (p *connectionPool) connectionsFor(host common.HostDescription) []connection.Connection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connsByHost[host]
}

// hostsSnapshot returns the hosts currently in the map
func (p *connectionPool) hostsSnapshot() []common.HostDescription {
	p.mu.RLock()
	defer p.mu.RUnlock()

	hosts := make([]common.HostDescription, 0, len(p.connsByHost))
	for host := range p.connsByHost {
		hosts = append(hosts, host)
	}
	return hosts
}
