package pool

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/PauloFerreira25/velostream/driver/common"
)

// currentDatabaseRequest probes a host for leadership: followers of an
// active failover deployment answer 503 on it.
func currentDatabaseRequest() *common.Request {
	req, _ := common.NewRequest("_system", common.RequestTypeGet, "/_api/database/current")
	return req
}

// --------------------------------------------------------------------------
// Active failover pool
// --------------------------------------------------------------------------

// activeFailoverPool routes every request to the discovered leader host.
type activeFailoverPool struct {
	*connectionPool

	leader atomic.Pointer[common.HostDescription]
}

// --------------------------------------------------------------------------
// Interface Methods (docu see interface.go)
// --------------------------------------------------------------------------

func (p *activeFailoverPool) UpdateConnections(ctx context.Context, hosts []common.HostDescription) error {
	p.mu.Lock()
	err := p.updateConnectionsLocked(ctx, hosts)
	p.mu.Unlock()

	p.findLeader(ctx)
	return err
}

func (p *activeFailoverPool) Execute(ctx context.Context, req *common.Request) (*common.Response, error) {
	leader := p.leader.Load()
	if leader == nil {
		return nil, common.NewTransportError("route", errors.New("leader not reachable"))
	}
	conns := p.connectionsFor(*leader)
	if len(conns) == 0 {
		return nil, common.NewTransportError("route", errors.New("leader not reachable"))
	}

	resp, err := p.randomOf(conns).Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.ResponseCode == 503 {
		// the leader stepped down, rediscover before surfacing the
		// unchanged response
		p.findLeader(ctx)
	}
	return resp, nil
}

// --------------------------------------------------------------------------
// Leader discovery
// --------------------------------------------------------------------------

// findLeader probes every host of the map and records the first one not
// answering 503 as the leader. When no host qualifies the leader is unset.
func (p *activeFailoverPool) findLeader(ctx context.Context) {
	for _, host := range p.hostsSnapshot() {
		conns := p.connectionsFor(host)
		if len(conns) == 0 {
			continue
		}
		resp, err := conns[0].Execute(ctx, currentDatabaseRequest())
		if err != nil {
			Logger.Debugf("leader probe on %s failed: %v", host, err)
			continue
		}
		if resp.ResponseCode != 503 {
			Logger.Infof("leader is %s", host)
			h := host
			p.leader.Store(&h)
			return
		}
	}

	Logger.Warningf("no leader found")
	p.leader.Store(nil)
}
