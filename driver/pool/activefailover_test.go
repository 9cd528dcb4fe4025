package pool

import (
	"context"
	"sync"
	"testing"

	"github.com/PauloFerreira25/velostream/driver/common"
)

// failoverFixture simulates an active failover deployment: every host
// answers with its configured code, 503 marking a follower.
type failoverFixture struct {
	mu    sync.Mutex
	codes map[common.HostDescription]int
}

func newFailoverFixture(h []common.HostDescription, leader common.HostDescription) *failoverFixture {
	f := &failoverFixture{codes: map[common.HostDescription]int{}}
	for _, host := range h {
		f.codes[host] = 503
	}
	f.codes[leader] = 200
	return f
}

func (f *failoverFixture) setLeader(leader common.HostDescription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for host := range f.codes {
		f.codes[host] = 503
	}
	f.codes[leader] = 200
}

func (f *failoverFixture) respond(host common.HostDescription, _ *common.Request) (*common.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &common.Response{Version: 1, Type: 2, ResponseCode: f.codes[host]}, nil
}

func newFailoverPool(t *testing.T, factory *stubFactory, h []common.HostDescription) ConnectionPool {
	t.Helper()

	p := NewConnectionPool(testCommConfig(common.TopologyActiveFailover, 2), factory.create)
	if err := p.UpdateConnections(context.Background(), h); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	return p
}

// TestFindLeader routes every request to the discovered leader
func TestFindLeader(t *testing.T) {
	h := hosts("h1", "h2", "h3")
	fixture := newFailoverFixture(h, h[1])

	factory := newStubFactory()
	factory.respond = fixture.respond

	p := newFailoverPool(t, factory, h)

	for i := 0; i < 20; i++ {
		resp, err := p.Execute(context.Background(), testRequest(t, "/_api/version"))
		if err != nil {
			t.Fatalf("execute failed: %v", err)
		}
		if resp.ResponseCode != 200 {
			t.Fatalf("expected code 200 from the leader, got %d", resp.ResponseCode)
		}
	}

	// the leader carried all 20 requests
	leaderTraffic := 0
	for _, c := range factory.created(h[1]) {
		leaderTraffic += c.executeCount()
	}
	if leaderTraffic < 20 {
		t.Errorf("expected the leader to carry 20 requests, got %d", leaderTraffic)
	}

	// followers saw at most the discovery probe on their first connection
	for _, host := range []common.HostDescription{h[0], h[2]} {
		for i, c := range factory.created(host) {
			if got := c.executeCount(); got > 1 || (i > 0 && got != 0) {
				t.Errorf("follower %s connection %d served %d requests", host, i, got)
			}
		}
	}
}

// TestLeaderFlip observes a 503, rediscovers and routes the next request to
// the new leader
func TestLeaderFlip(t *testing.T) {
	h := hosts("h1", "h2", "h3")
	fixture := newFailoverFixture(h, h[0])

	factory := newStubFactory()
	factory.respond = fixture.respond

	p := newFailoverPool(t, factory, h)

	// h1 steps down, h2 takes over
	fixture.setLeader(h[1])

	// the stale leader answers 503; the response is surfaced unchanged and
	// triggers the rediscovery
	resp, err := p.Execute(context.Background(), testRequest(t, "/_api/version"))
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if resp.ResponseCode != 503 {
		t.Fatalf("expected the 503 to be surfaced unchanged, got %d", resp.ResponseCode)
	}

	// the next request reaches the new leader
	resp, err = p.Execute(context.Background(), testRequest(t, "/_api/version"))
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if resp.ResponseCode != 200 {
		t.Fatalf("expected code 200 from the new leader, got %d", resp.ResponseCode)
	}

	leaderTraffic := 0
	for _, c := range factory.created(h[1]) {
		leaderTraffic += c.executeCount()
	}
	if leaderTraffic == 0 {
		t.Error("new leader received no traffic")
	}
}

// TestNoLeader fails with a TransportError when every host answers 503
func TestNoLeader(t *testing.T) {
	h := hosts("h1", "h2")
	fixture := newFailoverFixture(h, h[0])

	factory := newStubFactory()
	factory.respond = fixture.respond

	p := newFailoverPool(t, factory, h)

	// the leader disappears entirely
	fixture.mu.Lock()
	for host := range fixture.codes {
		fixture.codes[host] = 503
	}
	fixture.mu.Unlock()

	// first execute surfaces the 503 and unsets the leader
	resp, err := p.Execute(context.Background(), testRequest(t, "/_api/version"))
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if resp.ResponseCode != 503 {
		t.Fatalf("expected 503, got %d", resp.ResponseCode)
	}

	if _, err := p.Execute(context.Background(), testRequest(t, "/_api/version")); !common.IsTransport(err) {
		t.Fatalf("expected TransportError without a leader, got %v", err)
	}
}
