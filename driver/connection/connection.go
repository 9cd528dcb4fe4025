package connection

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lni/dragonboat/v4/logger"

	"github.com/PauloFerreira25/velostream/driver/codec"
	"github.com/PauloFerreira25/velostream/driver/common"
	"github.com/PauloFerreira25/velostream/driver/scheduler"
	"github.com/PauloFerreira25/velostream/driver/vst"
)

var Logger = logger.GetLogger("connection")

// connectionState tracks the lifecycle of the underlying session
type connectionState uint8

const (
	stateDisconnected connectionState = iota
	stateConnecting
	stateConnected
)

// sessionWaiter is invoked on the bound executor once a connect attempt
// settles, with either a live socket or the connect error
type sessionWaiter func(net.Conn, error)

// --------------------------------------------------------------------------
// vstConnection
// --------------------------------------------------------------------------

// vstConnection implements Connection over the VelocyStream protocol.
type vstConnection struct {
	host   common.HostDescription
	auth   common.AuthenticationMethod
	config common.ConnectionConfig

	exec     *scheduler.Executor
	store    *MessageStore
	receiver *vst.Receiver

	// latches, both transition false -> true exactly once
	initialized atomic.Bool
	closing     atomic.Bool

	closed    chan struct{}
	closeOnce sync.Once

	// state below is mutated only on the bound executor
	state       connectionState
	current     net.Conn
	connectedAt time.Time
	mID         uint64
	waiters     []sessionWaiter
}

// NewVstConnection creates a connection to the given host, bound to the
// next executor of the fleet. The connection is unusable until Initialize.
func NewVstConnection(
	host common.HostDescription,
	auth common.AuthenticationMethod,
	config common.ConnectionConfig,
	fleet *scheduler.Fleet,
) Connection {
	c := &vstConnection{
		host:   host,
		auth:   auth,
		config: config,
		exec:   fleet.Next(),
		store:  NewMessageStore(),
		closed: make(chan struct{}),
	}
	c.receiver = vst.NewReceiver(func(messageID uint64, payload []byte) {
		if err := c.store.Resolve(messageID, payload); err != nil {
			c.handleErrorLocked(err)
		}
	})
	return c
}

// endpointsRequest probes the server when no authentication is configured.
// Any response code but 401 passes: single server deployments answer 404 on
// this cluster-only endpoint.
func endpointsRequest() *common.Request {
	req, _ := common.NewRequest("_system", common.RequestTypeGet, "/_api/cluster/endpoints")
	return req
}

// --------------------------------------------------------------------------
// Interface Methods (docu see interface.go)
// --------------------------------------------------------------------------

func (c *vstConnection) Host() common.HostDescription {
	return c.host
}

func (c *vstConnection) Initialize(ctx context.Context) error {
	if !c.initialized.CompareAndSwap(false, true) {
		return &common.UsageError{Reason: "connection already initialized"}
	}

	// drive a connect attempt and await it
	errCh := make(chan error, 1)
	if err := c.exec.Schedule(func() {
		c.ensureSession(func(_ net.Conn, err error) {
			errCh <- err
		})
	}); err != nil {
		return err
	}

	timer := time.NewTimer(c.config.Timeout)
	defer timer.Stop()
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-timer.C:
		c.handleError(&common.TimeoutError{Op: "initialize"})
		return &common.TimeoutError{Op: "initialize"}
	case <-ctx.Done():
		return ctx.Err()
	}

	// without a VST authentication exchange the server's expectations are
	// unknown, verify with a probe request
	if c.auth == nil {
		resp, err := c.Execute(ctx, endpointsRequest())
		if err != nil {
			return err
		}
		if resp.ResponseCode == 401 {
			return &common.AuthenticationError{Code: 401}
		}
	}
	return nil
}

func (c *vstConnection) Execute(ctx context.Context, req *common.Request) (*common.Response, error) {
	if c.closing.Load() {
		return nil, &common.UsageError{Reason: "execute on closed connection"}
	}

	payload, err := codec.EncodeRequestPayload(req)
	if err != nil {
		return nil, err
	}

	resCh := make(chan result, 1)
	schedErr := c.exec.Schedule(func() {
		c.ensureSession(func(conn net.Conn, err error) {
			if err != nil {
				resCh <- result{err: err}
				return
			}
			ch := c.sendLocked(conn, payload)
			go forward(ch, resCh)
		})
	})
	if schedErr != nil {
		return nil, schedErr
	}

	common.CountRequest(c.host)

	timer := time.NewTimer(c.config.Timeout)
	defer timer.Stop()
	select {
	case r := <-resCh:
		if r.err != nil {
			common.CountRequestError(c.host)
		}
		return r.resp, r.err
	case <-timer.C:
		common.CountRequestError(c.host)
		err := &common.TimeoutError{Op: "execute"}
		c.handleError(err)
		return nil, err
	case <-ctx.Done():
		// the request stays on the wire; the eventual response is
		// discarded through the slot's buffered channel
		common.CountRequestError(c.host)
		return nil, ctx.Err()
	}
}

func (c *vstConnection) IsConnected() bool {
	ch := make(chan bool, 1)
	if err := c.exec.Schedule(func() {
		ch <- c.state == stateConnected
	}); err != nil {
		return false
	}
	return <-ch
}

func (c *vstConnection) Close() error {
	if c.closing.CompareAndSwap(false, true) {
		if err := c.exec.Schedule(func() {
			if c.state == stateDisconnected {
				c.receiver.Clear()
				c.completeClose()
				return
			}
			// disposing the session fails the in-flight requests and, with the
			// closing latch set, completes the close
			c.handleErrorLocked(common.ErrConnectionClosed)
		}); err != nil {
			c.completeClose()
		}
	}

	timer := time.NewTimer(c.config.Timeout)
	defer timer.Stop()
	select {
	case <-c.closed:
		return nil
	case <-timer.C:
		return &common.TimeoutError{Op: "close"}
	}
}

// --------------------------------------------------------------------------
// Session management (bound executor only)
// --------------------------------------------------------------------------

// ensureSession invokes cb with a live socket, starting or joining a
// connect attempt when necessary. Must run on the bound executor.
func (c *vstConnection) ensureSession(cb sessionWaiter) {
	if c.closing.Load() {
		cb(nil, common.ErrConnectionClosed)
		return
	}

	switch c.state {
	case stateConnected:
		if c.expired() {
			Logger.Debugf("%s: recycling session after TTL", c.host)
			c.recycleLocked()
			// fall through into a fresh connect
		} else {
			cb(c.current, nil)
			return
		}
	case stateConnecting:
		c.waiters = append(c.waiters, cb)
		return
	}

	c.state = stateConnecting
	c.waiters = append(c.waiters, cb)
	go c.dial()
}

// expired reports whether the current session outlived its TTL and no
// traffic is pending on it
func (c *vstConnection) expired() bool {
	return c.config.TTL > 0 &&
		time.Since(c.connectedAt) > c.config.TTL &&
		c.store.Len() == 0 &&
		c.receiver.PendingMessages() == 0
}

// recycleLocked tears the idle session down without failing anything
func (c *vstConnection) recycleLocked() {
	if c.current != nil {
		_ = c.current.Close()
		c.current = nil
	}
	c.receiver.Clear()
	c.mID = 0
	c.state = stateDisconnected
}

// dial establishes the TCP/TLS session, performs the protocol handshake and
// the authentication exchange. It runs on its own goroutine; every state
// mutation is scheduled back onto the bound executor.
func (c *vstConnection) dial() {
	Logger.Debugf("%s: connecting", c.host)

	dialer := net.Dialer{Timeout: c.config.Timeout}
	conn, err := dialer.Dial("tcp", c.host.Address())
	if err != nil {
		c.handleError(common.NewTransportError("connect", err))
		return
	}

	if c.config.UseTLS {
		tlsConn := tls.Client(conn, c.config.TLSConfig)
		if err := tlsConn.Handshake(); err != nil {
			_ = conn.Close()
			c.handleError(common.NewTransportError("tls handshake", err))
			return
		}
		conn = tlsConn
	}

	if err := c.write(conn, vst.ProtocolHeader); err != nil {
		_ = conn.Close()
		c.handleError(common.NewTransportError("handshake", err))
		return
	}

	// attach the socket and start the reader before any response can be
	// expected
	if err := c.exec.Schedule(func() {
		if c.closing.Load() || c.state != stateConnecting {
			_ = conn.Close()
			return
		}
		c.current = conn
		go c.readLoop(conn)
	}); err != nil {
		_ = conn.Close()
		return
	}

	if err := c.authenticate(conn); err != nil {
		// reset before the socket closes: the reader's resulting read error
		// then finds a replaced session and cannot overtake err
		if schedErr := c.exec.Schedule(func() {
			c.handleErrorLocked(err)
			_ = conn.Close()
		}); schedErr != nil {
			_ = conn.Close()
		}
		return
	}

	// promote to CONNECTED and release the waiters
	_ = c.exec.Schedule(func() {
		if c.state != stateConnecting || c.current != conn {
			_ = conn.Close()
			return
		}
		c.state = stateConnected
		c.connectedAt = time.Now()
		common.CountConnect(c.host)
		Logger.Infof("%s: connected", c.host)
		c.flushWaiters(conn, nil)
	})
}

// authenticate performs the VST authentication exchange on the fresh
// socket. Called from the dial goroutine; returns nil when no
// authentication is configured.
func (c *vstConnection) authenticate(conn net.Conn) error {
	if c.auth == nil {
		return nil
	}

	payload, err := c.auth.AuthenticationMessage()
	if err != nil {
		return err
	}

	resCh := make(chan result, 1)
	if err := c.exec.Schedule(func() {
		ch := c.sendLocked(conn, payload)
		go forward(ch, resCh)
	}); err != nil {
		return err
	}

	timer := time.NewTimer(c.config.Timeout)
	defer timer.Stop()
	select {
	case r := <-resCh:
		if r.err != nil {
			return r.err
		}
		if r.resp.ResponseCode != 200 {
			Logger.Warningf("%s: authentication rejected with code %d", c.host, r.resp.ResponseCode)
			return &common.AuthenticationError{Code: r.resp.ResponseCode}
		}
		return nil
	case <-timer.C:
		return &common.TimeoutError{Op: "authentication"}
	}
}

// sendLocked allocates the next message id, registers the completion slot
// and writes the chunked message. Must run on the bound executor. A write
// failure resets the connection, which also fails the fresh slot.
func (c *vstConnection) sendLocked(conn net.Conn, payload []byte) chan result {
	c.mID++
	id := c.mID
	ch := c.store.Add(id)

	buf := vst.EncodeMessage(id, payload, c.config.ChunkSize)
	if err := c.write(conn, buf); err != nil {
		c.handleErrorLocked(common.NewTransportError("write", err))
	}
	return ch
}

// write pushes buf onto the socket under the configured deadline
func (c *vstConnection) write(conn net.Conn, buf []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(c.config.Timeout)); err != nil {
		return err
	}
	n, err := conn.Write(buf)
	common.CountBytesWritten(c.host, n)
	return err
}

// readLoop pumps inbound bytes from the socket onto the bound executor.
// Each slice is defensively copied before it crosses goroutines.
func (c *vstConnection) readLoop(conn net.Conn) {
	buf := make([]byte, 64*1024)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			common.CountBytesRead(c.host, n)
			data := make([]byte, n)
			copy(data, buf[:n])
			if schedErr := c.exec.Schedule(func() {
				if c.current != conn {
					// stale reader of a replaced session
					return
				}
				if perr := c.receiver.HandleBytes(data); perr != nil {
					c.handleErrorLocked(perr)
				}
			}); schedErr != nil {
				return
			}
		}
		if err != nil {
			readErr := common.NewTransportError("read", err)
			_ = c.exec.Schedule(func() {
				if c.current != conn {
					return
				}
				c.handleErrorLocked(readErr)
			})
			return
		}
	}
}

// --------------------------------------------------------------------------
// Error handling
// --------------------------------------------------------------------------

// handleError schedules a connection reset onto the bound executor
func (c *vstConnection) handleError(err error) {
	_ = c.exec.Schedule(func() {
		c.handleErrorLocked(err)
	})
}

// handleErrorLocked resets the connection: every pending completion fails
// with err, the receiver and the message id counter are reset and the
// session is discarded. No-op when already DISCONNECTED. Must run on the
// bound executor.
func (c *vstConnection) handleErrorLocked(err error) {
	if c.state == stateDisconnected {
		if c.closing.Load() {
			c.completeClose()
		}
		return
	}
	Logger.Debugf("%s: resetting connection: %v", c.host, err)

	c.state = stateDisconnected
	c.receiver.Clear()
	c.store.Clear(err)
	c.mID = 0
	if c.current != nil {
		_ = c.current.Close()
		c.current = nil
	}
	c.flushWaiters(nil, err)
	common.CountReset(c.host)

	if c.closing.Load() {
		c.completeClose()
	}
}

// flushWaiters settles every queued session waiter
func (c *vstConnection) flushWaiters(conn net.Conn, err error) {
	waiters := c.waiters
	c.waiters = nil
	for _, w := range waiters {
		w(conn, err)
	}
}

func (c *vstConnection) completeClose() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

// forward relays a slot completion into the caller-facing channel
func forward(from chan result, to chan result) {
	to <- <-from
}
