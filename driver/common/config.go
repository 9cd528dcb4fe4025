package common

import (
	"crypto/tls"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Topology
// --------------------------------------------------------------------------

// Topology is the deployment shape the connection pool routes under.
type Topology uint8

const (
	TopologySingleServer Topology = iota
	TopologyActiveFailover
	TopologyCluster
)

// String returns the string representation of a Topology.
func (t Topology) String() string {
	switch t {
	case TopologySingleServer:
		return "single_server"
	case TopologyActiveFailover:
		return "active_failover"
	case TopologyCluster:
		return "cluster"
	default:
		return "unknown"
	}
}

// ParseTopology converts a string to a Topology
func ParseTopology(s string) (Topology, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "single_server":
		return TopologySingleServer, nil
	case "active_failover", "failover":
		return TopologyActiveFailover, nil
	case "cluster":
		return TopologyCluster, nil
	default:
		return 0, fmt.Errorf("invalid topology %q. must be one of single_server, active_failover, cluster", s)
	}
}

// --------------------------------------------------------------------------
// Connection configuration struct
// --------------------------------------------------------------------------

const (
	DefaultTimeout   = 30 * time.Second
	DefaultChunkSize = 30000
	DefaultTTL       = 5 * time.Minute
)

// ConnectionConfig holds the parameters of a single VST connection.
type ConnectionConfig struct {
	// Timeout bounds every end-to-end operation (initialize, execute, close)
	Timeout time.Duration

	// ChunkSize is the maximum content bytes per VST chunk, must exceed the
	// 24 byte chunk header
	ChunkSize int

	// TTL recycles an idle connected session after this age, 0 disables
	TTL time.Duration

	// TLS settings. TLSConfig is only applied when UseTLS is set.
	UseTLS    bool
	TLSConfig *tls.Config
}

// Validate checks the connection parameters and fills in defaults
func (c *ConnectionConfig) Validate() error {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkSize <= 24 {
		return fmt.Errorf("chunk size must be greater than the 24 byte chunk header, got %d", c.ChunkSize)
	}
	if c.UseTLS && c.TLSConfig == nil {
		c.TLSConfig = &tls.Config{}
	}
	return nil
}

// --------------------------------------------------------------------------
// Communication configuration struct
// --------------------------------------------------------------------------

// CommunicationConfig holds all configuration parameters of the driver.
type CommunicationConfig struct {
	// Hosts is the non-empty seed list of database servers
	Hosts []HostDescription

	// ConnectionsPerHost is the number of connections the pool maintains
	// per host (at least 1)
	ConnectionsPerHost int

	// Topology selects the routing strategy
	Topology Topology

	// Authentication is the method used on every connection, nil for none
	Authentication AuthenticationMethod

	// Executors is the size of the single-goroutine executor fleet,
	// defaults to the number of CPUs
	Executors int

	// Connection holds the per-connection parameters
	Connection ConnectionConfig
}

// Validate checks the communication parameters and fills in defaults
func (c *CommunicationConfig) Validate() error {
	if len(c.Hosts) == 0 {
		return fmt.Errorf("at least one host must be configured")
	}
	if c.ConnectionsPerHost < 1 {
		c.ConnectionsPerHost = 1
	}
	return c.Connection.Validate()
}

// String returns a formatted string representation of the configuration
func (c *CommunicationConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Communication")
	addField("Topology", c.Topology.String())
	addField("Connections Per Host", strconv.Itoa(c.ConnectionsPerHost))
	addField("Executors", strconv.Itoa(c.Executors))
	if c.Authentication != nil {
		addField("Authentication", c.Authentication.Name())
	} else {
		addField("Authentication", "none")
	}

	addSection("Connection")
	addField("Timeout", c.Connection.Timeout.String())
	addField("Chunk Size", fmt.Sprintf("%d bytes", c.Connection.ChunkSize))
	addField("TTL", c.Connection.TTL.String())
	addField("TLS", fmt.Sprintf("%t", c.Connection.UseTLS))

	addSection("Hosts")
	for i, host := range c.Hosts {
		addField(strconv.Itoa(i), host.String())
	}

	return sb.String()
}
