// Package client is the user-facing entry point of the driver. It resolves
// the configured host list, constructs the executor fleet and the topology
// pool, and exposes a single Execute for structured requests.
package client
