// Package driver implements a client driver for document databases speaking
// the VelocyStream (VST) binary protocol over TCP, optionally with TLS.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures shared across the driver, including the
//     request/response model, host descriptions, configuration structures,
//     the error taxonomy, logging and metrics.
//
//   - codec: VelocyPack encoding of request heads and authentication
//     payloads, and decoding of response envelopes.
//
//   - vst: The VelocyStream framing layer. Splits outgoing messages into
//     chunks and reassembles incoming chunks into messages, supporting
//     arbitrary interleaving of concurrent messages on one TCP stream.
//
//   - scheduler: A bounded fleet of single-goroutine executors. Every
//     connection binds to exactly one executor, which owns all of its
//     mutable state.
//
//   - connection: The VST connection state machine (disconnected,
//     connecting, connected) with the message store correlating in-flight
//     requests to responses by message id.
//
//   - pool: The topology-aware connection pool routing requests to hosts
//     under SINGLE_SERVER, ACTIVE_FAILOVER or CLUSTER deployments.
//
//   - client: The user-facing communication façade tying the pieces
//     together.
package driver
