// Package connection implements the VST connection state machine.
//
// A connection owns one TCP (optionally TLS) socket and moves between the
// states DISCONNECTED, CONNECTING and CONNECTED. All mutable state - the
// state enum, the live socket, the message id counter and the receiver's
// assembly table - is affine to the single executor the connection is bound
// to: it is only touched from tasks scheduled there. Callers may invoke
// Execute from any goroutine; concurrent requests are multiplexed over the
// one socket and correlated back by message id through the MessageStore.
//
// Errors on the socket reset the connection: every in-flight request fails
// with the triggering error, the message id counter returns to zero and the
// socket is discarded. The connection does not reconnect on its own; the
// next Execute triggers a fresh connect.
package connection
