// Package codec translates between the driver's request/response model and
// the VelocyPack envelopes of the VelocyStream protocol.
//
// A request message payload is the concatenation of a VelocyPack array
//
//	[version, type, database, methodCode, path, {query}, {headers}]
//
// and the opaque request body. A response payload starts with
//
//	[version, type, responseCode, {meta}]
//
// (the meta object may be absent) followed by the opaque response body.
// Authentication messages carry
//
//	[version, 1000, "plain", user, password]  or
//	[version, 1000, "jwt", token]
//
// The rest of the driver treats all of these as opaque byte sequences.
package codec
