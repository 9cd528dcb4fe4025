// Package common provides the core data structures and utilities shared by
// all driver subpackages: host descriptions, the immutable request and
// response model, the configuration structures with their pretty-printers,
// the driver error taxonomy, logging setup and metrics counters.
package common
