// Package pool maintains a fixed number of connections per database host
// and routes requests according to the deployment topology.
//
// Under SINGLE_SERVER and CLUSTER a request goes to a random connection of
// a random host. Under ACTIVE_FAILOVER all requests go to the discovered
// leader; a 503 response triggers a leader re-discovery before the response
// is handed back unchanged.
package pool
