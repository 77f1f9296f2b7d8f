// Package models provides shared data structures for topoctl.
//
// This package contains the payloads exchanged with the SDN controller REST
// API and the handles used to refer to realized resources. The topology
// builder, the controller client and the controller emulator all import it,
// which keeps the wire vocabulary in one place.
//
// The models in this package represent:
//   - Tunnel zones and their host members
//   - Bridges, bridge ports and host interface bindings
//   - Routers, router ports and port links
//   - Rule chains and NAT rules
//   - BGP sessions and advertised routes
//   - Tenants and hosts known to the controller
//
// All payload structs carry JSON tags matching the controller API and
// validate tags checked by the emulator before accepting a resource.
package models
