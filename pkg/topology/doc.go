// Package topology describes virtual network resources declaratively and
// realizes them against the controller.
//
// Each entity (TunnelZone, Bridge, Chain, Router, RouterPort, BGP, ...) holds
// the attributes of one controller resource and, once realized, the
// identifier the controller assigned to it. Realization is depth-first and
// strictly sequential: a parent is created, its undo action is registered
// with the transaction, and only then are its children created, each
// receiving the already realized parent as a typed argument. Rolling the
// transaction back therefore removes children before parents.
//
// The first failed creation stops the cascade and is returned as a
// *RealizationError. Everything created up to that point is recorded in the
// transaction; the caller decides whether to roll it back.
package topology
