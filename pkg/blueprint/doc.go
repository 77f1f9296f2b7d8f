// Package blueprint describes a virtual network topology as a YAML
// document and turns it into an ordered build plan of topology entities.
//
// A blueprint names tenants and hosts symbolically. Tenants are resolved
// to controller identifiers before Build; hosts are given by identifier in
// the document and checked by the caller. Apply realizes the plan in
// document order inside a caller-supplied transaction and stops at the
// first error, leaving rollback to the caller.
package blueprint
