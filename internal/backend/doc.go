// Package backend implements the per-client adapters behind the supervisor's
// uniform control surface. Each adapter knows one client's RPC dialect for
// test-control operations (time travel, mining, snapshot/revert, account
// unlocking) and how to spawn that client's process; the Registry maps launch
// command prefixes and reported client-version strings to the right adapter.
//
// Adapters are stateless strategy values selected once per session. The one
// exception is the ganache adapter's cached major version, sniffed in
// OnConnection because ganache changed its unlock dialect in v7.
package backend
