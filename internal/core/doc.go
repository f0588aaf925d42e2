// Package core provides the internal implementation of the chainenv
// supervisor: the single-session lifecycle state machine (launch, attach,
// kill), the bounded connect-and-verify poll, the cross-process session
// lock, and the exit-time cleanup hook that prevents orphaned backend
// processes.
package core
