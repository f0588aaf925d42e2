// Package process spawns, observes, and terminates the backend child process.
//
// It defines Handle, which wraps either a process launched by this program
// (spawned through Spawn, with captured output and a single Wait goroutine)
// or a foreign process attached by PID. Handle exposes the attributes the
// supervisor needs (pid, parent, children, liveness re-queried from the OS)
// and KillTree, the force-kill teardown that takes children down first and
// tolerates processes that are already gone.
package process
