// Package procfind locates the OS process bound to a listening address,
// used by the supervisor's attach path. Discovery runs two strategies in
// order: a bounded-parallel scan of every process's connection table, then a
// fallback over the system-wide TCP table for sockets whose owner could not
// be inspected process-by-process. Processes that cannot be inspected
// (permission denied, already exited, zombie) are not a match, never an
// error.
package procfind
