// Package netutil provides network address handling for chainenv.
// It parses the two attach-address forms accepted by the supervisor
// (a URI string or an explicit host/port pair) and resolves hostnames
// to the concrete IP that process discovery matches socket tables against.
package netutil
