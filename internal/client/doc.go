// Package client runs one transfer per connection against an xferd server.
//
// Every Upload or Download dials, performs the handshake, runs the flow and
// closes the connection. Calls are sequential; the only suspension points
// are framed reads and writes bounded by the configured timeout.
// Cancelling the context closes the connection.
package client
