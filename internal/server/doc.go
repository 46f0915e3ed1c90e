// Package server accepts cipherxfer connections and runs one flow on each.
//
// Every accepted connection is handled on its own goroutine: handshake,
// first message dispatch (KEY starts an upload, DOWNLOAD a download), then
// close. Connections share only the read-only keyring and the blob store.
// A failure or panic in one handler ends that connection alone.
//
// Serve stops accepting when its context is cancelled and waits for
// in-flight connections to finish.
package server
