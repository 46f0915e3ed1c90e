// Command xferd is the cipherxfer server.
//
// It listens on --host:--port, answers one upload or download per
// connection and keeps uploaded files in --storage-dir, either one file per
// name (--storage-backend dir) or in a badger database (--storage-backend
// badger). Flags mirror the YAML keys accepted by --config.
//
// When --metrics-addr is set, prometheus metrics are served at /metrics on
// that address.
//
// SIGINT or SIGTERM stops accepting connections; in-flight transfers are
// allowed to finish.
package main
