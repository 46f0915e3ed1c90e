// Package commands defines the cipherxfer CLI and wires dependencies for subcommands.
//
// Commands
//
//   - upload <path>     Encrypt, sign and push a file to the server
//   - download <name>   Fetch a file and store it under --download-dir
//   - keygen            Create (or load) the client and server identities
//   - fingerprint       Print both public key fingerprints
//   - checklist         Print the protocol feature checklist
//
// # Implementation
//
// The root command resolves the configuration (defaults, then --config YAML,
// then flags) and builds the logger and dependency graph before any
// subcommand runs, so handlers share one app.Wire.
package commands
