// Package metrics holds the prometheus collectors for cipherxfer.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without a registry in tests.
package metrics
