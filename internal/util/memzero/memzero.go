// Package memzero wipes key material held in byte slices.
package memzero

import "runtime"

// Zero overwrites b with zeros. The write is kept alive so it is not
// optimised away when b is about to become unreachable.
func Zero(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}
