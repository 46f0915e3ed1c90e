// Package retry is the client-side ACK controller.
//
// Deliver sends one message and waits up to Policy.Timeout for a reply,
// resending the identical message until an ACK arrives or Policy.Attempts
// are used up. A timeout or any reply other than ACK consumes one attempt.
// A closed or desynchronized connection ends the loop at once.
//
// The server side has no retry logic; it waits Policy.ServerWait for the
// client's attempts to arrive.
package retry
