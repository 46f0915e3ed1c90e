// Package upload implements both halves of the upload flow.
//
// # Client
//
//  1. Seal the file for the server and sign its metadata.
//  2. Send KEY with the wrapped session key and the declared retry budget.
//  3. Require KEY-OK within one timeout. There is no retry on key rejection.
//  4. Deliver DATA through the retry controller until it is acknowledged.
//
// # Server
//
//  1. Unwrap the session key; failure is answered with NACK and ends the flow.
//  2. Reply KEY-OK and wait up to Policy.ServerWait for DATA.
//  3. Check hash, signature, then decrypt; any failure is a bare NACK and the
//     server keeps waiting for the client's next attempt.
//  4. Persist and ACK. A redelivery of the committed DATA (same content hash)
//     is acknowledged again without being processed.
package upload
