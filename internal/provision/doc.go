// Package provision orchestrates guest network access: credential
// generation, router-side provisioning, revocation, expiry cleanup, and
// two-sided reconciliation between the record store and the router's live
// state.
//
// The router and the store offer no transactional guarantees across each
// other, so the service orders its writes to keep failures invisible: a
// record is only persisted after the device accepted the user, and a device
// user left behind by a failed insert is removed best-effort. From the
// caller's perspective an operation either fully happened or left no
// visible record.
//
// Every operation opens its own device session and closes it before
// returning. Mutating operations are serialized through a single-flight
// lock so two multi-command sequences never interleave on related state.
package provision
