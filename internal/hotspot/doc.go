// Package hotspot expresses the hotspot-user management surface of the
// router as domain operations over a RouterOS command runner.
//
// The gateway is deliberately thin: every operation maps to one or two API
// commands, replies parse into small structs, and "expected" outcomes that
// callers handle (a duplicate name on create, a missing user on remove) come
// back as typed errors distinguishable with IsConflict and IsNotFound rather
// than as generic failures.
//
// Cross-cutting concerns (logging, retries) belong to the caller or to a
// wrapper around the Runner; the gateway does not subclass or self-decorate.
package hotspot
