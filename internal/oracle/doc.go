// Package oracle talks to the external content-fingerprint helper.
//
// The helper is a long-lived subprocess that hashes files on request. Requests
// and responses travel over its stdin/stdout as length-prefixed JSON frames.
// The helper is advisory only: any failure here surfaces as ErrUnavailable and
// callers are expected to fail open rather than block on it.
package oracle
