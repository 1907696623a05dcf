// Package intercept owns the per-acquisition interception lifecycle.
//
// Every observed acquisition gets its own state machine instance that walks
// created -> awaiting name -> suspended -> awaiting fingerprint and ends in
// resumed, blocked, or ignored. The controller suspends the acquisition at the
// source, asks the oracle for a content fingerprint, consults the duplicate
// resolver, and either blocks with a pending-override descriptor or replays
// the acquisition with a one-shot override flag so the replay is not
// intercepted again.
//
// The whole verification path fails open: any error resolves toward letting
// the acquisition proceed, never toward an indefinite block.
package intercept
