// Package similarity provides the name-normalization and edit-distance
// scoring primitives used by the duplicate resolver. Everything here is pure:
// no state, no failure modes.
package similarity
