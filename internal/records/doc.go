// Package records owns the durable collection of registered downloads: the
// FileRecord model, the Store contract the engine consumes, and the SQLite
// implementation shipped with the daemon.
//
// A FileRecord is immutable once inserted; updates happen only as
// delete-plus-insert. Reads are not transactional with respect to concurrent
// writers: a record inserted while a resolve is in flight may or may not be
// visible, which is acceptable because duplicate detection is advisory.
package records
