// Package preflight validates the runtime environment before the daemon
// starts taking events: directories, the external hashing helper, and free
// disk space on the watched volume.
package preflight
