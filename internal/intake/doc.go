// Package intake adapts acquisition lifecycle notifications into calls on the
// interception controller and performs the registration step for completed
// files. The fsnotify-based directory watcher is one concrete event source;
// any subsystem able to report created/name-known/completed can drive the
// Monitor directly.
package intake
