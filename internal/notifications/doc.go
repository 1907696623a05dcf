// Package notifications pushes operator alerts through ntfy. When no topic is
// configured every notification is a silent no-op.
package notifications
