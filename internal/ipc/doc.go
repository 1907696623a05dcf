// Package ipc exposes daemon control and the acquisition event feed as
// JSON-RPC over a Unix domain socket.
package ipc
