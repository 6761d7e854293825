// Package api implements the HTTP and WebSocket handlers exposed by the
// server: task submission and inspection, image registry access,
// configuration views, and the live task-update stream.
package api
