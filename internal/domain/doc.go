// Package domain contains the core business entities and domain logic of
// the application: generation tasks, their lifecycle state machine, and the
// settings snapshot they carry. It is independent of any specific
// infrastructure or delivery mechanism.
package domain
