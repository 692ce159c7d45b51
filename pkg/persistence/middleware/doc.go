// Package middleware decorates a ports.SessionStore.
//
// Encryption seals whole snapshots with AES-GCM and supports key rotation; redaction keeps
// the reading position of sensitive documents out of storage. Chain composes them:
//
//	store := middleware.Chain(file.New(dir), redact, seal)
package middleware
