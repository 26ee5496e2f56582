// Package session tracks the authenticated identity bound to each connection
// and the process-wide registry used for duplicate-login detection.
package session

import "github.com/aserdan/citadel/internal/core/data"

// Session is the authenticated-identity binding for one connection. A Session
// appears in the Registry exactly as long as its connection is authorized and
// not disconnected.
//
// Fields are written by the owning connection before registration and by the
// Registry (under its lock) afterwards; other goroutines must only observe a
// Session through Registry operations.
type Session struct {
	// ID is assigned by the Registry on successful registration.
	ID          uint32
	AccountID   uint64
	Username    string
	DisplayName string
	Rights      data.Rights
	Authorized  bool
	Ended       bool
}
