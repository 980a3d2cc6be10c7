// Package storage persists small string values across client runs, the way a
// browser keeps them in local storage.
package storage

import "context"

// Fixed keys shared by the session and archive code.
const (
	KeyToken      = "lsToken"
	KeyUserID     = "userIDToken"
	KeyUserEmail  = "userEmail"
	KeyIsAdmin    = "isAdmin"
	KeyIsLoggedIn = "isLoggedIn"
	KeyTickets    = "tickets"
)

// Store is a persistent string key/value store
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(keys ...string) error
}

// Watcher is implemented by stores that can report modifications made by
// other processes.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}
