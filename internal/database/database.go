// Package database is the data access layer. Every domain operation maps to
// parameterized statements, multi-statement operations run in a single
// transaction. Authorization is the caller's job; the only scoping done here
// is owner/author columns baked into WHERE clauses as a second line of
// defense.
package database

import (
	"errors"
	"sync"
)

var (
	// ErrNoChanges is reported by partial updates that name zero fields.
	ErrNoChanges = errors.New("no changes")

	// ErrAlreadyMember is the non-exceptional outcome of a duplicate join.
	ErrAlreadyMember = errors.New("already a member")
)

var serverLocksMutex sync.Mutex
var serverLocks = make(map[int64]*sync.Mutex)

// serverLock serializes channel position writes per server. The max(position)
// read and the insert that follows it would race under concurrent writers
// otherwise.
func serverLock(serverID int64) *sync.Mutex {
	serverLocksMutex.Lock()
	defer serverLocksMutex.Unlock()

	lock, exists := serverLocks[serverID]
	if !exists {
		lock = &sync.Mutex{}
		serverLocks[serverID] = lock
	}
	return lock
}
