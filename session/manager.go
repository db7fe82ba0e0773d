package session

import (
	"sync"

	"github.com/leobot/leo/core"
)

// Manager is a volatile per-user session registry. It is safe for concurrent
// access; distinct users proceed in parallel while turns for the same user
// serialize through Acquire. Returned sessions are clones, so external
// mutation never leaks into internal state.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
}

// entry pairs a session with its per-user serialization lock.
type entry struct {
	session *Session
	userMu  sync.Mutex
}

// NewManager constructs an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*entry)}
}

// GetOrCreate returns a clone of the user's session, creating it on first
// contact.
func (m *Manager) GetOrCreate(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entryLocked(userID).session.Clone()
}

// Acquire takes the per-user lock and returns its release function. All
// message and command handling for one user runs between Acquire and release.
func (m *Manager) Acquire(userID string) func() {
	m.mu.Lock()
	e := m.entryLocked(userID)
	m.mu.Unlock()

	e.userMu.Lock()
	return e.userMu.Unlock
}

// Append adds turns to the user's history, but only if the session epoch
// still matches the one the caller captured at the start of its run. A reset
// in between bumps the epoch and the stale turns are discarded. Reports
// whether the turns were appended.
func (m *Manager) Append(userID string, epoch uint64, turns ...core.Turn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entryLocked(userID)
	if e.session.Epoch != epoch {
		return false
	}
	e.session.Turns = append(e.session.Turns, turns...)
	return true
}

// Reset empties the user's history and bumps the epoch. The session record
// survives, only its turns are cleared.
func (m *Manager) Reset(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entryLocked(userID)
	e.session.Turns = nil
	e.session.Epoch++
}

// Epoch returns the user's current reset epoch.
func (m *Manager) Epoch(userID string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entryLocked(userID).session.Epoch
}

// entryLocked returns the user's entry, creating it lazily. Caller holds mu.
func (m *Manager) entryLocked(userID string) *entry {
	e, ok := m.sessions[userID]
	if !ok {
		e = &entry{session: newSession(userID)}
		m.sessions[userID] = e
	}
	return e
}
