// Package session keeps per-user conversation state: the turn history, a
// reset epoch, and a per-user lock serializing turns for the same user.
package session

import (
	"time"

	"github.com/leobot/leo/core"
)

// Session is one user's conversation. Epoch counts resets: a dispatch loop
// captures the epoch when it starts and discards its result if a reset
// happened while it was in flight.
type Session struct {
	UserID  string
	Turns   []core.Turn
	Created time.Time
	Epoch   uint64
}

// Clone returns a deep copy so callers can read the session without holding
// manager locks.
func (s *Session) Clone() *Session {
	return &Session{
		UserID:  s.UserID,
		Turns:   append([]core.Turn(nil), s.Turns...),
		Created: s.Created,
		Epoch:   s.Epoch,
	}
}

func newSession(userID string) *Session {
	return &Session{UserID: userID, Created: time.Now().UTC()}
}
