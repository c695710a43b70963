package session

import "sync"

// Session handle constants.
const (
	// MinHandle is the smallest session handle. Handle 0 is never allocated.
	MinHandle uint16 = 1

	// MaxHandle is the largest session handle.
	MaxHandle uint16 = 0xFFFF

	// DefaultMaxSessions is the default maximum number of concurrent sessions.
	DefaultMaxSessions = 16
)

// Table tracks live secure sessions by handle, e.g. one per connected
// reader or holder.
//
// Handles are allocated sequentially, wrapping around at MaxHandle and
// skipping 0. A handle is unique among the sessions in the table. Sessions
// removed from the table are closed, which zeroizes their keys.
type Table struct {
	sessions    map[uint16]*SecureSession
	maxSessions int
	nextHandle  uint16

	mu sync.RWMutex
}

// NewTable creates a new session table.
// maxSessions limits the number of concurrent sessions (0 uses DefaultMaxSessions).
func NewTable(maxSessions int) *Table {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}

	return &Table{
		sessions:    make(map[uint16]*SecureSession),
		maxSessions: maxSessions,
		nextHandle:  MinHandle,
	}
}

// Add stores a session and returns its handle.
// Returns ErrSessionTableFull if the table is at capacity and
// ErrSessionClosed for a nil or closed session.
func (t *Table) Add(s *SecureSession) (uint16, error) {
	if s == nil || s.Closed() {
		return 0, ErrSessionClosed
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.sessions) >= t.maxSessions {
		return 0, ErrSessionTableFull
	}

	handle, err := t.allocateHandleLocked()
	if err != nil {
		return 0, err
	}
	t.sessions[handle] = s
	return handle, nil
}

// allocateHandleLocked finds an unused handle starting from nextHandle.
// t.mu must be held.
func (t *Table) allocateHandleLocked() (uint16, error) {
	start := t.nextHandle
	for {
		handle := t.nextHandle

		t.nextHandle++
		if t.nextHandle == 0 {
			t.nextHandle = MinHandle
		}

		if _, exists := t.sessions[handle]; !exists {
			return handle, nil
		}

		if t.nextHandle == start {
			return 0, ErrSessionIDExhausted
		}
	}
}

// Get looks up a session by handle.
// Returns ErrSessionNotFound if no session has that handle.
func (t *Table) Get(handle uint16) (*SecureSession, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.sessions[handle]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove closes the session with the given handle and drops it from the table.
// No error is returned if the session doesn't exist.
func (t *Table) Remove(handle uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.sessions[handle]; ok {
		s.Close()
		delete(t.sessions, handle)
	}
}

// RemoveByRole closes and removes every session with the given local role.
// Returns the number of sessions removed.
func (t *Table) RemoveByRole(role Role) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for handle, s := range t.sessions {
		if s.Role() == role {
			s.Close()
			delete(t.sessions, handle)
			count++
		}
	}
	return count
}

// Count returns the number of sessions in the table.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// IsFull returns true if no more sessions can be added.
func (t *Table) IsFull() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions) >= t.maxSessions
}

// MaxSessions returns the maximum number of sessions allowed.
func (t *Table) MaxSessions() int {
	return t.maxSessions
}

// Clear closes and removes all sessions.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range t.sessions {
		s.Close()
	}
	t.sessions = make(map[uint16]*SecureSession)
}

// ForEach calls fn for each session in the table until fn returns false.
// The callback must not modify the table.
func (t *Table) ForEach(fn func(handle uint16, s *SecureSession) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for handle, s := range t.sessions {
		if !fn(handle, s) {
			return
		}
	}
}
