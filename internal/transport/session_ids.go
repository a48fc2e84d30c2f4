package transport

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mark3labs/mcp-go/server"
)

var errInvalidSessionID = errors.New("invalid session id")

// SessionIDs issues and checks the Mcp-Session-Id values for every session
// in the process. Terminated ids are remembered in a bounded LRU, so a
// terminated id can only be rejected while it is still cached.
type SessionIDs struct {
	terminated *lru.Cache[string, struct{}]
}

var _ server.SessionIdManager = (*SessionIDs)(nil)

// NewSessionIDs remembers up to size terminated ids.
func NewSessionIDs(size int) (*SessionIDs, error) {
	cache, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("creating terminated-session cache: %w", err)
	}
	return &SessionIDs{terminated: cache}, nil
}

// Generate returns a fresh random id.
func (s *SessionIDs) Generate() string {
	return uuid.NewString()
}

// Validate accepts an empty id (clients that never initialized) and any
// well-formed id, reporting whether it was terminated.
func (s *SessionIDs) Validate(sessionID string) (isTerminated bool, err error) {
	if sessionID == "" {
		return false, nil
	}
	if err := checkSessionID(sessionID); err != nil {
		return false, err
	}
	return s.terminated.Contains(sessionID), nil
}

// Terminate records sessionID as terminated. An empty id cannot be
// terminated.
func (s *SessionIDs) Terminate(sessionID string) (isNotAllowed bool, err error) {
	if sessionID == "" {
		return true, nil
	}
	if err := checkSessionID(sessionID); err != nil {
		return false, err
	}
	s.terminated.Add(sessionID, struct{}{})
	return false, nil
}

func checkSessionID(sessionID string) error {
	if _, err := uuid.Parse(sessionID); err != nil {
		return fmt.Errorf("%w %q: %v", errInvalidSessionID, sessionID, err)
	}
	return nil
}
