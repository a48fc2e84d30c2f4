package transport

import (
	"context"
	"net/http"
	"sync"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/stroppy-io/corpus-mcp/internal/metrics"
	"github.com/stroppy-io/corpus-mcp/internal/registry"
)

// Session is one request's server context: a fresh MCP server bound to the
// shared dependencies and the streamable HTTP adapter in front of it.
// Sessions share nothing mutable with each other.
type Session struct {
	server  *server.MCPServer
	adapter *server.StreamableHTTPServer
	log     *zap.Logger

	mu        sync.Mutex
	sessionID string

	closeOnce sync.Once
}

func newSession(deps registry.Deps, ids *SessionIDs, path string, log *zap.Logger) *Session {
	srv := registry.NewServer(deps)
	adapter := server.NewStreamableHTTPServer(srv,
		server.WithEndpointPath(path),
		server.WithSessionIdManager(ids),
		server.WithLogger(log.Sugar()),
	)
	metrics.SessionOpened()
	return &Session{server: srv, adapter: adapter, log: log}
}

// ServeHTTP hands the request to the adapter.
func (s *Session) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.setID(r.Header.Get(server.HeaderKeySessionID))
	s.adapter.ServeHTTP(w, r)
	// initialize responses carry the id the adapter just issued
	s.setID(w.Header().Get(server.HeaderKeySessionID))
}

// ID is the Mcp-Session-Id this session served, if any.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

func (s *Session) setID(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionID == "" {
		s.sessionID = id
	}
}

// Close unregisters the session from its server. The adapter owns no
// listener. Only the first call does anything.
func (s *Session) Close(ctx context.Context) {
	s.closeOnce.Do(func() {
		if id := s.ID(); id != "" {
			s.server.UnregisterSession(ctx, id)
		}
		metrics.SessionClosed()
		s.log.Debug("Session closed", zap.String("session", s.ID()))
	})
}
