package models

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Connection represents a user-configured Salesforce org session.
type Connection struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`         // "source" or "destination"
	InstanceURL string `json:"instance_url"` // e.g. https://acme.my.salesforce.com
	AccessToken string `json:"access_token,omitempty"`
	APIVersion  string `json:"api_version"` // e.g. "59.0"

	// Resolved session identity, set after a successful session check.
	OrgID    string `json:"org_id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`

	PingStatus  string     `json:"ping_status"` // "unknown", "ok", "error"
	PingError   string     `json:"ping_error,omitempty"`
	AuthStatus  string     `json:"auth_status"` // "unknown", "ok", "error"
	AuthError   string     `json:"auth_error,omitempty"`
	LastChecked *time.Time `json:"last_checked,omitempty"`
}

// BaseURL returns the instance URL without a trailing slash.
func (c *Connection) BaseURL() string {
	return strings.TrimRight(c.InstanceURL, "/")
}

// MaskedToken returns a fixed-width mask for a non-empty access token.
func (c *Connection) MaskedToken() string {
	if c.AccessToken == "" {
		return ""
	}
	return "••••••••"
}

// Sanitized returns a copy safe for API responses (token masked).
func (c *Connection) Sanitized() *Connection {
	cp := *c
	cp.AccessToken = cp.MaskedToken()
	return &cp
}

// ConnectionStore is an in-memory thread-safe store for connections.
type ConnectionStore struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

// NewConnectionStore creates an empty connection store.
func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{conns: make(map[string]*Connection)}
}

// Create adds a new connection, assigning it a UUID.
func (s *ConnectionStore) Create(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.New().String()
	if c.PingStatus == "" {
		c.PingStatus = "unknown"
	}
	if c.AuthStatus == "" {
		c.AuthStatus = "unknown"
	}
	s.conns[c.ID] = c
}

// Get returns a connection by ID, or nil if not found.
func (s *ConnectionStore) Get(id string) *Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conns[id]
}

// List returns all connections.
func (s *ConnectionStore) List() []*Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Connection, 0, len(s.conns))
	for _, c := range s.conns {
		result = append(result, c)
	}
	return result
}

// Update replaces an existing connection's settings.
func (s *ConnectionStore) Update(c *Connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conns[c.ID]; !ok {
		return false
	}
	s.conns[c.ID] = c
	return true
}

// Delete removes a connection by ID.
func (s *ConnectionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conns[id]; !ok {
		return false
	}
	delete(s.conns, id)
	return true
}

// SetHealth records the result of a ping/auth check.
func (s *ConnectionStore) SetHealth(id, pingStatus, pingError, authStatus, authError string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conns[id]
	if !ok {
		return
	}
	c.PingStatus = pingStatus
	c.PingError = pingError
	c.AuthStatus = authStatus
	c.AuthError = authError
	now := time.Now()
	c.LastChecked = &now
}

// SetIdentity records the resolved session identity for a connection.
func (s *ConnectionStore) SetIdentity(id, orgID, userID, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conns[id]
	if !ok {
		return
	}
	c.OrgID = orgID
	c.UserID = userID
	c.Username = username
}

// SetAPIVersion records the discovered API version for a connection.
func (s *ConnectionStore) SetAPIVersion(id, version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conns[id]
	if !ok {
		return
	}
	c.APIVersion = version
}
