// Package auth implements the session-based authentication layer: credential
// verification against a single configured administrator identity, and opaque
// session records persisted with an absolute TTL. The store, never the
// cookie, is authoritative for session validity.
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-docsync/internal/logging"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

// DefaultSessionTTL is the absolute session lifetime. Activity never extends
// it.
const DefaultSessionTTL = 7 * 24 * time.Hour

var (
	// ErrInvalidCredentials is the only failure a login caller can observe.
	// Unknown users and wrong passwords are indistinguishable on purpose.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	ErrStoreRequired    = errors.New("auth: session store is required")
	ErrUsernameRequired = errors.New("auth: admin username is required")
	ErrPasswordRequired = errors.New("auth: admin password hash is required")
)

// Session is one authenticated identity record.
type Session struct {
	ID        string
	Username  string
	ExpiresAt time.Time
}

// sessionRecord is the persisted shape of a session value.
type sessionRecord struct {
	Username string `json:"username"`
}

// Config captures the gateway's dependencies and the configured admin
// identity.
type Config struct {
	AdminUsername string
	// AdminPasswordHash is a bcrypt hash of the administrator password.
	AdminPasswordHash string
	// SessionTTL defaults to DefaultSessionTTL.
	SessionTTL time.Duration
	Store      interfaces.KeyValueStore
	Logger     interfaces.Logger
	// IDGenerator overrides session identifier minting, mainly for tests.
	IDGenerator func() string
}

// Service validates credentials and manages session records.
type Service struct {
	adminUsername string
	adminHash     []byte
	sessionTTL    time.Duration
	store         interfaces.KeyValueStore
	logger        interfaces.Logger
	newID         func() string
}

// New validates cfg and builds a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, ErrStoreRequired
	}
	if strings.TrimSpace(cfg.AdminUsername) == "" {
		return nil, ErrUsernameRequired
	}
	if strings.TrimSpace(cfg.AdminPasswordHash) == "" {
		return nil, ErrPasswordRequired
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	newID := cfg.IDGenerator
	if newID == nil {
		newID = uuid.NewString
	}

	return &Service{
		adminUsername: cfg.AdminUsername,
		adminHash:     []byte(cfg.AdminPasswordHash),
		sessionTTL:    ttl,
		store:         cfg.Store,
		logger:        logger,
		newID:         newID,
	}, nil
}

// SessionTTL reports the configured absolute session lifetime.
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Login verifies the supplied credentials and mint a fresh session on
// success. Both checks always run so the failure path has the same structure
// regardless of which credential was wrong.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.adminUsername)) == 1
	passwordOK := bcrypt.CompareHashAndPassword(s.adminHash, []byte(password)) == nil

	if !usernameOK || !passwordOK {
		s.logger.Warn("auth.login.rejected")
		return nil, ErrInvalidCredentials
	}

	id := s.newID()
	payload, err := json.Marshal(sessionRecord{Username: username})
	if err != nil {
		return nil, fmt.Errorf("auth: marshal session: %w", err)
	}
	if err := s.store.Put(ctx, interfaces.SessionKeyPrefix+id, string(payload),
		interfaces.WithTTL(s.sessionTTL)); err != nil {
		return nil, fmt.Errorf("auth: persist session: %w", err)
	}

	s.logger.Info("auth.login.accepted", "username", username)
	return &Session{
		ID:        id,
		Username:  username,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}, nil
}

// CurrentSession resolves a session identifier to its stored record. Absent
// and expired identifiers both return nil without error.
func (s *Service) CurrentSession(ctx context.Context, id string) (*Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}

	entry, err := s.store.Get(ctx, interfaces.SessionKeyPrefix+id)
	if err != nil {
		return nil, fmt.Errorf("auth: read session: %w", err)
	}
	if entry == nil {
		return nil, nil
	}

	var record sessionRecord
	if err := json.Unmarshal([]byte(entry.Value), &record); err != nil {
		// A corrupt record is treated like a missing one; the caller only
		// sees "not authenticated".
		s.logger.Warn("auth.session.corrupt", "error", err)
		return nil, nil
	}

	session := &Session{ID: id, Username: record.Username}
	if entry.ExpiresAt != nil {
		session.ExpiresAt = *entry.ExpiresAt
	}
	return session, nil
}

// Logout removes the session record unconditionally. Deleting an unknown
// identifier is not an error.
func (s *Service) Logout(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	if err := s.store.Delete(ctx, interfaces.SessionKeyPrefix+id); err != nil {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}
