package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-docsync/pkg/interfaces"
)

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]interfaces.Entry
	now     func() time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		entries: map[string]interfaces.Entry{},
		now:     time.Now,
	}
}

func (m *memoryStore) Get(_ context.Context, key string) (*interfaces.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	if entry.ExpiresAt != nil && !entry.ExpiresAt.After(m.now()) {
		delete(m.entries, key)
		return nil, nil
	}
	return &entry, nil
}

func (m *memoryStore) Put(_ context.Context, key, value string, opts ...interfaces.PutOption) error {
	options := interfaces.PutOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	entry := interfaces.Entry{Key: key, Value: value, ContentHash: options.ContentHash}
	if options.TTL > 0 {
		expires := m.now().Add(options.TTL)
		entry.ExpiresAt = &expires
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func adminHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("generate hash: %v", err)
	}
	return string(hash)
}

func newTestService(t *testing.T, store *memoryStore) *Service {
	t.Helper()
	svc, err := New(Config{
		AdminUsername:     "admin",
		AdminPasswordHash: adminHash(t, "password"),
		Store:             store,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestLoginRoundTrip(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	session, err := svc.Login(ctx, "admin", "password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.ID == "" {
		t.Fatalf("expected opaque session id")
	}
	if session.Username != "admin" {
		t.Fatalf("unexpected username %q", session.Username)
	}

	current, err := svc.CurrentSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("current session: %v", err)
	}
	if current == nil || current.Username != "admin" {
		t.Fatalf("expected active session, got %#v", current)
	}

	if err := svc.Logout(ctx, session.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	current, err = svc.CurrentSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("current session after logout: %v", err)
	}
	if current != nil {
		t.Fatalf("expected session destroyed, got %#v", current)
	}
}

func TestLoginFailureIsIndistinguishable(t *testing.T) {
	svc := newTestService(t, newMemoryStore())
	ctx := context.Background()

	_, wrongPassword := svc.Login(ctx, "admin", "wrong")
	_, unknownUser := svc.Login(ctx, "nosuchuser", "x")

	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Fatalf("expected generic failure for wrong password, got %v", wrongPassword)
	}
	if !errors.Is(unknownUser, ErrInvalidCredentials) {
		t.Fatalf("expected generic failure for unknown user, got %v", unknownUser)
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Fatalf("failures must not reveal cause: %q vs %q", wrongPassword, unknownUser)
	}
}

func TestSessionTTLIsAbsolute(t *testing.T) {
	store := newMemoryStore()
	clock := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	svc := newTestService(t, store)
	ctx := context.Background()

	session, err := svc.Login(ctx, "admin", "password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Repeated use inside the window never extends the expiry.
	clock = clock.Add(6 * 24 * time.Hour)
	if current, err := svc.CurrentSession(ctx, session.ID); err != nil || current == nil {
		t.Fatalf("expected session alive at day six, got %#v err %v", current, err)
	}

	clock = clock.Add(2 * 24 * time.Hour)
	current, err := svc.CurrentSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("current session: %v", err)
	}
	if current != nil {
		t.Fatalf("expected absolute expiry after seven days, got %#v", current)
	}
}

func TestLogoutUnknownIDIsNotAnError(t *testing.T) {
	svc := newTestService(t, newMemoryStore())
	if err := svc.Logout(context.Background(), "never-issued"); err != nil {
		t.Fatalf("logout: %v", err)
	}
}

func TestCurrentSessionEmptyID(t *testing.T) {
	svc := newTestService(t, newMemoryStore())
	session, err := svc.CurrentSession(context.Background(), "")
	if err != nil {
		t.Fatalf("current session: %v", err)
	}
	if session != nil {
		t.Fatalf("expected nil session for empty id, got %#v", session)
	}
}

func TestSessionsAreUnique(t *testing.T) {
	svc := newTestService(t, newMemoryStore())
	ctx := context.Background()

	first, err := svc.Login(ctx, "admin", "password")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := svc.Login(ctx, "admin", "password")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("expected unique session ids")
	}
}
