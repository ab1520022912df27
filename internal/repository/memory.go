package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/seat-booking/internal/model"
	"github.com/iliyamo/seat-booking/internal/utils"
)

// MemoryUsers is an in-process UserRepo replacement used when the server
// runs without MySQL.
type MemoryUsers struct {
	mu      sync.RWMutex
	nextID  uint64
	byID    map[uint64]model.User
	byEmail map[string]uint64
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{byID: map[uint64]model.User{}, byEmail: map[string]uint64{}}
}

func (m *MemoryUsers) Create(_ context.Context, firstName, email, password string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	email = normalizeEmail(email)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[email]; ok {
		return 0, ErrEmailExists
	}
	m.nextID++
	now := time.Now().UTC()
	u := model.User{
		ID:           m.nextID,
		FirstName:    strings.TrimSpace(firstName),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.byID[u.ID] = u
	m.byEmail[email] = u.ID
	return u.ID, nil
}

func (m *MemoryUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[normalizeEmail(email)]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return m.byID[id], nil
}

func (m *MemoryUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *MemoryUsers) UpdateProfile(_ context.Context, id uint64, p model.Profile) error {
	email := normalizeEmail(p.Email)
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	if other, taken := m.byEmail[email]; taken && other != id {
		return ErrEmailExists
	}
	delete(m.byEmail, u.Email)
	u.FirstName = strings.TrimSpace(p.FirstName)
	u.LastName = strings.TrimSpace(p.LastName)
	u.Country = strings.TrimSpace(p.Country)
	u.Email = email
	u.Contact = strings.TrimSpace(p.Contact)
	u.UpdatedAt = time.Now().UTC()
	m.byID[id] = u
	m.byEmail[email] = id
	return nil
}

func (m *MemoryUsers) UpdatePassword(_ context.Context, id uint64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	m.byID[id] = u
	return nil
}

// MemorySessions is an in-process SessionRepo replacement.
type MemorySessions struct {
	mu     sync.Mutex
	nextID uint64
	byHash map[string]model.Session
	now    func() time.Time
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{byHash: map[string]model.Session{}, now: time.Now}
}

func (m *MemorySessions) Store(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.byHash[tokenHash] = model.Session{
		ID:        m.nextID,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: exp.UTC(),
		CreatedAt: m.now().UTC(),
	}
	return nil
}

func (m *MemorySessions) Validate(_ context.Context, tokenHash string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byHash[tokenHash]
	if !ok || !s.Active(m.now()) {
		return 0, ErrSessionNotFound
	}
	return s.UserID, nil
}

func (m *MemorySessions) Revoke(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.byHash[tokenHash]; ok && s.RevokedAt == nil {
		now := m.now().UTC()
		s.RevokedAt = &now
		m.byHash[tokenHash] = s
	}
	return nil
}

func (m *MemorySessions) RevokeOthers(_ context.Context, userID uint64, keepHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	for h, s := range m.byHash {
		if s.UserID == userID && h != keepHash && s.RevokedAt == nil {
			s.RevokedAt = &now
			m.byHash[h] = s
		}
	}
	return nil
}

// PurgeExpired drops sessions that expired before the cutoff or were
// revoked.
func (m *MemorySessions) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for h, s := range m.byHash {
		if s.ExpiresAt.Before(before) || s.RevokedAt != nil {
			delete(m.byHash, h)
			n++
		}
	}
	return n, nil
}
