package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-memory Store used by tests and the "memory" backend.
type Memory struct {
	mu    sync.RWMutex
	users map[string]*User
	chats map[string]map[string]*Chat      // userID -> chatID -> chat
	msgs  map[string]map[string][]*Message // userID -> chatID -> messages
	seq   int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users: make(map[string]*User),
		chats: make(map[string]map[string]*Chat),
		msgs:  make(map[string]map[string][]*Message),
	}
}

func (m *Memory) GetUser(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Memory) FindUserByPhone(_ context.Context, phone string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.PhoneNumber == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Memory) FindUserByEmailAndPhone(_ context.Context, email, phone string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email && u.PhoneNumber == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Memory) CreateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) CreateChat(_ context.Context, userID, heading string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chats[userID] == nil {
		m.chats[userID] = make(map[string]*Chat)
		m.msgs[userID] = make(map[string][]*Message)
	}
	now := m.nextTs()
	id := uuid.New().String()
	m.chats[userID][id] = &Chat{
		ID:        id,
		Heading:   heading,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return id, nil
}

func (m *Memory) ListChats(_ context.Context, userID string) ([]Chat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var chats []Chat
	for _, c := range m.chats[userID] {
		chats = append(chats, *c)
	}
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].UpdatedAt > chats[j].UpdatedAt
	})
	return chats, nil
}

func (m *Memory) TouchChat(_ context.Context, userID, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[userID][chatID]
	if !ok {
		return ErrNotFound
	}
	c.UpdatedAt = m.nextTs()
	return nil
}

// nextTs returns the current unix ms, forced strictly monotonic so threads
// touched within the same millisecond keep a deterministic recency order.
// Callers must hold mu.
func (m *Memory) nextTs() int64 {
	now := time.Now().UnixMilli()
	if now <= m.seq {
		now = m.seq + 1
	}
	m.seq = now
	return now
}

func (m *Memory) DeleteChat(_ context.Context, userID, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chats[userID][chatID]; !ok {
		return ErrNotFound
	}
	delete(m.chats[userID], chatID)
	delete(m.msgs[userID], chatID)
	return nil
}

func (m *Memory) AddMessage(_ context.Context, userID, chatID string, msg *Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chats[userID][chatID]; !ok {
		return "", ErrNotFound
	}
	cp := *msg
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	m.msgs[userID][chatID] = append(m.msgs[userID][chatID], &cp)
	return cp.ID, nil
}

func (m *Memory) ListMessages(_ context.Context, userID, chatID string) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored := m.msgs[userID][chatID]
	msgs := make([]Message, len(stored))
	for i, msg := range stored {
		msgs[i] = *msg
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt < msgs[j].CreatedAt
	})
	return msgs, nil
}

func (m *Memory) Close() error {
	return nil
}
