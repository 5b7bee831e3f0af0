// Package store persists users, chat threads and messages. The document
// layout is users/{uid}/chats/{chatId}/messages/{messageId}; three backends
// implement it: Cloud Firestore, a local SQLite file, and an in-memory map
// used by tests.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by operations that target a specific record
// that does not exist.
var ErrNotFound = errors.New("store: not found")

// DecodeError reports a stored document whose shape could not be decoded
// into a known record type. Raw payloads never propagate past the store
// boundary.
type DecodeError struct {
	Kind string // "user", "chat" or "message"
	ID   string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("store: decode %s %q: %v", e.Kind, e.ID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Store is the persistence contract shared by all backends.
//
// Find* methods return (nil, nil) when no record matches. ListChats orders
// descending by UpdatedAt; ListMessages orders ascending by CreatedAt.
type Store interface {
	// GetUser returns the user with the given id, or (nil, nil).
	GetUser(ctx context.Context, id string) (*User, error)
	// FindUserByEmail returns a user whose email matches, or (nil, nil).
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	// FindUserByPhone returns a user whose phone number matches, or (nil, nil).
	FindUserByPhone(ctx context.Context, phone string) (*User, error)
	// FindUserByEmailAndPhone returns a user matching both fields, or (nil, nil).
	FindUserByEmailAndPhone(ctx context.Context, email, phone string) (*User, error)
	// CreateUser stores a new user under its pre-assigned id.
	CreateUser(ctx context.Context, u *User) error

	// CreateChat creates a thread with a generated id and returns the id.
	CreateChat(ctx context.Context, userID, heading string) (string, error)
	// ListChats returns the user's threads, most recently active first.
	ListChats(ctx context.Context, userID string) ([]Chat, error)
	// TouchChat bumps a thread's UpdatedAt to now.
	TouchChat(ctx context.Context, userID, chatID string) error
	// DeleteChat removes a thread and all of its messages.
	DeleteChat(ctx context.Context, userID, chatID string) error

	// AddMessage stores a message with a generated id, keeping the
	// caller-supplied CreatedAt, and returns the id.
	AddMessage(ctx context.Context, userID, chatID string, m *Message) (string, error)
	// ListMessages returns a thread's messages in ascending CreatedAt order.
	ListMessages(ctx context.Context, userID, chatID string) ([]Message, error)

	Close() error
}
