// Package directory maintains a user's list of chat threads.
package directory

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pcastro/parley/internal/bus"
	"github.com/pcastro/parley/internal/store"
)

// ErrUnavailable is returned when the thread list cannot be fetched.
// Callers keep showing their previous list.
var ErrUnavailable = errors.New("directory: unavailable")

// headingLimit caps a thread heading at 32 runes.
const headingLimit = 32

// Directory lists, creates and deletes chat threads, publishing
// directory.changed events so views can refresh.
type Directory struct {
	store store.Store
	bus   *bus.Bus
	log   *zap.Logger
}

func New(s store.Store, b *bus.Bus, log *zap.Logger) *Directory {
	return &Directory{store: s, bus: b, log: log.Named("directory")}
}

// List returns the user's threads, most recently active first.
func (d *Directory) List(ctx context.Context, userID string) ([]store.Chat, error) {
	chats, err := d.store.ListChats(ctx, userID)
	if err != nil {
		d.log.Warn("list failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return chats, nil
}

// Create starts a new thread. The heading is derived from the first line
// of conversation, truncated to 32 runes; empty is allowed.
func (d *Directory) Create(ctx context.Context, userID, firstLine string) (string, error) {
	id, err := d.store.CreateChat(ctx, userID, Heading(firstLine))
	if err != nil {
		return "", fmt.Errorf("directory: create: %w", err)
	}
	d.log.Info("chat created", zap.String("chat_id", id))
	d.changed()
	return id, nil
}

// Delete removes a thread and all of its messages.
func (d *Directory) Delete(ctx context.Context, userID, chatID string) error {
	if err := d.store.DeleteChat(ctx, userID, chatID); err != nil {
		d.log.Warn("delete failed", zap.String("chat_id", chatID), zap.Error(err))
		return fmt.Errorf("directory: delete: %w", err)
	}
	d.log.Info("chat deleted", zap.String("chat_id", chatID))
	d.changed()
	return nil
}

func (d *Directory) changed() {
	if d.bus != nil {
		d.bus.PublishKind(bus.KindDirectoryChanged, nil)
	}
}

// Heading truncates text to the heading limit, rune-safe.
func Heading(text string) string {
	runes := []rune(text)
	if len(runes) <= headingLimit {
		return text
	}
	return string(runes[:headingLimit])
}
