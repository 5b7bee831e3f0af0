// Package chat holds the conversation session: the selected thread, its
// message list and the send pipeline that round-trips a prompt through the
// inference provider.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pcastro/parley/internal/bus"
	"github.com/pcastro/parley/internal/directory"
	"github.com/pcastro/parley/internal/reply"
	"github.com/pcastro/parley/internal/store"
)

// ErrSendInFlight is returned by Send while a previous send is still
// waiting on its reply.
var ErrSendInFlight = errors.New("chat: send already in flight")

// Session owns the state of one open conversation: which thread is
// selected, its merged message list and whether a reply is pending. All
// mutation goes through the session; accessors return snapshots.
type Session struct {
	store    store.Store
	dir      *directory.Directory
	provider reply.Provider
	machine  *Machine
	bus      *bus.Bus
	log      *zap.Logger

	mu        sync.RWMutex
	userID    string
	threadID  string
	messages  []store.Message
	botTyping bool
	gen       uint64
}

func NewSession(st store.Store, dir *directory.Directory, p reply.Provider, b *bus.Bus, log *zap.Logger, userID string) *Session {
	return &Session{
		store:    st,
		dir:      dir,
		provider: p,
		machine:  NewMachine(b),
		bus:      b,
		log:      log.Named("session"),
		userID:   userID,
	}
}

// State returns the current session state.
func (s *Session) State() State { return s.machine.Current() }

// UserID returns the logged-in user this session belongs to, or "" when
// nobody is logged in.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// SetUser binds the session to a logged-in user, resetting any selection.
func (s *Session) SetUser(id string) {
	s.clear()
	s.mu.Lock()
	s.userID = id
	s.mu.Unlock()
	if s.bus != nil {
		s.bus.PublishKind(bus.KindAccountLoggedIn, id)
	}
}

// ClearUser logs the session out, resetting any selection.
func (s *Session) ClearUser() {
	s.clear()
	s.mu.Lock()
	s.userID = ""
	s.mu.Unlock()
	if s.bus != nil {
		s.bus.PublishKind(bus.KindAccountLoggedOut, nil)
	}
}

// ThreadID returns the selected thread id, or "" when none is selected.
func (s *Session) ThreadID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threadID
}

// BotTyping reports whether a reply is currently pending.
func (s *Session) BotTyping() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.botTyping
}

// Messages returns a snapshot of the merged message list.
func (s *Session) Messages() []store.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Select switches the session to the given thread and loads its history.
// Selecting "" deselects and clears the message pane. A Select that is
// superseded by a newer one discards its fetched history instead of
// overwriting the newer thread's messages.
func (s *Session) Select(ctx context.Context, threadID string) error {
	if threadID == "" {
		s.clear()
		return nil
	}

	// Validate the transition before touching any session state, so a
	// rejected Select (e.g. while a send is in flight) leaves the
	// selection and messages consistent.
	if err := s.machine.Transition(Loading); err != nil {
		return err
	}

	s.mu.Lock()
	s.gen++
	myGen := s.gen
	s.threadID = threadID
	uid := s.userID
	s.mu.Unlock()

	msgs, err := s.store.ListMessages(ctx, uid, threadID)

	s.mu.Lock()
	if s.gen != myGen {
		// A newer Select won the race; its result is authoritative.
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.threadID = ""
		s.messages = nil
		s.mu.Unlock()
		_ = s.machine.Transition(NoThread)
		return fmt.Errorf("chat: load history: %w", err)
	}
	s.messages = Merge(nil, msgs)
	s.mu.Unlock()

	if err := s.machine.Transition(Ready); err != nil {
		return err
	}
	s.log.Debug("thread selected",
		zap.String("thread_id", threadID),
		zap.Int("messages", len(msgs)))
	return nil
}

// Send persists the user's message, asks the provider for a reply and
// persists that too. Blank input is a no-op. When no thread is selected a
// new one is created with a heading derived from the text. A second Send
// while a reply is pending returns ErrSendInFlight.
//
// Each message carries its own submit-time timestamp, so the persisted
// record and the optimistic local entry always agree. A store failure
// abandons the send at that step; nothing is rolled back or retried.
func (s *Session) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if s.machine.Current() == Sending {
		return ErrSendInFlight
	}
	if err := s.machine.Transition(Sending); err != nil {
		return err
	}

	s.mu.Lock()
	myGen := s.gen
	uid := s.userID
	threadID := s.threadID
	s.mu.Unlock()

	if threadID == "" {
		id, err := s.dir.Create(ctx, uid, text)
		if err != nil {
			_ = s.machine.Transition(NoThread)
			return err
		}
		s.mu.Lock()
		if s.gen == myGen {
			s.threadID = id
			s.messages = nil
		}
		s.mu.Unlock()
		threadID = id
	}

	userMsg := store.Message{
		Text:      text,
		Sender:    store.SenderUser,
		CreatedAt: time.Now().UnixMilli(),
	}
	id, err := s.store.AddMessage(ctx, uid, threadID, &userMsg)
	if err != nil {
		_ = s.machine.Transition(Ready)
		return fmt.Errorf("chat: persist message: %w", err)
	}
	userMsg.ID = id
	s.mergeIn(userMsg, myGen)
	s.touch(ctx, threadID)

	// Typing stays on until the reply is persisted and merged, not just
	// until the provider returns.
	s.setTyping(true)
	replyText := s.provider.Reply(ctx, text)

	botMsg := store.Message{
		Text:      replyText,
		Sender:    store.SenderBot,
		CreatedAt: time.Now().UnixMilli(),
	}
	id, err = s.store.AddMessage(ctx, uid, threadID, &botMsg)
	if err != nil {
		s.setTyping(false)
		_ = s.machine.Transition(Ready)
		return fmt.Errorf("chat: persist reply: %w", err)
	}
	botMsg.ID = id
	s.mergeIn(botMsg, myGen)
	s.setTyping(false)
	s.touch(ctx, threadID)

	if s.stale(myGen) {
		// The selection was cleared while the reply was pending; the
		// machine already moved on.
		return nil
	}
	return s.machine.Transition(Ready)
}

// DeleteThread removes a thread. Deleting the selected thread deselects
// it and clears the message pane.
func (s *Session) DeleteThread(ctx context.Context, threadID string) error {
	if err := s.dir.Delete(ctx, s.UserID(), threadID); err != nil {
		return err
	}
	if s.ThreadID() == threadID {
		s.clear()
	}
	return nil
}

func (s *Session) clear() {
	s.mu.Lock()
	s.gen++ // supersede any in-flight fetch
	s.threadID = ""
	s.messages = nil
	s.botTyping = false
	s.mu.Unlock()
	if s.machine.Current() != NoThread {
		_ = s.machine.Transition(NoThread)
	}
}

// mergeIn folds a freshly persisted message into the local list. A stale
// gen means the selection was cleared or switched after the send started,
// and merging would resurrect entries from the abandoned thread.
func (s *Session) mergeIn(m store.Message, gen uint64) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.messages = Merge(s.messages, []store.Message{m})
	s.mu.Unlock()
	if s.bus != nil {
		s.bus.PublishKind(bus.KindMessageMerged, m)
	}
}

func (s *Session) stale(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen != gen
}

func (s *Session) setTyping(on bool) {
	s.mu.Lock()
	s.botTyping = on
	s.mu.Unlock()
	if s.bus != nil {
		s.bus.PublishKind(bus.KindSessionTyping, on)
	}
}

// touch bumps the thread's recency so the directory sorts it first.
// Failures only affect ordering, so they are logged and swallowed.
func (s *Session) touch(ctx context.Context, threadID string) {
	if err := s.store.TouchChat(ctx, s.UserID(), threadID); err != nil {
		s.log.Warn("touch failed", zap.String("thread_id", threadID), zap.Error(err))
	}
}
