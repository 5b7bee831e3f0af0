package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

// backends returns every Store implementation the contract tests run
// against. Firestore is exercised in integration environments only.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = sq.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sq,
	}
}

func newUser(t *testing.T, ctx context.Context, s Store, email, phone string) *User {
	t.Helper()
	u := &User{ID: uuid.New().String(), Email: email, PhoneNumber: phone}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	return u
}

func TestUserLookup(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			u := newUser(t, ctx, s, "a@example.com", "+15550001")

			got, err := s.GetUser(ctx, u.ID)
			if err != nil {
				t.Fatal(err)
			}
			if got == nil || got.Email != "a@example.com" {
				t.Errorf("GetUser = %+v, want email a@example.com", got)
			}

			got, err = s.FindUserByEmail(ctx, "a@example.com")
			if err != nil {
				t.Fatal(err)
			}
			if got == nil || got.ID != u.ID {
				t.Errorf("FindUserByEmail = %+v, want id %s", got, u.ID)
			}

			got, err = s.FindUserByPhone(ctx, "+15550001")
			if err != nil {
				t.Fatal(err)
			}
			if got == nil || got.ID != u.ID {
				t.Errorf("FindUserByPhone = %+v, want id %s", got, u.ID)
			}

			got, err = s.FindUserByEmailAndPhone(ctx, "a@example.com", "+15550001")
			if err != nil {
				t.Fatal(err)
			}
			if got == nil || got.ID != u.ID {
				t.Errorf("FindUserByEmailAndPhone = %+v, want id %s", got, u.ID)
			}

			// Pair with mismatched phone must not match.
			got, err = s.FindUserByEmailAndPhone(ctx, "a@example.com", "+19999999")
			if err != nil {
				t.Fatal(err)
			}
			if got != nil {
				t.Errorf("mismatched pair returned %+v, want nil", got)
			}

			got, err = s.GetUser(ctx, "missing")
			if err != nil {
				t.Fatal(err)
			}
			if got != nil {
				t.Errorf("GetUser(missing) = %+v, want nil", got)
			}
		})
	}
}

func TestChatListOrdering(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			u := newUser(t, ctx, s, "b@example.com", "+15550002")

			first, err := s.CreateChat(ctx, u.ID, "first")
			if err != nil {
				t.Fatal(err)
			}
			time.Sleep(2 * time.Millisecond)
			second, err := s.CreateChat(ctx, u.ID, "second")
			if err != nil {
				t.Fatal(err)
			}

			chats, err := s.ListChats(ctx, u.ID)
			if err != nil {
				t.Fatal(err)
			}
			if len(chats) != 2 {
				t.Fatalf("got %d chats, want 2", len(chats))
			}
			if chats[0].ID != second {
				t.Errorf("newest chat first: got %s, want %s", chats[0].ID, second)
			}

			// Touching the older thread moves it to the top.
			time.Sleep(2 * time.Millisecond)
			if err := s.TouchChat(ctx, u.ID, first); err != nil {
				t.Fatal(err)
			}
			chats, err = s.ListChats(ctx, u.ID)
			if err != nil {
				t.Fatal(err)
			}
			if chats[0].ID != first {
				t.Errorf("touched chat first: got %s, want %s", chats[0].ID, first)
			}
		})
	}
}

func TestMessagesOrderedByCreatedAt(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			u := newUser(t, ctx, s, "c@example.com", "+15550003")
			chatID, err := s.CreateChat(ctx, u.ID, "ordering")
			if err != nil {
				t.Fatal(err)
			}

			// Inserted newest-first; listing must come back ascending.
			if _, err := s.AddMessage(ctx, u.ID, chatID, &Message{Text: "later", Sender: SenderUser, CreatedAt: 100}); err != nil {
				t.Fatal(err)
			}
			if _, err := s.AddMessage(ctx, u.ID, chatID, &Message{Text: "earlier", Sender: SenderBot, CreatedAt: 50}); err != nil {
				t.Fatal(err)
			}

			msgs, err := s.ListMessages(ctx, u.ID, chatID)
			if err != nil {
				t.Fatal(err)
			}
			if len(msgs) != 2 {
				t.Fatalf("got %d messages, want 2", len(msgs))
			}
			if msgs[0].Text != "earlier" || msgs[1].Text != "later" {
				t.Errorf("order = [%s, %s], want [earlier, later]", msgs[0].Text, msgs[1].Text)
			}
		})
	}
}

func TestDeleteChatCascades(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			u := newUser(t, ctx, s, "d@example.com", "+15550004")
			chatID, err := s.CreateChat(ctx, u.ID, "doomed")
			if err != nil {
				t.Fatal(err)
			}
			if _, err := s.AddMessage(ctx, u.ID, chatID, &Message{Text: "hi", Sender: SenderUser, CreatedAt: 1}); err != nil {
				t.Fatal(err)
			}

			if err := s.DeleteChat(ctx, u.ID, chatID); err != nil {
				t.Fatalf("DeleteChat() error = %v", err)
			}

			chats, err := s.ListChats(ctx, u.ID)
			if err != nil {
				t.Fatal(err)
			}
			if len(chats) != 0 {
				t.Errorf("got %d chats after delete, want 0", len(chats))
			}

			msgs, err := s.ListMessages(ctx, u.ID, chatID)
			if err != nil {
				t.Fatal(err)
			}
			if len(msgs) != 0 {
				t.Errorf("got %d messages after delete, want 0 (cascade)", len(msgs))
			}
		})
	}
}

func TestAddMessageToMissingChat(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			u := newUser(t, ctx, s, "e@example.com", "+15550005")
			if _, err := s.AddMessage(ctx, u.ID, "no-such-chat", &Message{Text: "x", Sender: SenderUser, CreatedAt: 1}); err == nil {
				t.Error("AddMessage to missing chat should fail")
			}
		})
	}
}

func TestMessageIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			u := newUser(t, ctx, s, "f@example.com", "+15550006")
			chatID, err := s.CreateChat(ctx, u.ID, "ids")
			if err != nil {
				t.Fatal(err)
			}

			seen := make(map[string]bool)
			for i := 0; i < 5; i++ {
				id, err := s.AddMessage(ctx, u.ID, chatID, &Message{Text: "m", Sender: SenderUser, CreatedAt: int64(i)})
				if err != nil {
					t.Fatal(err)
				}
				if seen[id] {
					t.Errorf("duplicate generated id %s", id)
				}
				seen[id] = true
			}
		})
	}
}
