package directory

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/pcastro/parley/internal/bus"
	"github.com/pcastro/parley/internal/store"
)

func testDirectory(t *testing.T) (*Directory, *bus.Bus, store.Store) {
	t.Helper()
	b := bus.New()
	st := store.NewMemory()
	return New(st, b, zap.NewNop()), b, st
}

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	d, b, _ := testDirectory(t)
	ch, unsub := b.Subscribe("directory.", 10)
	defer unsub()

	id, err := d.Create(ctx, "u1", "hello world")
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("empty chat id")
	}

	evt := <-ch
	if evt.Kind != bus.KindDirectoryChanged {
		t.Errorf("event kind = %q, want %q", evt.Kind, bus.KindDirectoryChanged)
	}

	chats, err := d.List(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 1 || chats[0].Heading != "hello world" {
		t.Errorf("chats = %+v, want one with heading %q", chats, "hello world")
	}
}

func TestDeleteRemovesThread(t *testing.T) {
	ctx := context.Background()
	d, b, _ := testDirectory(t)

	id, err := d.Create(ctx, "u1", "doomed")
	if err != nil {
		t.Fatal(err)
	}

	ch, unsub := b.Subscribe("directory.", 10)
	defer unsub()

	if err := d.Delete(ctx, "u1", id); err != nil {
		t.Fatal(err)
	}
	if evt := <-ch; evt.Kind != bus.KindDirectoryChanged {
		t.Errorf("event kind = %q", evt.Kind)
	}

	chats, err := d.List(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 0 {
		t.Errorf("chats after delete = %+v, want none", chats)
	}
}

func TestDeleteMissingThread(t *testing.T) {
	d, _, _ := testDirectory(t)
	err := d.Delete(context.Background(), "u1", "no-such-chat")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHeading(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"short text unchanged", "hi", "hi"},
		{"empty allowed", "", ""},
		{"exactly at limit", "abcdefghijklmnopqrstuvwxyz123456", "abcdefghijklmnopqrstuvwxyz123456"},
		{"long text truncated", "abcdefghijklmnopqrstuvwxyz1234567890", "abcdefghijklmnopqrstuvwxyz123456"},
		{"multibyte runes kept whole", "héllo wörld héllo wörld héllo wörld", "héllo wörld héllo wörld héllo wö"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Heading(tt.in); got != tt.want {
				t.Errorf("Heading(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
