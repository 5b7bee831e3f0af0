package chat

import (
	"reflect"
	"testing"

	"github.com/pcastro/parley/internal/store"
)

func msg(id, text string, at int64) store.Message {
	return store.Message{ID: id, Text: text, Sender: store.SenderUser, CreatedAt: at}
}

func ids(msgs []store.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestMergeDeduplicatesById(t *testing.T) {
	existing := []store.Message{msg("a", "hi", 1), msg("b", "there", 2)}
	incoming := []store.Message{msg("b", "there", 2), msg("c", "friend", 3)}

	got := Merge(existing, incoming)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Errorf("merged ids = %v, want %v", ids(got), want)
	}
}

func TestMergeLastWriteWins(t *testing.T) {
	existing := []store.Message{msg("a", "draft", 1)}
	incoming := []store.Message{msg("a", "final", 1)}

	got := Merge(existing, incoming)
	if len(got) != 1 || got[0].Text != "final" {
		t.Errorf("merged = %+v, want single message with text %q", got, "final")
	}
}

func TestMergeSortsByCreatedAt(t *testing.T) {
	existing := []store.Message{msg("late", "z", 30)}
	incoming := []store.Message{msg("early", "a", 10), msg("mid", "m", 20)}

	got := Merge(existing, incoming)
	want := []string{"early", "mid", "late"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Errorf("merged ids = %v, want %v", ids(got), want)
	}
}

func TestMergeTieKeepsArrivalOrder(t *testing.T) {
	// Same timestamp: the user message arrived first and stays first.
	existing := []store.Message{msg("user-1", "question", 100)}
	incoming := []store.Message{msg("bot-1", "answer", 100)}

	got := Merge(existing, incoming)
	want := []string{"user-1", "bot-1"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Errorf("merged ids = %v, want %v", ids(got), want)
	}
}

func TestMergeIdempotent(t *testing.T) {
	existing := []store.Message{msg("a", "hi", 1)}
	incoming := []store.Message{msg("b", "yo", 2)}

	once := Merge(existing, incoming)
	twice := Merge(once, incoming)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("re-merging the same batch changed the result:\n%v\n%v", once, twice)
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	existing := []store.Message{msg("a", "original", 1)}
	incoming := []store.Message{msg("a", "replaced", 1)}

	_ = Merge(existing, incoming)
	if existing[0].Text != "original" {
		t.Errorf("existing mutated: %+v", existing[0])
	}
}

func TestMergeEmptyInputs(t *testing.T) {
	if got := Merge(nil, nil); len(got) != 0 {
		t.Errorf("Merge(nil, nil) = %v, want empty", got)
	}
	one := []store.Message{msg("a", "hi", 1)}
	if got := Merge(nil, one); len(got) != 1 {
		t.Errorf("Merge(nil, one) = %v, want the one message", got)
	}
	if got := Merge(one, nil); len(got) != 1 {
		t.Errorf("Merge(one, nil) = %v, want the one message", got)
	}
}
