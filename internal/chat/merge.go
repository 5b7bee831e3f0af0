package chat

import (
	"sort"

	"github.com/pcastro/parley/internal/store"
)

// Merge combines an existing message list with newly arrived messages.
// Messages are keyed by id: a duplicate id replaces the earlier entry in
// place, so the latest write wins without reordering. The result is sorted
// ascending by CreatedAt; ties keep arrival order.
//
// Merge never mutates its inputs. Merging the same batch twice yields the
// same result, which lets optimistic entries and fetched history coexist.
func Merge(existing, incoming []store.Message) []store.Message {
	out := make([]store.Message, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))

	for _, batch := range [][]store.Message{existing, incoming} {
		for _, m := range batch {
			if i, seen := index[m.ID]; seen {
				out[i] = m
				continue
			}
			index[m.ID] = len(out)
			out = append(out, m)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt < out[j].CreatedAt
	})
	return out
}
