package selection

import (
	"math/rand/v2"
	"testing"
	"time"

	"wordreminder/internal/models"
)

func fixtureWords() []models.UserWord {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.UserWord{
		{ID: 1, Word: "cat", CreatedAt: base},
		{ID: 2, Word: "dog", CreatedAt: base.Add(time.Hour), Learned: true},
		{ID: 3, Word: "owl", CreatedAt: base.Add(2 * time.Hour)},
		{ID: 4, Word: "elk", CreatedAt: base.Add(3 * time.Hour)},
		{ID: 5, Word: "ant", CreatedAt: base.Add(3 * time.Hour)},
	}
}

func ids(words []models.UserWord) []int {
	out := make([]int, len(words))
	for i, w := range words {
		out[i] = w.ID
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSelectOrdering(t *testing.T) {
	cases := []struct {
		name string
		opts Options
		want []int
	}{
		{name: "newest", opts: Options{Count: 10, IncludeLearned: true, Order: models.SortNewest}, want: []int{5, 4, 3, 2, 1}},
		{name: "oldest", opts: Options{Count: 10, IncludeLearned: true, Order: models.SortOldest}, want: []int{1, 2, 3, 4, 5}},
		{name: "oldest unlearned", opts: Options{Count: 10, Order: models.SortOldest}, want: []int{1, 3, 4, 5}},
		{name: "newest truncated", opts: Options{Count: 2, Order: models.SortNewest}, want: []int{5, 4}},
		{name: "zero count", opts: Options{Count: 0, Order: models.SortNewest}, want: []int{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(Policy{}.Select(fixtureWords(), tc.opts))
			if !equalInts(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSelectLengthAndLearnedFilter(t *testing.T) {
	words := fixtureWords()
	for k := 0; k <= 7; k++ {
		for _, order := range []models.SortMode{models.SortNewest, models.SortOldest, models.SortRandom} {
			got := Policy{}.Select(words, Options{Count: k, Order: order})
			want := min(4, k)
			if len(got) != want {
				t.Fatalf("count %d order %s: got %d words, want %d", k, order, len(got), want)
			}
			for _, w := range got {
				if w.Learned {
					t.Fatalf("learned word %d returned with IncludeLearned=false", w.ID)
				}
			}
		}
	}
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	words := fixtureWords()
	before := ids(words)
	Policy{}.Select(words, Options{Count: 5, IncludeLearned: true, Order: models.SortNewest})
	Policy{}.Select(words, Options{Count: 5, IncludeLearned: true, Order: models.SortRandom})
	if !equalInts(ids(words), before) {
		t.Fatalf("input reordered: %v", ids(words))
	}
}

func TestSelectRandomProducesDifferentOrders(t *testing.T) {
	words := make([]models.UserWord, 20)
	for i := range words {
		words[i] = models.UserWord{ID: i + 1}
	}
	p := Policy{Rand: rand.New(rand.NewPCG(7, 11))}
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		got := p.Select(words, Options{Count: 20, Order: models.SortRandom})
		key := ""
		for _, id := range ids(got) {
			key += string(rune('A' + id))
		}
		seen[key] = true
	}
	if len(seen) < 2 {
		t.Fatal("expected random order to vary across calls")
	}
}
