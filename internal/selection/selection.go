// Package selection picks the words embedded in an auto generated reminder.
package selection

import (
	"math/rand/v2"
	"sort"

	"wordreminder/internal/models"
)

// MaxWordCount is the largest word_count accepted at the API boundary.
const MaxWordCount = 99

type Options struct {
	Count          int
	IncludeLearned bool
	Order          models.SortMode
}

// Policy selects words. The zero value shuffles with the global source.
type Policy struct {
	Rand *rand.Rand
}

// Select filters, orders and truncates words. The input slice is not
// modified. Fewer eligible words than Count is not an error.
func (p Policy) Select(words []models.UserWord, opts Options) []models.UserWord {
	eligible := make([]models.UserWord, 0, len(words))
	for _, w := range words {
		if w.Learned && !opts.IncludeLearned {
			continue
		}
		eligible = append(eligible, w)
	}

	switch opts.Order {
	case models.SortOldest:
		sort.SliceStable(eligible, func(i, j int) bool {
			return olderFirst(eligible[i], eligible[j])
		})
	case models.SortRandom:
		p.shuffle(eligible)
	default:
		sort.SliceStable(eligible, func(i, j int) bool {
			return olderFirst(eligible[j], eligible[i])
		})
	}

	count := opts.Count
	if count <= 0 {
		return []models.UserWord{}
	}
	if count < len(eligible) {
		eligible = eligible[:count]
	}
	return eligible
}

func (p Policy) shuffle(words []models.UserWord) {
	swap := func(i, j int) { words[i], words[j] = words[j], words[i] }
	if p.Rand != nil {
		p.Rand.Shuffle(len(words), swap)
		return
	}
	rand.Shuffle(len(words), swap)
}

// olderFirst orders by creation time; equal timestamps fall back to id so the
// order stays deterministic for rows inserted within the same second.
func olderFirst(a, b models.UserWord) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
