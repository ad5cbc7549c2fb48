package leaderboard

import (
	"context"
	"fmt"
	"sync"

	"progressionkit/core"
	"progressionkit/engine"
)

// Ranker backs engine.Ranker with real skip-list boards, one per
// category and period. It replaces the engine's simulated default.
type Ranker struct {
	mu     sync.Mutex
	boards map[string]Board
	prev   map[string]int // board key + user -> last position
}

func NewRanker() *Ranker {
	return &Ranker{boards: map[string]Board{}, prev: map[string]int{}}
}

func boardKey(category, period string) string {
	return category + ":" + period
}

func (r *Ranker) board(category, period string) Board {
	key := boardKey(category, period)
	b, ok := r.boards[key]
	if !ok {
		b = NewSkipList()
		r.boards[key] = b
	}
	return b
}

// Update records the score and reports the user's new standing.
func (r *Ranker) Update(_ context.Context, user core.UserID, score int64, category, period string) (engine.Standing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.board(category, period)
	b.Update(user, score)
	pos := b.Rank(user)

	prevKey := fmt.Sprintf("%s:%s:%s", category, period, user)
	prev, seen := r.prev[prevKey]
	r.prev[prevKey] = pos
	if !seen {
		prev = pos
	}

	trend := "stable"
	switch {
	case pos < prev:
		trend = "up"
	case pos > prev:
		trend = "down"
	}
	return engine.Standing{Position: pos, PreviousPosition: prev, Trend: trend}, nil
}

// TopN returns the leading entries for a category and period.
func (r *Ranker) TopN(category, period string, n int) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board(category, period).TopN(n)
}

var _ engine.Ranker = (*Ranker)(nil)
