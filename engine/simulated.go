package engine

import (
	"context"

	"progressionkit/core"
)

// SimulatedRanker stands in for a real ranking service. Positions are
// random but the calling contract matches a real backend, so swapping one
// in needs no caller changes.
type SimulatedRanker struct {
	rng core.Rand
}

func NewSimulatedRanker(rng core.Rand) *SimulatedRanker {
	return &SimulatedRanker{rng: rng}
}

func (r *SimulatedRanker) Update(_ context.Context, _ core.UserID, _ int64, _, _ string) (Standing, error) {
	position := r.rng.IntN(100) + 1
	previous := position + r.rng.IntN(10) - 5
	trend := "stable"
	switch {
	case position < previous:
		trend = "up"
	case position > previous:
		trend = "down"
	}
	return Standing{Position: position, PreviousPosition: previous, Trend: trend}, nil
}

// SimulatedFeed stands in for a real social service and fabricates
// friend-beat-your-score events for the first two friends.
type SimulatedFeed struct {
	rng core.Rand
}

func NewSimulatedFeed(rng core.Rand) *SimulatedFeed {
	return &SimulatedFeed{rng: rng}
}

func (f *SimulatedFeed) RecentActivity(_ context.Context, _ core.UserID, friends []core.UserID) ([]FriendEvent, error) {
	limit := 2
	if len(friends) < limit {
		limit = len(friends)
	}
	events := make([]FriendEvent, 0, limit)
	for _, friend := range friends[:limit] {
		events = append(events, FriendEvent{
			Type:     "friend_beat_score",
			Friend:   friend,
			Category: "javascript",
			Score:    int64(f.rng.IntN(100) + 50),
		})
	}
	return events, nil
}

var (
	_ Ranker     = (*SimulatedRanker)(nil)
	_ SocialFeed = (*SimulatedFeed)(nil)
)
