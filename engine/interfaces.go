package engine

import (
	"context"

	"progressionkit/core"
	"progressionkit/quest"
)

// Storage abstracts the persistence collaborator. The engine never caches
// what it reads; every call round-trips so state stays caller-owned.
type Storage interface {
	// GetState returns the stored progression for a user, or a zero-value
	// state carrying the user id when none exists yet.
	GetState(ctx context.Context, user core.UserID) (core.ProgressionState, error)
	PutState(ctx context.Context, user core.UserID, state core.ProgressionState) error

	// GrantAchievement records an unlock and reports whether it was newly
	// granted; repeated grants return false so rewards pay out once.
	GrantAchievement(ctx context.Context, user core.UserID, achievementID string) (bool, error)
	Achievements(ctx context.Context, user core.UserID) ([]string, error)

	PutQuests(ctx context.Context, user core.UserID, quests []quest.Quest) error
	Quests(ctx context.Context, user core.UserID) ([]quest.Quest, error)
}

// RuleEngine evaluates rules and emits derived events.
type RuleEngine interface {
	Evaluate(ctx context.Context, state core.ProgressionState, trigger core.Event) []core.Event
}

// Standing is a user's leaderboard placement after a score update.
type Standing struct {
	Position         int    `json:"position"`
	PreviousPosition int    `json:"previous_position"`
	Trend            string `json:"trend"`
}

// Ranker abstracts the leaderboard collaborator. The simulated default can
// be swapped for a real ranking backend without changing callers.
type Ranker interface {
	Update(ctx context.Context, user core.UserID, score int64, category, period string) (Standing, error)
}

// FriendEvent is one entry of friend activity.
type FriendEvent struct {
	Type     string      `json:"type"`
	Friend   core.UserID `json:"friend"`
	Category string      `json:"category"`
	Score    int64       `json:"score"`
}

// SocialFeed abstracts the social collaborator behind friend-activity
// notifications.
type SocialFeed interface {
	RecentActivity(ctx context.Context, user core.UserID, friends []core.UserID) ([]FriendEvent, error)
}
