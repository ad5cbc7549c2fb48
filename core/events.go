package core

import "time"

// EventType enumerates progression domain events.
type EventType string

const (
	EventXPAwarded           EventType = "xp_awarded"
	EventLevelUp             EventType = "level_up"
	EventAchievementUnlocked EventType = "achievement_unlocked"
	EventStreakExtended      EventType = "streak_extended"
	EventStreakBroken        EventType = "streak_broken"
	EventQuestCompleted      EventType = "quest_completed"
	EventRewardQueued        EventType = "reward_queued"
	EventMysteryBoxDropped   EventType = "mystery_box_dropped"
	EventComboMilestone      EventType = "combo_milestone"
	EventChallengeCreated    EventType = "challenge_created"
	EventFlashEventStarted   EventType = "flash_event_started"
)

// Event represents an immutable domain event.
type Event struct {
	Type        EventType      `json:"type"`
	Time        time.Time      `json:"time"`
	UserID      UserID         `json:"user_id"`
	XP          int64          `json:"xp,omitempty"`
	TotalXP     int64          `json:"total_xp,omitempty"`
	Level       int            `json:"level,omitempty"`
	Achievement string         `json:"achievement,omitempty"`
	StreakDays  int            `json:"streak_days,omitempty"`
	Combo       int            `json:"combo,omitempty"`
	QuestID     string         `json:"quest_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func NewXPAwarded(user UserID, delta int64, total int64) Event {
	return Event{Type: EventXPAwarded, Time: time.Now().UTC(), UserID: user, XP: delta, TotalXP: total}
}

func NewLevelUp(user UserID, level int) Event {
	return Event{Type: EventLevelUp, Time: time.Now().UTC(), UserID: user, Level: level}
}

func NewAchievementUnlocked(user UserID, achievementID string, xpReward int64) Event {
	return Event{Type: EventAchievementUnlocked, Time: time.Now().UTC(), UserID: user, Achievement: achievementID, XP: xpReward}
}

func NewStreakExtended(user UserID, days int) Event {
	return Event{Type: EventStreakExtended, Time: time.Now().UTC(), UserID: user, StreakDays: days}
}

func NewStreakBroken(user UserID, lostDays int) Event {
	return Event{Type: EventStreakBroken, Time: time.Now().UTC(), UserID: user, StreakDays: lostDays}
}

func NewQuestCompleted(user UserID, questID string) Event {
	return Event{Type: EventQuestCompleted, Time: time.Now().UTC(), UserID: user, QuestID: questID}
}

func NewMysteryBoxDropped(user UserID, contents Reward) Event {
	return Event{Type: EventMysteryBoxDropped, Time: time.Now().UTC(), UserID: user,
		Metadata: map[string]any{"contents": contents}}
}

func NewComboMilestone(user UserID, combo int) Event {
	return Event{Type: EventComboMilestone, Time: time.Now().UTC(), UserID: user, Combo: combo}
}
