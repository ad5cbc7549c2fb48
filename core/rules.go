package core

import "context"

// Rule determines whether given state and trigger event should emit derived events.
type Rule interface {
	Evaluate(ctx context.Context, state ProgressionState, trigger Event) []Event
}

// LevelUpRule emits a level up when the canonical curve crosses a boundary.
type LevelUpRule struct{}

func (r LevelUpRule) Evaluate(_ context.Context, state ProgressionState, trigger Event) []Event {
	if trigger.Type != EventXPAwarded {
		return nil
	}
	newLevel := LevelFromXP(state.XP)
	if newLevel > state.Level {
		return []Event{NewLevelUp(state.UserID, newLevel)}
	}
	return nil
}
