package engine

import (
	"context"
	"fmt"
	"time"

	"progressionkit/achievement"
	"progressionkit/core"
	"progressionkit/quest"
	"progressionkit/reward"
	"progressionkit/streak"
)

// QuizResult is one finished quiz as reported by the quiz handler.
type QuizResult struct {
	Score        float64
	TimeSpent    float64 // seconds
	Difficulty   string
	PerfectScore bool
	Correct      bool
	Category     string
	IsFirstQuiz  bool
	TotalQuizzes int
	ActiveEvents []core.FlashEvent
	When         time.Time // defaults to the service clock when zero
}

// ProgressReport is everything one quiz changed.
type ProgressReport struct {
	State        core.ProgressionState     `json:"state"`
	XP           XPResult                  `json:"xp"`
	LeveledUp    bool                      `json:"leveled_up"`
	Streak       streak.Status             `json:"streak"`
	Achievements []achievement.Achievement `json:"achievements,omitempty"`
	Rewards      []reward.Distribution     `json:"rewards,omitempty"`
	MysteryBox   MysteryBox                `json:"mystery_box"`
	Combo        Combo                     `json:"combo"`
}

// RecordQuizResult is the composed write path: it loads the stored state,
// runs every calculator, persists the new state once, and publishes the
// resulting events. Storage failures surface to the caller, and achievement
// grants are recorded only after the state write succeeds, so a failed save
// leaves nothing committed and a retry replays the full result.
func (s *Service) RecordQuizResult(ctx context.Context, user core.UserID, result QuizResult) (ProgressReport, error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return ProgressReport{}, err
	}
	when := result.When
	if when.IsZero() {
		when = s.now()
	}

	state, err := s.storage.GetState(ctx, normalized)
	if err != nil {
		return ProgressReport{}, fmt.Errorf("load state: %w", err)
	}
	state.UserID = normalized
	state = state.Clamped()
	prevLevel := state.Level

	// Streak first so today's XP sees the updated multiplier base.
	var streakStatus streak.Status
	if state.LastActivity.IsZero() {
		streakStatus = streak.Status{IsActive: true, CurrentStreak: 1}
		state.StreakDays = 1
	} else {
		streakStatus = streak.Update(state.LastActivity, when)
		sameDay := state.LastActivity.Year() == when.Year() && state.LastActivity.YearDay() == when.YearDay()
		switch {
		case streakStatus.StreakLost:
			state.StreakDays = 1
		case sameDay:
			// already counted today
		default:
			state.StreakDays += streakStatus.CurrentStreak
		}
	}

	if result.Correct {
		state.ComboCount++
	} else {
		state.ComboCount = 0
	}
	combo := s.UpdateCombo(normalized, state.ComboCount, 0)

	xpResult := s.CalculateXP(XPParams{
		Score:        result.Score,
		TimeSpent:    result.TimeSpent,
		Difficulty:   result.Difficulty,
		PerfectScore: result.PerfectScore,
		StreakDays:   state.StreakDays,
		Category:     result.Category,
		ActiveEvents: result.ActiveEvents,
	})
	earned := xpResult.TotalXP

	payload := core.Payload{
		"score":        result.Score,
		"timeSpent":    result.TimeSpent,
		"difficulty":   result.Difficulty,
		"isFirstQuiz":  result.IsFirstQuiz,
		"totalQuizzes": result.TotalQuizzes,
		"streakDays":   state.StreakDays,
	}

	granted, err := s.storage.Achievements(ctx, normalized)
	if err != nil {
		return ProgressReport{}, fmt.Errorf("load achievements: %w", err)
	}
	have := make(map[string]struct{}, len(granted))
	for _, id := range granted {
		have[id] = struct{}{}
	}

	var unlocked []achievement.Achievement
	var payouts []reward.Distribution
	for _, a := range s.achievements.Check(payload) {
		if _, ok := have[a.ID]; ok {
			continue
		}
		unlocked = append(unlocked, a)
		dist := s.rewards.Distribute(normalized, a.ID, when)
		payouts = append(payouts, dist)
		earned += dist.XP
	}

	box := s.CheckMysteryBox(normalized, "quiz_complete")
	if box.Dropped && box.Contents.Type == core.RewardXP {
		earned += box.Contents.Amount
	}

	newXP, err := core.AddSafe(state.XP, earned)
	if err != nil {
		return ProgressReport{}, err
	}
	state.XP = newXP
	state.Level = core.LevelFromXP(newXP)
	state.LastActivity = when
	state.Updated = s.now().UTC()

	if err := s.storage.PutState(ctx, normalized, state); err != nil {
		return ProgressReport{}, fmt.Errorf("save state: %w", err)
	}

	// Grants are recorded only once the state they paid into is durable, so
	// a failed save never strands an unlock behind the dedupe.
	for _, a := range unlocked {
		if _, err := s.storage.GrantAchievement(ctx, normalized, a.ID); err != nil {
			return ProgressReport{}, fmt.Errorf("grant achievement %s: %w", a.ID, err)
		}
	}

	s.publishQuizEvents(ctx, state, streakStatus, unlocked, box, earned, prevLevel)

	return ProgressReport{
		State:        state,
		XP:           xpResult,
		LeveledUp:    state.Level > prevLevel,
		Streak:       streakStatus,
		Achievements: unlocked,
		Rewards:      payouts,
		MysteryBox:   box,
		Combo:        combo,
	}, nil
}

func (s *Service) publishQuizEvents(ctx context.Context, state core.ProgressionState, st streak.Status, unlocked []achievement.Achievement, box MysteryBox, earned int64, prevLevel int) {
	trigger := core.NewXPAwarded(state.UserID, earned, state.XP)
	s.bus.Publish(ctx, trigger)

	for _, derived := range s.rules.Evaluate(ctx, state, trigger) {
		s.bus.Publish(ctx, derived)
	}
	if st.StreakLost {
		s.bus.Publish(ctx, core.NewStreakBroken(state.UserID, state.StreakDays))
	} else {
		s.bus.Publish(ctx, core.NewStreakExtended(state.UserID, state.StreakDays))
	}
	for _, a := range unlocked {
		s.bus.Publish(ctx, core.NewAchievementUnlocked(state.UserID, a.ID, a.XPReward))
	}
	if box.Dropped {
		s.bus.Publish(ctx, core.NewMysteryBoxDropped(state.UserID, *box.Contents))
	}
	for _, m := range comboMilestones {
		if state.ComboCount == m {
			s.bus.Publish(ctx, core.NewComboMilestone(state.UserID, state.ComboCount))
			break
		}
	}
}

// RefreshDailyQuests generates and persists a new daily quest set.
func (s *Service) RefreshDailyQuests(ctx context.Context, params quest.GenerationParams) ([]quest.Quest, error) {
	normalized, err := core.NormalizeUserID(params.UserID)
	if err != nil {
		return nil, err
	}
	params.UserID = normalized
	quests := s.GenerateDailyQuests(params)
	if err := s.storage.PutQuests(ctx, normalized, quests); err != nil {
		return nil, fmt.Errorf("save quests: %w", err)
	}
	return quests, nil
}

// ActiveQuests returns the stored quest set, dropping expired entries.
func (s *Service) ActiveQuests(ctx context.Context, user core.UserID) ([]quest.Quest, error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return nil, err
	}
	stored, err := s.storage.Quests(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("load quests: %w", err)
	}
	now := s.now()
	active := stored[:0]
	for _, q := range stored {
		if q.Expires.After(now) {
			active = append(active, q)
		}
	}
	return active, nil
}

// CompleteQuest validates a quest against recorded actions and, when
// satisfied, queues its reward and publishes the completion.
func (s *Service) CompleteQuest(ctx context.Context, user core.UserID, q quest.Quest, actions []quest.Action) (reward.Receipt, bool, error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return reward.Receipt{}, false, err
	}
	if !s.quests.ValidateCompletion(q.Requirement, actions) {
		return reward.Receipt{}, false, nil
	}
	receipt := s.rewards.QuestReward(normalized, q, s.now())
	s.bus.Publish(ctx, core.NewQuestCompleted(normalized, q.ID))
	s.bus.Publish(ctx, core.Event{
		Type: core.EventRewardQueued, Time: s.now().UTC(), UserID: normalized,
		QuestID:  q.ID,
		Metadata: map[string]any{"queue_id": receipt.QueueID},
	})
	return receipt, true, nil
}

// UnlockedAchievements lists the achievement IDs a user has earned.
func (s *Service) UnlockedAchievements(ctx context.Context, user core.UserID) ([]string, error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return nil, err
	}
	return s.storage.Achievements(ctx, normalized)
}

// GetState exposes the stored progression for read paths.
func (s *Service) GetState(ctx context.Context, user core.UserID) (core.ProgressionState, error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return core.ProgressionState{}, err
	}
	return s.storage.GetState(ctx, normalized)
}
