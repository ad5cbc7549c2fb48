package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mem "progressionkit/adapters/memory"
	"progressionkit/core"
	"progressionkit/quest"
)

func TestRecordQuizResultFirstQuiz(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	when := time.Date(2025, 8, 29, 10, 0, 0, 0, time.UTC)

	var levelUps, unlocks, streaks int
	svc.Subscribe(core.EventLevelUp, func(context.Context, core.Event) { levelUps++ })
	svc.Subscribe(core.EventAchievementUnlocked, func(context.Context, core.Event) { unlocks++ })
	svc.Subscribe(core.EventStreakExtended, func(context.Context, core.Event) { streaks++ })

	report, err := svc.RecordQuizResult(ctx, "alice", QuizResult{
		Score:        100,
		TimeSpent:    20,
		Correct:      true,
		IsFirstQuiz:  true,
		TotalQuizzes: 1,
		When:         when,
	})
	require.NoError(t, err)

	// (10 base + 10 score + 5 fast) with every multiplier neutral
	assert.Equal(t, int64(25), report.XP.TotalXP)

	require.Len(t, report.Achievements, 2)
	ids := []string{report.Achievements[0].ID, report.Achievements[1].ID}
	assert.Contains(t, ids, "first_quiz")
	assert.Contains(t, ids, "perfect_score")

	// 25 quiz XP + 50 first_quiz + 100 perfect_score
	assert.Equal(t, int64(175), report.State.XP)
	assert.Equal(t, 2, report.State.Level)
	assert.True(t, report.LeveledUp)

	assert.True(t, report.Streak.IsActive)
	assert.Equal(t, 1, report.State.StreakDays)
	assert.Equal(t, Combo{CurrentCombo: 1, Multiplier: 1.0, NextMilestone: 3}, report.Combo)
	assert.False(t, report.MysteryBox.Dropped)

	assert.Equal(t, 1, levelUps)
	assert.Equal(t, 2, unlocks)
	assert.Equal(t, 1, streaks)

	stored, err := svc.GetState(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, report.State, stored)
}

// faultyStorage fails a configurable number of state writes.
type faultyStorage struct {
	Storage
	putFailures int
}

func (f *faultyStorage) PutState(ctx context.Context, user core.UserID, st core.ProgressionState) error {
	if f.putFailures > 0 {
		f.putFailures--
		return errors.New("disk full")
	}
	return f.Storage.PutState(ctx, user, st)
}

func TestRecordQuizResultFailedSaveCommitsNothing(t *testing.T) {
	store := &faultyStorage{Storage: mem.New(), putFailures: 1}
	svc := NewService(store, NewEventBus(DispatchSync), DefaultRuleEngine(),
		WithRand(&fixedRand{float: 0.5, intn: 0}))
	t.Cleanup(svc.Close)

	ctx := context.Background()
	when := time.Date(2025, 8, 29, 10, 0, 0, 0, time.UTC)
	quiz := QuizResult{Score: 100, TimeSpent: 20, Correct: true, IsFirstQuiz: true, When: when}

	_, err := svc.RecordQuizResult(ctx, "carol", quiz)
	require.Error(t, err)

	granted, err := store.Achievements(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, granted, "failed save must not leave grants behind")

	// The retry replays the full result: quiz XP plus both unlock bundles.
	report, err := svc.RecordQuizResult(ctx, "carol", quiz)
	require.NoError(t, err)
	require.Len(t, report.Achievements, 2)
	assert.Equal(t, int64(175), report.State.XP)

	granted, err = store.Achievements(ctx, "carol")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"first_quiz", "perfect_score"}, granted)
}

func TestRecordQuizResultAchievementsPayOnce(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	when := time.Date(2025, 8, 29, 10, 0, 0, 0, time.UTC)

	quiz := QuizResult{Score: 100, TimeSpent: 20, Correct: true, IsFirstQuiz: true, When: when}
	first, err := svc.RecordQuizResult(ctx, "bob", quiz)
	require.NoError(t, err)
	require.Len(t, first.Achievements, 2)

	quiz.When = when.Add(time.Hour)
	second, err := svc.RecordQuizResult(ctx, "bob", quiz)
	require.NoError(t, err)
	assert.Empty(t, second.Achievements, "already granted, no double payout")
	assert.Empty(t, second.Rewards)
	assert.Equal(t, first.State.XP+25, second.State.XP)
}

func TestRecordQuizResultStreakAccumulates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	day1 := time.Date(2025, 8, 27, 10, 0, 0, 0, time.UTC)

	_, err := svc.RecordQuizResult(ctx, "carol", QuizResult{Score: 50, TimeSpent: 60, Correct: true, When: day1})
	require.NoError(t, err)

	report, err := svc.RecordQuizResult(ctx, "carol", QuizResult{Score: 50, TimeSpent: 60, Correct: true, When: day1.Add(24 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 2, report.State.StreakDays)
	assert.Equal(t, 2, report.State.ComboCount)

	// skipping a day resets the streak but not the lifetime XP
	var broken int
	svc.Subscribe(core.EventStreakBroken, func(context.Context, core.Event) { broken++ })
	report, err = svc.RecordQuizResult(ctx, "carol", QuizResult{Score: 50, TimeSpent: 60, When: day1.Add(72 * time.Hour)})
	require.NoError(t, err)
	assert.True(t, report.Streak.StreakLost)
	assert.Equal(t, 1, report.State.StreakDays)
	assert.Equal(t, 0, report.State.ComboCount, "wrong answer resets the combo")
	assert.Equal(t, 1, broken)
}

func TestRecordQuizResultRejectsBadUser(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.RecordQuizResult(context.Background(), "  ", QuizResult{Score: 50})
	require.Error(t, err)
}

func TestRefreshAndActiveQuests(t *testing.T) {
	now := time.Date(2025, 8, 29, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	quests, err := svc.RefreshDailyQuests(ctx, quest.GenerationParams{
		UserID:      "dave",
		UserLevel:   12,
		Preferences: []string{"performance"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, quests)

	active, err := svc.ActiveQuests(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, quests, active)

	// after midnight the daily set is expired
	later := now.Add(24 * time.Hour)
	svcLater := NewService(svc.storage, NewEventBus(DispatchSync), DefaultRuleEngine(),
		WithClock(func() time.Time { return later }))
	t.Cleanup(svcLater.Close)
	active, err = svcLater.ActiveQuests(ctx, "dave")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCompleteQuest(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	q := quest.Quest{
		ID:          "quest_test",
		Requirement: quest.Requirement{Type: "complete_quizzes", Count: 2},
		Reward:      []core.Reward{core.XPReward(100)},
	}

	var completed int
	svc.Subscribe(core.EventQuestCompleted, func(context.Context, core.Event) { completed++ })

	actions := []quest.Action{{Type: "complete_quizzes"}}
	_, done, err := svc.CompleteQuest(ctx, "erin", q, actions)
	require.NoError(t, err)
	assert.False(t, done, "one action does not satisfy a count of two")
	assert.Zero(t, completed)

	actions = append(actions, quest.Action{Type: "complete_quizzes"})
	receipt, done, err := svc.CompleteQuest(ctx, "erin", q, actions)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, "queued", receipt.Status)
	assert.NotEmpty(t, receipt.QueueID)
	assert.Equal(t, 1, completed)
}

func TestGetStateDefaultsForNewUser(t *testing.T) {
	svc := NewService(mem.New(), NewEventBus(DispatchSync), DefaultRuleEngine())
	t.Cleanup(svc.Close)

	state, err := svc.GetState(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, int64(0), state.XP)
	assert.Equal(t, 1, state.Level)
}
