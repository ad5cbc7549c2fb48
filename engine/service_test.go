package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mem "progressionkit/adapters/memory"
	"progressionkit/core"
)

// fixedRand returns scripted values so multiplier math is exact.
type fixedRand struct {
	float float64
	intn  int
}

func (r *fixedRand) Float64() float64 { return r.float }
func (r *fixedRand) IntN(n int) int   { return r.intn % n }

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	base := []Option{WithRand(&fixedRand{float: 0.5, intn: 0})}
	svc := NewService(mem.New(), NewEventBus(DispatchSync), DefaultRuleEngine(), append(base, opts...)...)
	t.Cleanup(svc.Close)
	return svc
}

func TestCalculateXP(t *testing.T) {
	svc := newTestService(t)

	res := svc.CalculateXP(XPParams{Score: 80, TimeSpent: 20, Difficulty: "hard", StreakDays: 7})
	assert.Equal(t, int64(10), res.BaseXP)
	assert.Equal(t, int64(13), res.BonusXP, "8 score bonus + 5 fast answer")
	// (10+13) * 1.5 difficulty * 1.0 variable * 1.5 streak
	assert.Equal(t, int64(51), res.TotalXP)
	assert.Equal(t, []string{"streak"}, res.Multipliers)
	assert.Equal(t, 1.5, res.StreakMultiplier)
	assert.Equal(t, 1.0, res.VariableMultiplier)
	assert.Equal(t, 1.0, res.EventMultiplier)
}

func TestCalculateXPNeutralDefaults(t *testing.T) {
	svc := newTestService(t)

	res := svc.CalculateXP(XPParams{Score: -20, TimeSpent: 120})
	assert.Equal(t, int64(0), res.BonusXP, "negative score clamps, slow answer earns nothing")
	assert.Equal(t, int64(10), res.TotalXP)
	assert.Empty(t, res.Multipliers)
}

func TestCalculateXPLuckyMultiplier(t *testing.T) {
	svc := newTestService(t, WithRand(&fixedRand{float: 0.5, intn: 9}))

	res := svc.CalculateXP(XPParams{Score: 50, TimeSpent: 60})
	assert.Equal(t, 5.0, res.VariableMultiplier, "index 9 of the distribution")
	assert.Equal(t, int64(75), res.TotalXP, "(10+5)*5")
	assert.Contains(t, res.Multipliers, "lucky")
}

func TestCalculateXPEventMultiplier(t *testing.T) {
	svc := newTestService(t)

	events := []core.FlashEvent{{Type: core.FlashEventDoubleXP, Category: "react"}}
	res := svc.CalculateXP(XPParams{Score: 50, TimeSpent: 60, Category: "react", ActiveEvents: events})
	assert.Equal(t, 2.0, res.EventMultiplier)
	assert.Equal(t, int64(30), res.TotalXP, "(10+5)*2")

	res = svc.CalculateXP(XPParams{Score: 50, TimeSpent: 60, Category: "golang", ActiveEvents: events})
	assert.Equal(t, 1.0, res.EventMultiplier, "category must match")
}

func TestUpdateStreakDelegation(t *testing.T) {
	svc := newTestService(t)

	st := svc.UpdateStreak("u1",
		time.Date(2025, 8, 27, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 29, 9, 0, 0, 0, time.UTC))
	assert.False(t, st.IsActive)
	assert.Equal(t, 0, st.CurrentStreak)
	assert.True(t, st.StreakLost)

	st = svc.UpdateStreak("u1",
		time.Date(2025, 8, 28, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 29, 9, 0, 0, 0, time.UTC))
	assert.True(t, st.IsActive)
	assert.Equal(t, 1, st.CurrentStreak)
	assert.False(t, st.StreakLost)
}

func TestStreakWarningsNearMidnight(t *testing.T) {
	svc := newTestService(t)
	lastActivity := time.Date(2025, 8, 28, 9, 0, 0, 0, time.UTC)

	late := time.Date(2025, 8, 29, 22, 30, 0, 0, time.UTC)
	warnings := svc.StreakWarnings("u1", lastActivity, late)
	require.Len(t, warnings, 1)
	assert.Equal(t, "streak_warning", warnings[0].Type)
	assert.Equal(t, "high", warnings[0].Urgency)
	assert.Contains(t, warnings[0].Message, "2 hours")

	noon := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)
	assert.Empty(t, svc.StreakWarnings("u1", lastActivity, noon))
}

func TestStreakUrgency(t *testing.T) {
	svc := newTestService(t)

	u := svc.StreakUrgency(time.Time{}, time.Date(2025, 8, 29, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "critical", u.Level)
	assert.True(t, u.OfferStreakFreeze)

	u = svc.StreakUrgency(time.Time{}, time.Date(2025, 8, 29, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, "low", u.Level)
	assert.False(t, u.OfferStreakFreeze)
	assert.Equal(t, "Streak is safe", u.Message)
}

func TestStreakProtectionScalesWithStreak(t *testing.T) {
	svc := newTestService(t)

	items := svc.StreakProtection("u1", 0)
	require.Len(t, items, 2)
	assert.Equal(t, "streak_freeze", items[0].ID)
	assert.Equal(t, int64(100), items[0].Cost)
	assert.Equal(t, "streak_repair", items[1].ID)

	items = svc.StreakProtection("u1", 35)
	assert.Equal(t, int64(400), items[0].Cost)
}

func TestUpdateQuestProgress(t *testing.T) {
	svc := newTestService(t)

	p := svc.UpdateQuestProgress("quest_1", 0, 3)
	assert.Equal(t, QuestProgress{CurrentProgress: 1, IsComplete: false, RewardGranted: false}, p)

	p = svc.UpdateQuestProgress("quest_1", 2, 3)
	assert.Equal(t, QuestProgress{CurrentProgress: 3, IsComplete: true, RewardGranted: true}, p)

	p = svc.UpdateQuestProgress("quest_1", -4, 3)
	assert.Equal(t, 1, p.CurrentProgress, "negative progress clamps to zero")
}

func TestUpdateCombo(t *testing.T) {
	svc := newTestService(t)

	cases := []struct {
		answers    int
		multiplier float64
		next       int
	}{
		{0, 1.0, 3},
		{2, 1.0, 3},
		{3, 1.2, 5},
		{5, 1.5, 10},
		{9, 1.5, 10},
		{10, 2.0, 20},
		{25, 2.0, 20},
		{-1, 1.0, 3},
	}
	for _, c := range cases {
		combo := svc.UpdateCombo("u1", c.answers, time.Minute)
		assert.Equal(t, c.multiplier, combo.Multiplier, "answers=%d", c.answers)
		assert.Equal(t, c.next, combo.NextMilestone, "answers=%d", c.answers)
	}

	combo := svc.UpdateCombo("u1", 5, time.Minute)
	assert.Equal(t, Combo{CurrentCombo: 5, Multiplier: 1.5, NextMilestone: 10}, combo)
}

func TestCheckMysteryBoxRoll(t *testing.T) {
	// Float64 below the drop rate: dropped, first table entry at roll 0.5*100=50... under cumulative 50
	svc := newTestService(t, WithRand(&fixedRand{float: 0.05, intn: 0}))
	box := svc.CheckMysteryBox("u1", "quiz_complete")
	require.True(t, box.Dropped)
	require.NotNil(t, box.Contents)

	svc = newTestService(t, WithRand(&fixedRand{float: 0.95, intn: 0}))
	box = svc.CheckMysteryBox("u1", "quiz_complete")
	assert.False(t, box.Dropped)
	assert.Nil(t, box.Contents)
}

func TestCheckMysteryBoxDropRate(t *testing.T) {
	svc := newTestService(t, WithRand(core.NewSeededRand(7, 13)))

	drops := 0
	const n = 1000
	for i := 0; i < n; i++ {
		if svc.CheckMysteryBox("u1", "quiz_complete").Dropped {
			drops++
		}
	}
	// 10% rate with generous statistical tolerance
	assert.Greater(t, drops, 50, "drop rate far below 10%%: %d/%d", drops, n)
	assert.Less(t, drops, 150, "drop rate far above 10%%: %d/%d", drops, n)
}

func TestCreateFlashEvent(t *testing.T) {
	now := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, WithClock(func() time.Time { return now }))

	ev := svc.CreateFlashEvent(core.FlashEventDoubleXP, "react", 2*time.Hour)
	assert.Equal(t, core.FlashEventDoubleXP, ev.Type)
	assert.Equal(t, now, ev.StartTime)
	assert.Equal(t, now.Add(2*time.Hour), ev.EndTime)
	assert.NotEmpty(t, ev.ID)
}

func TestUpdateLeaderboardSimulated(t *testing.T) {
	svc := newTestService(t, WithRand(core.NewSeededRand(1, 2)))

	standing, err := svc.UpdateLeaderboard(context.Background(), "u1", 500, "react", "weekly")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, standing.Position, 1)
	assert.LessOrEqual(t, standing.Position, 100)
	assert.Contains(t, []string{"up", "down", "stable"}, standing.Trend)
}

func TestCheckFriendActivitySimulated(t *testing.T) {
	svc := newTestService(t, WithRand(core.NewSeededRand(3, 4)))

	events, err := svc.CheckFriendActivity(context.Background(), "u1",
		[]core.UserID{"f1", "f2", "f3"})
	require.NoError(t, err)
	require.Len(t, events, 2, "at most two friends are surfaced")
	assert.Equal(t, core.UserID("f1"), events[0].Friend)
	assert.Equal(t, "friend_beat_score", events[0].Type)

	events, err = svc.CheckFriendActivity(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCreateChallenge(t *testing.T) {
	now := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, WithClock(func() time.Time { return now }))

	ch := svc.CreateChallenge("u1", "u2", "react", core.CurrencyReward(50))
	assert.Equal(t, "pending", ch.Status)
	assert.Equal(t, now.Add(24*time.Hour), ch.ExpiresAt)
	assert.NotEmpty(t, ch.Room)
	assert.Equal(t, core.UserID("u1"), ch.ChallengerID)
}

func TestCalculatorsAreIdempotent(t *testing.T) {
	svc := newTestService(t)
	p := XPParams{Score: 70, TimeSpent: 40, Difficulty: "medium", StreakDays: 14}
	assert.Equal(t, svc.CalculateXP(p), svc.CalculateXP(p))

	data := core.Payload{"streakDays": 7}
	assert.Equal(t, svc.CheckAchievements("u1", "quiz", data), svc.CheckAchievements("u1", "quiz", data))
}
