package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progressionkit/core"
	"progressionkit/quest"
)

func TestStateRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	st, err := s.GetState(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, core.UserID("u1"), st.UserID)
	assert.Equal(t, int64(0), st.XP)
	assert.Equal(t, 1, st.Level, "fresh users start at level 1")

	st.XP = 250
	st.Level = 3
	st.StreakDays = 4
	require.NoError(t, s.PutState(ctx, "u1", st))

	got, err := s.GetState(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(250), got.XP)
	assert.Equal(t, 4, got.StreakDays)
}

func TestGrantAchievementDeduplicates(t *testing.T) {
	s := New()
	ctx := context.Background()

	fresh, err := s.GrantAchievement(ctx, "u1", "first_quiz")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = s.GrantAchievement(ctx, "u1", "first_quiz")
	require.NoError(t, err)
	assert.False(t, fresh, "second grant must report already granted")

	ids, err := s.Achievements(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"first_quiz"}, ids)
}

func TestQuestsRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	quests := []quest.Quest{{ID: "quest_1", Name: "Quick Learner", Expires: time.Now().Add(time.Hour)}}
	require.NoError(t, s.PutQuests(ctx, "u1", quests))

	got, err := s.Quests(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "quest_1", got[0].ID)

	// stored slice is a copy
	got[0].ID = "mutated"
	again, err := s.Quests(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "quest_1", again[0].ID)
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st, err := s.GetState(ctx, "u1")
			assert.NoError(t, err)
			st.XP += 10
			assert.NoError(t, s.PutState(ctx, "u1", st))
			_, err = s.GrantAchievement(ctx, "u1", "first_quiz")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
