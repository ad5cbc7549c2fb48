package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progressionkit/core"
	"progressionkit/quest"
)

// newTestClient spins up a miniredis server and returns a client plus cleanup.
func newTestClient(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}
	return client, cleanup
}

func TestStore_StateRoundTrip(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	userID := core.UserID("test-user")
	state := core.ProgressionState{
		UserID:       userID,
		XP:           450,
		Level:        5,
		StreakDays:   7,
		LastActivity: time.Date(2025, 8, 29, 10, 0, 0, 0, time.UTC),
		Updated:      time.Date(2025, 8, 29, 10, 0, 1, 0, time.UTC),
	}

	require.NoError(t, store.PutState(ctx, userID, state))

	got, err := store.GetState(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestStore_GetState_EmptyUser(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)

	state, err := store.GetState(context.Background(), "nonexistent-user")
	require.NoError(t, err)
	assert.Equal(t, core.UserID("nonexistent-user"), state.UserID)
	assert.Equal(t, int64(0), state.XP)
	assert.Equal(t, 1, state.Level)
}

func TestStore_PutState_KeepsNewestWrite(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	userID := core.UserID("test-user")
	newer := core.ProgressionState{UserID: userID, XP: 200, Level: 3,
		Updated: time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)}
	older := core.ProgressionState{UserID: userID, XP: 100, Level: 2,
		Updated: time.Date(2025, 8, 29, 11, 0, 0, 0, time.UTC)}

	require.NoError(t, store.PutState(ctx, userID, newer))
	require.NoError(t, store.PutState(ctx, userID, older))

	got, err := store.GetState(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), got.XP, "stale write must not clobber a newer state")
}

func TestStore_GrantAchievement(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	userID := core.UserID("test-user")

	fresh, err := store.GrantAchievement(ctx, userID, "first_quiz")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = store.GrantAchievement(ctx, userID, "first_quiz")
	require.NoError(t, err)
	assert.False(t, fresh, "repeat grant is not fresh")

	ids, err := store.Achievements(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"first_quiz"}, ids)
}

func TestStore_QuestsRoundTripWithTTL(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	userID := core.UserID("test-user")
	quests := []quest.Quest{{
		ID:          "quest_abc",
		Type:        quest.TypeDaily,
		Name:        "Quick Learner",
		Requirement: quest.Requirement{Type: "complete_quizzes", Count: 3},
		Reward:      []core.Reward{core.XPReward(50)},
		Expires:     time.Now().Add(6 * time.Hour).UTC().Truncate(time.Second),
	}}

	require.NoError(t, store.PutQuests(ctx, userID, quests))

	got, err := store.Quests(ctx, userID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, quests[0].ID, got[0].ID)
	assert.Equal(t, quests[0].Requirement, got[0].Requirement)

	ttl, err := client.TTL(ctx, questsKey(userID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 5*time.Hour)
	assert.LessOrEqual(t, ttl, 6*time.Hour)
}

func TestStore_Quests_Empty(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)

	quests, err := store.Quests(context.Background(), "nonexistent-user")
	require.NoError(t, err)
	assert.Empty(t, quests)
}

func TestConfig_DefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "localhost:6379", config.Addr)
	assert.Equal(t, "", config.Password)
	assert.Equal(t, 0, config.DB)
	assert.Equal(t, 10, config.PoolSize)
	assert.Equal(t, 2, config.MinIdleConns)
	assert.Equal(t, 5*time.Second, config.DialTimeout)
	assert.Equal(t, 3*time.Second, config.ReadTimeout)
	assert.Equal(t, 3*time.Second, config.WriteTimeout)
}
