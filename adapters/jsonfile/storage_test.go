package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"progressionkit/core"
	"progressionkit/quest"
)

func TestStorePersistAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	store, err := New(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	state := core.ProgressionState{
		UserID:     "alice",
		XP:         250,
		Level:      3,
		StreakDays: 4,
		Updated:    time.Date(2025, 8, 29, 10, 0, 0, 0, time.UTC),
	}
	if err := store.PutState(context.Background(), "alice", state); err != nil {
		t.Fatalf("put state: %v", err)
	}

	fresh, err := store.GrantAchievement(context.Background(), "alice", "first_quiz")
	if err != nil || !fresh {
		t.Fatalf("grant achievement: fresh=%v err=%v", fresh, err)
	}

	// ensure file written
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s", path)
	}

	// reload
	reloaded, err := New(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	got, err := reloaded.GetState(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if got.XP != 250 || got.Level != 3 || got.StreakDays != 4 {
		t.Fatalf("unexpected state after reload: %+v", got)
	}

	ids, err := reloaded.Achievements(context.Background(), "alice")
	if err != nil {
		t.Fatalf("achievements: %v", err)
	}
	if len(ids) != 1 || ids[0] != "first_quiz" {
		t.Fatalf("expected [first_quiz], got %v", ids)
	}
}

func TestStoreGrantAchievementDedupes(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if fresh, _ := store.GrantAchievement(context.Background(), "bob", "perfect_score"); !fresh {
		t.Fatal("first grant should be fresh")
	}
	if fresh, _ := store.GrantAchievement(context.Background(), "bob", "perfect_score"); fresh {
		t.Fatal("repeat grant should not be fresh")
	}
}

func TestStoreQuestsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	store, err := New(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	quests := []quest.Quest{{
		ID:          "quest_xyz",
		Type:        quest.TypeDaily,
		Name:        "Quick Learner",
		Requirement: quest.Requirement{Type: "complete_quizzes", Count: 3},
		Expires:     time.Date(2025, 8, 29, 23, 59, 59, 0, time.UTC),
	}}
	if err := store.PutQuests(context.Background(), "alice", quests); err != nil {
		t.Fatalf("put quests: %v", err)
	}

	reloaded, err := New(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, err := reloaded.Quests(context.Background(), "alice")
	if err != nil {
		t.Fatalf("quests: %v", err)
	}
	if len(got) != 1 || got[0].ID != "quest_xyz" || got[0].Requirement.Count != 3 {
		t.Fatalf("unexpected quests after reload: %+v", got)
	}
}

func TestStoreDefaultsForNewUser(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	state, err := store.GetState(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state.UserID != "nobody" || state.Level != 1 || state.XP != 0 {
		t.Fatalf("unexpected default state: %+v", state)
	}
}
