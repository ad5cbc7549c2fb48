// Package memory provides a concurrent in-memory Storage implementation,
// the default for tests and demos.
package memory

import (
	"context"
	"sync"
	"time"

	"progressionkit/core"
	"progressionkit/quest"
)

// Store is a concurrent in-memory Storage implementation.
type Store struct {
	users sync.Map // map[core.UserID]*userRecord
}

type userRecord struct {
	mu           sync.Mutex
	state        core.ProgressionState
	achievements map[string]struct{}
	quests       []quest.Quest
}

func New() *Store { return &Store{} }

func (s *Store) getOrCreate(user core.UserID) *userRecord {
	if v, ok := s.users.Load(user); ok {
		return v.(*userRecord)
	}
	rec := &userRecord{
		state:        core.ProgressionState{UserID: user, Level: 1, Updated: time.Now().UTC()},
		achievements: map[string]struct{}{},
	}
	actual, _ := s.users.LoadOrStore(user, rec)
	return actual.(*userRecord)
}

func (s *Store) GetState(_ context.Context, user core.UserID) (core.ProgressionState, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.state, nil
}

func (s *Store) PutState(_ context.Context, user core.UserID, state core.ProgressionState) error {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	state.UserID = user
	rec.state = state
	return nil
}

func (s *Store) GrantAchievement(_ context.Context, user core.UserID, achievementID string) (bool, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if _, granted := rec.achievements[achievementID]; granted {
		return false, nil
	}
	rec.achievements[achievementID] = struct{}{}
	return true, nil
}

func (s *Store) Achievements(_ context.Context, user core.UserID) ([]string, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]string, 0, len(rec.achievements))
	for id := range rec.achievements {
		out = append(out, id)
	}
	return out, nil
}

func (s *Store) PutQuests(_ context.Context, user core.UserID, quests []quest.Quest) error {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.quests = append([]quest.Quest(nil), quests...)
	return nil
}

func (s *Store) Quests(_ context.Context, user core.UserID) ([]quest.Quest, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]quest.Quest(nil), rec.quests...), nil
}
