// Package jsonfile persists progression to a single JSON file.
// Suitable for demos and small deployments.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"progressionkit/core"
	"progressionkit/quest"
)

type userRecord struct {
	State        core.ProgressionState `json:"state"`
	Achievements []string              `json:"achievements,omitempty"`
	Quests       []quest.Quest         `json:"quests,omitempty"`
}

// Store keeps everything in memory and rewrites the file on each mutation
// via a tmp-file rename, so the file is never half-written.
type Store struct {
	path string
	mu   sync.Mutex
	data map[core.UserID]*userRecord
}

func New(path string) (*Store, error) {
	s := &Store{path: path, data: map[core.UserID]*userRecord{}}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var raw map[string]*userRecord
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		s.data[core.UserID(k)] = v
	}
	return nil
}

func (s *Store) persist() error {
	tmp := s.path + ".tmp"
	raw := make(map[string]*userRecord, len(s.data))
	for k, v := range s.data {
		raw[string(k)] = v
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) get(user core.UserID) *userRecord {
	if rec, ok := s.data[user]; ok {
		return rec
	}
	rec := &userRecord{State: core.ProgressionState{UserID: user, Level: 1}}
	s.data[user] = rec
	return rec
}

func (s *Store) GetState(_ context.Context, user core.UserID) (core.ProgressionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(user).State, nil
}

func (s *Store) PutState(_ context.Context, user core.UserID, state core.ProgressionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(user).State = state
	return s.persist()
}

func (s *Store) GrantAchievement(_ context.Context, user core.UserID, achievementID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.get(user)
	for _, id := range rec.Achievements {
		if id == achievementID {
			return false, nil
		}
	}
	rec.Achievements = append(rec.Achievements, achievementID)
	if err := s.persist(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Achievements(_ context.Context, user core.UserID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.get(user)
	out := make([]string, len(rec.Achievements))
	copy(out, rec.Achievements)
	return out, nil
}

func (s *Store) PutQuests(_ context.Context, user core.UserID, quests []quest.Quest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.get(user)
	rec.Quests = make([]quest.Quest, len(quests))
	copy(rec.Quests, quests)
	return s.persist()
}

func (s *Store) Quests(_ context.Context, user core.UserID) ([]quest.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.get(user)
	out := make([]quest.Quest, len(rec.Quests))
	copy(out, rec.Quests)
	return out, nil
}
