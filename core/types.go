package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// UserID uniquely identifies a learner in the progression domain.
type UserID string

// LevelCap is the maximum reachable level.
const LevelCap = 100

// BaseXP is the XP cost of one level on the canonical curve.
const BaseXP = 100

// ProgressionState is a caller-owned snapshot of a user's progression.
// The engine reads and returns these values; it never keeps them between
// calls, so one engine instance can serve any number of users.
type ProgressionState struct {
	UserID       UserID    `json:"user_id"`
	XP           int64     `json:"xp"`
	Level        int       `json:"level"`
	StreakDays   int       `json:"streak_days"`
	ComboCount   int       `json:"combo_count"`
	LastActivity time.Time `json:"last_activity"`
	Updated      time.Time `json:"updated"`
}

// Clamped returns a copy with negative counters raised to zero and the
// level recomputed from XP so the level/XP invariant holds.
func (s ProgressionState) Clamped() ProgressionState {
	cp := s
	if cp.XP < 0 {
		cp.XP = 0
	}
	if cp.StreakDays < 0 {
		cp.StreakDays = 0
	}
	if cp.ComboCount < 0 {
		cp.ComboCount = 0
	}
	cp.Level = LevelFromXP(cp.XP)
	return cp
}

// LevelFromXP maps total XP to a level on the canonical curve
// floor(xp/BaseXP)+1, clamped to [1, LevelCap]. Negative XP counts as zero.
func LevelFromXP(totalXP int64) int {
	if totalXP <= 0 {
		return 1
	}
	lvl := int(totalXP/BaseXP) + 1
	if lvl > LevelCap {
		return LevelCap
	}
	return lvl
}

// AddSafe adds delta to base ensuring no signed overflow occurs.
func AddSafe(base int64, delta int64) (int64, error) {
	if (delta > 0 && base > math.MaxInt64-delta) || (delta < 0 && base < math.MinInt64-delta) {
		return 0, errors.New("integer overflow in AddSafe")
	}
	return base + delta, nil
}

// NormalizeUserID trims and lowercases user identifiers.
func NormalizeUserID(id UserID) (UserID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty user id")
	}
	return UserID(strings.ToLower(s)), nil
}

// RewardType tags the members of the Reward union.
type RewardType string

const (
	RewardXP       RewardType = "xp"
	RewardBadge    RewardType = "badge"
	RewardPowerup  RewardType = "powerup"
	RewardCurrency RewardType = "currency"
	RewardTitle    RewardType = "title"
)

// Reward is a tagged union. Amount carries xp/currency values, ID carries
// badge/powerup identifiers, Name carries titles.
type Reward struct {
	Type   RewardType `json:"type"`
	Amount int64      `json:"amount,omitempty"`
	ID     string     `json:"id,omitempty"`
	Name   string     `json:"name,omitempty"`
}

func XPReward(amount int64) Reward       { return Reward{Type: RewardXP, Amount: amount} }
func BadgeReward(id string) Reward       { return Reward{Type: RewardBadge, ID: id} }
func PowerupReward(id string) Reward     { return Reward{Type: RewardPowerup, ID: id} }
func CurrencyReward(amount int64) Reward { return Reward{Type: RewardCurrency, Amount: amount} }
func TitleReward(name string) Reward     { return Reward{Type: RewardTitle, Name: name} }

// Payload carries heterogeneous event data (quiz scores, timings, counters)
// supplied by the caller. Accessors coerce the usual JSON number shapes.
type Payload map[string]any

// Number returns a numeric field as float64, accepting any common numeric type.
func (p Payload) Number(key string) (float64, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func (p Payload) String(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok
}

func (p Payload) Bool(key string) (bool, bool) {
	b, ok := p[key].(bool)
	return b, ok
}

// FlashEventDoubleXP is the flash event type that doubles XP for a category.
const FlashEventDoubleXP = "double_xp"

// FlashEvent is a time-boxed global multiplier window. It is caller-owned;
// the engine only consumes a list of these to compute multipliers.
type FlashEvent struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	Category  string        `json:"category"`
	Duration  time.Duration `json:"duration"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
}

// ActiveAt reports whether the event window covers t.
func (e FlashEvent) ActiveAt(t time.Time) bool {
	return !t.Before(e.StartTime) && t.Before(e.EndTime)
}
