// Package xp maps total XP to levels and difficulty labels to multipliers.
// All functions are pure; the level-requirement table is built once and
// never mutated afterwards.
package xp

import (
	"strings"

	"progressionkit/core"
)

// Difficulty multipliers applied to earned XP.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
	DifficultyExpert = "expert"
)

var difficultyMultipliers = map[string]float64{
	DifficultyEasy:   0.8,
	DifficultyMedium: 1.0,
	DifficultyHard:   1.5,
	DifficultyExpert: 2.0,
}

// Requirement is one row of the level progression table.
type Requirement struct {
	Level           int   `json:"level"`
	TotalXPRequired int64 `json:"total_xp_required"`
	XPToNext        int64 `json:"xp_to_next"`
}

// Progress describes how far into the current level a user is.
type Progress struct {
	Current    int64   `json:"current"`
	Needed     int64   `json:"needed"`
	Percentage float64 `json:"percentage"`
}

// Calculator precomputes the tiered level-requirement table at construction.
type Calculator struct {
	requirements []Requirement // indexed by level-1, levels 1..LevelCap
}

func NewCalculator() *Calculator {
	reqs := make([]Requirement, core.LevelCap)
	var cumulative int64
	for level := 1; level <= core.LevelCap; level++ {
		toNext := xpForLevel(level)
		reqs[level-1] = Requirement{Level: level, TotalXPRequired: cumulative, XPToNext: toNext}
		cumulative += toNext
	}
	return &Calculator{requirements: reqs}
}

// xpForLevel is the per-level cost: 100 XP for levels 1-5, 150 for 6-20,
// 600 for 21-60, 1200 beyond.
func xpForLevel(level int) int64 {
	switch {
	case level <= 5:
		return 100
	case level <= 20:
		return 150
	case level <= 60:
		return 600
	default:
		return 1200
	}
}

// LevelFromXP maps total XP to a level on the canonical curve. Levels are
// clamped to [1, core.LevelCap]; negative XP counts as zero.
func (c *Calculator) LevelFromXP(totalXP int64) int {
	return core.LevelFromXP(totalXP)
}

// XPForNextLevel returns the XP cost of advancing past currentLevel.
// Out-of-range levels fall back to the base cost.
func (c *Calculator) XPForNextLevel(currentLevel int) int64 {
	if currentLevel < 1 || currentLevel > len(c.requirements) {
		return core.BaseXP
	}
	return c.requirements[currentLevel-1].XPToNext
}

// TotalXPForLevel returns the cumulative XP required to reach targetLevel.
func (c *Calculator) TotalXPForLevel(targetLevel int) int64 {
	if targetLevel < 1 || targetLevel > len(c.requirements) {
		return 0
	}
	return c.requirements[targetLevel-1].TotalXPRequired
}

// DifficultyMultiplier maps a difficulty label to its XP multiplier.
// Unknown or empty labels are neutral.
func (c *Calculator) DifficultyMultiplier(difficulty string) float64 {
	if difficulty == "" {
		return 1.0
	}
	if m, ok := difficultyMultipliers[strings.ToLower(difficulty)]; ok {
		return m
	}
	return 1.0
}

// ProgressToNextLevel reports position within the current level against the
// tiered table. Percentage is clamped to [0,100]; a non-positive "needed"
// yields zero to guard the division.
func (c *Calculator) ProgressToNextLevel(totalXP int64) Progress {
	if totalXP < 0 {
		totalXP = 0
	}
	level := core.LevelFromXP(totalXP)
	if level >= len(c.requirements) {
		return Progress{Current: 0, Needed: core.BaseXP, Percentage: 0}
	}
	req := c.requirements[level-1]
	current := totalXP - req.TotalXPRequired
	if current < 0 {
		current = 0
	}
	return Progress{
		Current:    current,
		Needed:     req.XPToNext,
		Percentage: percentage(current, req.XPToNext),
	}
}

func percentage(current, total int64) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(current) / float64(total) * 100
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}
