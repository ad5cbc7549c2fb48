// Package streak computes day-based streak continuity, loyalty bonuses,
// and milestone rewards. Dates are compared by calendar day; time-of-day
// never matters.
package streak

import "time"

// Status is the outcome of a single continuity check. CurrentStreak is the
// continuation count earned by this call; callers accumulate it against
// their stored streak length.
type Status struct {
	IsActive      bool `json:"is_active"`
	CurrentStreak int  `json:"current_streak"`
	StreakLost    bool `json:"streak_lost"`
}

// Milestone pairs a streak length with its achievement and XP bonus.
type Milestone struct {
	Days        int    `json:"days"`
	Achievement string `json:"achievement"`
	XPBonus     int64  `json:"xp_bonus"`
}

type bonusTier struct {
	minDays    int
	multiplier float64
}

// Highest threshold met wins.
var bonusTiers = []bonusTier{
	{100, 3.0},
	{60, 2.5},
	{30, 2.0},
	{14, 1.7},
	{7, 1.5},
	{3, 1.1},
	{0, 1.0},
}

var milestones = []Milestone{
	{3, "first_streak", 50},
	{7, "week_warrior", 150},
	{14, "fortnight_fighter", 300},
	{30, "month_master", 500},
	{60, "two_month_titan", 1000},
	{100, "century_champion", 2000},
	{365, "year_legend", 10000},
}

// Update transitions the streak state machine. Same-day or next-day
// activity keeps the streak alive; any larger gap breaks it.
func Update(lastActivity, currentDate time.Time) Status {
	diff := daysBetween(lastActivity, currentDate)
	if diff > 1 {
		return Status{IsActive: false, CurrentStreak: 0, StreakLost: true}
	}
	return Status{IsActive: true, CurrentStreak: 1, StreakLost: false}
}

// Bonus returns the loyalty multiplier for a streak length.
func Bonus(streakDays int) float64 {
	for _, tier := range bonusTiers {
		if streakDays >= tier.minDays {
			return tier.multiplier
		}
	}
	return 1.0
}

// Milestones returns the milestones hit exactly at currentStreak days.
func Milestones(currentStreak int) []Milestone {
	var hit []Milestone
	for _, m := range milestones {
		if m.Days == currentStreak {
			hit = append(hit, m)
		}
	}
	return hit
}

// NextMilestone returns the first milestone beyond currentStreak, or nil
// once every milestone is behind the user.
func NextMilestone(currentStreak int) *Milestone {
	for _, m := range milestones {
		if m.Days > currentStreak {
			next := m
			return &next
		}
	}
	return nil
}

// ProtectionCost prices a streak freeze: 100 currency per 10 days of
// streak owned, so long streaks cost more to protect.
func ProtectionCost(currentStreak int) int64 {
	if currentStreak < 0 {
		currentStreak = 0
	}
	return 100 * int64(currentStreak/10+1)
}

// daysBetween counts calendar days from a to b, ignoring time-of-day.
func daysBetween(a, b time.Time) int {
	return int(midnightUTC(b).Sub(midnightUTC(a)).Hours() / 24)
}

// midnightUTC pins a wall-clock date to UTC midnight so day arithmetic is
// exact across DST transitions.
func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
