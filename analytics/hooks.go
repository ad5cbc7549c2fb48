// Package analytics aggregates progression KPIs from the event stream.
package analytics

import (
	"sync"

	"progressionkit/core"
)

// Hook receives domain events for KPI aggregation.
type Hook interface {
	OnEvent(e core.Event)
}

// DAU tracks daily active users.
type DAU struct {
	mu   sync.Mutex
	days map[string]map[core.UserID]struct{}
}

func NewDAU() *DAU { return &DAU{days: map[string]map[core.UserID]struct{}{}} }

func (d *DAU) OnEvent(e core.Event) {
	day := e.Time.UTC().Format("2006-01-02")
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.days[day]
	if m == nil {
		m = map[core.UserID]struct{}{}
		d.days[day] = m
	}
	m[e.UserID] = struct{}{}
}

func (d *DAU) Count(day string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.days[day])
}

// ProgressionMetrics aggregates the engagement KPIs that matter for a
// progression system: XP flow, unlock counts, streak health, and level
// distribution.
type ProgressionMetrics struct {
	mu sync.RWMutex

	xpAwardedByDay map[string]int64
	totalXPAwarded int64

	achievementsByID map[string]int64
	uniqueUnlockers  map[string]map[core.UserID]struct{}

	levelUpsByDay     map[string]int64
	levelDistribution map[int]int

	streaksExtended int64
	streaksBroken   int64

	mysteryBoxDrops int64
	questsCompleted int64
}

func NewProgressionMetrics() *ProgressionMetrics {
	return &ProgressionMetrics{
		xpAwardedByDay:    map[string]int64{},
		achievementsByID:  map[string]int64{},
		uniqueUnlockers:   map[string]map[core.UserID]struct{}{},
		levelUpsByDay:     map[string]int64{},
		levelDistribution: map[int]int{},
	}
}

func (m *ProgressionMetrics) OnEvent(e core.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := e.Time.UTC().Format("2006-01-02")

	switch e.Type {
	case core.EventXPAwarded:
		if e.XP > 0 {
			m.xpAwardedByDay[day] += e.XP
			m.totalXPAwarded += e.XP
		}
	case core.EventLevelUp:
		m.levelUpsByDay[day]++
		m.levelDistribution[e.Level]++
	case core.EventAchievementUnlocked:
		m.achievementsByID[e.Achievement]++
		if m.uniqueUnlockers[e.Achievement] == nil {
			m.uniqueUnlockers[e.Achievement] = map[core.UserID]struct{}{}
		}
		m.uniqueUnlockers[e.Achievement][e.UserID] = struct{}{}
	case core.EventStreakExtended:
		m.streaksExtended++
	case core.EventStreakBroken:
		m.streaksBroken++
	case core.EventMysteryBoxDropped:
		m.mysteryBoxDrops++
	case core.EventQuestCompleted:
		m.questsCompleted++
	}
}

// XPAwardedByDay returns total XP awarded on a day (YYYY-MM-DD).
func (m *ProgressionMetrics) XPAwardedByDay(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.xpAwardedByDay[day]
}

// TotalXPAwarded returns the lifetime XP total.
func (m *ProgressionMetrics) TotalXPAwarded() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalXPAwarded
}

// AchievementUnlocks returns how many times an achievement unlocked.
func (m *ProgressionMetrics) AchievementUnlocks(achievementID string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.achievementsByID[achievementID]
}

// UniqueUnlockers returns how many distinct users unlocked an achievement.
func (m *ProgressionMetrics) UniqueUnlockers(achievementID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.uniqueUnlockers[achievementID])
}

// LevelUpsByDay returns level-up count on a day.
func (m *ProgressionMetrics) LevelUpsByDay(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.levelUpsByDay[day]
}

// LevelDistribution returns how many level-ups landed on each level.
func (m *ProgressionMetrics) LevelDistribution() map[int]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int]int, len(m.levelDistribution))
	for k, v := range m.levelDistribution {
		out[k] = v
	}
	return out
}

// StreakHealth returns extended and broken streak counts; their ratio is
// the retention signal dashboards watch.
func (m *ProgressionMetrics) StreakHealth() (extended, broken int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.streaksExtended, m.streaksBroken
}

// MysteryBoxDrops returns how many boxes dropped.
func (m *ProgressionMetrics) MysteryBoxDrops() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mysteryBoxDrops
}

// QuestsCompleted returns the completed quest count.
func (m *ProgressionMetrics) QuestsCompleted() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.questsCompleted
}
