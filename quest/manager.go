// Package quest selects and instantiates time-boxed tasks from a static
// template catalog, personalized by level and category preference.
package quest

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"progressionkit/core"
)

// Type classifies a quest's cadence.
type Type string

const (
	TypeDaily   Type = "daily"
	TypeWeekly  Type = "weekly"
	TypeSpecial Type = "special"
)

// dailyQuestCount is how many quests a daily generation aims to produce.
const dailyQuestCount = 3

// Requirement is what a user must do to complete a quest.
type Requirement struct {
	Type     string `json:"type"`
	Count    int    `json:"count"`
	Category string `json:"category,omitempty"`
}

// Template is an immutable catalog entry a Quest is instantiated from.
type Template struct {
	Name        string        `json:"name"`
	Type        Type          `json:"type"`
	Category    string        `json:"category"`
	MinLevel    int           `json:"min_level"`
	Requirement Requirement   `json:"requirement"`
	Reward      []core.Reward `json:"reward"`
}

// Quest is a generated, user-facing task with an expiry.
type Quest struct {
	ID          string        `json:"id"`
	Type        Type          `json:"type"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Requirement Requirement   `json:"requirement"`
	Reward      []core.Reward `json:"reward"`
	Expires     time.Time     `json:"expires"`
	Difficulty  string        `json:"difficulty"`
	Category    string        `json:"category"`
	MinLevel    int           `json:"min_level"`
}

// Activity summarizes recent performance used for expert-quest promotion.
type Activity struct {
	AverageScore float64 `json:"average_score"`
}

// GenerationParams personalizes a daily quest set.
type GenerationParams struct {
	UserID         core.UserID
	UserLevel      int
	Preferences    []string
	RecentActivity *Activity
}

// Action is one unit of user activity checked against quest requirements.
type Action struct {
	Type     string    `json:"type"`
	Category string    `json:"category,omitempty"`
	Time     time.Time `json:"time"`
}

// Manager holds the immutable template catalog.
type Manager struct {
	templates []Template
}

func NewManager() *Manager {
	return NewManagerWithTemplates(defaultTemplates())
}

func NewManagerWithTemplates(templates []Template) *Manager {
	m := &Manager{templates: make([]Template, len(templates))}
	copy(m.templates, templates)
	return m
}

// GenerateDaily returns up to three quests for the user: random picks from
// preference-matching templates first, topped up from all eligible ones,
// with the last slot promoted to an Expert template for high-performing
// high-level users. Expiry is the end of the current local day.
func (m *Manager) GenerateDaily(params GenerationParams, rng core.Rand, now time.Time) []Quest {
	eligible := m.eligibleTemplates(params.UserLevel)
	preferred := filterPreferred(eligible, params.Preferences)

	selected := pick(preferred, dailyQuestCount, rng)
	if len(selected) < dailyQuestCount {
		remaining := exclude(eligible, selected)
		selected = append(selected, pick(remaining, dailyQuestCount-len(selected), rng)...)
	}

	if expertEligible(params) {
		if expert, ok := m.findExpert(selected); ok && len(selected) > 0 {
			selected[len(selected)-1] = expert
		}
	}

	quests := make([]Quest, 0, len(selected))
	for _, tmpl := range selected {
		quests = append(quests, instantiate(tmpl, now))
	}
	return quests
}

// Templates returns the catalog entries matching a user's level and
// preferences, without instantiating them.
func (m *Manager) Templates(userLevel int, preferences []string) []Template {
	return filterPreferred(m.eligibleTemplates(userLevel), preferences)
}

// ValidateCompletion reports whether enough matching actions were taken.
func (m *Manager) ValidateCompletion(req Requirement, actions []Action) bool {
	matching := 0
	for _, a := range actions {
		if a.Type == req.Type {
			matching++
		}
	}
	return matching >= req.Count
}

func (m *Manager) eligibleTemplates(userLevel int) []Template {
	var out []Template
	for _, t := range m.templates {
		if t.MinLevel <= userLevel {
			out = append(out, t)
		}
	}
	return out
}

// findExpert returns the first catalog template named as an expert quest
// that is not already selected, so a selected expert still yields another.
func (m *Manager) findExpert(selected []Template) (Template, bool) {
	for _, t := range m.templates {
		if !strings.Contains(t.Name, "Expert") {
			continue
		}
		if !containsTemplate(selected, t) {
			return t, true
		}
	}
	return Template{}, false
}

func expertEligible(params GenerationParams) bool {
	return params.RecentActivity != nil &&
		params.RecentActivity.AverageScore >= 85 &&
		params.UserLevel >= 25
}

func filterPreferred(templates []Template, preferences []string) []Template {
	var out []Template
	for _, t := range templates {
		if t.Category == "general" {
			out = append(out, t)
			continue
		}
		for _, pref := range preferences {
			if t.Category == pref {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func exclude(templates, selected []Template) []Template {
	var out []Template
	for _, t := range templates {
		if !containsTemplate(selected, t) {
			out = append(out, t)
		}
	}
	return out
}

func containsTemplate(list []Template, t Template) bool {
	for _, have := range list {
		if have.Name == t.Name {
			return true
		}
	}
	return false
}

// pick returns up to n random templates via a partial Fisher-Yates shuffle.
func pick(templates []Template, n int, rng core.Rand) []Template {
	if n <= 0 || len(templates) == 0 {
		return nil
	}
	pool := make([]Template, len(templates))
	copy(pool, templates)
	if n > len(pool) {
		n = len(pool)
	}
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

func instantiate(tmpl Template, now time.Time) Quest {
	return Quest{
		ID:          "quest_" + uuid.NewString(),
		Type:        TypeDaily,
		Name:        tmpl.Name,
		Description: describe(tmpl.Requirement),
		Requirement: tmpl.Requirement,
		Reward:      tmpl.Reward,
		Expires:     endOfDay(now),
		Difficulty:  difficultyForLevel(tmpl.MinLevel),
		Category:    tmpl.Category,
		MinLevel:    tmpl.MinLevel,
	}
}

func difficultyForLevel(minLevel int) string {
	switch {
	case minLevel < 10:
		return "easy"
	case minLevel < 20:
		return "medium"
	default:
		return "hard"
	}
}

func endOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), now.Location())
}

func describe(req Requirement) string {
	switch req.Type {
	case "quiz_complete":
		return fmt.Sprintf("Complete %d %s", req.Count, pluralQuiz(req.Count))
	case "perfect_score":
		return fmt.Sprintf("Get %d perfect score%s", req.Count, pluralS(req.Count))
	case "category_quiz":
		category := req.Category
		if category == "" {
			category = "category"
		}
		return fmt.Sprintf("Complete %d %s %s", req.Count, category, pluralQuiz(req.Count))
	case "fast_completion":
		return fmt.Sprintf("Complete %d %s in under 30 seconds", req.Count, pluralQuiz(req.Count))
	case "hard_quiz":
		return fmt.Sprintf("Complete %d hard difficulty %s", req.Count, pluralQuiz(req.Count))
	}
	return "Complete the quest requirements"
}

func pluralQuiz(n int) string {
	if n > 1 {
		return "quizzes"
	}
	return "quiz"
}

func pluralS(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
