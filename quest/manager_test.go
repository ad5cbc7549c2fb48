package quest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRand makes selection deterministic: IntN always picks the first
// remaining element.
type stubRand struct{}

func (stubRand) Float64() float64 { return 0 }
func (stubRand) IntN(int) int     { return 0 }

func questNames(quests []Quest) []string {
	out := make([]string, 0, len(quests))
	for _, q := range quests {
		out = append(out, q.Name)
	}
	return out
}

func TestGenerateDailyReturnsThreeWhenEnoughEligible(t *testing.T) {
	m := NewManager()
	now := time.Date(2025, 8, 29, 10, 0, 0, 0, time.UTC)

	quests := m.GenerateDaily(GenerationParams{
		UserID:      "u1",
		UserLevel:   20,
		Preferences: []string{"performance"},
	}, stubRand{}, now)

	require.Len(t, quests, 3)
	names := questNames(quests)
	assert.Contains(t, names, "Quick Learner", "general templates always qualify")
	assert.Contains(t, names, "Perfect Day")
	assert.Contains(t, names, "Speed Runner")
}

func TestGenerateDailyLowLevelGetsFewer(t *testing.T) {
	m := NewManager()
	quests := m.GenerateDaily(GenerationParams{UserID: "u1", UserLevel: 1}, stubRand{}, time.Now())
	require.Len(t, quests, 1, "only one template is open at level 1")
	assert.Equal(t, "Quick Learner", quests[0].Name)
}

func TestGenerateDailyFillsFromEligible(t *testing.T) {
	m := NewManager()
	// No preferences: only "general" survives the preference filter, the
	// remaining slots fill from the whole eligible pool.
	quests := m.GenerateDaily(GenerationParams{UserID: "u1", UserLevel: 10}, stubRand{}, time.Now())
	require.Len(t, quests, 3)
	assert.Contains(t, questNames(quests), "Quick Learner")
}

func TestGenerateDailyExpertPromotion(t *testing.T) {
	m := NewManager()
	params := GenerationParams{
		UserID:         "u1",
		UserLevel:      25,
		Preferences:    []string{"performance"},
		RecentActivity: &Activity{AverageScore: 90},
	}
	quests := m.GenerateDaily(params, stubRand{}, time.Now())
	require.Len(t, quests, 3)
	assert.Equal(t, "Expert Challenge", quests[len(quests)-1].Name)

	// below the score bar nothing is promoted
	params.RecentActivity = &Activity{AverageScore: 80}
	quests = m.GenerateDaily(params, stubRand{}, time.Now())
	for _, q := range quests {
		assert.NotEqual(t, "expert", q.Category)
	}
}

func TestGenerateDailyExpertPromotionWithExpertSelected(t *testing.T) {
	templates := []Template{
		{Name: "Expert Challenge", Type: TypeDaily, Category: "expert", Requirement: Requirement{Type: "hard_quiz", Count: 2}},
		{Name: "Quick Learner", Type: TypeDaily, Category: "general", Requirement: Requirement{Type: "quiz", Count: 3}},
		{Name: "Perfect Day", Type: TypeDaily, Category: "performance", Requirement: Requirement{Type: "perfect_quiz", Count: 1}},
		{Name: "React Expert", Type: TypeDaily, Category: "react", MinLevel: 20, Requirement: Requirement{Type: "react_quiz", Count: 3}},
	}
	m := NewManagerWithTemplates(templates)

	params := GenerationParams{
		UserID:         "u1",
		UserLevel:      30,
		Preferences:    []string{"expert", "general", "performance"},
		RecentActivity: &Activity{AverageScore: 95},
	}
	quests := m.GenerateDaily(params, stubRand{}, time.Now())
	require.Len(t, quests, 3)

	// One expert is already in the selection; the promotion still swaps the
	// last slot with the next expert-named template.
	names := questNames(quests)
	assert.Contains(t, names, "Expert Challenge")
	assert.Equal(t, "React Expert", names[len(names)-1])
}

func TestQuestInstantiation(t *testing.T) {
	m := NewManager()
	now := time.Date(2025, 8, 29, 10, 30, 0, 0, time.UTC)
	quests := m.GenerateDaily(GenerationParams{UserID: "u1", UserLevel: 1}, stubRand{}, now)
	require.Len(t, quests, 1)

	q := quests[0]
	assert.True(t, strings.HasPrefix(q.ID, "quest_"))
	assert.Equal(t, TypeDaily, q.Type)
	assert.Equal(t, "Complete 3 quizzes", q.Description)
	assert.Equal(t, "easy", q.Difficulty)
	assert.Equal(t, 29, q.Expires.Day())
	assert.Equal(t, 23, q.Expires.Hour(), "daily quests expire at end of day")
	assert.NotEmpty(t, q.Reward)

	// ids are unique across generations
	again := m.GenerateDaily(GenerationParams{UserID: "u1", UserLevel: 1}, stubRand{}, now)
	assert.NotEqual(t, q.ID, again[0].ID)
}

func TestDifficultyForLevel(t *testing.T) {
	assert.Equal(t, "easy", difficultyForLevel(1))
	assert.Equal(t, "easy", difficultyForLevel(9))
	assert.Equal(t, "medium", difficultyForLevel(10))
	assert.Equal(t, "medium", difficultyForLevel(19))
	assert.Equal(t, "hard", difficultyForLevel(20))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Complete 1 quiz", describe(Requirement{Type: "quiz_complete", Count: 1}))
	assert.Equal(t, "Get 2 perfect scores", describe(Requirement{Type: "perfect_score", Count: 2}))
	assert.Equal(t, "Complete 3 react quizzes", describe(Requirement{Type: "category_quiz", Category: "react", Count: 3}))
	assert.Equal(t, "Complete the quest requirements", describe(Requirement{Type: "mystery"}))
}

func TestValidateCompletion(t *testing.T) {
	m := NewManager()
	req := Requirement{Type: "quiz_complete", Count: 3}

	actions := []Action{
		{Type: "quiz_complete"},
		{Type: "quiz_complete"},
		{Type: "login"},
	}
	assert.False(t, m.ValidateCompletion(req, actions))

	actions = append(actions, Action{Type: "quiz_complete"})
	assert.True(t, m.ValidateCompletion(req, actions))

	assert.False(t, m.ValidateCompletion(req, nil))
}
