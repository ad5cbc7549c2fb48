package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// UserState mirrors the public JSON surface of core.ProgressionState.
type UserState struct {
	UserID       string    `json:"user_id"`
	XP           int64     `json:"xp"`
	Level        int       `json:"level"`
	StreakDays   int       `json:"streak_days"`
	ComboCount   int       `json:"combo_count"`
	LastActivity time.Time `json:"last_activity"`
	Updated      time.Time `json:"updated"`
}

// QuizSubmission is the payload for submitting one quiz result.
type QuizSubmission struct {
	Score        float64 `json:"score"`
	TimeSpent    float64 `json:"time_spent"`
	Difficulty   string  `json:"difficulty,omitempty"`
	Correct      bool    `json:"correct"`
	Category     string  `json:"category,omitempty"`
	IsFirstQuiz  bool    `json:"is_first_quiz,omitempty"`
	TotalQuizzes int     `json:"total_quizzes,omitempty"`
}

// XPBreakdown explains how a quiz's XP payout was computed.
type XPBreakdown struct {
	BaseXP             int64    `json:"base_xp"`
	BonusXP            int64    `json:"bonus_xp"`
	TotalXP            int64    `json:"total_xp"`
	Multipliers        []string `json:"multipliers"`
	StreakMultiplier   float64  `json:"streak_multiplier"`
	VariableMultiplier float64  `json:"variable_multiplier"`
	EventMultiplier    float64  `json:"event_multiplier"`
}

// Achievement mirrors the catalog entries served by the API.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	XPReward    int64  `json:"xp_reward"`
	Badge       string `json:"badge,omitempty"`
}

// Quest mirrors the daily quest JSON surface.
type Quest struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Difficulty  string    `json:"difficulty"`
	Category    string    `json:"category"`
	Expires     time.Time `json:"expires"`
}

// Combo reports the consecutive-correct streak within a session.
type Combo struct {
	CurrentCombo  int     `json:"current_combo"`
	Multiplier    float64 `json:"multiplier"`
	NextMilestone int     `json:"next_milestone"`
}

// ProgressReport is the response to a quiz submission.
type ProgressReport struct {
	State        UserState     `json:"state"`
	XP           XPBreakdown   `json:"xp"`
	LeveledUp    bool          `json:"leveled_up"`
	Achievements []Achievement `json:"achievements,omitempty"`
	Combo        Combo         `json:"combo"`
}

// Standing is a leaderboard position after a score update.
type Standing struct {
	Position         int    `json:"position"`
	PreviousPosition int    `json:"previous_position"`
	Trend            string `json:"trend"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptyUserID is returned when user id is empty.
var ErrEmptyUserID = errors.New("user id is required")
