package achievement

// defaultCatalog lists the built-in achievement definitions. Payload field
// names are the ones quiz and session handlers emit: score, timeSpent,
// difficulty, streakDays, totalQuizzes, isFirstQuiz.
func defaultCatalog() []Achievement {
	return []Achievement{
		{
			ID:          "first_quiz",
			Name:        "First Steps",
			Description: "Complete your first quiz",
			Category:    "milestone",
			XPReward:    50,
			Badge:       "bronze_star",
			Conditions:  []Condition{Equals("isFirstQuiz", true)},
		},
		{
			ID:          "perfect_score",
			Name:        "Perfectionist",
			Description: "Get a perfect score",
			Category:    "performance",
			XPReward:    100,
			Badge:       "gold_star",
			Conditions:  []Condition{Equals("score", 100)},
		},
		{
			ID:          "quiz_master",
			Name:        "Quiz Master",
			Description: "Complete 100 quizzes",
			Category:    "milestone",
			XPReward:    500,
			Badge:       "diamond_crown",
			Conditions:  []Condition{AtLeast("totalQuizzes", 100)},
		},
		{
			ID:          "speed_demon",
			Name:        "Speed Demon",
			Description: "Complete a hard quiz in under 30 seconds with perfect score",
			Category:    "performance",
			XPReward:    200,
			Badge:       "lightning_bolt",
			Conditions: []Condition{
				AtMost("timeSpent", 30),
				Equals("score", 100),
				Equals("difficulty", "hard"),
			},
		},
		{
			ID:          "week_warrior",
			Name:        "Week Warrior",
			Description: "Maintain a 7-day streak",
			Category:    "streak",
			XPReward:    150,
			Badge:       "fire_seven",
			Conditions:  []Condition{AtLeast("streakDays", 7)},
		},
		{
			ID:          "first_streak",
			Name:        "Streak Started",
			Description: "Maintain a 3-day streak",
			Category:    "streak",
			XPReward:    50,
			Badge:       "fire_three",
			Conditions:  []Condition{AtLeast("streakDays", 3)},
		},
		{
			ID:          "unstoppable",
			Name:        "Unstoppable",
			Description: "Maintain a 30-day streak",
			Category:    "streak",
			XPReward:    500,
			Badge:       "fire_thirty",
			Conditions:  []Condition{AtLeast("streakDays", 30)},
		},
		{
			ID:          "legendary",
			Name:        "Legendary",
			Description: "Maintain a 100-day streak",
			Category:    "streak",
			XPReward:    2000,
			Badge:       "fire_hundred",
			Conditions:  []Condition{AtLeast("streakDays", 100)},
		},
		{
			ID:          "knowledge_seeker",
			Name:        "Knowledge Seeker",
			Description: "Complete 1000 quizzes",
			Category:    "milestone",
			XPReward:    2000,
			Badge:       "scholar_hat",
			Conditions:  []Condition{AtLeast("totalQuizzes", 1000)},
		},
	}
}
