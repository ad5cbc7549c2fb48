package quest

import "progressionkit/core"

func defaultTemplates() []Template {
	return []Template{
		{
			Name:        "Quick Learner",
			Type:        TypeDaily,
			Category:    "general",
			MinLevel:    1,
			Requirement: Requirement{Type: "quiz_complete", Count: 3},
			Reward:      []core.Reward{core.XPReward(100), core.PowerupReward("xp_boost")},
		},
		{
			Name:        "Perfect Day",
			Type:        TypeDaily,
			Category:    "performance",
			MinLevel:    5,
			Requirement: Requirement{Type: "perfect_score", Count: 1},
			Reward:      []core.Reward{core.XPReward(200), core.BadgeReward("daily_perfect")},
		},
		{
			Name:        "Category Master",
			Type:        TypeDaily,
			Category:    "specific",
			MinLevel:    10,
			Requirement: Requirement{Type: "category_quiz", Count: 5},
			Reward:      []core.Reward{core.XPReward(150), core.CurrencyReward(50)},
		},
		{
			Name:        "Speed Runner",
			Type:        TypeDaily,
			Category:    "performance",
			MinLevel:    15,
			Requirement: Requirement{Type: "fast_completion", Count: 3},
			Reward:      []core.Reward{core.XPReward(175), core.PowerupReward("time_freeze")},
		},
		{
			Name:        "Expert Challenge",
			Type:        TypeDaily,
			Category:    "expert",
			MinLevel:    20,
			Requirement: Requirement{Type: "hard_quiz", Count: 2},
			Reward:      []core.Reward{core.XPReward(300), core.BadgeReward("expert_daily")},
		},
		{
			Name:        "React Expert",
			Type:        TypeDaily,
			Category:    "react",
			MinLevel:    15,
			Requirement: Requirement{Type: "category_quiz", Category: "react", Count: 3},
			Reward:      []core.Reward{core.XPReward(250), core.BadgeReward("react_daily")},
		},
		{
			Name:        "TypeScript Expert",
			Type:        TypeDaily,
			Category:    "typescript",
			MinLevel:    15,
			Requirement: Requirement{Type: "category_quiz", Category: "typescript", Count: 3},
			Reward:      []core.Reward{core.XPReward(250), core.BadgeReward("ts_daily")},
		},
	}
}
