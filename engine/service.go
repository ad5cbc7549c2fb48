package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"progressionkit/achievement"
	"progressionkit/core"
	"progressionkit/quest"
	"progressionkit/reward"
	"progressionkit/streak"
	"progressionkit/xp"
)

// baseQuizXP is the flat XP for any completed quiz before bonuses.
const baseQuizXP = 10

// fastAnswerSeconds is the time under which a speed bonus applies.
const fastAnswerSeconds = 30

// urgencyWindowHours is how close to midnight streak warnings fire.
const urgencyWindowHours = 4

// mysteryDropRate is the independent per-call drop chance.
const mysteryDropRate = 0.1

// variableMultipliers is the weighted slot-machine distribution; a uniform
// pick over the list realizes the weights.
var variableMultipliers = []float64{1, 1, 1, 1, 1.5, 1.5, 2, 2, 3, 5}

// Service orchestrates the progression calculators. It holds no per-user
// state: progression data is passed in and returned on every call, so one
// Service safely serves concurrent sessions.
type Service struct {
	storage Storage
	bus     *EventBus
	rules   RuleEngine

	xp           *xp.Calculator
	achievements *achievement.Engine
	quests       *quest.Manager
	rewards      *reward.Distributor

	rng    core.Rand
	now    func() time.Time
	ranker Ranker
	social SocialFeed
}

// Option configures a Service.
type Option func(*Service)

// WithRand replaces the randomness source (deterministic in tests).
func WithRand(r core.Rand) Option {
	return func(s *Service) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithClock replaces the wall clock used when no timestamp is supplied.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRanker replaces the simulated leaderboard with a real backend.
func WithRanker(r Ranker) Option {
	return func(s *Service) {
		if r != nil {
			s.ranker = r
		}
	}
}

// WithSocialFeed replaces the simulated friend feed with a real backend.
func WithSocialFeed(f SocialFeed) Option {
	return func(s *Service) {
		if f != nil {
			s.social = f
		}
	}
}

// WithAchievementEngine substitutes a custom achievement catalog.
func WithAchievementEngine(e *achievement.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.achievements = e
		}
	}
}

// WithQuestManager substitutes a custom quest template catalog.
func WithQuestManager(m *quest.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.quests = m
		}
	}
}

// WithRewardDistributor substitutes a custom reward bundle catalog.
func WithRewardDistributor(d *reward.Distributor) Option {
	return func(s *Service) {
		if d != nil {
			s.rewards = d
		}
	}
}

// NewService wires storage, event bus, and rules into a cohesive API.
func NewService(storage Storage, bus *EventBus, rules RuleEngine, opts ...Option) *Service {
	if storage == nil || bus == nil || rules == nil {
		panic("NewService requires non-nil storage, bus, and rules")
	}
	s := &Service{
		storage:      storage,
		bus:          bus,
		rules:        rules,
		xp:           xp.NewCalculator(),
		achievements: achievement.NewEngine(),
		quests:       quest.NewManager(),
		rewards:      reward.NewDistributor(),
		rng:          core.NewRand(),
		now:          time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.ranker == nil {
		s.ranker = NewSimulatedRanker(s.rng)
	}
	if s.social == nil {
		s.social = NewSimulatedFeed(s.rng)
	}
	return s
}

// DefaultRuleEngine evaluates the built-in level-up rule.
func DefaultRuleEngine() RuleEngine {
	return &simpleRuleEngine{rules: []core.Rule{core.LevelUpRule{}}}
}

// Subscribe convenience method.
func (s *Service) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return s.bus.Subscribe(typ, handler)
}

func (s *Service) Publish(ctx context.Context, ev core.Event) {
	s.bus.Publish(ctx, ev)
}

func (s *Service) Close() { s.bus.Close() }

// XPCalculator exposes the level/progress calculator for read paths.
func (s *Service) XPCalculator() *xp.Calculator { return s.xp }

// XPParams describes one scored activity.
type XPParams struct {
	Score        float64
	TimeSpent    float64 // seconds
	Difficulty   string
	PerfectScore bool
	StreakDays   int
	Category     string
	ActiveEvents []core.FlashEvent
}

// XPResult is the XP breakdown for one activity.
type XPResult struct {
	BaseXP             int64    `json:"base_xp"`
	BonusXP            int64    `json:"bonus_xp"`
	TotalXP            int64    `json:"total_xp"`
	Multipliers        []string `json:"multipliers"`
	StreakMultiplier   float64  `json:"streak_multiplier"`
	VariableMultiplier float64  `json:"variable_multiplier"`
	EventMultiplier    float64  `json:"event_multiplier"`
}

// CalculateXP computes the XP payout for a scored activity. Missing or
// negative inputs fall back to neutral values; the method never fails.
func (s *Service) CalculateXP(p XPParams) XPResult {
	score := p.Score
	if score < 0 {
		score = 0
	}

	scoreBonus := int64(score / 10)
	var timeBonus int64
	if p.TimeSpent < fastAnswerSeconds {
		timeBonus = 5
	}
	bonusXP := scoreBonus + timeBonus

	difficultyMult := s.xp.DifficultyMultiplier(p.Difficulty)
	variableMult := variableMultipliers[s.rng.IntN(len(variableMultipliers))]
	streakMult := streak.Bonus(p.StreakDays)
	eventMult := eventMultiplier(p.Category, p.ActiveEvents)

	total := int64(math.Floor(float64(baseQuizXP+bonusXP) * difficultyMult * variableMult * streakMult * eventMult))

	var multipliers []string
	if streakMult > 1 {
		multipliers = append(multipliers, "streak")
	}
	if variableMult > 1 {
		multipliers = append(multipliers, "lucky")
	}
	if eventMult > 1 {
		multipliers = append(multipliers, "event")
	}

	return XPResult{
		BaseXP:             baseQuizXP,
		BonusXP:            bonusXP,
		TotalXP:            total,
		Multipliers:        multipliers,
		StreakMultiplier:   streakMult,
		VariableMultiplier: variableMult,
		EventMultiplier:    eventMult,
	}
}

func eventMultiplier(category string, events []core.FlashEvent) float64 {
	for _, e := range events {
		if e.Type == core.FlashEventDoubleXP && e.Category == category {
			return 2
		}
	}
	return 1
}

// CheckAchievements evaluates the catalog against event data. Callers
// de-duplicate against already-granted achievements (or use the
// RecordQuizResult workflow, which consults storage).
func (s *Service) CheckAchievements(user core.UserID, event string, data core.Payload) []achievement.Achievement {
	return s.achievements.Check(data)
}

// AchievementCatalog returns the catalog snapshot.
func (s *Service) AchievementCatalog() []achievement.Achievement {
	return s.achievements.All()
}

// AchievementProgress reports progress toward a threshold achievement from
// a caller-supplied counter.
func (s *Service) AchievementProgress(achievementID string, current int64) (achievement.ProgressReport, bool) {
	return s.achievements.Progress(achievementID, current)
}

// UpdateStreak runs the streak continuity state machine.
func (s *Service) UpdateStreak(user core.UserID, lastActivity, currentDate time.Time) streak.Status {
	return streak.Update(lastActivity, currentDate)
}

// Warning is a loss-aversion nudge produced near the streak deadline.
type Warning struct {
	Type           string `json:"type"`
	Urgency        string `json:"urgency"`
	HoursRemaining int    `json:"hours_remaining"`
	Message        string `json:"message"`
}

// StreakWarnings returns a high-urgency warning when fewer than
// urgencyWindowHours remain before local midnight, otherwise nothing.
// Urgency runs off the day deadline, not off elapsed inactivity.
func (s *Service) StreakWarnings(user core.UserID, lastActivity, currentTime time.Time) []Warning {
	hoursLeft := hoursUntilMidnight(currentTime)
	if hoursLeft <= 0 || hoursLeft > urgencyWindowHours {
		return nil
	}
	return []Warning{{
		Type:           "streak_warning",
		Urgency:        "high",
		HoursRemaining: urgencyWindowHours,
		Message:        warningMessage(hoursLeft),
	}}
}

// ProtectionItem is a purchasable streak protection offer.
type ProtectionItem struct {
	ID          string        `json:"id"`
	Cost        int64         `json:"cost"`
	Duration    time.Duration `json:"duration"`
	Description string        `json:"description"`
}

// StreakProtection prices the protection offers for the user's current
// streak; freezes scale with streak length so long streaks cost more.
func (s *Service) StreakProtection(user core.UserID, currentStreak int) []ProtectionItem {
	freezeCost := streak.ProtectionCost(currentStreak)
	return []ProtectionItem{
		{
			ID:          "streak_freeze",
			Cost:        freezeCost,
			Duration:    24 * time.Hour,
			Description: "Freeze streak for 1 day",
		},
		{
			ID:          "streak_repair",
			Cost:        5 * freezeCost,
			Duration:    0,
			Description: "Restore lost streak",
		},
	}
}

// Urgency describes how close the user is to losing today's streak.
type Urgency struct {
	Level             string `json:"level"`
	Message           string `json:"message"`
	OfferStreakFreeze bool   `json:"offer_streak_freeze"`
}

// StreakUrgency mirrors StreakWarnings as a single graded answer.
func (s *Service) StreakUrgency(lastActivity, currentTime time.Time) Urgency {
	hoursLeft := hoursUntilMidnight(currentTime)
	if hoursLeft > 0 && hoursLeft <= urgencyWindowHours {
		return Urgency{
			Level:             "critical",
			Message:           warningMessage(hoursLeft),
			OfferStreakFreeze: true,
		}
	}
	return Urgency{Level: "low", Message: "Streak is safe", OfferStreakFreeze: false}
}

// GenerateDailyQuests builds the personalized daily quest set.
func (s *Service) GenerateDailyQuests(params quest.GenerationParams) []quest.Quest {
	return s.quests.GenerateDaily(params, s.rng, s.now())
}

// QuestProgress is the outcome of one quest progress increment.
type QuestProgress struct {
	CurrentProgress int  `json:"current_progress"`
	IsComplete      bool `json:"is_complete"`
	RewardGranted   bool `json:"reward_granted"`
}

// UpdateQuestProgress advances caller-owned quest progress by one action.
func (s *Service) UpdateQuestProgress(questID string, currentProgress, requirement int) QuestProgress {
	if currentProgress < 0 {
		currentProgress = 0
	}
	next := currentProgress + 1
	complete := next >= requirement
	return QuestProgress{CurrentProgress: next, IsComplete: complete, RewardGranted: complete}
}

// ValidateQuestCompletion checks a requirement against recorded actions.
func (s *Service) ValidateQuestCompletion(req quest.Requirement, actions []quest.Action) bool {
	return s.quests.ValidateCompletion(req, actions)
}

// DistributeRewards assembles the payout for an unlocked achievement.
func (s *Service) DistributeRewards(user core.UserID, achievementID string, timestamp time.Time) reward.Distribution {
	return s.rewards.Distribute(user, achievementID, timestamp)
}

// QueueRewards returns a queued-delivery receipt for a reward list.
func (s *Service) QueueRewards(user core.UserID, rewards []core.Reward) reward.Receipt {
	return s.rewards.Queue(user, rewards, s.now())
}

// DistributeRewardBatch processes items independently; failures never
// abort the batch.
func (s *Service) DistributeRewardBatch(items []reward.BatchItem) reward.BatchSummary {
	return s.rewards.DistributeBatch(items)
}

// TotalRewards aggregates bundles across achievement ids.
func (s *Service) TotalRewards(achievementIDs []string) reward.Totals {
	return s.rewards.TotalRewards(achievementIDs)
}

// MysteryBox is the outcome of a drop roll.
type MysteryBox struct {
	Dropped  bool         `json:"dropped"`
	Contents *core.Reward `json:"contents,omitempty"`
}

type mysteryEntry struct {
	weight float64
	reward core.Reward
}

var mysteryTable = []mysteryEntry{
	{50, core.XPReward(100)},
	{30, core.PowerupReward("random")},
	{15, core.CurrencyReward(50)},
	{5, core.BadgeReward("rare_badge")},
}

// CheckMysteryBox rolls an independent 10% drop; contents come from the
// weighted table.
func (s *Service) CheckMysteryBox(user core.UserID, event string) MysteryBox {
	if s.rng.Float64() >= mysteryDropRate {
		return MysteryBox{Dropped: false}
	}
	contents := s.rollMysteryContents()
	return MysteryBox{Dropped: true, Contents: &contents}
}

func (s *Service) rollMysteryContents() core.Reward {
	var total float64
	for _, e := range mysteryTable {
		total += e.weight
	}
	roll := s.rng.Float64() * total
	var cumulative float64
	for _, e := range mysteryTable {
		cumulative += e.weight
		if roll < cumulative {
			return e.reward
		}
	}
	return mysteryTable[0].reward
}

// CreateFlashEvent opens a multiplier window starting now.
func (s *Service) CreateFlashEvent(eventType, category string, duration time.Duration) core.FlashEvent {
	now := s.now()
	ev := core.FlashEvent{
		ID:        "event_" + uuid.NewString(),
		Type:      eventType,
		Category:  category,
		Duration:  duration,
		StartTime: now,
		EndTime:   now.Add(duration),
	}
	s.bus.Publish(context.Background(), core.Event{
		Type: core.EventFlashEventStarted, Time: now,
		Metadata: map[string]any{"event_id": ev.ID, "event_type": ev.Type, "category": ev.Category},
	})
	return ev
}

// UpdateLeaderboard forwards a score to the ranking collaborator.
func (s *Service) UpdateLeaderboard(ctx context.Context, user core.UserID, score int64, category, period string) (Standing, error) {
	return s.ranker.Update(ctx, user, score, category, period)
}

// CheckFriendActivity returns recent friend events worth notifying about.
func (s *Service) CheckFriendActivity(ctx context.Context, user core.UserID, friends []core.UserID) ([]FriendEvent, error) {
	return s.social.RecentActivity(ctx, user, friends)
}

// Challenge is a pending head-to-head invitation.
type Challenge struct {
	ID           string      `json:"id"`
	ChallengerID core.UserID `json:"challenger_id"`
	ChallengedID core.UserID `json:"challenged_id"`
	Category     string      `json:"category"`
	Wager        core.Reward `json:"wager"`
	Status       string      `json:"status"`
	ExpiresAt    time.Time   `json:"expires_at"`
	Room         string      `json:"room"`
}

// CreateChallenge opens a pending challenge that expires after a day.
func (s *Service) CreateChallenge(challenger, challenged core.UserID, category string, wager core.Reward) Challenge {
	now := s.now()
	ch := Challenge{
		ID:           "challenge_" + uuid.NewString(),
		ChallengerID: challenger,
		ChallengedID: challenged,
		Category:     category,
		Wager:        wager,
		Status:       "pending",
		ExpiresAt:    now.Add(24 * time.Hour),
		Room:         "battle_room_" + uuid.NewString(),
	}
	s.bus.Publish(context.Background(), core.Event{
		Type: core.EventChallengeCreated, Time: now, UserID: challenger,
		Metadata: map[string]any{"challenge_id": ch.ID, "challenged": string(challenged)},
	})
	return ch
}

// Combo is the multiplier state for consecutive correct answers.
type Combo struct {
	CurrentCombo  int     `json:"current_combo"`
	Multiplier    float64 `json:"multiplier"`
	NextMilestone int     `json:"next_milestone"`
}

var comboMilestones = []int{3, 5, 10, 20}

// UpdateCombo grades a consecutive-correct count. The count itself is
// caller-owned session state; it resets to zero on any miss.
func (s *Service) UpdateCombo(user core.UserID, correctAnswers int, timeWindow time.Duration) Combo {
	if correctAnswers < 0 {
		correctAnswers = 0
	}
	var multiplier float64
	switch {
	case correctAnswers >= 10:
		multiplier = 2.0
	case correctAnswers >= 5:
		multiplier = 1.5
	case correctAnswers >= 3:
		multiplier = 1.2
	default:
		multiplier = 1.0
	}
	next := comboMilestones[len(comboMilestones)-1]
	for _, m := range comboMilestones {
		if correctAnswers < m {
			next = m
			break
		}
	}
	return Combo{CurrentCombo: correctAnswers, Multiplier: multiplier, NextMilestone: next}
}

func hoursUntilMidnight(t time.Time) int {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location()).Add(24 * time.Hour)
	return int(math.Ceil(midnight.Sub(t).Hours()))
}

func warningMessage(hoursLeft int) string {
	return fmt.Sprintf("Only %d hours left to save your streak!", hoursLeft)
}

type simpleRuleEngine struct{ rules []core.Rule }

func (s *simpleRuleEngine) Evaluate(ctx context.Context, state core.ProgressionState, trigger core.Event) []core.Event {
	var out []core.Event
	for _, r := range s.rules {
		out = append(out, r.Evaluate(ctx, state, trigger)...)
	}
	return out
}
