// Package progression is the user-facing entry point: it assembles the
// engine, storage, realtime hub, and analytics hooks behind one builder.
package progression

import (
	"context"
	"time"

	mem "progressionkit/adapters/memory"
	"progressionkit/analytics"
	"progressionkit/core"
	"progressionkit/engine"
	"progressionkit/realtime"
)

// Option configures the service builder.
type Option func(*config)

type config struct {
	storage engine.Storage
	mode    engine.DispatchMode
	rules   engine.RuleEngine
	hub     *realtime.Hub
	hooks   []analytics.Hook
	svcOpts []engine.Option
}

// WithStorage sets the persistence adapter.
func WithStorage(s engine.Storage) Option { return func(c *config) { c.storage = s } }

// WithRuleEngine sets the rule engine.
func WithRuleEngine(r engine.RuleEngine) Option { return func(c *config) { c.rules = r } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all engine events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithAnalytics subscribes analytics hooks to the event stream.
func WithAnalytics(hooks ...analytics.Hook) Option {
	return func(c *config) { c.hooks = append(c.hooks, hooks...) }
}

// WithRand injects the randomness source used for XP multipliers, quest
// selection, and mystery boxes.
func WithRand(r core.Rand) Option {
	return func(c *config) { c.svcOpts = append(c.svcOpts, engine.WithRand(r)) }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.svcOpts = append(c.svcOpts, engine.WithClock(now)) }
}

// WithRanker replaces the simulated leaderboard backend.
func WithRanker(r engine.Ranker) Option {
	return func(c *config) { c.svcOpts = append(c.svcOpts, engine.WithRanker(r)) }
}

// WithSocialFeed replaces the simulated friend activity feed.
func WithSocialFeed(f engine.SocialFeed) Option {
	return func(c *config) { c.svcOpts = append(c.svcOpts, engine.WithSocialFeed(f)) }
}

// WithServiceOptions forwards further options to the underlying engine
// service.
func WithServiceOptions(opts ...engine.Option) Option {
	return func(c *config) { c.svcOpts = append(c.svcOpts, opts...) }
}

// bridgedEvents is every event type forwarded to realtime and analytics.
var bridgedEvents = []core.EventType{
	core.EventXPAwarded,
	core.EventLevelUp,
	core.EventAchievementUnlocked,
	core.EventStreakExtended,
	core.EventStreakBroken,
	core.EventQuestCompleted,
	core.EventRewardQueued,
	core.EventMysteryBoxDropped,
	core.EventComboMilestone,
	core.EventChallengeCreated,
	core.EventFlashEventStarted,
}

// New builds a configured Service. If not provided, defaults are used:
//   - storage: in-memory
//   - rules: DefaultRuleEngine
//   - dispatch: async
func New(opts ...Option) *engine.Service {
	cfg := &config{mode: engine.DispatchAsync, rules: engine.DefaultRuleEngine()}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.storage == nil {
		cfg.storage = mem.New()
	}
	bus := engine.NewEventBus(cfg.mode)
	svc := engine.NewService(cfg.storage, bus, cfg.rules, cfg.svcOpts...)

	if cfg.hub != nil {
		for _, typ := range bridgedEvents {
			bus.Subscribe(typ, func(ctx context.Context, e core.Event) { cfg.hub.Broadcast(ctx, e) })
		}
	}
	if len(cfg.hooks) > 0 {
		bridge := analytics.NewBridge(cfg.hooks...)
		for _, typ := range bridgedEvents {
			bus.Subscribe(typ, func(_ context.Context, e core.Event) { bridge.OnEvent(e) })
		}
	}
	return svc
}
