package progression

import (
	"context"
	"testing"
	"time"

	mem "progressionkit/adapters/memory"
	"progressionkit/analytics"
	"progressionkit/core"
	"progressionkit/engine"
	"progressionkit/realtime"
)

func TestNewDefaultsAndOptions(t *testing.T) {
	hub := realtime.NewHub()
	svc := New(
		WithRealtime(hub),
		WithStorage(mem.New()),
		WithDispatchMode(engine.DispatchSync),
	)
	defer svc.Close()

	_, ch := hub.Subscribe(4)

	report, err := svc.RecordQuizResult(context.Background(), "alice", engine.QuizResult{
		Score:     60,
		TimeSpent: 45,
		Correct:   true,
		When:      time.Date(2025, 8, 29, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("record quiz: %v", err)
	}
	if report.State.XP == 0 {
		t.Fatal("expected XP awarded")
	}

	// realtime bridge should receive the xp event
	ev := <-ch
	if ev.UserID != "alice" || ev.Type != core.EventXPAwarded {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestInMemoryFallback(t *testing.T) {
	svc := New(WithDispatchMode(engine.DispatchSync))
	defer svc.Close()

	if _, err := svc.RecordQuizResult(context.Background(), "bob", engine.QuizResult{Score: 50, TimeSpent: 60}); err != nil {
		t.Fatalf("fallback record quiz: %v", err)
	}
	state, err := svc.GetState(context.Background(), "bob")
	if err != nil {
		t.Fatalf("fallback get state: %v", err)
	}
	if state.XP == 0 {
		t.Fatal("expected persisted XP")
	}
}

func TestAnalyticsBridge(t *testing.T) {
	metrics := analytics.NewProgressionMetrics()
	svc := New(
		WithDispatchMode(engine.DispatchSync),
		WithAnalytics(metrics),
	)
	defer svc.Close()

	_, err := svc.RecordQuizResult(context.Background(), "carol", engine.QuizResult{
		Score:     80,
		TimeSpent: 45,
		When:      time.Date(2025, 8, 29, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("record quiz: %v", err)
	}

	if metrics.TotalXPAwarded() == 0 {
		t.Fatal("expected analytics to observe awarded XP")
	}
}
