package leaderboard

import (
	"context"
	"testing"

	"progressionkit/core"
)

func TestSkipListBasic(t *testing.T) {
	s := NewSkipList()
	s.Update(core.UserID("a"), 10)
	s.Update(core.UserID("b"), 20)
	s.Update(core.UserID("c"), 15)
	top := s.TopN(3)
	if len(top) != 3 || top[0].User != core.UserID("b") || top[1].User != core.UserID("c") || top[2].User != core.UserID("a") {
		t.Fatalf("unexpected order: %#v", top)
	}
	s.Update(core.UserID("a"), 25)
	top = s.TopN(1)
	if top[0].User != core.UserID("a") {
		t.Fatalf("top should be a, got %#v", top)
	}
}

func TestSkipListRank(t *testing.T) {
	s := NewSkipList()
	s.Update("a", 10)
	s.Update("b", 20)
	s.Update("c", 15)

	if got := s.Rank("b"); got != 1 {
		t.Fatalf("rank b: got %d", got)
	}
	if got := s.Rank("a"); got != 3 {
		t.Fatalf("rank a: got %d", got)
	}
	if got := s.Rank("missing"); got != 0 {
		t.Fatalf("rank missing: got %d", got)
	}

	s.Remove("b")
	if got := s.Rank("c"); got != 1 {
		t.Fatalf("rank c after remove: got %d", got)
	}
}

func TestRankerTrend(t *testing.T) {
	r := NewRanker()
	ctx := context.Background()

	standing, err := r.Update(ctx, "a", 100, "react", "weekly")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if standing.Position != 1 || standing.Trend != "stable" {
		t.Fatalf("unexpected first standing: %+v", standing)
	}

	if _, err := r.Update(ctx, "b", 200, "react", "weekly"); err != nil {
		t.Fatalf("update: %v", err)
	}

	standing, err = r.Update(ctx, "a", 110, "react", "weekly")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if standing.Position != 2 || standing.Trend != "down" {
		t.Fatalf("expected drop to 2, got %+v", standing)
	}

	standing, err = r.Update(ctx, "a", 300, "react", "weekly")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if standing.Position != 1 || standing.Trend != "up" {
		t.Fatalf("expected climb to 1, got %+v", standing)
	}
}

func TestRankerBoardsAreIsolated(t *testing.T) {
	r := NewRanker()
	ctx := context.Background()

	_, _ = r.Update(ctx, "a", 100, "react", "weekly")
	_, _ = r.Update(ctx, "b", 200, "typescript", "weekly")

	top := r.TopN("react", "weekly", 10)
	if len(top) != 1 || top[0].User != "a" {
		t.Fatalf("react board polluted: %#v", top)
	}
}
