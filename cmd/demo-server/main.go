package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	mem "progressionkit/adapters/memory"
	ws "progressionkit/adapters/websocket"
	"progressionkit/core"
	"progressionkit/engine"
	"progressionkit/realtime"
)

func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	store := mem.New()
	bus := engine.NewEventBus(engine.DispatchAsync)
	svc := engine.NewService(store, bus, engine.DefaultRuleEngine())
	hub := realtime.NewHub()

	// Forward progression events to WebSocket clients
	bus.Subscribe(core.EventXPAwarded, func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) })
	bus.Subscribe(core.EventLevelUp, func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) })
	bus.Subscribe(core.EventAchievementUnlocked, func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) })
	bus.Subscribe(core.EventStreakExtended, func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) })

	http.Handle("/ws", ws.Handler(hub))
	http.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		// routes: POST /users/{id}/quiz, GET /users/{id}
		parts := split(r.URL.Path, '/')
		if len(parts) < 2 {
			http.NotFound(w, r)
			return
		}
		user := core.UserID(parts[1])
		switch r.Method {
		case http.MethodPost:
			if len(parts) >= 3 && parts[2] == "quiz" {
				var quiz struct {
					Score      float64 `json:"score"`
					TimeSpent  float64 `json:"time_spent"`
					Difficulty string  `json:"difficulty"`
					Correct    bool    `json:"correct"`
					Category   string  `json:"category"`
				}
				if err := json.NewDecoder(r.Body).Decode(&quiz); err != nil {
					http.Error(w, err.Error(), 400)
					return
				}
				report, err := svc.RecordQuizResult(r.Context(), user, engine.QuizResult{
					Score:      quiz.Score,
					TimeSpent:  quiz.TimeSpent,
					Difficulty: quiz.Difficulty,
					Correct:    quiz.Correct,
					Category:   quiz.Category,
				})
				if err != nil {
					http.Error(w, err.Error(), 400)
					return
				}
				writeJSON(w, report)
				return
			}
		case http.MethodGet:
			st, err := svc.GetState(r.Context(), user)
			if err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			writeJSON(w, st)
			return
		}
		http.NotFound(w, r)
	})

	slog.Info("starting demo server on :8080")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func split(p string, sep rune) []string {
	var parts []string
	current := make([]rune, 0, len(p))

	for _, r := range p {
		if r == sep {
			if len(current) > 0 {
				parts = append(parts, string(current))
				current = current[:0]
			}
			continue
		}
		current = append(current, r)
	}

	if len(current) > 0 {
		parts = append(parts, string(current))
	}

	return parts
}
