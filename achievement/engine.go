// Package achievement matches learning events against a static catalog of
// achievement definitions. The engine is stateless: it reports every
// definition a payload satisfies and leaves de-duplication against
// already-granted achievements to the caller.
package achievement

import "progressionkit/core"

// Achievement is an immutable catalog entry.
type Achievement struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	XPReward    int64       `json:"xp_reward"`
	Badge       string      `json:"badge,omitempty"`
	Conditions  []Condition `json:"conditions"`
}

// ProgressReport is a progress indicator toward a threshold achievement.
type ProgressReport struct {
	Current    int64   `json:"current"`
	Required   int64   `json:"required"`
	Percentage float64 `json:"percentage"`
}

// Engine holds the immutable achievement catalog.
type Engine struct {
	ordered []Achievement
	byID    map[string]Achievement
}

// NewEngine builds an engine over the default catalog.
func NewEngine() *Engine {
	return NewEngineWithCatalog(defaultCatalog())
}

// NewEngineWithCatalog builds an engine over a caller-supplied catalog.
// The slice is copied; later mutation by the caller has no effect.
func NewEngineWithCatalog(catalog []Achievement) *Engine {
	e := &Engine{
		ordered: make([]Achievement, len(catalog)),
		byID:    make(map[string]Achievement, len(catalog)),
	}
	copy(e.ordered, catalog)
	for _, a := range e.ordered {
		e.byID[a.ID] = a
	}
	return e
}

// Check evaluates the whole catalog against the payload and returns every
// achievement whose conditions all pass.
func (e *Engine) Check(data core.Payload) []Achievement {
	var unlocked []Achievement
	for _, a := range e.ordered {
		if e.conditionsPass(a, data) {
			unlocked = append(unlocked, a)
		}
	}
	return unlocked
}

// CheckConditions evaluates a single achievement's condition set.
// Unknown ids never pass.
func (e *Engine) CheckConditions(achievementID string, data core.Payload) bool {
	a, ok := e.byID[achievementID]
	if !ok {
		return false
	}
	return e.conditionsPass(a, data)
}

func (e *Engine) conditionsPass(a Achievement, data core.Payload) bool {
	for _, c := range a.Conditions {
		if !c.Eval(data) {
			return false
		}
	}
	return true
}

// All returns a snapshot of the catalog.
func (e *Engine) All() []Achievement {
	out := make([]Achievement, len(e.ordered))
	copy(out, e.ordered)
	return out
}

// Get looks up a single definition by id.
func (e *Engine) Get(achievementID string) (Achievement, bool) {
	a, ok := e.byID[achievementID]
	return a, ok
}

// Progress reports how close a caller-supplied counter is to the first
// threshold condition of the achievement. Achievements without a threshold
// condition are all-or-nothing and report against a required count of 1.
func (e *Engine) Progress(achievementID string, current int64) (ProgressReport, bool) {
	a, ok := e.byID[achievementID]
	if !ok {
		return ProgressReport{}, false
	}
	if current < 0 {
		current = 0
	}
	required := int64(1)
	for _, c := range a.Conditions {
		if c.Op == OpAtLeast {
			required = int64(asNumber(c.Value))
			break
		}
	}
	pct := float64(0)
	if required > 0 {
		pct = float64(current) / float64(required) * 100
		if pct > 100 {
			pct = 100
		}
	}
	return ProgressReport{Current: current, Required: required, Percentage: pct}, true
}
