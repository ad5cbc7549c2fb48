// Package reward assembles delivery payloads from a static bundle catalog
// and models queued batch delivery. Actual delivery (notifications,
// persistence) belongs to external collaborators.
package reward

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"progressionkit/core"
	"progressionkit/quest"
)

// friendShareXP is the bundle size from which a share-with-friends
// notification is added.
const friendShareXP = 150

// queueDelay is the simulated delivery latency for queued rewards.
const queueDelay = time.Second

// Bundle is what an achievement pays out.
type Bundle struct {
	XP    int64  `json:"xp"`
	Badge string `json:"badge"`
	Title string `json:"title"`
}

// Notification is a delivery instruction for the notification scheduler.
type Notification struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Distribution is the assembled payload for one achievement unlock.
type Distribution struct {
	XP            int64          `json:"xp"`
	Badge         string         `json:"badge"`
	Title         string         `json:"title"`
	Notifications []Notification `json:"notifications"`
}

// Receipt acknowledges rewards queued for asynchronous delivery.
type Receipt struct {
	QueueID           string        `json:"queue_id"`
	Status            string        `json:"status"`
	EstimatedDelivery time.Time     `json:"estimated_delivery"`
	Rewards           []core.Reward `json:"rewards"`
	UserID            core.UserID   `json:"user_id"`
}

// BatchItem is one reward delivery in a batch.
type BatchItem struct {
	UserID core.UserID `json:"user_id"`
	Reward core.Reward `json:"reward"`
}

// BatchResult is the per-item outcome of a batch distribution.
type BatchResult struct {
	Success bool        `json:"success"`
	UserID  core.UserID `json:"user_id"`
	Reward  core.Reward `json:"reward,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// BatchSummary aggregates a batch distribution.
type BatchSummary struct {
	Successful int           `json:"successful"`
	Failed     int           `json:"failed"`
	Total      int           `json:"total"`
	Results    []BatchResult `json:"results"`
}

// Totals aggregates rewards across achievements.
type Totals struct {
	TotalXP int64    `json:"total_xp"`
	Badges  []string `json:"badges"`
	Titles  []string `json:"titles"`
}

// defaultBundle pays out for achievement ids without a catalog entry.
var defaultBundle = Bundle{XP: 50, Badge: "default_badge", Title: "Achievement Unlocked"}

// Distributor holds the immutable reward-bundle catalog keyed by
// achievement id.
type Distributor struct {
	bundles map[string]Bundle
}

func NewDistributor() *Distributor {
	return NewDistributorWithBundles(defaultBundles())
}

func NewDistributorWithBundles(bundles map[string]Bundle) *Distributor {
	d := &Distributor{bundles: make(map[string]Bundle, len(bundles))}
	for id, b := range bundles {
		d.bundles[id] = b
	}
	return d
}

func defaultBundles() map[string]Bundle {
	return map[string]Bundle{
		"week_warrior":  {XP: 150, Badge: "week_warrior_badge", Title: "Week Warrior"},
		"first_quiz":    {XP: 50, Badge: "beginner_badge", Title: "Quiz Starter"},
		"perfect_score": {XP: 100, Badge: "perfect_badge", Title: "Perfectionist"},
		"quiz_master":   {XP: 500, Badge: "master_badge", Title: "Quiz Master"},
	}
}

// Distribute assembles the payload for one unlocked achievement. Unknown
// ids resolve to the default bundle rather than erroring.
func (d *Distributor) Distribute(user core.UserID, achievementID string, timestamp time.Time) Distribution {
	bundle, ok := d.bundles[achievementID]
	if !ok {
		bundle = defaultBundle
	}

	notifications := []Notification{{
		Type:      "achievement_unlocked",
		Title:     "Achievement Unlocked: " + bundle.Title,
		Message:   message(bundle.XP),
		Timestamp: timestamp,
	}}
	if bundle.XP >= friendShareXP {
		notifications = append(notifications, Notification{
			Type:      "friend_notification",
			Title:     "Share your achievement",
			Message:   "Let your friends know about your accomplishment!",
			Timestamp: timestamp,
		})
	}

	return Distribution{
		XP:            bundle.XP,
		Badge:         bundle.Badge,
		Title:         bundle.Title,
		Notifications: notifications,
	}
}

// Queue returns a queued-delivery receipt without performing delivery.
func (d *Distributor) Queue(user core.UserID, rewards []core.Reward, now time.Time) Receipt {
	return Receipt{
		QueueID:           "queue_" + uuid.NewString(),
		Status:            "queued",
		EstimatedDelivery: now.Add(queueDelay),
		Rewards:           rewards,
		UserID:            user,
	}
}

// DistributeBatch processes each item independently; one bad item never
// aborts the rest.
func (d *Distributor) DistributeBatch(items []BatchItem) BatchSummary {
	summary := BatchSummary{Total: len(items), Results: make([]BatchResult, 0, len(items))}
	for _, item := range items {
		if _, err := core.NormalizeUserID(item.UserID); err != nil {
			summary.Failed++
			summary.Results = append(summary.Results, BatchResult{
				Success: false, UserID: item.UserID, Error: err.Error(),
			})
			continue
		}
		summary.Successful++
		summary.Results = append(summary.Results, BatchResult{
			Success: true, UserID: item.UserID, Reward: item.Reward,
		})
	}
	return summary
}

// TotalRewards aggregates XP, badges, and titles across achievement ids.
// Ids without a catalog entry contribute nothing.
func (d *Distributor) TotalRewards(achievementIDs []string) Totals {
	var totals Totals
	for _, id := range achievementIDs {
		bundle, ok := d.bundles[id]
		if !ok {
			continue
		}
		totals.TotalXP += bundle.XP
		if bundle.Badge != "" {
			totals.Badges = append(totals.Badges, bundle.Badge)
		}
		if bundle.Title != "" {
			totals.Titles = append(totals.Titles, bundle.Title)
		}
	}
	return totals
}

// QuestReward queues a completed quest's reward list for delivery.
func (d *Distributor) QuestReward(user core.UserID, q quest.Quest, now time.Time) Receipt {
	return d.Queue(user, q.Reward, now)
}

func message(earnedXP int64) string {
	return fmt.Sprintf("You earned %d XP!", earnedXP)
}
