// Package redis provides a Redis-backed Storage implementation.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"progressionkit/core"
	"progressionkit/quest"
)

// Config holds Redis connection configuration.
type Config struct {
	Addr         string        `json:"addr" env:"ADDR"`
	Password     string        `json:"password" env:"PASSWORD"`
	DB           int           `json:"db" env:"DB"`
	PoolSize     int           `json:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int           `json:"min_idle_conns" env:"MIN_IDLE_CONNS"`
	DialTimeout  time.Duration `json:"dial_timeout" env:"DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `json:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `json:"write_timeout" env:"WRITE_TIMEOUT"`
}

// DefaultConfig returns sensible defaults for Redis configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Store implements engine.Storage on Redis.
// Data structure:
// - user:{user_id}:state        -> JSON blob of ProgressionState
// - user:{user_id}:state:ver    -> unix nanos of the stored state's Updated
// - user:{user_id}:achievements -> set of achievement ids
// - user:{user_id}:quests       -> JSON array of quests, expires with the set
type Store struct {
	client *redis.Client
}

// New creates a Redis-backed storage and verifies the connection.
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing).
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func stateKey(user core.UserID) string {
	return fmt.Sprintf("user:%s:state", user)
}

func stateVerKey(user core.UserID) string {
	return fmt.Sprintf("user:%s:state:ver", user)
}

func achievementsKey(user core.UserID) string {
	return fmt.Sprintf("user:%s:achievements", user)
}

func questsKey(user core.UserID) string {
	return fmt.Sprintf("user:%s:quests", user)
}

// Lua script for last-writer-wins on the state blob: a write carrying an
// older Updated timestamp than the stored one is dropped.
var putStateScript = redis.NewScript(`
	local stored = tonumber(redis.call('GET', KEYS[2]) or '-1')
	local incoming = tonumber(ARGV[2])
	if stored > incoming then
		return 0
	end
	redis.call('SET', KEYS[1], ARGV[1])
	redis.call('SET', KEYS[2], ARGV[2])
	return 1
`)

// GetState retrieves the stored progression, or a fresh level-1 state when
// the user has no record yet.
func (s *Store) GetState(ctx context.Context, user core.UserID) (core.ProgressionState, error) {
	data, err := s.client.Get(ctx, stateKey(user)).Bytes()
	if err == redis.Nil {
		return core.ProgressionState{UserID: user, Level: 1}, nil
	}
	if err != nil {
		return core.ProgressionState{}, fmt.Errorf("failed to get state: %w", err)
	}

	var state core.ProgressionState
	if err := json.Unmarshal(data, &state); err != nil {
		return core.ProgressionState{}, fmt.Errorf("failed to decode state: %w", err)
	}
	return state, nil
}

// PutState stores the progression blob atomically, keeping the newest write
// when concurrent writers race.
func (s *Store) PutState(ctx context.Context, user core.UserID, state core.ProgressionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	keys := []string{stateKey(user), stateVerKey(user)}
	err = putStateScript.Run(ctx, s.client, keys, data, state.Updated.UnixNano()).Err()
	if err != nil {
		return fmt.Errorf("failed to put state: %w", err)
	}
	return nil
}

// GrantAchievement records an unlock; SADD reports whether it is new.
func (s *Store) GrantAchievement(ctx context.Context, user core.UserID, achievementID string) (bool, error) {
	added, err := s.client.SAdd(ctx, achievementsKey(user), achievementID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to grant achievement: %w", err)
	}
	return added == 1, nil
}

// Achievements returns the unlocked achievement ids.
func (s *Store) Achievements(ctx context.Context, user core.UserID) ([]string, error) {
	ids, err := s.client.SMembers(ctx, achievementsKey(user)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get achievements: %w", err)
	}
	return ids, nil
}

// PutQuests stores the quest set with a TTL matching its latest expiry, so
// stale daily sets clean themselves up.
func (s *Store) PutQuests(ctx context.Context, user core.UserID, quests []quest.Quest) error {
	data, err := json.Marshal(quests)
	if err != nil {
		return fmt.Errorf("failed to encode quests: %w", err)
	}

	var latest time.Time
	for _, q := range quests {
		if q.Expires.After(latest) {
			latest = q.Expires
		}
	}
	ttl := time.Until(latest)
	if ttl < time.Minute {
		ttl = time.Minute
	}

	if err := s.client.Set(ctx, questsKey(user), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to put quests: %w", err)
	}
	return nil
}

// Quests returns the stored quest set, or nothing when it expired.
func (s *Store) Quests(ctx context.Context, user core.UserID) ([]quest.Quest, error) {
	data, err := s.client.Get(ctx, questsKey(user)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quests: %w", err)
	}

	var quests []quest.Quest
	if err := json.Unmarshal(data, &quests); err != nil {
		return nil, fmt.Errorf("failed to decode quests: %w", err)
	}
	return quests, nil
}
