// Package sqlx provides a SQL-backed Storage implementation for Postgres
// and MySQL.
package sqlx

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"progressionkit/core"
	"progressionkit/quest"
)

// Driver selects the SQL dialect used for upserts.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config holds connection configuration.
type Config struct {
	Driver          Driver        `json:"driver" env:"DRIVER"`
	DSN             string        `json:"dsn" env:"DSN"`
	MaxOpenConns    int           `json:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `json:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// DefaultConfig returns sensible pool defaults for the driver.
func DefaultConfig(driver Driver) Config {
	return Config{
		Driver:          driver,
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Store implements engine.Storage on a relational database.
// Tables:
// - user_progression(user_id PK, xp, level, streak_days, combo_count, last_activity, updated)
// - user_achievements(user_id, achievement_id, unlocked_at) PK(user_id, achievement_id)
// - user_quests(user_id PK, quests JSON, updated)
type Store struct {
	db     *sqlx.DB
	driver Driver
}

// Open connects to the database and verifies the connection. The driver
// must be registered by the caller (lib/pq or go-sql-driver/mysql).
func Open(driver Driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	return NewWithDB(db, driver), nil
}

// NewFromConfig connects with the configured pool limits.
func NewFromConfig(cfg Config) (*Store, error) {
	store, err := Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		store.db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		store.db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		store.db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return store, nil
}

// NewWithDB wraps an existing connection (useful for testing).
func NewWithDB(db *sqlx.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

type progressionRow struct {
	UserID       string       `db:"user_id"`
	XP           int64        `db:"xp"`
	Level        int          `db:"level"`
	StreakDays   int          `db:"streak_days"`
	ComboCount   int          `db:"combo_count"`
	LastActivity sql.NullTime `db:"last_activity"`
	Updated      time.Time    `db:"updated"`
}

func (r progressionRow) state() core.ProgressionState {
	state := core.ProgressionState{
		UserID:     core.UserID(r.UserID),
		XP:         r.XP,
		Level:      r.Level,
		StreakDays: r.StreakDays,
		ComboCount: r.ComboCount,
		Updated:    r.Updated,
	}
	if r.LastActivity.Valid {
		state.LastActivity = r.LastActivity.Time
	}
	return state
}

// GetState retrieves the stored progression, or a fresh level-1 state for
// unknown users.
func (s *Store) GetState(ctx context.Context, user core.UserID) (core.ProgressionState, error) {
	var row progressionRow
	query := s.db.Rebind(`SELECT user_id, xp, level, streak_days, combo_count, last_activity, updated
		FROM user_progression WHERE user_id = ?`)
	err := s.db.GetContext(ctx, &row, query, user)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ProgressionState{UserID: user, Level: 1}, nil
	}
	if err != nil {
		return core.ProgressionState{}, fmt.Errorf("failed to get state: %w", err)
	}
	return row.state(), nil
}

// PutState writes the full progression row inside a transaction.
func (s *Store) PutState(ctx context.Context, user core.UserID, state core.ProgressionState) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	existsQuery := tx.Rebind(`SELECT EXISTS(SELECT 1 FROM user_progression WHERE user_id = ?)`)
	if err := tx.GetContext(ctx, &exists, existsQuery, user); err != nil {
		return fmt.Errorf("failed to check state: %w", err)
	}

	lastActivity := sql.NullTime{Time: state.LastActivity, Valid: !state.LastActivity.IsZero()}
	if exists {
		update := tx.Rebind(`UPDATE user_progression
			SET xp = ?, level = ?, streak_days = ?, combo_count = ?, last_activity = ?, updated = ?
			WHERE user_id = ?`)
		_, err = tx.ExecContext(ctx, update,
			state.XP, state.Level, state.StreakDays, state.ComboCount, lastActivity, state.Updated, user)
	} else {
		insert := tx.Rebind(`INSERT INTO user_progression
			(user_id, xp, level, streak_days, combo_count, last_activity, updated)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		_, err = tx.ExecContext(ctx, insert,
			user, state.XP, state.Level, state.StreakDays, state.ComboCount, lastActivity, state.Updated)
	}
	if err != nil {
		return fmt.Errorf("failed to put state: %w", err)
	}
	return tx.Commit()
}

// GrantAchievement inserts the unlock row and reports whether it was new.
func (s *Store) GrantAchievement(ctx context.Context, user core.UserID, achievementID string) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	existsQuery := tx.Rebind(`SELECT EXISTS(SELECT 1 FROM user_achievements WHERE user_id = ? AND achievement_id = ?)`)
	if err := tx.GetContext(ctx, &exists, existsQuery, user, achievementID); err != nil {
		return false, fmt.Errorf("failed to check achievement: %w", err)
	}
	if exists {
		return false, tx.Commit()
	}

	insert := tx.Rebind(`INSERT INTO user_achievements (user_id, achievement_id, unlocked_at) VALUES (?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, insert, user, achievementID, time.Now().UTC()); err != nil {
		return false, fmt.Errorf("failed to grant achievement: %w", err)
	}
	return true, tx.Commit()
}

// Achievements returns unlocked achievement ids in unlock order.
func (s *Store) Achievements(ctx context.Context, user core.UserID) ([]string, error) {
	var ids []string
	query := s.db.Rebind(`SELECT achievement_id FROM user_achievements WHERE user_id = ? ORDER BY unlocked_at`)
	if err := s.db.SelectContext(ctx, &ids, query, user); err != nil {
		return nil, fmt.Errorf("failed to get achievements: %w", err)
	}
	return ids, nil
}

// PutQuests stores the quest set as a JSON document.
func (s *Store) PutQuests(ctx context.Context, user core.UserID, quests []quest.Quest) error {
	data, err := json.Marshal(quests)
	if err != nil {
		return fmt.Errorf("failed to encode quests: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	existsQuery := tx.Rebind(`SELECT EXISTS(SELECT 1 FROM user_quests WHERE user_id = ?)`)
	if err := tx.GetContext(ctx, &exists, existsQuery, user); err != nil {
		return fmt.Errorf("failed to check quests: %w", err)
	}

	now := time.Now().UTC()
	if exists {
		update := tx.Rebind(`UPDATE user_quests SET quests = ?, updated = ? WHERE user_id = ?`)
		_, err = tx.ExecContext(ctx, update, data, now, user)
	} else {
		insert := tx.Rebind(`INSERT INTO user_quests (user_id, quests, updated) VALUES (?, ?, ?)`)
		_, err = tx.ExecContext(ctx, insert, user, data, now)
	}
	if err != nil {
		return fmt.Errorf("failed to put quests: %w", err)
	}
	return tx.Commit()
}

// Quests returns the stored quest set, or nothing for unknown users.
func (s *Store) Quests(ctx context.Context, user core.UserID) ([]quest.Quest, error) {
	var data []byte
	query := s.db.Rebind(`SELECT quests FROM user_quests WHERE user_id = ?`)
	err := s.db.GetContext(ctx, &data, query, user)
	if errors.Is(err, sql.ErrNoRows) {
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

// EnsureSchema creates the tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaFor(s.driver) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

func schemaFor(driver Driver) []string {
	timestamp := "TIMESTAMPTZ"
	doc := "JSONB"
	if driver == DriverMySQL {
		timestamp = "DATETIME"
		doc = "JSON"
	}
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS user_progression (
			user_id VARCHAR(64) PRIMARY KEY,
			xp BIGINT NOT NULL,
			level INT NOT NULL,
			streak_days INT NOT NULL,
			combo_count INT NOT NULL,
			last_activity %s NULL,
			updated %s NOT NULL
		)`, timestamp, timestamp),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS user_achievements (
			user_id VARCHAR(64) NOT NULL,
			achievement_id VARCHAR(64) NOT NULL,
			unlocked_at %s NOT NULL,
			PRIMARY KEY (user_id, achievement_id)
		)`, timestamp),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS user_quests (
			user_id VARCHAR(64) PRIMARY KEY,
			quests %s NOT NULL,
			updated %s NOT NULL
		)`, doc, timestamp),
	}
}
