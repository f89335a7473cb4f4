// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"fmt"
	"time"

	"github.com/evolibrary/evolibrary/internal/dbinterface"
)

// UnlockedAchievement records that an achievement has been earned.
type UnlockedAchievement struct {
	ID         string    `json:"id"`
	UnlockedAt time.Time `json:"unlockedAt"`
}

// AchievementStore persists unlocked achievement IDs.
type AchievementStore struct {
	db dbinterface.Querier
}

// NewAchievementStore constructs an achievement store.
func NewAchievementStore(db dbinterface.Querier) *AchievementStore {
	return &AchievementStore{db: db}
}

// Unlock records an achievement as earned. Unlocking twice is a no-op.
func (s *AchievementStore) Unlock(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("achievement id cannot be empty")
	}

	const query = `INSERT INTO achievements (id) VALUES (?) ON CONFLICT(id) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("unlock achievement %q: %w", id, err)
	}

	return nil
}

// ListUnlocked returns all earned achievements, oldest first.
func (s *AchievementStore) ListUnlocked(ctx context.Context) ([]UnlockedAchievement, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, unlocked_at FROM achievements ORDER BY unlocked_at, id")
	if err != nil {
		return nil, fmt.Errorf("list unlocked achievements: %w", err)
	}
	defer rows.Close()

	var unlocked []UnlockedAchievement
	for rows.Next() {
		var ua UnlockedAchievement
		if err := rows.Scan(&ua.ID, &ua.UnlockedAt); err != nil {
			return nil, fmt.Errorf("scan unlocked achievement: %w", err)
		}
		unlocked = append(unlocked, ua)
	}

	return unlocked, rows.Err()
}
