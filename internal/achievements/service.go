// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package achievements

import (
	"context"
	"fmt"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog"

	"github.com/evolibrary/evolibrary/internal/models"
	"github.com/evolibrary/evolibrary/internal/notify"
)

// Progress is the counter snapshot achievement conditions run against.
type Progress struct {
	TotalBooks     int `json:"total_books"`
	TotalSearches  int `json:"total_searches"`
	TotalDownloads int `json:"total_downloads"`
	MonitoredBooks int `json:"monitored_books"`
}

func (p Progress) env() map[string]any {
	return map[string]any{
		"total_books":     p.TotalBooks,
		"total_searches":  p.TotalSearches,
		"total_downloads": p.TotalDownloads,
		"monitored_books": p.MonitoredBooks,
	}
}

// Status pairs a definition with its unlocked state. Hidden achievements
// are only listed once unlocked.
type Status struct {
	Definition
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

type compiledRule struct {
	def     Definition
	program *vm.Program
}

// Service evaluates the achievement rules against the stores.
type Service struct {
	books    *models.BookStore
	counters *models.CounterStore
	unlocked *models.AchievementStore
	notifier *notify.Notifier
	log      zerolog.Logger
	rules    []compiledRule
}

// NewService compiles the rule catalog and wires the stores. A rule that
// fails to compile is a programming error and aborts startup.
func NewService(books *models.BookStore, counters *models.CounterStore, unlocked *models.AchievementStore, notifier *notify.Notifier, logger zerolog.Logger) (*Service, error) {
	rules := make([]compiledRule, 0, len(Catalog))
	for _, def := range Catalog {
		program, err := expr.Compile(def.Condition, expr.Env(Progress{}.env()), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile achievement condition %q: %w", def.ID, err)
		}
		rules = append(rules, compiledRule{def: def, program: program})
	}

	return &Service{
		books:    books,
		counters: counters,
		unlocked: unlocked,
		notifier: notifier,
		log:      logger.With().Str("component", "achievements").Logger(),
		rules:    rules,
	}, nil
}

// Progress builds the current counter snapshot.
func (s *Service) Progress(ctx context.Context) (Progress, error) {
	stats, err := s.books.Stats(ctx)
	if err != nil {
		return Progress{}, err
	}

	searches, err := s.counters.Get(ctx, models.CounterSearches)
	if err != nil {
		return Progress{}, err
	}

	downloads, err := s.counters.Get(ctx, models.CounterDownloads)
	if err != nil {
		return Progress{}, err
	}

	return Progress{
		TotalBooks:     stats.TotalBooks,
		TotalSearches:  int(searches),
		TotalDownloads: int(downloads),
		MonitoredBooks: stats.MonitoredBooks,
	}, nil
}

// CheckProgress evaluates every rule and unlocks those newly satisfied,
// returning the freshly unlocked definitions.
func (s *Service) CheckProgress(ctx context.Context) ([]Definition, error) {
	progress, err := s.Progress(ctx)
	if err != nil {
		return nil, err
	}

	already, err := s.unlockedSet(ctx)
	if err != nil {
		return nil, err
	}

	env := progress.env()

	var fresh []Definition
	for _, rule := range s.rules {
		if _, done := already[rule.def.ID]; done {
			continue
		}

		satisfied, err := expr.Run(rule.program, env)
		if err != nil {
			return nil, fmt.Errorf("evaluate achievement %q: %w", rule.def.ID, err)
		}
		if ok, _ := satisfied.(bool); !ok {
			continue
		}

		if err := s.unlocked.Unlock(ctx, rule.def.ID); err != nil {
			return nil, err
		}

		s.log.Info().Str("achievement", rule.def.ID).Msg("achievement unlocked")
		if s.notifier != nil {
			s.notifier.Success(fmt.Sprintf("Achievement unlocked: %s %s", rule.def.Icon, rule.def.Name))
		}

		fresh = append(fresh, rule.def)
	}

	return fresh, nil
}

// List returns every visible achievement with its unlocked state. Hidden
// achievements appear only after being unlocked.
func (s *Service) List(ctx context.Context) ([]Status, error) {
	unlocked, err := s.unlocked.ListUnlocked(ctx)
	if err != nil {
		return nil, err
	}

	when := make(map[string]time.Time, len(unlocked))
	for _, ua := range unlocked {
		when[ua.ID] = ua.UnlockedAt
	}

	statuses := make([]Status, 0, len(s.rules))
	for _, rule := range s.rules {
		at, done := when[rule.def.ID]
		if rule.def.Hidden && !done {
			continue
		}

		status := Status{Definition: rule.def, Unlocked: done}
		if done {
			unlockedAt := at
			status.UnlockedAt = &unlockedAt
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

// Stage returns the evolution stage for the current library size.
func (s *Service) Stage(ctx context.Context) (Stage, error) {
	stats, err := s.books.Stats(ctx)
	if err != nil {
		return Stage{}, err
	}
	return StageFor(stats.TotalBooks), nil
}

func (s *Service) unlockedSet(ctx context.Context) (map[string]struct{}, error) {
	unlocked, err := s.unlocked.ListUnlocked(ctx)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(unlocked))
	for _, ua := range unlocked {
		set[ua.ID] = struct{}{}
	}
	return set, nil
}
