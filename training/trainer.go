// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package training

import (
	"context"
	"log/slog"
	"slices"

	"github.com/poiesic/didyoumean/core"
	"github.com/poiesic/didyoumean/dictionary"
	"github.com/poiesic/didyoumean/metrics"
	"github.com/poiesic/didyoumean/session"
)

// Trainer turns a goal tree into dictionary score adjustments.
type Trainer interface {
	TrainGoalTree(ctx context.Context, dict *dictionary.Dictionary, root *core.QueryGoalNode) error
}

// Config holds the adaptation factors.
type Config struct {
	// AcceptedFactor scales a suggestion the user followed.
	AcceptedFactor float64

	// IgnoredFactor scales a suggestion the user did not follow.
	IgnoredFactor float64

	// NotSuggestedPositiveFactor scales an existing suggestion that the
	// user's behavior confirmed without it having been shown.
	NotSuggestedPositiveFactor float64

	// TrainFinalGoalAsSelf makes every goal query's own key suggest the
	// best goal, so keys that differ only in spacing or punctuation resolve
	// to the canonical spelling.
	TrainFinalGoalAsSelf bool
}

// DefaultConfig returns the standard adaptation factors.
func DefaultConfig() Config {
	return Config{
		AcceptedFactor:             1.4,
		IgnoredFactor:              0.9,
		NotSuggestedPositiveFactor: 1.4,
		TrainFinalGoalAsSelf:       true,
	}
}

// DefaultTrainer adapts scores from accepted and ignored suggestions and
// from the goals found in a tree.
type DefaultTrainer struct {
	config   Config
	juror    session.GoalJuror
	distance core.EditDistance
	logger   *slog.Logger
}

var _ Trainer = (*DefaultTrainer)(nil)

// TrainerOption configures a DefaultTrainer.
type TrainerOption func(*DefaultTrainer)

// WithJuror replaces the juror consulted for trees without goals.
func WithJuror(j session.GoalJuror) TrainerOption {
	return func(t *DefaultTrainer) {
		if j != nil {
			t.juror = j
		}
	}
}

// WithEditDistance replaces the distance used to pair queries with goals.
func WithEditDistance(d core.EditDistance) TrainerOption {
	return func(t *DefaultTrainer) {
		if d != nil {
			t.distance = d
		}
	}
}

// WithTrainerLogger sets a custom logger.
func WithTrainerLogger(logger *slog.Logger) TrainerOption {
	return func(t *DefaultTrainer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTrainer creates a DefaultTrainer.
func NewTrainer(config Config, opts ...TrainerOption) *DefaultTrainer {
	t := &DefaultTrainer{
		config:   config,
		juror:    session.DefaultJuror{},
		distance: core.Levenshtein{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TrainGoalTree applies the training signal of one goal tree to dict.
// The tree may gain juror inspections but is otherwise left unchanged.
func (t *DefaultTrainer) TrainGoalTree(ctx context.Context, dict *dictionary.Dictionary, root *core.QueryGoalNode) error {
	if dict == nil {
		return ErrDictionaryRequired
	}

	if err := t.adaptShownSuggestions(ctx, dict, root); err != nil {
		return err
	}

	if root.IsLeaf() {
		if root.HasGoal() {
			return t.adaptPositive(ctx, dict, root.Query, root.Hits, root)
		}
		return nil
	}

	var withGoals, withoutGoals []*core.QueryGoalNode
	for _, n := range root.Subtree() {
		if n.HasGoal() {
			withGoals = append(withGoals, n)
		} else {
			withoutGoals = append(withoutGoals, n)
		}
	}

	if len(withGoals) == 0 {
		goals, err := t.juror.CreateGoals(root)
		if err != nil {
			return err
		}
		if len(goals) == 0 {
			t.logger.Debug("no goal found in tree", "root", root.Query)
			return nil
		}
		withGoals = goals
		withoutGoals = slices.DeleteFunc(withoutGoals, func(n *core.QueryGoalNode) bool {
			return slices.Contains(goals, n)
		})
	}

	slices.SortStableFunc(withGoals, compareGoals)
	best := withGoals[0]

	if t.config.TrainFinalGoalAsSelf {
		for _, n := range withGoals {
			if !dict.HasKey(n.Query) {
				continue
			}
			list, err := dict.GetOrCreate(ctx, n.Query)
			if err != nil {
				return err
			}
			if list.Contains(best.Query) {
				continue
			}
			if err := list.AddSuggested(best.Query, 1.0, best.Hits); err != nil {
				return err
			}
			if err := dict.Put(ctx, list); err != nil {
				return err
			}
		}
	}

	// Suggest back from the best goal to the second best: homm -> heroes of
	// might and magic -> homm.
	if len(withGoals) > 1 {
		second := withGoals[1]
		if err := t.adaptPositive(ctx, dict, second.Query, second.Hits, best); err != nil {
			return err
		}
	}

	for _, n := range withoutGoals {
		closest := t.closestGoal(n, withGoals)
		if err := t.adaptPositive(ctx, dict, closest.Query, closest.Hits, n); err != nil {
			return err
		}
	}
	return nil
}

// adaptShownSuggestions rewards suggestions the user followed and decays
// the ones they ignored.
func (t *DefaultTrainer) adaptShownSuggestions(ctx context.Context, dict *dictionary.Dictionary, root *core.QueryGoalNode) error {
	for n := range root.Descendants() {
		parent := n.Parent()
		if parent.Suggestion == "" {
			continue
		}
		list, err := dict.Get(ctx, parent.Query)
		if err != nil {
			return err
		}
		if list == nil {
			continue
		}
		shown := list.Get(parent.Suggestion)
		if shown == nil {
			continue
		}
		if n.Query == parent.Suggestion {
			shown.Score = core.ScaleScore(shown.Score, t.config.AcceptedFactor)
			metrics.RecordAdaptation(metrics.AdaptAccepted)
		} else {
			shown.Score = core.ScaleScore(shown.Score, t.config.IgnoredFactor)
			metrics.RecordAdaptation(metrics.AdaptIgnored)
		}
		list.Sort()
		if err := dict.Put(ctx, list); err != nil {
			return err
		}
	}
	return nil
}

// adaptPositive makes key's query suggest text, adding it at 1.0 or
// boosting an existing entry. Queries without a dictionary key are skipped.
func (t *DefaultTrainer) adaptPositive(ctx context.Context, dict *dictionary.Dictionary, text string, hits int, key *core.QueryGoalNode) error {
	if !dict.HasKey(key.Query) {
		t.logger.Debug("skipping query without key", "query", key.Query)
		return nil
	}
	list, err := dict.GetOrCreate(ctx, key.Query)
	if err != nil {
		return err
	}
	if existing := list.Get(text); existing != nil {
		existing.Score = core.ScaleScore(existing.Score, t.config.NotSuggestedPositiveFactor)
	} else if err := list.AddSuggested(text, 1.0, hits); err != nil {
		return err
	}
	list.Sort()
	metrics.RecordAdaptation(metrics.AdaptPositive)
	return dict.Put(ctx, list)
}

func (t *DefaultTrainer) closestGoal(n *core.QueryGoalNode, goals []*core.QueryGoalNode) *core.QueryGoalNode {
	closest := goals[0]
	best := t.distance.Distance(n.Query, closest.Query)
	for _, g := range goals[1:] {
		if d := t.distance.Distance(n.Query, g.Query); d < best {
			closest, best = g, d
		}
	}
	return closest
}

// compareGoals orders goals by descending inspection weight, then most recent first.
func compareGoals(a, b *core.QueryGoalNode) int {
	wa, _ := a.InspectionWeight()
	wb, _ := b.InspectionWeight()
	switch {
	case wa > wb:
		return -1
	case wa < wb:
		return 1
	}
	return b.Timestamp.Compare(a.Timestamp)
}
