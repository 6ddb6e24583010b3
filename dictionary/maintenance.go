package dictionary

import (
	"context"

	"github.com/poiesic/didyoumean/core"
)

// Inverted maps every list's top suggestion text to a list of the keys that
// suggest it. Each key entry carries the top suggestion's score and hits.
// The returned lists are keyed by the suggestion text and are not stored.
func (d *Dictionary) Inverted(ctx context.Context) (map[string]*core.SuggestionList, error) {
	inverted := make(map[string]*core.SuggestionList)
	err := d.ForEach(ctx, func(list *core.SuggestionList) error {
		top, ok := list.Top()
		if !ok {
			return nil
		}
		misspellings, ok := inverted[top.Text]
		if !ok {
			misspellings = core.NewSuggestionList(top.Text)
			inverted[top.Text] = misspellings
		}
		if misspellings.Contains(list.Key) {
			return nil
		}
		return misspellings.AddSuggested(list.Key, top.Score, top.Hits)
	})
	if err != nil {
		return nil, err
	}
	return inverted, nil
}

// Prune truncates every list to at most maxSize suggestions and returns the
// number of lists changed.
func (d *Dictionary) Prune(ctx context.Context, maxSize int) (int, error) {
	if maxSize < 1 {
		maxSize = 1
	}
	var changed []*core.SuggestionList
	err := d.ForEach(ctx, func(list *core.SuggestionList) error {
		if list.Truncate(maxSize) {
			changed = append(changed, list)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, list := range changed {
		if err := d.Put(ctx, list); err != nil {
			return 0, err
		}
	}
	d.logger.Info("pruned dictionary", "max_size", maxSize, "changed", len(changed))
	return len(changed), nil
}

// Optimize resolves suggestion chains. When the top suggestion of a list has
// its own list whose top suggestion is different text, that final text is
// added to the first list at the same score, ahead of the intermediate one.
// Returns the number of lists changed.
func (d *Dictionary) Optimize(ctx context.Context) (int, error) {
	var changed []*core.SuggestionList
	err := d.ForEach(ctx, func(list *core.SuggestionList) error {
		top, ok := list.Top()
		if !ok {
			return nil
		}
		next, err := d.Get(ctx, top.Text)
		if err != nil {
			return err
		}
		if next == nil || next.Key == list.Key {
			return nil
		}
		final, ok := next.Top()
		if !ok || final.Text == top.Text || list.Contains(final.Text) {
			return nil
		}
		if err := list.AddSuggested(final.Text, top.Score, final.Hits); err != nil {
			return err
		}
		changed = append(changed, list)
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, list := range changed {
		if err := d.Put(ctx, list); err != nil {
			return 0, err
		}
	}
	d.logger.Info("optimized dictionary", "changed", len(changed))
	return len(changed), nil
}
