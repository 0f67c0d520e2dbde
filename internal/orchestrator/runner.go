package orchestrator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// #region turn

// Turn is one queued utterance for batch processing.
type Turn struct {
	ConversationID string
	Utterance      string
}

// #endregion

// #region runner

// Runner processes batches of turns with bounded concurrency. Turns for the
// same conversation are serialized by the orchestrator's per-conversation
// lock; the pool bound only caps how many conversations progress at once.
type Runner struct {
	orch  *Orchestrator
	limit int
}

// NewRunner creates a runner. limit <= 0 means a bound of 4.
func NewRunner(orch *Orchestrator, limit int) *Runner {
	if limit <= 0 {
		limit = 4
	}
	return &Runner{orch: orch, limit: limit}
}

// Run processes every turn and returns the results in input order. The first
// failed turn cancels the remaining ones.
func (r *Runner) Run(ctx context.Context, turns []Turn) ([]*TurnResult, error) {
	results := make([]*TurnResult, len(turns))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)
	for i, t := range turns {
		i, t := i, t
		g.Go(func() error {
			res, err := r.orch.ProcessTurn(ctx, t.ConversationID, t.Utterance)
			if err != nil {
				return fmt.Errorf("turn %d (conv %s): %w", i, t.ConversationID, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// #endregion
