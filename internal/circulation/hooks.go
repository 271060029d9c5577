package circulation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Hook is a side effect run after a borrow or return has committed.
type Hook struct {
	Name string
	Run  func(ctx context.Context) error
}

// HookResult is the outcome of one hook. Err wraps ErrSideEffectFailure.
type HookResult struct {
	Name     string
	Err      error
	Duration time.Duration
}

// OK reports whether the hook succeeded.
func (r HookResult) OK() bool {
	return r.Err == nil
}

// runPostCommit runs every hook in order. A failing or panicking hook is
// logged and recorded; the remaining hooks still run.
func runPostCommit(ctx context.Context, op string, hooks []Hook) []HookResult {
	ctx = context.WithoutCancel(ctx)
	results := make([]HookResult, 0, len(hooks))
	for _, h := range hooks {
		start := time.Now()
		err := runHook(ctx, h)
		res := HookResult{Name: h.Name, Duration: time.Since(start)}
		if err != nil {
			res.Err = fmt.Errorf("%w: %s: %w", ErrSideEffectFailure, h.Name, err)
			log.Warn().Err(err).Str("operation", op).Str("hook", h.Name).Msg("Post-commit hook failed")
		}
		results = append(results, res)
	}
	return results
}

func runHook(ctx context.Context, h Hook) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.Run(ctx)
}
