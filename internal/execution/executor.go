package execution

import (
	"context"
	"fmt"
)

// Step is one action of a test body or hook
type Step interface {
	Run(ctx context.Context) error
	String() string
}

// Sequence runs steps in order and stops at the first failure
type Sequence []Step

// Run executes every step. The returned error wraps the failing step's error,
// so assertion failures keep their expected and actual values.
func (s Sequence) Run(ctx context.Context) error {
	for i, step := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.Run(ctx); err != nil {
			if len(s) == 1 {
				return err
			}
			return fmt.Errorf("step %d (%s): %w", i+1, step, err)
		}
	}
	return nil
}
