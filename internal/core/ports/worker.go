package ports

import "context"

// Offloader executes a CPU-bound task on a dedicated worker, away from the
// request-serving path. Do blocks until the task has run or ctx is done.
type Offloader interface {
	Do(ctx context.Context, task func()) error
}
