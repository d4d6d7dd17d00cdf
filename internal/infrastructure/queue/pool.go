package queue

import (
	"context"

	"github.com/rs/zerolog"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

type job struct {
	task func()
	done chan struct{}
}

// Pool runs CPU-bound tasks (password hashing and verification) on a fixed
// set of workers so a deliberately slow hash never stalls unrelated
// request goroutines.
type Pool struct {
	jobs chan job
	log  zerolog.Logger
}

// NewPool creates a Pool with numWorkers workers. If numWorkers <= 0,
// defaultWorkers is used.
func NewPool(numWorkers int, log zerolog.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	p := &Pool{
		jobs: make(chan job, channelBuffer),
		log:  log,
	}
	for i := 0; i < numWorkers; i++ {
		go p.runWorker(i)
	}
	return p
}

// Do submits task and blocks until it has run or ctx is done. The task
// itself is not cancellable once a worker picks it up; ctx only bounds the
// caller's wait.
func (p *Pool) Do(ctx context.Context, task func()) error {
	j := job{task: task, done: make(chan struct{})}

	select {
	case p.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting new work. Workers drain whatever is queued.
// Do must not be called after Close.
func (p *Pool) Close() {
	close(p.jobs)
}

func (p *Pool) runWorker(id int) {
	for j := range p.jobs {
		p.run(id, j)
	}
}

func (p *Pool) run(id int, j job) {
	defer close(j.done)
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Int("worker_id", id).Interface("panic", r).Msg("worker task panicked")
		}
	}()
	j.task()
}
