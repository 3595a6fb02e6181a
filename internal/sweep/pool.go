package sweep

import (
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pool runs at most N jobs at once. Submit blocks while the pool is full, so
// jobs start in submission order. A pool is used for one round only.
type Pool struct {
	g *errgroup.Group

	mu        sync.Mutex
	submitted int
	errs      []error
}

// NewPool creates a pool with the given number of workers (at least one)
func NewPool(workers int) *Pool {
	g := new(errgroup.Group)
	g.SetLimit(max(workers, 1))
	return &Pool{g: g}
}

// Submit queues fn; first is true for the first job of this pool
func (p *Pool) Submit(fn func(first bool) error) {
	p.mu.Lock()
	first := p.submitted == 0
	p.submitted++
	p.mu.Unlock()

	p.g.Go(func() error {
		if err := fn(first); err != nil {
			p.mu.Lock()
			p.errs = append(p.errs, err)
			p.mu.Unlock()
			return err
		}
		return nil
	})
}

// Wait blocks until every submitted job returned and joins their errors
func (p *Pool) Wait() error {
	_ = p.g.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Join(p.errs...)
}

// Submitted is the number of jobs handed to the pool
func (p *Pool) Submitted() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.submitted
}
