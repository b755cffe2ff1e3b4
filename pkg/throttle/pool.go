// Package throttle bounds the number of finished-but-unwritten images held in
// memory and synchronizes slot release between outputs fed by one pass.
//
// Producers call Reserve before allocating an image and the sequence writer
// gives the slot back with Notify once the image is no longer needed. With a
// single output Notify is a plain Release. With several outputs sharing the
// pool, a slot is released only after every output is done with the index.
package throttle

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/user/seqwrite/pkg/ports"
)

// Pool counts in-flight memory blocks against a ceiling.
// A ceiling of zero or less means unlimited.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	active  int
	waiting int
	ceiling int

	// outputs is non-nil only while more than one output shares the pool.
	// done counts, per index not yet released, the outputs finished with it.
	outputs []output
	done    map[int]int

	logger ports.Logger
}

type output struct {
	id    uuid.UUID
	used  bool
	index int
}

// New creates a pool with the given ceiling.
func New(ceiling int, logger ports.Logger) *Pool {
	p := &Pool{
		ceiling: ceiling,
		logger:  logger.WithComponent("throttle"),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Reserve takes a memory slot, blocking while the ceiling is reached.
// It returns ctx.Err() if the context ends first; no slot is held then.
func (p *Pool) Reserve(ctx context.Context) error {
	waited, err := p.reserve(ctx)
	if waited && err == nil {
		p.logger.Debug("Memory slot obtained after waiting")
	}
	return err
}

func (p *Pool) reserve(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ceiling <= 0 {
		p.active++
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	stop := context.AfterFunc(ctx, func() {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	defer stop()

	waited := false
	for p.ceiling > 0 && p.active >= p.ceiling {
		waited = true
		p.waiting++
		p.cond.Wait()
		p.waiting--
		if err := ctx.Err(); err != nil {
			// The wake-up may have been meant for a slot: hand it on.
			if p.ceiling <= 0 || p.active < p.ceiling {
				p.cond.Signal()
			}
			return waited, err
		}
	}
	p.active++
	return waited, nil
}

// Release gives back one slot and wakes one waiter. Each reserved slot must
// be released exactly once.
func (p *Pool) Release() {
	p.mu.Lock()
	ok := p.releaseLocked()
	p.mu.Unlock()
	if !ok {
		p.logger.Error("Memory slot released without a reservation")
	}
}

// releaseLocked reports false when no slot was reserved. The caller holds
// p.mu and logs after unlocking.
func (p *Pool) releaseLocked() bool {
	if p.active == 0 {
		return false
	}
	p.active--
	p.cond.Signal()
	return true
}

// SetCeiling changes the number of slots. Raising a finite ceiling wakes as
// many waiters as slots were added; switching to unlimited wakes all.
func (p *Pool) SetCeiling(n int) {
	p.logger.Info("Number of images allowed in the write queue: %d (zero or less is unlimited)", n)

	p.mu.Lock()
	defer p.mu.Unlock()
	old := p.ceiling
	p.ceiling = n
	switch {
	case n <= 0:
		p.cond.Broadcast()
	case old > 0 && n > old:
		p.wakeDeficit(n - old)
	}
}

// wakeDeficit signals delta parked waiters. Storing a larger ceiling does not
// by itself wake goroutines blocked in cond.Wait, so every raise must go
// through here. The caller holds p.mu.
func (p *Pool) wakeDeficit(delta int) {
	for i := 0; i < delta; i++ {
		p.cond.Signal()
	}
}

// Ceiling returns the configured ceiling.
func (p *Pool) Ceiling() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ceiling
}

// Active returns the number of reserved slots.
func (p *Pool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Waiting returns the number of goroutines blocked in Reserve.
func (p *Pool) Waiting() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waiting
}
