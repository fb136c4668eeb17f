package draw

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/riskibarqy/issue-lottery/internal/platform/random"
)

var ErrInvalidCapacity = errors.New("ticket capacity must be > 0")

// Pool is a rewindable prize stream. Remove drops the prize returned by the
// last Next so later scans never see it again.
type Pool[P any] interface {
	HasNext(ctx context.Context) (bool, error)
	Next(ctx context.Context) (P, error)
	Remove() error
	ResetToStart()
}

// Ticket is one participant's capacity-bounded claim within a bucket.
type Ticket[P any] struct {
	owner       string
	maxWinnings int
	accept      func(P) bool
	winnings    []P
}

func (t *Ticket[P]) Owner() string    { return t.owner }
func (t *Ticket[P]) MaxWinnings() int { return t.maxWinnings }

func (t *Ticket[P]) Winnings() []P {
	return slices.Clone(t.winnings)
}

func (t *Ticket[P]) full() bool {
	return len(t.winnings) >= t.maxWinnings
}

// Bucket allocates one prize pool across its tickets. Each prize goes to a
// ticket picked uniformly from those still active at that moment.
type Bucket[P any] struct {
	name    string
	rnd     random.Source
	tickets []*Ticket[P]
	drawn   bool
}

func NewBucket[P any](name string, rnd random.Source) *Bucket[P] {
	if rnd == nil {
		rnd = random.New()
	}
	return &Bucket[P]{name: name, rnd: rnd}
}

func (b *Bucket[P]) Name() string { return b.name }

// CreateTicket registers a ticket. A nil accept takes any prize.
func (b *Bucket[P]) CreateTicket(owner string, maxWinnings int, accept func(P) bool) (*Ticket[P], error) {
	if maxWinnings < 1 {
		return nil, fmt.Errorf("bucket %s owner %s: %w", b.name, owner, ErrInvalidCapacity)
	}
	if accept == nil {
		accept = func(P) bool { return true }
	}
	t := &Ticket[P]{owner: owner, maxWinnings: maxWinnings, accept: accept}
	b.tickets = append(b.tickets, t)
	return t, nil
}

func (b *Bucket[P]) Tickets() []*Ticket[P] {
	return slices.Clone(b.tickets)
}

// Draw runs a single allocation pass. It stops when the pool is empty or no
// ticket is active. A ticket leaves the active set when it is full or when
// nothing left in the pool is acceptable to it.
func (b *Bucket[P]) Draw(ctx context.Context, pool Pool[P]) error {
	if b.drawn {
		return fmt.Errorf("bucket %s already drawn", b.name)
	}
	b.drawn = true

	active := slices.Clone(b.tickets)
	for len(active) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		pool.ResetToStart()
		ok, err := pool.HasNext(ctx)
		if err != nil {
			return fmt.Errorf("bucket %s: %w", b.name, err)
		}
		if !ok {
			return nil
		}

		i := b.rnd.IntN(len(active))
		ticket := active[i]
		won, err := claim(ctx, ticket, pool)
		if err != nil {
			return fmt.Errorf("bucket %s: %w", b.name, err)
		}
		if !won || ticket.full() {
			active = slices.Delete(active, i, i+1)
		}
	}
	return nil
}

func claim[P any](ctx context.Context, ticket *Ticket[P], pool Pool[P]) (bool, error) {
	for {
		ok, err := pool.HasNext(ctx)
		if err != nil || !ok {
			return false, err
		}
		prize, err := pool.Next(ctx)
		if err != nil {
			return false, err
		}
		if !ticket.accept(prize) {
			continue
		}
		if err := pool.Remove(); err != nil {
			return false, err
		}
		ticket.winnings = append(ticket.winnings, prize)
		return true, nil
	}
}
