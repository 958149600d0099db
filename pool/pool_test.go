package pool

import (
	"context"
	"testing"
	"time"
)

// newTestPool builds a Pool directly from fake sessions, bypassing Open
// (which requires a live *sql.DB).
func newTestPool(n int) *Pool {
	p := &Pool{
		conns: make(chan *Conn, n),
		all:   make([]*Conn, 0, n),
	}
	for i := 0; i < n; i++ {
		c := &Conn{}
		p.all = append(p.all, c)
		p.conns <- c
	}
	return p
}

func TestAcquireReleaseFIFO(t *testing.T) {
	p := newTestPool(2)
	ctx := context.Background()

	first, err := p.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatal("expected two distinct sessions")
	}

	p.Release(first)
	reacquired, err := p.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if reacquired != first {
		t.Error("expected the released session to be reacquired first")
	}
	p.Release(second)
	p.Release(reacquired)
}

func TestAcquireBlocksUntilContextDone(t *testing.T) {
	p := newTestPool(1)
	ctx := context.Background()

	c, err := p.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := p.Acquire(timeoutCtx); err == nil {
		t.Error("expected Acquire to fail once the pool is exhausted and the context times out")
	}
	p.Release(c)
}

func TestOpenRejectsNonPositiveSize(t *testing.T) {
	if _, err := Open(context.Background(), nil, 0); err == nil {
		t.Error("expected an error for a non-positive pool size")
	}
}
