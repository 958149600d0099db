// Package pool manages a bounded set of pre-opened database sessions
// shared by the scheduler's table workers. Every session is set to READ
// UNCOMMITTED, so reads take no shared locks against concurrent writers.
// Sessions keep the driver's default autocommit mode and are not put in a
// read-only mode.
package pool

import (
	"context"
	"database/sql"
	"fmt"
)

// Rows is the subset of *sql.Rows the exporter needs to drain a cursor.
// Declared here so a fake session can return a fake Rows in tests without
// a registered database/sql/driver.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Querier is the subset of *sql.Conn the exporter needs. Declaring it here,
// rather than requiring a concrete *sql.Conn, lets exporter tests substitute
// a fake session instead of a live SQL Server.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Conn is one pooled session. Callers must pass it back to Release exactly
// once, whether or not the work performed on it failed.
type Conn struct {
	DB     Querier
	closer func() error
}

// sqlConn adapts a live *sql.Conn to Querier; *sql.Conn's QueryContext
// returns the concrete *sql.Rows, which satisfies Rows structurally, but
// Go requires the adapter method to declare the interface return type
// itself for *sqlConn to satisfy Querier.
type sqlConn struct {
	conn *sql.Conn
}

func (s *sqlConn) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	return s.conn.QueryContext(ctx, query, args...)
}

func (s *sqlConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.conn.ExecContext(ctx, query, args...)
}

// Pool is a fixed-size, pre-opened set of sessions, handed out FIFO via a
// buffered channel.
type Pool struct {
	conns chan *Conn
	all   []*Conn
	db    *sql.DB
}

// Open establishes size sessions against db, each set to READ UNCOMMITTED.
// Sessions are not checked for health: Release puts every session back,
// including one whose last use failed.
func Open(ctx context.Context, db *sql.DB, size int) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool: size must be positive, got %d", size)
	}

	p := &Pool{
		conns: make(chan *Conn, size),
		all:   make([]*Conn, 0, size),
		db:    db,
	}

	for i := 0; i < size; i++ {
		sess, err := db.Conn(ctx)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("pool: open session %d/%d: %w", i+1, size, err)
		}
		if _, err := sess.ExecContext(ctx, "SET TRANSACTION ISOLATION LEVEL READ UNCOMMITTED"); err != nil {
			sess.Close()
			p.Close()
			return nil, fmt.Errorf("pool: set isolation level on session %d/%d: %w", i+1, size, err)
		}

		c := &Conn{DB: &sqlConn{conn: sess}, closer: sess.Close}
		p.all = append(p.all, c)
		p.conns <- c
	}

	return p, nil
}

// NewFake builds a Pool around already-constructed sessions, bypassing
// Open's live-database setup. Exported for exporter/scheduler tests that
// substitute a fake pool.Conn for a live SQL Server session.
func NewFake(conns ...*Conn) *Pool {
	p := &Pool{
		conns: make(chan *Conn, len(conns)),
		all:   conns,
	}
	for _, c := range conns {
		p.conns <- c
	}
	return p
}

// Acquire blocks until a session is available or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	select {
	case c := <-p.conns:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a session to the pool for reuse. Every Conn from Acquire
// must be passed to Release exactly once.
func (p *Pool) Release(c *Conn) {
	p.conns <- c
}

// Close closes every session, pooled or currently checked out. Safe to call
// once after all workers have finished.
func (p *Pool) Close() error {
	var firstErr error
	for _, c := range p.all {
		if c.closer == nil {
			continue
		}
		if err := c.closer(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("pool: close session: %w", err)
		}
	}
	return firstErr
}
