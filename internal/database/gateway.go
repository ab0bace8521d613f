package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"collab-events/internal/domain"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Runner is the query surface repositories work against. Both the pool-level
// Gateway (autocommit, one statement) and a transaction handle implement it.
type Runner interface {
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row
	// Execute runs a statement and returns the number of rows affected.
	Execute(ctx context.Context, query string, args ...any) (int64, error)
	// ExecuteReturningID runs an INSERT ... RETURNING id and returns the id.
	ExecuteReturningID(ctx context.Context, query string, args ...any) (int64, error)
}

type sqlRunner interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Gateway wraps the connection pool. It holds no per-request state.
type Gateway struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewGateway(db *sql.DB, logger *zap.Logger) *Gateway {
	return &Gateway{db: db, logger: logger}
}

var _ Runner = (*Gateway)(nil)
var _ Runner = (*Tx)(nil)

// Ping checks pool connectivity (used by /health).
func (g *Gateway) Ping(ctx context.Context) error {
	return g.db.PingContext(ctx)
}

func (g *Gateway) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return runQuery(ctx, g.db, query, args...)
}

func (g *Gateway) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return g.db.QueryRowContext(ctx, query, args...)
}

func (g *Gateway) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	return execute(ctx, g.db, query, args...)
}

func (g *Gateway) ExecuteReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	return executeReturningID(ctx, g.db, query, args...)
}

// Begin opens a transaction handle. The caller owns it and must Commit or
// Rollback; prefer InTx.
func (g *Gateway) Begin(ctx context.Context) (*Tx, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, Classify(err, "failed to begin transaction")
	}
	return &Tx{tx: tx}, nil
}

// InTx runs fn inside one transaction. It commits only when fn returns nil
// and rolls back on error or panic.
func (g *Gateway) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := g.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			g.logger.Error("transaction rollback failed", zap.Error(rbErr), zap.NamedError("cause", err))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return Classify(err, "failed to commit transaction")
	}
	return nil
}

// Tx is a transaction-scoped handle. It must not outlive the request that
// opened it.
type Tx struct {
	tx   *sql.Tx
	done bool
}

func (t *Tx) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return runQuery(ctx, t.tx, query, args...)
}

func (t *Tx) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, query, args...)
}

func (t *Tx) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	return execute(ctx, t.tx, query, args...)
}

func (t *Tx) ExecuteReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	return executeReturningID(ctx, t.tx, query, args...)
}

func (t *Tx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	return t.tx.Commit()
}

// Rollback is a no-op after Commit or a previous Rollback.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback()
}

func runQuery(ctx context.Context, r sqlRunner, query string, args ...any) (*sql.Rows, error) {
	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, Classify(err, "query failed")
	}
	return rows, nil
}

func execute(ctx context.Context, r sqlRunner, query string, args ...any) (int64, error) {
	result, err := r.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, Classify(err, "command failed")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, Classify(err, "failed to get rows affected")
	}
	return n, nil
}

func executeReturningID(ctx context.Context, r sqlRunner, query string, args ...any) (int64, error) {
	var id int64
	if err := r.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, Classify(err, "insert failed")
	}
	return id, nil
}

// Postgres SQLSTATE codes the service reacts to
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// Classify maps a driver error onto a domain error kind. sql.ErrNoRows
// becomes NotFound; errors already tagged pass through unchanged.
func Classify(err error, message string) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.Error{Kind: domain.KindNotFound, Message: message, Err: err}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case codeUniqueViolation:
			return domain.Conflict(fmt.Sprintf("%s: duplicate key (%s)", message, pqErr.Constraint), err)
		case codeForeignKeyViolation:
			return &domain.Error{Kind: domain.KindNotFound, Message: fmt.Sprintf("%s: referenced row does not exist (%s)", message, pqErr.Constraint), Err: err}
		case codeSerializationFailure, codeDeadlockDetected:
			return domain.Conflict(message+": concurrent update", err)
		}
	}
	return domain.Storage(message, err)
}
