package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schema string

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// DB is the Postgres store for both ledgers, bookings and devices.
type DB struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewDB(ctx context.Context, logger *zap.Logger, dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database url is not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &DB{pool, logger}, nil
}

func (p *DB) Close() {
	p.pool.Close()
}

func (p *DB) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Migrate creates missing tables.
func (p *DB) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// pool and tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (p *DB) logSQL(err error, sql string, args []any) {
	p.logger.Error("SQL error",
		zap.Error(err),
		zap.String("query", sql),
		zap.Any("args", args),
	)
}

func (p *DB) exec(ctx context.Context, q querier, b sq.Sqlizer) (pgconn.CommandTag, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		p.logSQL(err, sql, args)
		return pgconn.CommandTag{}, err
	}
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		p.logSQL(err, sql, args)
		return tag, err
	}
	return tag, nil
}

// scanOne returns pgx.ErrNoRows as is, so callers can map it.
func (p *DB) scanOne(ctx context.Context, q querier, b sq.Sqlizer, dest ...any) error {
	sql, args, err := b.ToSql()
	if err != nil {
		p.logSQL(err, sql, args)
		return err
	}
	err = q.QueryRow(ctx, sql, args...).Scan(dest...)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		p.logSQL(err, sql, args)
	}
	return err
}

func (p *DB) query(ctx context.Context, q querier, b sq.Sqlizer) (pgx.Rows, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		p.logSQL(err, sql, args)
		return nil, err
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		p.logSQL(err, sql, args)
		return nil, err
	}
	return rows, nil
}

func (p *DB) inTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()
	err = fn(tx)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func notFound(err error, domain error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain
	}
	return err
}

func fromPG(u pgtype.UUID) uuid.UUID {
	return uuid.UUID(u.Bytes)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
