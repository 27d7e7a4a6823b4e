package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/hongminglow/reward-auth/internal/models"
	"github.com/hongminglow/reward-auth/internal/storage"
	"github.com/hongminglow/reward-auth/internal/storage/postgres/migrations"
)

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

// DB is the subset of *pgxpool.Pool the store needs. pgxmock pools satisfy it.
type DB interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// querier is satisfied by both the pool and a pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides Postgres-backed persistence for users.
type Store struct {
	db DB
}

// New wraps an existing pool without running migrations.
func New(db DB) *Store {
	return &Store{db: db}
}

// NewUserStore connects to databaseURL, waits for the server to answer and
// applies pending migrations.
func NewUserStore(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return New(pool), nil
}

// Migrate applies the embedded goose migrations using pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Connect opens a pool and blocks until the database answers a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	backoff := retry.WithMaxRetries(5, retry.NewExponential(200*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

const userColumns = `id, identity, secret, role, last_login_at, login_count, recommend_count, created_at`

// FindByIdentity fetches a user by identity.
func (s *Store) FindByIdentity(ctx context.Context, identity string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE identity = $1`
	user, err := scanUser(s.db.QueryRow(ctx, query, identity))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, oops.Code("USER_NOT_FOUND").
			With("identity", identity).
			Wrap(storage.ErrNotFound)
	}
	if err != nil {
		return models.User{}, oops.Code("USER_GET_FAILED").
			With("operation", "get user by identity").
			With("identity", identity).
			Wrap(err)
	}
	return user, nil
}

// CreateUser inserts a new user row. Counters always start at zero.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (identity, secret, role, last_login_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	created, err := scanUser(s.db.QueryRow(ctx, query, user.Identity, user.Secret, user.Role, user.LastLoginAt))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return models.User{}, oops.Code("USER_ALREADY_EXISTS").
				With("identity", user.Identity).
				Wrap(storage.ErrAlreadyExists)
		}
		return models.User{}, oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("identity", user.Identity).
			Wrap(err)
	}
	return created, nil
}

func (s *Store) IncrementLoginCount(ctx context.Context, identity string) error {
	return incrementLoginCount(ctx, s.db, identity)
}

func (s *Store) IncrementRecommendCount(ctx context.Context, identity string) error {
	const query = `UPDATE users SET recommend_count = recommend_count + 1 WHERE identity = $1`
	return execOne(ctx, s.db, "increment recommend count", identity, query, identity)
}

func (s *Store) TouchLastLogin(ctx context.Context, identity string, at time.Time) error {
	return touchLastLogin(ctx, s.db, identity, at)
}

// RecordLogin locks the identity's row for the duration of the attendance
// decision and both updates.
func (s *Store) RecordLogin(ctx context.Context, identity string, at time.Time, due storage.AttendanceFunc) (models.User, error) {
	const lockQuery = `SELECT ` + userColumns + ` FROM users WHERE identity = $1 FOR UPDATE`

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return models.User{}, oops.Code("TX_BEGIN_FAILED").
			With("operation", "record login").
			With("identity", identity).
			Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	current, err := scanUser(tx.QueryRow(ctx, lockQuery, identity))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, oops.Code("USER_NOT_FOUND").
			With("identity", identity).
			Wrap(storage.ErrNotFound)
	}
	if err != nil {
		return models.User{}, oops.Code("USER_LOCK_FAILED").
			With("operation", "lock user for login").
			With("identity", identity).
			Wrap(err)
	}

	if due != nil && due(current) {
		if err := incrementLoginCount(ctx, tx, identity); err != nil {
			return models.User{}, err
		}
		current.LoginCount++
	}
	if err := touchLastLogin(ctx, tx, identity, at); err != nil {
		return models.User{}, err
	}
	if at.After(current.LastLoginAt) {
		current.LastLoginAt = at
	}

	if err := tx.Commit(ctx); err != nil {
		return models.User{}, oops.Code("TX_COMMIT_FAILED").
			With("operation", "record login").
			With("identity", identity).
			Wrap(err)
	}
	return current, nil
}

func incrementLoginCount(ctx context.Context, q querier, identity string) error {
	const query = `UPDATE users SET login_count = login_count + 1 WHERE identity = $1`
	return execOne(ctx, q, "increment login count", identity, query, identity)
}

// GREATEST keeps last_login_at non-decreasing under out-of-order writers.
func touchLastLogin(ctx context.Context, q querier, identity string, at time.Time) error {
	const query = `UPDATE users SET last_login_at = GREATEST(last_login_at, $2) WHERE identity = $1`
	return execOne(ctx, q, "touch last login", identity, query, identity, at)
}

func execOne(ctx context.Context, q querier, operation, identity, query string, args ...any) error {
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", operation).
			With("identity", identity).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("identity", identity).
			Wrap(storage.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Identity,
		&user.Secret,
		&user.Role,
		&user.LastLoginAt,
		&user.LoginCount,
		&user.RecommendCount,
		&user.CreatedAt,
	)
	return user, err
}
