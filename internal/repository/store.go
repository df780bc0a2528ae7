package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ErrVersionConflict is returned by LoanRepository.Update when another writer got there first
var ErrVersionConflict = errors.New("stale loan version")

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx
type DBTX interface {
	sqlx.ExtContext
}

// Repositories groups every repository bound to the same connection or transaction
type Repositories struct {
	Clients    ClientRepository
	Guarantees GuaranteeRepository
	RatePlans  RatePlanRepository
	Loans      LoanRepository
	Payments   PaymentRepository
}

func NewRepositories(db DBTX) *Repositories {
	return &Repositories{
		Clients:    NewClientRepository(db),
		Guarantees: NewGuaranteeRepository(db),
		RatePlans:  NewRatePlanRepository(db),
		Loans:      NewLoanRepository(db),
		Payments:   NewPaymentRepository(db),
	}
}

// Store hands out repositories and runs units of work atomically
type Store interface {
	Repositories() *Repositories

	// WithinTx runs fn in one transaction bounded by the configured timeout.
	// Any error from fn, or the timeout, rolls everything back.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error
}

type sqlStore struct {
	db        *sqlx.DB
	repos     *Repositories
	txTimeout time.Duration
}

func NewStore(db *sqlx.DB, txTimeout time.Duration) Store {
	return &sqlStore{
		db:        db,
		repos:     NewRepositories(db),
		txTimeout: txTimeout,
	}
}

func (s *sqlStore) Repositories() *Repositories {
	return s.repos
}

func (s *sqlStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) (err error) {
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, rbErr)
		}
	}()

	if err = fn(ctx, NewRepositories(tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a unique constraint failure on either dialect
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// IsForeignKeyViolation reports whether err is a foreign key failure on either dialect
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}

// forUpdate returns the row locking clause for dialects that support it.
// SQLite serializes writers at BEGIN IMMEDIATE instead.
func forUpdate(db DBTX) string {
	if db.DriverName() == "postgres" {
		return " FOR UPDATE"
	}
	return ""
}

// countWhere runs SELECT COUNT(*) with an optional status IN filter
func countWhere(ctx context.Context, db DBTX, query string, statuses []string, args ...any) (int, error) {
	if len(statuses) > 0 {
		query += " AND status IN (?)"
		args = append(args, statuses)
		var err error
		query, args, err = sqlx.In(query, args...)
		if err != nil {
			return 0, err
		}
	}

	var count int
	if err := sqlx.GetContext(ctx, db, &count, db.Rebind(query), args...); err != nil {
		return 0, err
	}
	return count, nil
}
