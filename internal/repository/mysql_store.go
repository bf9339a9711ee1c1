package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/theater-seat-ticketing/internal/logging"
)

// MySQL server error numbers we react to.
const (
	mysqlErrDuplicateKey = 1062
	mysqlErrLockWait     = 1205
	mysqlErrDeadlock     = 1213
)

// deadlocked transactions are replayed this many times before giving up.
const maxTxAttempts = 3

// MySQLStore implements Store on top of sqlx.  The DSN must carry
// clientFoundRows=true so UPDATE reports matched rather than changed rows.
type MySQLStore struct {
	db *sqlx.DB
	queries
}

var (
	_ Store = (*MySQLStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

func NewMySQLStore(db *sqlx.DB) *MySQLStore {
	return &MySQLStore{db: db, queries: queries{ext: db}}
}

// DB exposes the underlying handle for health checks and schema setup.
func (s *MySQLStore) DB() *sqlx.DB { return s.db }

// WithinTx runs fn in a READ COMMITTED transaction.  Seat rows are guarded
// by explicit locking reads and conditional updates, so the weaker
// isolation level keeps gap locks out of the way of concurrent shoppers.
func (s *MySQLStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = s.runTx(ctx, fn)
		if !isRetryable(err) || ctx.Err() != nil {
			return err
		}
		logging.FromContext(ctx).WithError(err).WithField("attempt", attempt).Warn("retrying transaction")
	}
	return err
}

func (s *MySQLStore) runTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollbackErr := tx.Rollback()
			if rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				err = errors.Join(err, rollbackErr)
			}
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("could not commit transaction: %w", commitErr)
		}
	}()
	return fn(&sqlTx{queries: queries{ext: tx}})
}

// sqlTx binds the query set to an open transaction.
type sqlTx struct {
	queries
}

// queries implements every statement against either *sqlx.DB or *sqlx.Tx.
type queries struct {
	ext sqlx.ExtContext
}

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isRetryable(err error) bool {
	n := mysqlErrNumber(err)
	return n == mysqlErrDeadlock || n == mysqlErrLockWait
}

// isDuplicate reports a unique-key violation on the named index.
func isDuplicate(err error, index string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlErrDuplicateKey {
		return false
	}
	return index == "" || strings.Contains(me.Message, index)
}
