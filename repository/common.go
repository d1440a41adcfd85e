package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/coolviki/paywise/pkg/apperr"
	"github.com/go-sql-driver/mysql"
)

const (
	mysqlErrDuplicateEntry  = 1062
	mysqlErrRowIsReferenced = 1451
	mysqlErrNoReferencedRow = 1452
)

func mysqlErrorNumber(err error) uint16 {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number
	}
	return 0
}

func translateWriteError(what string, err error) error {
	if err == nil {
		return nil
	}
	switch mysqlErrorNumber(err) {
	case mysqlErrDuplicateEntry:
		return apperr.AlreadyExists(what, err)
	case mysqlErrRowIsReferenced, mysqlErrNoReferencedRow:
		return fmt.Errorf("%s: %w: %v", what, apperr.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// getNullable runs a single-row query, reporting found = false on sql.ErrNoRows
func getNullable(ctx context.Context, db Readonly, dest interface{}, query string, args ...interface{}) (bool, error) {
	err := db.GetContext(ctx, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func namedInsert(ctx context.Context, what string, query string, arg interface{}) (int64, error) {
	result, err := GetTx(ctx).NamedExecContext(ctx, query, arg)
	if err != nil {
		return 0, translateWriteError(what, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	return id, nil
}

func namedExec(ctx context.Context, what string, query string, arg interface{}) error {
	_, err := GetTx(ctx).NamedExecContext(ctx, query, arg)
	return translateWriteError(what, err)
}

func exec(ctx context.Context, what string, query string, args ...interface{}) (int64, error) {
	result, err := GetTx(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, translateWriteError(what, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	return n, nil
}
