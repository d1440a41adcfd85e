package repository

import (
	"context"
	"github.com/jmoiron/sqlx"
)

type ctxConnKeyType struct{}

var ctxConnKey = ctxConnKeyType{}

// ctxConn holds the transaction of Transact, or the database handle of Readonly
type ctxConn struct {
	tx *sqlx.Tx
	db *sqlx.DB
}

func withTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, ctxConnKey, ctxConn{tx: tx})
}

func withReadonly(ctx context.Context, db *sqlx.DB) context.Context {
	if InTransaction(ctx) {
		return ctx
	}
	return context.WithValue(ctx, ctxConnKey, ctxConn{db: db})
}

func connOf(ctx context.Context) (ctxConn, bool) {
	conn, ok := ctx.Value(ctxConnKey).(ctxConn)
	return conn, ok
}

// InTransaction reports whether ctx was created by Provider.Transact
func InTransaction(ctx context.Context) bool {
	conn, ok := connOf(ctx)
	return ok && conn.tx != nil
}

// GetTx returns the transaction of ctx, panics outside Provider.Transact
func GetTx(ctx context.Context) Transaction {
	conn, ok := connOf(ctx)
	if !ok || conn.tx == nil {
		panic("Not found transaction")
	}
	return conn.tx
}

// GetReadonly returns the transaction of ctx, or the database handle set by Provider.Readonly
func GetReadonly(ctx context.Context) Readonly {
	conn, ok := connOf(ctx)
	if !ok {
		panic("Not found readonly repository")
	}
	if conn.tx != nil {
		return conn.tx
	}
	return conn.db
}
