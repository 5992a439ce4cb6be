// Package tx carries an open *sql.Tx on a context so stores called inside
// RunInTx share one transaction.
package tx

import (
	"context"
	"database/sql"
)

type key struct{}

// WithTx returns ctx unchanged when tx is nil.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, key{}, tx)
}

// From reports the transaction on ctx, if any.
func From(ctx context.Context) (*sql.Tx, bool) {
	t, ok := ctx.Value(key{}).(*sql.Tx)
	return t, ok && t != nil
}
