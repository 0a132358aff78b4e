package tx

import (
	"context"
	"database/sql"
)

// Manager runs fn inside one storage transaction. Nested calls join the
// transaction already bound to ctx.
type Manager interface {
	Within(ctx context.Context, fn func(context.Context) error) error
}

type NoopManager struct{}

func (NoopManager) Within(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type key struct{}

// Bind returns a context carrying sqlTx for stores that join it.
func Bind(ctx context.Context, sqlTx *sql.Tx) context.Context {
	return context.WithValue(ctx, key{}, sqlTx)
}

func From(ctx context.Context) (*sql.Tx, bool) {
	sqlTx, ok := ctx.Value(key{}).(*sql.Tx)
	return sqlTx, ok
}
