package domain

import "context"

// TxManager runs a function inside a single database transaction.
// Repositories called with the ctx passed to fn share that transaction;
// any error returned by fn rolls everything back.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
