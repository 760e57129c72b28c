package repositories

import "context"

// TxFn is a function that runs within a transaction.
// Repositories called with the ctx passed to fn join the transaction.
type TxFn func(ctx context.Context) error

// TransactionManager runs multi-statement store operations atomically.
// Only conversation deletion needs it; single inserts and updates are atomic on their own.
type TransactionManager interface {
	// ExecTx executes fn within a transaction, committing if fn returns nil
	ExecTx(ctx context.Context, fn TxFn) error
}
