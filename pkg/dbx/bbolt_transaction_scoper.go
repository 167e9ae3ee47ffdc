package dbx

import (
	"context"
	"errors"

	"go.etcd.io/bbolt"
)

type contextKey struct{ name string }

var bboltTxKey = contextKey{name: "bboltTxKey"}

type bboltTransactionScoper struct {
	db *bbolt.DB
}

func NewBBoltTransactionScoper(db *bbolt.DB) TransactionScoper {
	return &bboltTransactionScoper{
		db: db,
	}
}

func (bts *bboltTransactionScoper) InTransactionScope(ctx context.Context, transactionScope func(ctx context.Context) error) error {
	_, err := InBBoltTransactionScopeWithResult(ctx, bts.db, true, func(ctx context.Context, _ *bbolt.Tx) (struct{}, error) {
		return struct{}{}, transactionScope(ctx)
	})
	return err
}

// InBBoltTransactionScopeWithResult joins the transaction carried by ctx or
// starts a new one. A read-only scope never starts a writable transaction but
// happily joins one that is already open.
func InBBoltTransactionScopeWithResult[T any](ctx context.Context, db *bbolt.DB, writable bool, transactionScope func(ctx context.Context, tx *bbolt.Tx) (T, error)) (result T, err error) {
	tx, transactionCloser, err := useOrStartBBoltTransaction(ctx, db, writable)
	if err != nil {
		return result, err
	}

	defer func() {
		err = transactionCloser(err)
	}()

	return transactionScope(context.WithValue(ctx, bboltTxKey, tx), tx)
}

func useOrStartBBoltTransaction(ctx context.Context, db *bbolt.DB, writable bool) (*bbolt.Tx, func(err error) error, error) {
	if tx, ok := ctx.Value(bboltTxKey).(*bbolt.Tx); ok {
		if writable && !tx.Writable() {
			return nil, nil, ErrReadOnlyTransaction
		}
		return tx, func(err error) error { return err }, nil
	}

	tx, err := db.Begin(writable)
	if err != nil {
		return nil, nil, err
	}

	transactionCloser := func(err error) error {
		if err != nil || !writable {
			if txErr := tx.Rollback(); txErr != nil && !errors.Is(txErr, bbolt.ErrTxClosed) {
				err = errors.Join(err, txErr)
			}
			return err
		}
		return tx.Commit()
	}

	return tx, transactionCloser, nil
}
