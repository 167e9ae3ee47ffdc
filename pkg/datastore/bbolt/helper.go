package bbolt

import (
	"context"

	"go.etcd.io/bbolt"

	"github.com/UnAfraid/wg-dash/pkg/dbx"
)

func dbView[T any](ctx context.Context, db *bbolt.DB, bucketName string, callback func(*bbolt.Tx, *bbolt.Bucket) (T, error)) (T, error) {
	return dbTx(ctx, db, bucketName, false, callback)
}

func dbUpdate[T any](ctx context.Context, db *bbolt.DB, bucketName string, callback func(*bbolt.Tx, *bbolt.Bucket) (T, error)) (T, error) {
	return dbTx(ctx, db, bucketName, true, callback)
}

// dbTx runs callback inside the transaction carried by ctx when present. A
// missing bucket is created for writes and reported as an empty result for
// reads.
func dbTx[T any](ctx context.Context, db *bbolt.DB, bucketName string, writable bool, callback func(*bbolt.Tx, *bbolt.Bucket) (T, error)) (T, error) {
	return dbx.InBBoltTransactionScopeWithResult(ctx, db, writable, func(ctx context.Context, tx *bbolt.Tx) (result T, err error) {
		var bucket *bbolt.Bucket
		if writable {
			bucket, err = tx.CreateBucketIfNotExists([]byte(bucketName))
			if err != nil {
				return result, err
			}
		} else {
			bucket = tx.Bucket([]byte(bucketName))
			if bucket == nil {
				return result, nil
			}
		}
		return callback(tx, bucket)
	})
}
