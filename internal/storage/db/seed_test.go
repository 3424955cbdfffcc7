package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRow struct {
	count int
}

func (r stubRow) Scan(dest ...any) error {
	*dest[0].(*int) = r.count
	return nil
}

// stubSeedDB answers the row-count probe and reports a configurable number
// of affected rows per insert, like ON CONFLICT DO NOTHING does for
// duplicates.
type stubSeedDB struct {
	productCount int
	affected     []int64
	execCalls    int
}

func (s *stubSeedDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	n := int64(1)
	if s.execCalls < len(s.affected) {
		n = s.affected[s.execCalls]
	}
	s.execCalls++
	return pgconn.NewCommandTag(fmt.Sprintf("INSERT 0 %d", n)), nil
}

func (s *stubSeedDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, nil
}

func (s *stubSeedDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return stubRow{count: s.productCount}
}

func (s *stubSeedDB) WithTx(_ context.Context, txFunc func(DB) error) error {
	return txFunc(s)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()

	t.Run("Should count every inserted product", func(t *testing.T) {
		db := &stubSeedDB{}

		inserted, err := Seed(ctx, db)
		require.NoError(t, err)
		assert.Equal(t, len(seedProducts), inserted)
		assert.Equal(t, len(seedProducts), db.execCalls)
	})

	t.Run("Should not count rows skipped as duplicates", func(t *testing.T) {
		db := &stubSeedDB{affected: []int64{1, 0, 1, 0, 0}}

		inserted, err := Seed(ctx, db)
		require.NoError(t, err)
		assert.Equal(t, 2, inserted)
	})

	t.Run("Should be a no-op when the table has rows", func(t *testing.T) {
		db := &stubSeedDB{productCount: 7}

		inserted, err := Seed(ctx, db)
		require.NoError(t, err)
		assert.Zero(t, inserted)
		assert.Zero(t, db.execCalls)
	})
}
