package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silvenkosk/colsql/internal/sql"
)

func TestHashJoinInnerEquiJoin(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	left, err := NewColumnarScan(newOrdersTable(), []string{"orders.id", "orders.qty"}, []string{"id", "qty"})
	require.NoError(err)
	right, err := NewColumnarScan(newDetailTable(), []string{"detail.id", "detail.region"}, []string{"id", "region"})
	require.NoError(err)

	join, err := NewHashJoin(left, right, []string{"orders.id"}, []string{"detail.id"}, nil)
	require.NoError(err)
	require.NoError(join.Open())

	rows, err := drain(join)
	require.NoError(err)
	require.Len(rows, 2, "orders.id=3 has no match in detail, detail.id=4 has no match in orders")

	region0, ok := join.Dictionary().Lookup(rows[0][3].AsCode())
	require.True(ok)
	assert.Equal("north", region0)

	region1, ok := join.Dictionary().Lookup(rows[1][3].AsCode())
	require.True(ok)
	assert.Equal("south", region1)
}

func TestHashJoinAppliesResidualPredicatePostJoin(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	left, err := NewColumnarScan(newOrdersTable(), []string{"orders.id", "orders.qty"}, []string{"id", "qty"})
	require.NoError(err)
	right, err := NewColumnarScan(newDetailTable(), []string{"detail.id", "detail.region"}, []string{"id", "region"})
	require.NoError(err)

	residual := &sql.BinaryExpr{
		Op: sql.OpGt,
		L:  &sql.ColumnRef{Qualifier: "orders", Name: "qty"},
		R:  &sql.IntLit{Value: 15},
	}
	join, err := NewHashJoin(left, right, []string{"orders.id"}, []string{"detail.id"}, residual)
	require.NoError(err)
	require.NoError(join.Open())

	rows, err := drain(join)
	require.NoError(err)
	require.Len(rows, 1)
	assert.Equal(int64(2), rows[0][0].AsInt64())
}

func TestHashJoinOutputSchemaIsLeftThenRight(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	left, err := NewColumnarScan(newOrdersTable(), []string{"orders.id", "orders.qty"}, []string{"id", "qty"})
	require.NoError(err)
	right, err := NewColumnarScan(newDetailTable(), []string{"detail.id", "detail.region"}, []string{"id", "region"})
	require.NoError(err)

	join, err := NewHashJoin(left, right, []string{"orders.id"}, []string{"detail.id"}, nil)
	require.NoError(err)
	assert.Equal([]string{"orders.id", "orders.qty", "detail.id", "detail.region"}, join.OutputNames())
}

func TestHashJoinRejectsMismatchedKeyListLengths(t *testing.T) {
	left, err := NewColumnarScan(newOrdersTable(), []string{"orders.id"}, []string{"id"})
	require.NoError(t, err)
	right, err := NewColumnarScan(newDetailTable(), []string{"detail.id", "detail.region"}, []string{"id", "region"})
	require.NoError(t, err)

	_, err = NewHashJoin(left, right, []string{"orders.id"}, []string{"detail.id", "detail.region"}, nil)
	assert.Error(t, err)
}
