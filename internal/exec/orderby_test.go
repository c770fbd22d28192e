package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silvenkosk/colsql/internal/sql"
)

func TestOrderByDescendingSort(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	scan, err := NewColumnarScan(newOrdersTable(), []string{"orders.id", "orders.qty"}, []string{"id", "qty"})
	require.NoError(err)

	items := []sql.OrderItem{{Value: &sql.ColumnRef{Qualifier: "orders", Name: "qty"}, Desc: true}}
	ob, err := NewOrderBy(scan, items)
	require.NoError(err)
	require.NoError(ob.Open())

	rows, err := drain(ob)
	require.NoError(err)
	require.Len(rows, 3)
	assert.Equal(int64(30), rows[0][1].AsInt64())
	assert.Equal(int64(20), rows[1][1].AsInt64())
	assert.Equal(int64(10), rows[2][1].AsInt64())
}

func TestOrderByStableOnTies(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	scan, err := NewColumnarScan(newOrdersTable(), []string{"orders.id", "orders.qty"}, []string{"id", "qty"})
	require.NoError(err)

	items := []sql.OrderItem{{Value: &sql.IntLit{Value: 1}}}
	ob, err := NewOrderBy(scan, items)
	require.NoError(err)
	require.NoError(ob.Open())

	rows, err := drain(ob)
	require.NoError(err)
	require.Len(rows, 3)
	assert.Equal(int64(1), rows[0][0].AsInt64(), "equal sort keys must preserve input order")
	assert.Equal(int64(2), rows[1][0].AsInt64())
	assert.Equal(int64(3), rows[2][0].AsInt64())
}
