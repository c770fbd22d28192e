package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silvenkosk/colsql/internal/sql"
	"github.com/silvenkosk/colsql/internal/types"
)

func TestProjectPassthroughForBareColumnRef(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	scan, err := NewColumnarScan(newOrdersTable(), []string{"orders.id", "orders.qty"}, []string{"id", "qty"})
	require.NoError(err)

	items := []sql.SelectItem{{Value: &sql.ColumnRef{Qualifier: "orders", Name: "id"}}}
	proj, err := NewProject(scan, items)
	require.NoError(err)
	assert.Equal([]string{"id"}, proj.OutputNames())

	require.NoError(proj.Open())
	rows, err := drain(proj)
	require.NoError(err)
	require.Len(rows, 3)
	assert.Equal(int64(1), rows[0][0].AsInt64())
}

func TestProjectMaterialisesComputedExpression(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	scan, err := NewColumnarScan(newOrdersTable(), []string{"orders.qty"}, []string{"qty"})
	require.NoError(err)

	items := []sql.SelectItem{{
		Value: &sql.BinaryExpr{
			Op: sql.OpMul,
			L:  &sql.ColumnRef{Qualifier: "orders", Name: "qty"},
			R:  &sql.IntLit{Value: 2},
		},
		Alias: "double_qty",
	}}
	proj, err := NewProject(scan, items)
	require.NoError(err)
	assert.Equal([]string{"double_qty"}, proj.OutputNames())
	assert.Equal([]types.Kind{types.Int64}, proj.OutputTypes())

	require.NoError(proj.Open())
	rows, err := drain(proj)
	require.NoError(err)
	require.Len(rows, 3)
	assert.Equal(int64(20), rows[0][0].AsInt64())
	assert.Equal(int64(60), rows[2][0].AsInt64())
}
