package physplan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silvenkosk/colsql/internal/column"
	"github.com/silvenkosk/colsql/internal/dict"
	"github.com/silvenkosk/colsql/internal/exec"
	"github.com/silvenkosk/colsql/internal/plan"
	"github.com/silvenkosk/colsql/internal/sql"
	"github.com/silvenkosk/colsql/internal/types"
)

func testCatalog() *column.Catalog {
	catalog := column.NewCatalog()

	orders := &column.Table{
		Name: "orders",
		Columns: []column.NamedColumn{
			{Name: "id", Buf: column.Int64Buffer{1, 2, 3}},
			{Name: "qty", Buf: column.Int64Buffer{10, 20, 30}},
		},
		Dict:     dict.New(),
		RowCount: 3,
	}
	catalog.Register(orders, &column.TableMeta{
		Name: "orders",
		Columns: []column.ColumnMeta{
			{Name: "id", Type: types.Int64},
			{Name: "qty", Type: types.Int64},
		},
		RowCount: 3,
	})
	return catalog
}

func runQuery(t *testing.T, query string) string {
	t.Helper()
	catalog := testCatalog()

	stmt, err := sql.Parse(query)
	require.NoError(t, err)
	logical, err := plan.Build(stmt, catalog)
	require.NoError(t, err)
	root, err := Build(logical, catalog)
	require.NoError(t, err)

	var out strings.Builder
	driver := &exec.Driver{}
	require.NoError(t, driver.Run(root, &exec.LineFormatter{W: &out}))
	return out.String()
}

func TestBuildEndToEndFilter(t *testing.T) {
	out := runQuery(t, "SELECT orders.id FROM orders WHERE orders.qty > 15")
	assert.Equal(t, "2\n3\n", out)
}

func TestBuildEndToEndLimit(t *testing.T) {
	out := runQuery(t, "SELECT orders.id FROM orders LIMIT 2")
	assert.Equal(t, "1\n2\n", out)
}

func TestBuildElidesIdentityProjectOverBareScan(t *testing.T) {
	catalog := testCatalog()
	stmt, err := sql.Parse("SELECT * FROM orders")
	require.NoError(t, err)
	logical, err := plan.Build(stmt, catalog)
	require.NoError(t, err)

	logicalScan, ok := logical.(*plan.ProjectNode)
	require.True(t, ok)
	require.True(t, logicalScan.Identity)

	root, err := Build(logical, catalog)
	require.NoError(t, err)
	_, isProject := root.(*exec.Project)
	assert.False(t, isProject, "identity projection over a bare scan must be elided")
}

func TestBuildRejectsUnknownLogicalNode(t *testing.T) {
	_, err := Build(nil, testCatalog())
	assert.Error(t, err)
}
