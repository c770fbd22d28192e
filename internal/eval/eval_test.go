package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silvenkosk/colsql/internal/column"
	"github.com/silvenkosk/colsql/internal/dict"
	"github.com/silvenkosk/colsql/internal/sql"
	"github.com/silvenkosk/colsql/internal/types"
)

func rowEnv() (Row, *Env) {
	row := Row{
		Columns: []column.Buffer{
			column.Int64Buffer{10, 20},
			column.DoubleBuffer{1.5, 2.5},
		},
		Index: 0,
	}
	env := &Env{
		Names: []string{"orders.qty", "orders.price"},
		Types: []types.Kind{types.Int64, types.Double},
	}
	return row, env
}

func TestEvalColumnRefQualifiedAndBare(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	row, env := rowEnv()

	d, err := Eval(&sql.ColumnRef{Qualifier: "orders", Name: "qty"}, row, env)
	require.NoError(err)
	assert.Equal(int64(10), d.AsInt64())

	env.Names = []string{"qty", "orders.price"}
	d, err = Eval(&sql.ColumnRef{Qualifier: "orders", Name: "qty"}, row, env)
	require.NoError(err)
	assert.Equal(int64(10), d.AsInt64(), "fallback to bare name must succeed")
}

func TestEvalUnknownColumn(t *testing.T) {
	row, env := rowEnv()
	_, err := Eval(&sql.ColumnRef{Name: "nope"}, row, env)
	assert.Error(t, err)
}

func TestEvalArithWidensToDoubleWhenEitherOperandIsDouble(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	row, env := rowEnv()

	expr := &sql.BinaryExpr{
		Op: sql.OpMul,
		L:  &sql.ColumnRef{Qualifier: "orders", Name: "qty"},
		R:  &sql.DoubleLit{Value: 2},
	}
	d, err := Eval(expr, row, env)
	require.NoError(err)
	assert.Equal(types.Double, d.Kind)
	assert.Equal(20.0, d.AsDouble())
}

func TestEvalIntegerDivisionByZeroErrors(t *testing.T) {
	row, env := rowEnv()
	expr := &sql.BinaryExpr{
		Op: sql.OpDiv,
		L:  &sql.IntLit{Value: 5},
		R:  &sql.IntLit{Value: 0},
	}
	_, err := Eval(expr, row, env)
	assert.Error(t, err)
}

func TestEvalFloatDivisionByZeroYieldsInf(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	row, env := rowEnv()

	expr := &sql.BinaryExpr{
		Op: sql.OpDiv,
		L:  &sql.DoubleLit{Value: 5},
		R:  &sql.DoubleLit{Value: 0},
	}
	d, err := Eval(expr, row, env)
	require.NoError(err)
	assert.True(d.AsDouble() > 0)
	assert.True(d.AsDouble() > 1e300, "expected +Inf-scale result")
}

func TestEvalStringLiteralInternsIntoEnvDict(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	row, env := rowEnv()
	env.Dict = dict.New()

	d, err := Eval(&sql.StringLit{Value: "north"}, row, env)
	require.NoError(err)
	s, ok := env.Dict.Lookup(d.AsCode())
	require.True(ok)
	assert.Equal("north", s)
}

func TestEvalStringComparisonOnlySupportsEqNe(t *testing.T) {
	row, env := rowEnv()
	env.Dict = dict.New()
	l := &sql.StringLit{Value: "north"}
	r := &sql.StringLit{Value: "south"}

	eqExpr := &sql.BinaryExpr{Op: sql.OpEq, L: l, R: r}
	d, err := Eval(eqExpr, row, env)
	require.NoError(t, err)
	assert.False(t, d.Truthy())

	ltExpr := &sql.BinaryExpr{Op: sql.OpLt, L: l, R: r}
	_, err = Eval(ltExpr, row, env)
	assert.Error(t, err)
}

func TestEvalAndOrEvaluateBothSides(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	row, env := rowEnv()

	trueExpr := &sql.BinaryExpr{
		Op: sql.OpGt,
		L:  &sql.ColumnRef{Qualifier: "orders", Name: "qty"},
		R:  &sql.IntLit{Value: 1},
	}
	falseExpr := &sql.BinaryExpr{
		Op: sql.OpLt,
		L:  &sql.ColumnRef{Qualifier: "orders", Name: "qty"},
		R:  &sql.IntLit{Value: 1},
	}

	and := &sql.BinaryExpr{Op: sql.OpAnd, L: trueExpr, R: falseExpr}
	d, err := Eval(and, row, env)
	require.NoError(err)
	assert.False(d.Truthy())

	or := &sql.BinaryExpr{Op: sql.OpOr, L: trueExpr, R: falseExpr}
	d, err = Eval(or, row, env)
	require.NoError(err)
	assert.True(d.Truthy())
}

func TestTruthy(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	row, env := rowEnv()

	ok, err := Truthy(&sql.ColumnRef{Qualifier: "orders", Name: "qty"}, row, env)
	require.NoError(err)
	assert.True(ok)
}

func TestInferType(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	_, env := rowEnv()

	kind, err := InferType(&sql.ColumnRef{Qualifier: "orders", Name: "qty"}, env)
	require.NoError(err)
	assert.Equal(types.Int64, kind)

	kind, err = InferType(&sql.BinaryExpr{
		Op: sql.OpMul,
		L:  &sql.ColumnRef{Qualifier: "orders", Name: "qty"},
		R:  &sql.ColumnRef{Qualifier: "orders", Name: "price"},
	}, env)
	require.NoError(err)
	assert.Equal(types.Double, kind, "multiplying by a DOUBLE column widens the result")

	kind, err = InferType(&sql.BinaryExpr{
		Op: sql.OpGt,
		L:  &sql.ColumnRef{Qualifier: "orders", Name: "qty"},
		R:  &sql.IntLit{Value: 1},
	}, env)
	require.NoError(err)
	assert.Equal(types.Int64, kind, "comparisons always report INT64")

	_, err = InferType(&sql.FuncCall{Name: "SUM"}, env)
	assert.Error(err)
}
