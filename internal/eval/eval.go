// Package eval implements the expression evaluator: given an AST expression,
// a batch, a row index and a binding environment, produce a Datum.
package eval

import (
	"fmt"
	"math"

	"github.com/silvenkosk/colsql/internal/column"
	"github.com/silvenkosk/colsql/internal/dict"
	"github.com/silvenkosk/colsql/internal/sql"
	"github.com/silvenkosk/colsql/internal/types"
)

// Env is the binding environment: ordered input column names/types plus the
// dictionary string literals intern into.
type Env struct {
	Names []string
	Types []types.Kind
	Dict  *dict.Dictionary
}

func (self *Env) index(name string) (int, bool) {
	for i, n := range self.Names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// Row is the per-row evaluation context: the batch's columns plus which row
// to read.
type Row struct {
	Columns []column.Buffer
	Index   int
}

// Eval evaluates expr against row within env. Errors correspond to the
// spec's NameResolutionError/TypeError/ArithmeticError kinds.
func Eval(expr sql.Expr, row Row, env *Env) (types.Datum, error) {
	switch e := expr.(type) {
	case *sql.ColumnRef:
		return evalColumnRef(e, row, env)

	case *sql.IntLit:
		return types.NewInt64(e.Value), nil

	case *sql.DoubleLit:
		return types.NewDouble(e.Value), nil

	case *sql.StringLit:
		if env.Dict == nil {
			return types.Datum{}, fmt.Errorf("eval: string literal %q has no dictionary binding", e.Value)
		}
		code := env.Dict.GetOrAdd(e.Value)
		return types.NewString(code), nil

	case *sql.FuncCall:
		return types.Datum{}, fmt.Errorf("eval: function call %q is not evaluated by the row evaluator", e.Name)

	case *sql.BinaryExpr:
		return evalBinary(e, row, env)

	default:
		return types.Datum{}, fmt.Errorf("eval: unsupported expression node")
	}
}

func evalColumnRef(ref *sql.ColumnRef, row Row, env *Env) (types.Datum, error) {
	idx, ok := env.index(ref.FullName())
	if !ok && ref.Qualifier != "" {
		idx, ok = env.index(ref.Name)
	}
	if !ok {
		return types.Datum{}, fmt.Errorf("eval: unknown column %q", ref.FullName())
	}
	return row.Columns[idx].Datum(row.Index), nil
}

// Truthy evaluates a predicate expression and returns whether the resulting
// datum is truthy.
func Truthy(expr sql.Expr, row Row, env *Env) (bool, error) {
	d, err := Eval(expr, row, env)
	if err != nil {
		return false, err
	}
	return d.Truthy(), nil
}

func isNumeric(k types.Kind) bool { return k == types.Int64 || k == types.Double || k == types.Date32 }

func evalBinary(e *sql.BinaryExpr, row Row, env *Env) (types.Datum, error) {
	// AND/OR are evaluated without short-circuiting: both sides are always
	// computed, matching the documented non-guarantee.
	l, lerr := Eval(e.L, row, env)
	r, rerr := Eval(e.R, row, env)

	switch e.Op {
	case sql.OpAnd:
		if lerr != nil {
			return types.Datum{}, lerr
		}
		if rerr != nil {
			return types.Datum{}, rerr
		}
		return boolDatum(l.Truthy() && r.Truthy()), nil

	case sql.OpOr:
		if lerr != nil {
			return types.Datum{}, lerr
		}
		if rerr != nil {
			return types.Datum{}, rerr
		}
		return boolDatum(l.Truthy() || r.Truthy()), nil
	}

	if lerr != nil {
		return types.Datum{}, lerr
	}
	if rerr != nil {
		return types.Datum{}, rerr
	}

	switch e.Op {
	case sql.OpAdd, sql.OpSub, sql.OpMul, sql.OpDiv:
		return evalArith(e.Op, l, r)
	case sql.OpEq, sql.OpNe, sql.OpLt, sql.OpLe, sql.OpGt, sql.OpGe:
		return evalCompare(e.Op, l, r)
	default:
		return types.Datum{}, fmt.Errorf("eval: unknown binary operator")
	}
}

func boolDatum(b bool) types.Datum {
	if b {
		return types.NewInt64(1)
	}
	return types.NewInt64(0)
}

// evalArith implements the widening rule: if either operand is DOUBLE the
// result is DOUBLE (both widened); otherwise the result is INT64. Integer
// division by zero is a fatal ArithmeticError; float division by zero
// yields +Inf rather than raising.
func evalArith(op sql.BinOp, l, r types.Datum) (types.Datum, error) {
	if !isNumeric(l.Kind) || !isNumeric(r.Kind) {
		return types.Datum{}, fmt.Errorf("eval: arithmetic on non-numeric operand")
	}

	if l.Kind == types.Double || r.Kind == types.Double {
		lf, rf := l.AsFloat64(), r.AsFloat64()
		switch op {
		case sql.OpAdd:
			return types.NewDouble(lf + rf), nil
		case sql.OpSub:
			return types.NewDouble(lf - rf), nil
		case sql.OpMul:
			return types.NewDouble(lf * rf), nil
		case sql.OpDiv:
			if rf == 0 {
				return types.NewDouble(math.Inf(1)), nil
			}
			return types.NewDouble(lf / rf), nil
		}
	}

	li, ri := l.I, r.I
	switch op {
	case sql.OpAdd:
		return types.NewInt64(li + ri), nil
	case sql.OpSub:
		return types.NewInt64(li - ri), nil
	case sql.OpMul:
		return types.NewInt64(li * ri), nil
	case sql.OpDiv:
		if ri == 0 {
			return types.Datum{}, fmt.Errorf("eval: integer division by zero")
		}
		return types.NewInt64(li / ri), nil
	}
	return types.Datum{}, fmt.Errorf("eval: unreachable arithmetic operator")
}

// evalCompare implements: each primitive type compares with itself; INT64
// and DOUBLE compare cross-type by widening the integer side to double;
// STRING comparison is restricted to EQ/NE (code equality).
func evalCompare(op sql.BinOp, l, r types.Datum) (types.Datum, error) {
	if l.Kind == types.String || r.Kind == types.String {
		if l.Kind != types.String || r.Kind != types.String {
			return types.Datum{}, fmt.Errorf("eval: cannot compare STRING with %s", otherKind(l, r))
		}
		switch op {
		case sql.OpEq:
			return boolDatum(l.I == r.I), nil
		case sql.OpNe:
			return boolDatum(l.I != r.I), nil
		default:
			return types.Datum{}, fmt.Errorf("eval: STRING only supports EQ/NE comparisons")
		}
	}

	if !isNumeric(l.Kind) || !isNumeric(r.Kind) {
		return types.Datum{}, fmt.Errorf("eval: comparison on non-numeric operand")
	}

	var cmp int
	if l.Kind != r.Kind && (l.Kind == types.Double || r.Kind == types.Double) {
		lf, rf := l.AsFloat64(), r.AsFloat64()
		switch {
		case lf < rf:
			cmp = -1
		case lf > rf:
			cmp = 1
		default:
			cmp = 0
		}
	} else {
		cmp = l.Compare(r)
	}

	switch op {
	case sql.OpEq:
		return boolDatum(cmp == 0), nil
	case sql.OpNe:
		return boolDatum(cmp != 0), nil
	case sql.OpLt:
		return boolDatum(cmp < 0), nil
	case sql.OpLe:
		return boolDatum(cmp <= 0), nil
	case sql.OpGt:
		return boolDatum(cmp > 0), nil
	case sql.OpGe:
		return boolDatum(cmp >= 0), nil
	default:
		return types.Datum{}, fmt.Errorf("eval: unknown comparison operator")
	}
}

func otherKind(l, r types.Datum) types.Kind {
	if l.Kind == types.String {
		return r.Kind
	}
	return l.Kind
}

// InferType walks expr to determine its static output type, consulting env
// for COLUMN_REF leaves; used by projection/aggregate schema derivation.
// Function calls are rejected here per spec.md's PlanError ("unsupported
// expression in projection type inference").
func InferType(expr sql.Expr, env *Env) (types.Kind, error) {
	switch e := expr.(type) {
	case *sql.ColumnRef:
		idx, ok := env.index(e.FullName())
		if !ok && e.Qualifier != "" {
			idx, ok = env.index(e.Name)
		}
		if !ok {
			return 0, fmt.Errorf("eval: unknown column %q", e.FullName())
		}
		return env.Types[idx], nil

	case *sql.IntLit:
		return types.Int64, nil

	case *sql.DoubleLit:
		return types.Double, nil

	case *sql.StringLit:
		return types.String, nil

	case *sql.FuncCall:
		return 0, fmt.Errorf("eval: function call not supported in projection type inference")

	case *sql.BinaryExpr:
		switch e.Op {
		case sql.OpEq, sql.OpNe, sql.OpLt, sql.OpLe, sql.OpGt, sql.OpGe, sql.OpAnd, sql.OpOr:
			return types.Int64, nil
		default:
			lt, err := InferType(e.L, env)
			if err != nil {
				return 0, err
			}
			rt, err := InferType(e.R, env)
			if err != nil {
				return 0, err
			}
			if lt == types.Double || rt == types.Double {
				return types.Double, nil
			}
			return types.Int64, nil
		}

	default:
		return types.Int64, nil // fallback, per spec.md §4.3
	}
}
