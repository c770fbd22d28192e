package exec

import (
	"github.com/silvenkosk/colsql/internal/batch"
	"github.com/silvenkosk/colsql/internal/column"
	"github.com/silvenkosk/colsql/internal/dict"
	"github.com/silvenkosk/colsql/internal/eval"
	"github.com/silvenkosk/colsql/internal/sql"
	"github.com/silvenkosk/colsql/internal/types"
)

// AggSpec is the physical form of an aggregate call: a function name
// already upper-cased, its argument expression, and an optional alias.
type AggSpec struct {
	Func  string
	Arg   sql.Expr
	Alias string
}

type aggState struct {
	sumInt   int64
	sumFloat float64
	count    int64
}

type aggGroup struct {
	key    []types.Datum
	keyParts []keyPart
	states []aggState
}

// HashAggregate drains its child fully in Open, hashing multi-column group
// keys and folding each row into per-group aggregate state, then emits the
// materialised groups in fixed-size batches.
type HashAggregate struct {
	child   Operator
	groupBy []sql.Expr
	aggs    []AggSpec
	env     *eval.Env

	argIsDouble []bool

	names []string
	types []types.Kind

	groups  []*aggGroup
	buckets map[uint64][]*aggGroup
	cursor  int
}

func NewHashAggregate(child Operator, groupBy []sql.Expr, aggs []AggSpec) (*HashAggregate, error) {
	env := &eval.Env{Names: child.OutputNames(), Types: child.OutputTypes(), Dict: child.Dictionary()}

	names := make([]string, 0, len(groupBy)+len(aggs))
	outTypes := make([]types.Kind, 0, len(groupBy)+len(aggs))

	for _, g := range groupBy {
		if ref, ok := g.(*sql.ColumnRef); ok {
			names = append(names, ref.Name)
		} else {
			names = append(names, "expr")
		}
		t, err := eval.InferType(g, env)
		if err != nil {
			t = types.Int64
		}
		outTypes = append(outTypes, t)
	}

	argIsDouble := make([]bool, len(aggs))
	for i, a := range aggs {
		name := a.Alias
		if name == "" {
			name = a.Func + "(" + a.Arg.String() + ")"
		}
		names = append(names, name)

		switch a.Func {
		case "COUNT":
			outTypes = append(outTypes, types.Int64)
		case "AVG":
			outTypes = append(outTypes, types.Double)
		default: // SUM
			argType, err := eval.InferType(a.Arg, env)
			argIsDouble[i] = err == nil && argType == types.Double
			if argIsDouble[i] {
				outTypes = append(outTypes, types.Double)
			} else {
				outTypes = append(outTypes, types.Int64)
			}
		}
	}

	return &HashAggregate{
		child: child, groupBy: groupBy, aggs: aggs, env: env,
		argIsDouble: argIsDouble, names: names, types: outTypes,
	}, nil
}

func (self *HashAggregate) OutputNames() []string        { return self.names }
func (self *HashAggregate) OutputTypes() []types.Kind    { return self.types }
func (self *HashAggregate) Dictionary() *dict.Dictionary { return self.child.Dictionary() }

func (self *HashAggregate) Open() error {
	if err := self.child.Open(); err != nil {
		return err
	}

	self.groups = nil
	self.buckets = make(map[uint64][]*aggGroup)
	self.cursor = 0

	var implicit *aggGroup
	if len(self.groupBy) == 0 {
		implicit = self.newGroup(nil, nil)
		self.groups = append(self.groups, implicit)
	}

	var b batch.ExecBatch
	for {
		ok, err := self.child.Next(&b)
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		for row := 0; row < b.Length; row++ {
			evalRow := eval.Row{Columns: b.Columns, Index: row}

			var g *aggGroup
			if implicit != nil {
				g = implicit
			} else {
				key := make([]types.Datum, len(self.groupBy))
				for i, expr := range self.groupBy {
					d, err := eval.Eval(expr, evalRow, self.env)
					if err != nil {
						return err
					}
					key[i] = d
				}
				g, err = self.findOrCreateGroup(key)
				if err != nil {
					return err
				}
			}

			for i, spec := range self.aggs {
				switch spec.Func {
				case "COUNT":
					g.states[i].count++
				case "AVG":
					d, err := eval.Eval(spec.Arg, evalRow, self.env)
					if err != nil {
						return err
					}
					g.states[i].sumFloat += d.AsFloat64()
					g.states[i].count++
				default: // SUM
					d, err := eval.Eval(spec.Arg, evalRow, self.env)
					if err != nil {
						return err
					}
					if self.argIsDouble[i] {
						g.states[i].sumFloat += d.AsFloat64()
					} else {
						g.states[i].sumInt += d.AsInt64()
					}
					g.states[i].count++
				}
			}
		}
	}

	return nil
}

func (self *HashAggregate) newGroup(key []types.Datum, parts []keyPart) *aggGroup {
	return &aggGroup{key: key, keyParts: parts, states: make([]aggState, len(self.aggs))}
}

func (self *HashAggregate) findOrCreateGroup(key []types.Datum) (*aggGroup, error) {
	parts := make([]keyPart, len(key))
	for i, d := range key {
		parts[i] = buildKeyPart(d, self.child.Dictionary())
	}
	h := hashKeyParts(parts)
	for _, g := range self.buckets[h] {
		if keyPartsEqual(parts, g.keyParts) {
			return g, nil
		}
	}
	g := self.newGroup(key, parts)
	self.buckets[h] = append(self.buckets[h], g)
	self.groups = append(self.groups, g)
	return g, nil
}

func (self *HashAggregate) Close() error { return self.child.Close() }

func (self *HashAggregate) Next(b *batch.ExecBatch) (bool, error) {
	if self.cursor >= len(self.groups) {
		return false, nil
	}

	hi := self.cursor + batch.Target
	if hi > len(self.groups) {
		hi = len(self.groups)
	}

	builders := make([]batch.Builder, len(self.types))
	for i, t := range self.types {
		builders[i] = batch.NewBuilder(t, hi-self.cursor)
	}

	for _, g := range self.groups[self.cursor:hi] {
		col := 0
		for _, d := range g.key {
			builders[col].Append(d)
			col++
		}
		for i, spec := range self.aggs {
			builders[col].Append(self.aggOutput(spec, self.argIsDouble[i], g.states[i]))
			col++
		}
	}

	b.Length = hi - self.cursor
	cols := make([]column.Buffer, len(builders))
	for i, bd := range builders {
		cols[i] = bd.Build()
	}
	b.Columns = cols
	self.cursor = hi
	return true, nil
}

func (self *HashAggregate) aggOutput(spec AggSpec, argIsDouble bool, s aggState) types.Datum {
	switch spec.Func {
	case "COUNT":
		return types.NewInt64(s.count)
	case "AVG":
		if s.count == 0 {
			return types.NewDouble(0)
		}
		return types.NewDouble(s.sumFloat / float64(s.count))
	default: // SUM
		if argIsDouble {
			return types.NewDouble(s.sumFloat)
		}
		return types.NewInt64(s.sumInt)
	}
}
