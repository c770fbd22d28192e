package exec

import (
	"sort"

	"github.com/silvenkosk/colsql/internal/batch"
	"github.com/silvenkosk/colsql/internal/column"
	"github.com/silvenkosk/colsql/internal/dict"
	"github.com/silvenkosk/colsql/internal/eval"
	"github.com/silvenkosk/colsql/internal/sql"
	"github.com/silvenkosk/colsql/internal/types"
)

// OrderBy buffers every input row along with its materialised sort-key
// datums, then performs a single stable sort once the child is exhausted.
type OrderBy struct {
	child Operator
	items []sql.OrderItem
	env   *eval.Env

	rows    [][]types.Datum
	sortKey [][]types.Datum
	cursor  int
}

func NewOrderBy(child Operator, items []sql.OrderItem) (*OrderBy, error) {
	env := &eval.Env{Names: child.OutputNames(), Types: child.OutputTypes(), Dict: child.Dictionary()}
	return &OrderBy{child: child, items: items, env: env}, nil
}

func (self *OrderBy) OutputNames() []string        { return self.child.OutputNames() }
func (self *OrderBy) OutputTypes() []types.Kind    { return self.child.OutputTypes() }
func (self *OrderBy) Dictionary() *dict.Dictionary { return self.child.Dictionary() }
func (self *OrderBy) Close() error                 { return self.child.Close() }

func (self *OrderBy) Open() error {
	if err := self.child.Open(); err != nil {
		return err
	}
	self.rows = nil
	self.sortKey = nil
	self.cursor = 0

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
			cells := make([]types.Datum, len(b.Columns))
			for ci, buf := range b.Columns {
				cells[ci] = buf.Datum(row)
			}

			keys := make([]types.Datum, len(self.items))
			for i, item := range self.items {
				d, err := eval.Eval(item.Value, eval.Row{Columns: b.Columns, Index: row}, self.env)
				if err != nil {
					return err
				}
				keys[i] = d
			}

			self.rows = append(self.rows, cells)
			self.sortKey = append(self.sortKey, keys)
		}
	}

	order := make([]int, len(self.rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ka, kb := self.sortKey[order[a]], self.sortKey[order[b]]
		for i, item := range self.items {
			c := compareOrderKey(ka[i], kb[i])
			if !item.Desc {
				if c != 0 {
					return c < 0
				}
			} else {
				if c != 0 {
					return c > 0
				}
			}
		}
		return false
	})

	sortedRows := make([][]types.Datum, len(self.rows))
	for i, srcIdx := range order {
		sortedRows[i] = self.rows[srcIdx]
	}
	self.rows = sortedRows
	return nil
}

// compareOrderKey compares numeric kinds directly (widening int/date to
// float when kinds differ) and STRING by dictionary code.
func compareOrderKey(a, b types.Datum) int {
	if a.Kind == types.Double || b.Kind == types.Double {
		af, bf := a.AsFloat64(), b.AsFloat64()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return a.Compare(b)
}

func (self *OrderBy) Next(b *batch.ExecBatch) (bool, error) {
	if self.cursor >= len(self.rows) {
		return false, nil
	}
	hi := self.cursor + batch.Target
	if hi > len(self.rows) {
		hi = len(self.rows)
	}

	width := len(self.child.OutputNames())
	builders := make([]batch.Builder, width)
	for i, t := range self.child.OutputTypes() {
		builders[i] = batch.NewBuilder(t, hi-self.cursor)
	}
	for _, row := range self.rows[self.cursor:hi] {
		for i, d := range row {
			builders[i].Append(d)
		}
	}

	cols := make([]column.Buffer, width)
	for i, bd := range builders {
		cols[i] = bd.Build()
	}
	b.Length = hi - self.cursor
	b.Columns = cols
	self.cursor = hi
	return true, nil
}
