package exec

import (
	"github.com/silvenkosk/colsql/internal/batch"
	"github.com/silvenkosk/colsql/internal/column"
	"github.com/silvenkosk/colsql/internal/dict"
	"github.com/silvenkosk/colsql/internal/types"
)

// newOrdersTable and newDetailTable build the two literal tables used across
// the worked examples this engine is checked against.
func newOrdersTable() *column.Table {
	return &column.Table{
		Name: "orders",
		Columns: []column.NamedColumn{
			{Name: "id", Buf: column.Int64Buffer{1, 2, 3}},
			{Name: "qty", Buf: column.Int64Buffer{10, 20, 30}},
		},
		Dict:     dict.New(),
		RowCount: 3,
	}
}

func newDetailTable() *column.Table {
	d := dict.New()
	return &column.Table{
		Name: "detail",
		Columns: []column.NamedColumn{
			{Name: "id", Buf: column.Int64Buffer{1, 2, 4}},
			{Name: "region", Buf: column.StringBuffer{
				d.GetOrAdd("north"),
				d.GetOrAdd("south"),
				d.GetOrAdd("west"),
			}},
		},
		Dict:     d,
		RowCount: 3,
	}
}

// drain pulls every batch from op (which must already be Open) and returns
// the concatenated rows as datum slices, matching op.OutputNames() order.
func drain(op Operator) ([][]types.Datum, error) {
	var out [][]types.Datum
	var b batch.ExecBatch
	for {
		ok, err := op.Next(&b)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		for row := 0; row < b.Length; row++ {
			cells := make([]types.Datum, len(b.Columns))
			for ci, buf := range b.Columns {
				cells[ci] = buf.Datum(row)
			}
			out = append(out, cells)
		}
	}
}
