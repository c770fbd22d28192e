package exec

import (
	"fmt"

	"github.com/silvenkosk/colsql/internal/batch"
	"github.com/silvenkosk/colsql/internal/column"
	"github.com/silvenkosk/colsql/internal/dict"
	"github.com/silvenkosk/colsql/internal/types"
)

// ColumnarScan reads a Table's columns in fixed-size windows. Each batch is
// a zero-copy slice of the source columns: column.Buffer.Slice reuses the
// backing array, so the source stays alive exactly as long as a downstream
// operator holds the batch.
type ColumnarScan struct {
	table       *column.Table
	outputNames []string
	colIdx      []int
	offset      int
}

func NewColumnarScan(table *column.Table, outputNames, tableColumnNames []string) (*ColumnarScan, error) {
	if len(outputNames) != len(tableColumnNames) {
		return nil, fmt.Errorf("exec: scan output/column name length mismatch")
	}
	idx := make([]int, len(tableColumnNames))
	for i, name := range tableColumnNames {
		ci := table.ColumnIndex(name)
		if ci < 0 {
			return nil, fmt.Errorf("exec: table %q has no column %q", table.Name, name)
		}
		idx[i] = ci
	}
	return &ColumnarScan{table: table, outputNames: outputNames, colIdx: idx}, nil
}

func (self *ColumnarScan) Open() error { self.offset = 0; return nil }

func (self *ColumnarScan) Next(b *batch.ExecBatch) (bool, error) {
	if self.offset >= self.table.RowCount {
		return false, nil
	}
	hi := self.offset + batch.Target
	if hi > self.table.RowCount {
		hi = self.table.RowCount
	}

	cols := make([]column.Buffer, len(self.colIdx))
	for i, ci := range self.colIdx {
		cols[i] = self.table.Columns[ci].Buf.Slice(self.offset, hi)
	}

	b.Length = hi - self.offset
	b.Columns = cols
	self.offset = hi
	return true, nil
}

func (self *ColumnarScan) Close() error { return nil }

func (self *ColumnarScan) OutputNames() []string { return self.outputNames }

func (self *ColumnarScan) OutputTypes() []types.Kind {
	out := make([]types.Kind, len(self.colIdx))
	for i, ci := range self.colIdx {
		out[i] = self.table.Columns[ci].Buf.Kind()
	}
	return out
}

func (self *ColumnarScan) Dictionary() *dict.Dictionary { return self.table.Dict }
