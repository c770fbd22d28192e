// Package batch implements ExecBatch, the fixed-width column-major slab of
// rows that flows between physical operators. Column slices reuse
// column.Buffer directly: Go slice headers already pin their backing array
// for the garbage collector, which is the natural translation of the
// original prototype's shared_ptr-based owner handle — no explicit
// refcounting is needed.
package batch

import (
	"github.com/silvenkosk/colsql/internal/column"
	"github.com/silvenkosk/colsql/internal/types"
)

const Target = 4096

// ExecBatch is a length plus an ordered set of column slices. All slices
// must share the same length; that length equals ExecBatch.Length.
type ExecBatch struct {
	Length  int
	Columns []column.Buffer
}

func (self *ExecBatch) Reset() {
	self.Length = 0
	self.Columns = nil
}

// Builder accumulates Datums of one kind into a fresh column.Buffer. Used by
// Selection/Project/HashJoin/HashAggregate/OrderBy wherever an operator must
// materialise a new buffer rather than pass one through.
type Builder interface {
	Append(d types.Datum)
	Len() int
	Build() column.Buffer
}

type int64Builder struct{ vals []int64 }

func (self *int64Builder) Append(d types.Datum) { self.vals = append(self.vals, d.AsInt64()) }
func (self *int64Builder) Len() int             { return len(self.vals) }
func (self *int64Builder) Build() column.Buffer { return column.Int64Buffer(self.vals) }

type doubleBuilder struct{ vals []float64 }

func (self *doubleBuilder) Append(d types.Datum) { self.vals = append(self.vals, d.AsFloat64()) }
func (self *doubleBuilder) Len() int             { return len(self.vals) }
func (self *doubleBuilder) Build() column.Buffer { return column.DoubleBuffer(self.vals) }

type date32Builder struct{ vals []int32 }

func (self *date32Builder) Append(d types.Datum) { self.vals = append(self.vals, d.AsDate32()) }
func (self *date32Builder) Len() int             { return len(self.vals) }
func (self *date32Builder) Build() column.Buffer { return column.Date32Buffer(self.vals) }

type stringBuilder struct{ vals []uint32 }

func (self *stringBuilder) Append(d types.Datum) { self.vals = append(self.vals, d.AsCode()) }
func (self *stringBuilder) Len() int             { return len(self.vals) }
func (self *stringBuilder) Build() column.Buffer { return column.StringBuffer(self.vals) }

// NewBuilder returns an empty Builder for the given kind, optionally
// pre-sizing its backing slice.
func NewBuilder(kind types.Kind, capacity int) Builder {
	switch kind {
	case types.Int64:
		return &int64Builder{vals: make([]int64, 0, capacity)}
	case types.Double:
		return &doubleBuilder{vals: make([]float64, 0, capacity)}
	case types.Date32:
		return &date32Builder{vals: make([]int32, 0, capacity)}
	case types.String:
		return &stringBuilder{vals: make([]uint32, 0, capacity)}
	default:
		panic("batch: unknown kind")
	}
}
