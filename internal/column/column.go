// Package column implements the typed column buffer, Table, TableMeta and
// Catalog described by the data model: an ordered homogeneous sequence per
// column, a table as named columns plus a shared dictionary, and metadata
// decoupled from the data itself so it can precede or outlive loading.
package column

import (
	"github.com/silvenkosk/colsql/internal/dict"
	"github.com/silvenkosk/colsql/internal/types"
)

// Buffer is an immutable, homogeneous, zero-based-addressed column. Slicing
// a Buffer (Slice) shares the backing array with the source, which is how
// the batch model gets zero-copy scan passthrough for free from Go's slice
// semantics.
type Buffer interface {
	Kind() types.Kind
	Len() int
	Datum(row int) types.Datum
	Slice(lo, hi int) Buffer
}

type Int64Buffer []int64

func (self Int64Buffer) Kind() types.Kind        { return types.Int64 }
func (self Int64Buffer) Len() int                { return len(self) }
func (self Int64Buffer) Datum(row int) types.Datum { return types.NewInt64(self[row]) }
func (self Int64Buffer) Slice(lo, hi int) Buffer { return self[lo:hi] }

type DoubleBuffer []float64

func (self DoubleBuffer) Kind() types.Kind        { return types.Double }
func (self DoubleBuffer) Len() int                { return len(self) }
func (self DoubleBuffer) Datum(row int) types.Datum { return types.NewDouble(self[row]) }
func (self DoubleBuffer) Slice(lo, hi int) Buffer { return self[lo:hi] }

type Date32Buffer []int32

func (self Date32Buffer) Kind() types.Kind        { return types.Date32 }
func (self Date32Buffer) Len() int                { return len(self) }
func (self Date32Buffer) Datum(row int) types.Datum { return types.NewDate32(self[row]) }
func (self Date32Buffer) Slice(lo, hi int) Buffer { return self[lo:hi] }

// StringBuffer stores dictionary codes, not bytes; the codes are only
// meaningful with respect to the owning Table's Dictionary.
type StringBuffer []uint32

func (self StringBuffer) Kind() types.Kind        { return types.String }
func (self StringBuffer) Len() int                { return len(self) }
func (self StringBuffer) Datum(row int) types.Datum { return types.NewString(self[row]) }
func (self StringBuffer) Slice(lo, hi int) Buffer { return self[lo:hi] }

// Scalar adapts a single Datum to the Buffer interface so the evaluator can
// be reused, unmodified, over an already-materialised row (HashJoin's
// combined left+right row when applying its residual predicate) instead of
// a batch's columns.
type Scalar struct{ D types.Datum }

func (self Scalar) Kind() types.Kind          { return self.D.Kind }
func (self Scalar) Len() int                  { return 1 }
func (self Scalar) Datum(row int) types.Datum { return self.D }
func (self Scalar) Slice(lo, hi int) Buffer   { return self }

// ScalarRow wraps a slice of Datums as a row of Scalar buffers, one per
// cell, for evaluation via eval.Row{Columns: ..., Index: 0}.
func ScalarRow(cells []types.Datum) []Buffer {
	out := make([]Buffer, len(cells))
	for i, c := range cells {
		out[i] = Scalar{D: c}
	}
	return out
}

// NamedColumn pairs a column buffer with the name it was loaded under.
type NamedColumn struct {
	Name string
	Buf  Buffer
}

// Table is an ordered set of named column buffers plus a shared dictionary.
// Duplicate column names are not guaranteed distinct; ColumnIndex resolves
// the first match.
type Table struct {
	Name     string
	Columns  []NamedColumn
	Dict     *dict.Dictionary
	RowCount int
}

// ColumnIndex returns the index of the first column named name, or -1.
func (self *Table) ColumnIndex(name string) int {
	for i, c := range self.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// ColumnStats mirrors original_source's per-column statistics: min/max per
// numeric kind and a distinct-value count, measured where available.
type ColumnStats struct {
	MinInt64  int64
	MaxInt64  int64
	MinDouble float64
	MaxDouble float64
	MinDate32 int32
	MaxDate32 int32
	NDV       int
}

type ColumnMeta struct {
	Name  string
	Type  types.Kind
	Stats ColumnStats
}

// TableMeta is decoupled from column data: name, ordered column metadata,
// row count. Catalog.Register stores it together with its Table; a
// TableMeta cannot be registered on its own.
type TableMeta struct {
	Name      string
	Columns   []ColumnMeta
	RowCount  int
}

func (self *TableMeta) ColumnIndex(name string) int {
	for i, c := range self.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

type catalogEntry struct {
	table *Table
	meta  *TableMeta
}

// Catalog maps table name to a (Table, TableMeta) pair. Registration
// replaces any existing entry under the same name.
type Catalog struct {
	entries map[string]*catalogEntry
	order   []string
}

func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]*catalogEntry)}
}

func (self *Catalog) Register(table *Table, meta *TableMeta) {
	name := table.Name
	if _, exists := self.entries[name]; !exists {
		self.order = append(self.order, name)
	}
	self.entries[name] = &catalogEntry{table: table, meta: meta}
}

func (self *Catalog) Table(name string) (*Table, bool) {
	e, ok := self.entries[name]
	if !ok {
		return nil, false
	}
	return e.table, true
}

func (self *Catalog) Meta(name string) (*TableMeta, bool) {
	e, ok := self.entries[name]
	if !ok {
		return nil, false
	}
	return e.meta, true
}

func (self *Catalog) ListTables() []string {
	out := make([]string, len(self.order))
	copy(out, self.order)
	return out
}
