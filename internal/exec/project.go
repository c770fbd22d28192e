package exec

import (
	"github.com/silvenkosk/colsql/internal/batch"
	"github.com/silvenkosk/colsql/internal/column"
	"github.com/silvenkosk/colsql/internal/dict"
	"github.com/silvenkosk/colsql/internal/eval"
	"github.com/silvenkosk/colsql/internal/sql"
	"github.com/silvenkosk/colsql/internal/types"
)

// Project wraps a child and an ordered list of expressions. A pure
// COLUMN_REF item is a zero-copy passthrough of the corresponding input
// slice; anything else is materialised into a fresh typed buffer per batch.
type Project struct {
	child Operator
	items []sql.SelectItem
	env   *eval.Env

	names []string
	types []types.Kind

	// srcIdx[i] >= 0 identifies item i as a passthrough of child column
	// srcIdx[i]; -1 means item i must be evaluated per row.
	srcIdx []int
}

func NewProject(child Operator, items []sql.SelectItem) (*Project, error) {
	env := &eval.Env{Names: child.OutputNames(), Types: child.OutputTypes(), Dict: child.Dictionary()}

	names := make([]string, len(items))
	outTypes := make([]types.Kind, len(items))
	srcIdx := make([]int, len(items))

	for i, item := range items {
		if ref, ok := item.Value.(*sql.ColumnRef); ok {
			idx, found := indexOf(env.Names, ref.FullName())
			if !found && ref.Qualifier != "" {
				idx, found = indexOf(env.Names, ref.Name)
			}
			if found {
				srcIdx[i] = idx
				outTypes[i] = env.Types[idx]
				if item.Alias != "" {
					names[i] = item.Alias
				} else {
					names[i] = ref.Name
				}
				continue
			}
		}

		srcIdx[i] = -1
		t, err := eval.InferType(item.Value, env)
		if err != nil {
			t = types.Int64 // fallback, per spec.md §4.3
		}
		outTypes[i] = t
		if item.Alias != "" {
			names[i] = item.Alias
		} else {
			names[i] = "expr"
		}
	}

	return &Project{child: child, items: items, env: env, names: names, types: outTypes, srcIdx: srcIdx}, nil
}

func indexOf(names []string, name string) (int, bool) {
	for i, n := range names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

func (self *Project) Open() error  { return self.child.Open() }
func (self *Project) Close() error { return self.child.Close() }

func (self *Project) OutputNames() []string        { return self.names }
func (self *Project) OutputTypes() []types.Kind    { return self.types }
func (self *Project) Dictionary() *dict.Dictionary { return self.child.Dictionary() }

func (self *Project) Next(b *batch.ExecBatch) (bool, error) {
	var in batch.ExecBatch
	ok, err := self.child.Next(&in)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	cols := make([]column.Buffer, len(self.items))
	for i, item := range self.items {
		if self.srcIdx[i] >= 0 {
			cols[i] = in.Columns[self.srcIdx[i]]
			continue
		}

		bd := batch.NewBuilder(self.types[i], in.Length)
		for row := 0; row < in.Length; row++ {
			d, err := eval.Eval(item.Value, eval.Row{Columns: in.Columns, Index: row}, self.env)
			if err != nil {
				return false, err
			}
			bd.Append(d)
		}
		cols[i] = bd.Build()
	}

	b.Length = in.Length
	b.Columns = cols
	return true, nil
}
