package exec

import (
	"github.com/silvenkosk/colsql/internal/batch"
	"github.com/silvenkosk/colsql/internal/column"
	"github.com/silvenkosk/colsql/internal/dict"
	"github.com/silvenkosk/colsql/internal/eval"
	"github.com/silvenkosk/colsql/internal/sql"
	"github.com/silvenkosk/colsql/internal/types"
)

// Selection wraps a child and a predicate over the child's schema. Batches
// with no surviving rows are skipped entirely -- next loops to the child's
// following batch rather than surfacing an empty one.
type Selection struct {
	child     Operator
	predicate sql.Expr
	env       *eval.Env
}

func NewSelection(child Operator, predicate sql.Expr) (*Selection, error) {
	return &Selection{
		child:     child,
		predicate: predicate,
		env:       &eval.Env{Names: child.OutputNames(), Types: child.OutputTypes(), Dict: child.Dictionary()},
	}, nil
}

func (self *Selection) Open() error { return self.child.Open() }
func (self *Selection) Close() error { return self.child.Close() }

func (self *Selection) OutputNames() []string          { return self.child.OutputNames() }
func (self *Selection) OutputTypes() []types.Kind      { return self.child.OutputTypes() }
func (self *Selection) Dictionary() *dict.Dictionary   { return self.child.Dictionary() }

func (self *Selection) Next(b *batch.ExecBatch) (bool, error) {
	for {
		var in batch.ExecBatch
		ok, err := self.child.Next(&in)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}

		var kept []int
		for row := 0; row < in.Length; row++ {
			pass, err := eval.Truthy(self.predicate, eval.Row{Columns: in.Columns, Index: row}, self.env)
			if err != nil {
				return false, err
			}
			if pass {
				kept = append(kept, row)
			}
		}

		if len(kept) == 0 {
			continue
		}

		cols := make([]column.Buffer, len(in.Columns))
		for ci, buf := range in.Columns {
			bd := batch.NewBuilder(buf.Kind(), len(kept))
			for _, row := range kept {
				bd.Append(buf.Datum(row))
			}
			cols[ci] = bd.Build()
		}

		b.Length = len(kept)
		b.Columns = cols
		return true, nil
	}
}
