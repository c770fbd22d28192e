package exec

import (
	"github.com/silvenkosk/colsql/internal/batch"
	"github.com/silvenkosk/colsql/internal/column"
	"github.com/silvenkosk/colsql/internal/dict"
	"github.com/silvenkosk/colsql/internal/types"
)

// Limit pulls child batches and truncates them, via zero-copy Slice, once
// the running total reaches N. Open resets the counter.
type Limit struct {
	child   Operator
	n       int64
	emitted int64
}

func NewLimit(child Operator, n int64) (*Limit, error) {
	return &Limit{child: child, n: n}, nil
}

func (self *Limit) Open() error {
	self.emitted = 0
	return self.child.Open()
}

func (self *Limit) Close() error { return self.child.Close() }

func (self *Limit) OutputNames() []string        { return self.child.OutputNames() }
func (self *Limit) OutputTypes() []types.Kind    { return self.child.OutputTypes() }
func (self *Limit) Dictionary() *dict.Dictionary { return self.child.Dictionary() }

func (self *Limit) Next(b *batch.ExecBatch) (bool, error) {
	if self.emitted >= self.n {
		return false, nil
	}

	var in batch.ExecBatch
	ok, err := self.child.Next(&in)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	remaining := self.n - self.emitted
	length := int64(in.Length)
	if length > remaining {
		length = remaining
	}

	cols := make([]column.Buffer, len(in.Columns))
	for i, c := range in.Columns {
		cols[i] = c.Slice(0, int(length))
	}

	b.Length = int(length)
	b.Columns = cols
	self.emitted += length
	return true, nil
}
