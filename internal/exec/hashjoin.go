package exec

import (
	"fmt"

	"github.com/silvenkosk/colsql/internal/batch"
	"github.com/silvenkosk/colsql/internal/column"
	"github.com/silvenkosk/colsql/internal/dict"
	"github.com/silvenkosk/colsql/internal/eval"
	"github.com/silvenkosk/colsql/internal/sql"
	"github.com/silvenkosk/colsql/internal/types"
)

// HashJoin is an inner equi-join. Open drains and indexes the right child
// fully (the build phase); Next streams the left child and probes the index
// (the probe phase). Output schema is left-then-right; the exported
// dictionary follows the three-way preference rule from the original
// prototype's HashJoin constructor: left if it carries string columns and a
// dictionary, else right under the same condition, else whichever side is
// non-nil.
type HashJoin struct {
	left, right          Operator
	leftKeyIdx, rightKeyIdx []int
	residual             sql.Expr
	residualEnv          *eval.Env

	leftWidth  int
	outNames   []string
	outTypes   []types.Kind
	outDict    *dict.Dictionary
	leftDict   *dict.Dictionary
	rightDict  *dict.Dictionary

	buckets      map[uint64][]int
	rightRows    [][]types.Datum
	rightKeys    [][]keyPart

	curLeft     *batch.ExecBatch
	curLeftRow  int
	needLeftRow bool
	curMatches  []int
	curMatchIdx int
	leftDone    bool
}

func NewHashJoin(left, right Operator, leftKeyNames, rightKeyNames []string, residual sql.Expr) (*HashJoin, error) {
	if len(leftKeyNames) != len(rightKeyNames) {
		return nil, fmt.Errorf("exec: join key list length mismatch")
	}

	leftNames, leftTypes := left.OutputNames(), left.OutputTypes()
	rightNames, rightTypes := right.OutputNames(), right.OutputTypes()

	leftKeyIdx := make([]int, len(leftKeyNames))
	for i, n := range leftKeyNames {
		idx, ok := indexOf(leftNames, n)
		if !ok {
			return nil, fmt.Errorf("exec: join left key %q not found", n)
		}
		leftKeyIdx[i] = idx
	}
	rightKeyIdx := make([]int, len(rightKeyNames))
	for i, n := range rightKeyNames {
		idx, ok := indexOf(rightNames, n)
		if !ok {
			return nil, fmt.Errorf("exec: join right key %q not found", n)
		}
		rightKeyIdx[i] = idx
	}

	outNames := append(append([]string{}, leftNames...), rightNames...)
	outTypes := append(append([]types.Kind{}, leftTypes...), rightTypes...)

	hj := &HashJoin{
		left: left, right: right,
		leftKeyIdx: leftKeyIdx, rightKeyIdx: rightKeyIdx,
		residual:   residual,
		leftWidth:  len(leftNames),
		outNames:   outNames,
		outTypes:   outTypes,
		leftDict:   left.Dictionary(),
		rightDict:  right.Dictionary(),
		outDict:    chooseDict(leftTypes, left.Dictionary(), rightTypes, right.Dictionary()),
	}
	if residual != nil {
		hj.residualEnv = &eval.Env{Names: outNames, Types: outTypes, Dict: hj.outDict}
	}
	return hj, nil
}

func chooseDict(leftTypes []types.Kind, leftDict *dict.Dictionary, rightTypes []types.Kind, rightDict *dict.Dictionary) *dict.Dictionary {
	if hasString(leftTypes) && leftDict != nil {
		return leftDict
	}
	if hasString(rightTypes) && rightDict != nil {
		return rightDict
	}
	if leftDict != nil {
		return leftDict
	}
	return rightDict
}

func hasString(kinds []types.Kind) bool {
	for _, k := range kinds {
		if k == types.String {
			return true
		}
	}
	return false
}

func (self *HashJoin) Open() error {
	if err := self.right.Open(); err != nil {
		return err
	}
	self.buckets = make(map[uint64][]int)
	self.rightRows = nil
	self.rightKeys = nil

	var rb batch.ExecBatch
	for {
		ok, err := self.right.Next(&rb)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		for row := 0; row < rb.Length; row++ {
			cells := make([]types.Datum, len(rb.Columns))
			for ci, buf := range rb.Columns {
				cells[ci] = buf.Datum(row)
			}
			parts := make([]keyPart, len(self.rightKeyIdx))
			for i, idx := range self.rightKeyIdx {
				parts[i] = buildKeyPart(cells[idx], self.rightDict)
			}
			idx := len(self.rightRows)
			self.rightRows = append(self.rightRows, cells)
			self.rightKeys = append(self.rightKeys, parts)
			h := hashKeyParts(parts)
			self.buckets[h] = append(self.buckets[h], idx)
		}
	}
	if err := self.right.Close(); err != nil {
		return err
	}

	if err := self.left.Open(); err != nil {
		return err
	}
	self.curLeft = nil
	self.curLeftRow = -1
	self.needLeftRow = true
	self.curMatches = nil
	self.curMatchIdx = 0
	self.leftDone = false
	return nil
}

func (self *HashJoin) Close() error { return self.left.Close() }

func (self *HashJoin) OutputNames() []string        { return self.outNames }
func (self *HashJoin) OutputTypes() []types.Kind    { return self.outTypes }
func (self *HashJoin) Dictionary() *dict.Dictionary { return self.outDict }

func (self *HashJoin) advanceLeftRow() (bool, error) {
	for self.curLeft == nil || self.curLeftRow+1 >= self.curLeft.Length {
		var nb batch.ExecBatch
		ok, err := self.left.Next(&nb)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		self.curLeft = &nb
		self.curLeftRow = -1
	}
	self.curLeftRow++
	return true, nil
}

func (self *HashJoin) matchesForCurrentRow() []int {
	parts := make([]keyPart, len(self.leftKeyIdx))
	for i, idx := range self.leftKeyIdx {
		parts[i] = buildKeyPart(self.curLeft.Columns[idx].Datum(self.curLeftRow), self.leftDict)
	}
	h := hashKeyParts(parts)
	var out []int
	for _, cand := range self.buckets[h] {
		if keyPartsEqual(parts, self.rightKeys[cand]) {
			out = append(out, cand)
		}
	}
	return out
}

func (self *HashJoin) Next(b *batch.ExecBatch) (bool, error) {
	builders := make([]batch.Builder, len(self.outTypes))
	for i, t := range self.outTypes {
		builders[i] = batch.NewBuilder(t, 0)
	}
	count := 0

	for count < batch.Target {
		if self.needLeftRow {
			if self.leftDone {
				break
			}
			ok, err := self.advanceLeftRow()
			if err != nil {
				return false, err
			}
			if !ok {
				self.leftDone = true
				break
			}
			self.curMatches = self.matchesForCurrentRow()
			self.curMatchIdx = 0
			self.needLeftRow = false
		}

		if self.curMatchIdx >= len(self.curMatches) {
			self.needLeftRow = true
			continue
		}

		rightRow := self.rightRows[self.curMatches[self.curMatchIdx]]
		self.curMatchIdx++

		combined := make([]types.Datum, 0, self.leftWidth+len(rightRow))
		for _, buf := range self.curLeft.Columns {
			combined = append(combined, buf.Datum(self.curLeftRow))
		}
		combined = append(combined, rightRow...)

		if self.residual != nil {
			pass, err := eval.Truthy(self.residual, eval.Row{Columns: column.ScalarRow(combined), Index: 0}, self.residualEnv)
			if err != nil {
				return false, err
			}
			if !pass {
				continue
			}
		}

		for i, d := range combined {
			builders[i].Append(d)
		}
		count++
	}

	if count == 0 {
		return false, nil
	}

	cols := make([]column.Buffer, len(builders))
	for i, bd := range builders {
		cols[i] = bd.Build()
	}
	b.Length = count
	b.Columns = cols
	return true, nil
}
