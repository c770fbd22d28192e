package exec

import (
	"strconv"

	"github.com/silvenkosk/colsql/internal/batch"
	"github.com/silvenkosk/colsql/internal/dict"
	"github.com/silvenkosk/colsql/internal/types"
)

// Formatter is the driver's only external collaborator: begin once, one
// write_row per output row, end once. Implementations (tabular, delimited,
// interactive) are out of scope here -- see LineFormatter for the bare
// smoke-test implementation this package does provide.
type Formatter interface {
	Begin(names []string, kinds []types.Kind) error
	WriteRow(cells []string) error
	End(rowCount int) error
}

// Driver runs a physical plan to completion: open, pull batches until
// exhausted, decode each row's cells and hand them to the formatter, close.
// On error the current batch is discarded and the error is returned as-is
// to the caller -- there is no retry, per the propagation policy.
type Driver struct{}

func (self *Driver) Run(root Operator, formatter Formatter) error {
	if err := root.Open(); err != nil {
		return err
	}
	defer root.Close()

	if err := formatter.Begin(root.OutputNames(), root.OutputTypes()); err != nil {
		return err
	}

	dictionary := root.Dictionary()
	rowCount := 0
	var b batch.ExecBatch

	for {
		ok, err := root.Next(&b)
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		for row := 0; row < b.Length; row++ {
			cells := make([]string, len(b.Columns))
			for ci, buf := range b.Columns {
				cells[ci] = decodeCell(buf.Datum(row), dictionary)
			}
			if err := formatter.WriteRow(cells); err != nil {
				return err
			}
			rowCount++
		}
	}

	return formatter.End(rowCount)
}

func decodeCell(d types.Datum, dictionary *dict.Dictionary) string {
	switch d.Kind {
	case types.Int64:
		return strconv.FormatInt(d.AsInt64(), 10)
	case types.Double:
		return strconv.FormatFloat(d.AsDouble(), 'g', -1, 64)
	case types.Date32:
		return strconv.FormatInt(int64(d.AsDate32()), 10)
	case types.String:
		if dictionary == nil {
			return ""
		}
		s, _ := dictionary.Lookup(d.AsCode())
		return s
	default:
		return ""
	}
}
