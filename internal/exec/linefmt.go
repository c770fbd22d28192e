package exec

import (
	"fmt"
	"io"
	"strings"

	"github.com/silvenkosk/colsql/internal/types"
)

// LineFormatter is a bare tab-separated row dumper: no headers, borders or
// alignment. It exists purely as a smoke-test harness for the pipeline, the
// same way the original prototype's run_query dumped rows with no
// formatting logic of its own -- it is not the tabular/delimited formatter
// component callers are expected to supply.
type LineFormatter struct {
	W io.Writer
}

func (self *LineFormatter) Begin(names []string, kinds []types.Kind) error { return nil }

func (self *LineFormatter) WriteRow(cells []string) error {
	_, err := fmt.Fprintln(self.W, strings.Join(cells, "\t"))
	return err
}

func (self *LineFormatter) End(rowCount int) error { return nil }
