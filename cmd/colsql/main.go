// Command colsql reads a single SELECT statement from stdin, compiles it
// through the parse/plan/physplan pipeline and runs it against a small
// built-in catalog, printing the result as tab-separated rows.
//
// CSV ingestion, an interactive command loop and real output formatters are
// out of scope here (see internal/column and internal/exec) -- this binary
// exists to exercise the pipeline end to end, the same way the teacher's
// main.go existed to exercise the parser/planner/codegen pipeline end to
// end rather than to be a full CLI product.
package main

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/silvenkosk/colsql/internal/column"
	"github.com/silvenkosk/colsql/internal/dict"
	"github.com/silvenkosk/colsql/internal/exec"
	"github.com/silvenkosk/colsql/internal/logging"
	"github.com/silvenkosk/colsql/internal/physplan"
	"github.com/silvenkosk/colsql/internal/plan"
	"github.com/silvenkosk/colsql/internal/sql"
	"github.com/silvenkosk/colsql/internal/types"
)

var fVerbose = flag.Bool(
	"verbose",
	false,
	"log each pipeline stage to stderr",
)

var errColor = color.New(color.FgRed, color.Bold)

// oops prints a colourised "ERROR [stage] ..." diagnostic and exits,
// mirroring the teacher's oops(stage, err) except for the colourising,
// generalised from the teacher's AWK cell colouriser to diagnostic output.
func oops(stage string, err error) {
	errColor.Fprintf(os.Stderr, "ERROR [%s] %s\n", stage, err)
	os.Exit(1)
}

func readStdin() string {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		oops("read sql", err)
	}
	return string(data)
}

func main() {
	flag.Parse()
	queryID := uuid.NewString()
	ctx := logging.IntoContext(context.Background(), logging.WithQuery(logging.Get(), queryID))

	source := readStdin()

	catalog := buildDemoCatalog()

	stmt, err := sql.Parse(source)
	if err != nil {
		oops("parse", err)
	}
	if *fVerbose {
		logging.WithStage(logging.FromContext(ctx), "parse").Info("parsed statement")
	}

	logicalPlan, err := plan.Build(stmt, catalog)
	if err != nil {
		oops("plan", err)
	}
	if *fVerbose {
		logging.WithStage(logging.FromContext(ctx), "plan").Info("built logical plan")
	}

	root, err := physplan.Build(logicalPlan, catalog)
	if err != nil {
		oops("physplan", err)
	}
	if *fVerbose {
		logging.WithStage(logging.FromContext(ctx), "physplan").Info("built physical operator tree")
	}

	driver := &exec.Driver{}
	formatter := &exec.LineFormatter{W: os.Stdout}
	if err := driver.Run(root, formatter); err != nil {
		oops("exec", err)
	}

	os.Exit(0)
}

// buildDemoCatalog registers the two literal tables used throughout the
// worked examples this engine is checked against: orders(id, qty) and
// detail(id, region). A real deployment wires column.Catalog from a CSV
// loader instead -- out of scope here.
func buildDemoCatalog() *column.Catalog {
	catalog := column.NewCatalog()

	ordersDict := dict.New()
	ordersTable := &column.Table{
		Name: "orders",
		Columns: []column.NamedColumn{
			{Name: "id", Buf: column.Int64Buffer{1, 2, 3}},
			{Name: "qty", Buf: column.Int64Buffer{10, 20, 30}},
		},
		Dict:     ordersDict,
		RowCount: 3,
	}
	catalog.Register(ordersTable, &column.TableMeta{
		Name: "orders",
		Columns: []column.ColumnMeta{
			{Name: "id", Type: types.Int64},
			{Name: "qty", Type: types.Int64},
		},
		RowCount: 3,
	})

	detailDict := dict.New()
	regionCol := column.StringBuffer{
		detailDict.GetOrAdd("north"),
		detailDict.GetOrAdd("south"),
		detailDict.GetOrAdd("west"),
	}
	detailTable := &column.Table{
		Name: "detail",
		Columns: []column.NamedColumn{
			{Name: "id", Buf: column.Int64Buffer{1, 2, 4}},
			{Name: "region", Buf: regionCol},
		},
		Dict:     detailDict,
		RowCount: 3,
	}
	catalog.Register(detailTable, &column.TableMeta{
		Name: "detail",
		Columns: []column.ColumnMeta{
			{Name: "id", Type: types.Int64},
			{Name: "region", Type: types.String},
		},
		RowCount: 3,
	})

	return catalog
}
