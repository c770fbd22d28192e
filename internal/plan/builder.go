package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/silvenkosk/colsql/internal/column"
	"github.com/silvenkosk/colsql/internal/sql"
)

var aggFuncs = map[string]string{"SUM": "SUM", "COUNT": "COUNT", "AVG": "AVG"}

type tableInfo struct {
	ref   sql.TableRef
	table *column.Table
}

func (self *tableInfo) effectiveName() string { return self.ref.EffectiveName() }

// Build turns a parsed SelectStmt into a logical plan tree, resolving table
// references against catalog and pruning each scan to the columns actually
// referenced anywhere in the statement.
func Build(stmt *sql.SelectStmt, catalog *column.Catalog) (Node, error) {
	tables, err := resolveTables(stmt, catalog)
	if err != nil {
		return nil, err
	}

	refs := collectReferencedNames(stmt)

	scans, err := buildScans(tables, refs)
	if err != nil {
		return nil, err
	}

	current, err := buildBaseRelation(stmt, tables, scans)
	if err != nil {
		return nil, err
	}

	if stmt.Where != nil {
		current = &FilterNode{Child: current, Predicate: stmt.Where}
	}

	current = buildAggregate(stmt, current)

	if stmt.Having != nil {
		current = &FilterNode{Child: current, Predicate: stmt.Having}
	}

	current = buildProject(stmt, current)

	if len(stmt.OrderBy) > 0 {
		items := make([]sql.OrderItem, len(stmt.OrderBy))
		for i, o := range stmt.OrderBy {
			items[i] = sql.OrderItem{Value: o.Value.Clone(), Desc: o.Desc}
		}
		current = &OrderNode{Child: current, Items: items}
	}

	if stmt.Limit != nil {
		current = &LimitNode{Child: current, N: *stmt.Limit}
	}

	return current, nil
}

func resolveTables(stmt *sql.SelectStmt, catalog *column.Catalog) ([]*tableInfo, error) {
	var refs []sql.TableRef
	refs = append(refs, stmt.From)
	for _, j := range stmt.Joins {
		refs = append(refs, j.Table)
	}

	out := make([]*tableInfo, 0, len(refs))
	for _, r := range refs {
		t, ok := catalog.Table(r.Name)
		if !ok {
			return nil, fmt.Errorf("plan: table %q is not in the catalog", r.Name)
		}
		out = append(out, &tableInfo{ref: r, table: t})
	}
	return out, nil
}

// collectReferencedNames gathers, in deterministic sorted order, every
// column name referenced anywhere in the statement: select list, WHERE,
// JOIN ON, GROUP BY, HAVING, ORDER BY.
func collectReferencedNames(stmt *sql.SelectStmt) []string {
	set := make(map[string]bool)

	for _, item := range stmt.Items {
		walkExpr(item.Value, set)
	}
	if stmt.Where != nil {
		walkExpr(stmt.Where, set)
	}
	for _, j := range stmt.Joins {
		walkExpr(j.On, set)
	}
	for _, g := range stmt.GroupBy {
		walkExpr(g, set)
	}
	if stmt.Having != nil {
		walkExpr(stmt.Having, set)
	}
	for _, o := range stmt.OrderBy {
		walkExpr(o.Value, set)
	}

	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func walkExpr(e sql.Expr, set map[string]bool) {
	switch v := e.(type) {
	case *sql.ColumnRef:
		if v.Name != "*" {
			set[v.FullName()] = true
		}
	case *sql.FuncCall:
		for _, a := range v.Args {
			walkExpr(a, set)
		}
	case *sql.BinaryExpr:
		walkExpr(v.L, set)
		walkExpr(v.R, set)
	}
}

// buildScans assigns each referenced name to the table it belongs to (by
// qualifier match, or for an unqualified name the first table, FROM then
// joins in order, that has such a column; ambiguity is not reported) and
// constructs a ScanNode per table with its pruned column list.
func buildScans(tables []*tableInfo, refs []string) (map[string]*ScanNode, error) {
	scans := make(map[string]*ScanNode, len(tables))
	for _, ti := range tables {
		scans[ti.effectiveName()] = &ScanNode{TableName: ti.table.Name, Alias: ti.ref.Alias}
	}

	for _, ref := range refs {
		qualifier, bare := splitQualified(ref)

		var owner *tableInfo
		if qualifier != "" {
			for _, ti := range tables {
				if ti.effectiveName() == qualifier {
					owner = ti
					break
				}
			}
			if owner == nil {
				return nil, fmt.Errorf("plan: unknown table qualifier %q in column %q", qualifier, ref)
			}
		} else {
			for _, ti := range tables {
				if ti.table.ColumnIndex(bare) >= 0 {
					owner = ti
					break
				}
			}
			if owner == nil {
				return nil, fmt.Errorf("plan: unknown column %q", ref)
			}
		}

		if owner.table.ColumnIndex(bare) < 0 {
			return nil, fmt.Errorf("plan: table %q has no column %q", owner.table.Name, bare)
		}

		scan := scans[owner.effectiveName()]
		scan.OutputNames = append(scan.OutputNames, ref)
		scan.ColumnNames = append(scan.ColumnNames, bare)
	}

	return scans, nil
}

func splitQualified(name string) (qualifier, bare string) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// buildBaseRelation implements: zero joins -> single SCAN; N joins -> a
// left-deep HASH_JOIN tree, recognising each ON clause's equality shape.
func buildBaseRelation(stmt *sql.SelectStmt, tables []*tableInfo, scans map[string]*ScanNode) (Node, error) {
	var current Node = scans[tables[0].effectiveName()]
	seen := map[string]bool{tables[0].effectiveName(): true}

	for i, j := range stmt.Joins {
		right := tables[i+1]
		leftKeys, rightKeys, residual := splitJoinCondition(j.On, seen, right.effectiveName())

		current = &HashJoinNode{
			Left:      current,
			Right:     scans[right.effectiveName()],
			LeftKeys:  leftKeys,
			RightKeys: rightKeys,
			Residual:  residual,
		}
		seen[right.effectiveName()] = true
	}

	return current, nil
}

// splitJoinCondition walks a (possibly AND-conjoined) ON clause, pulling out
// every top-level COLUMN_REF = COLUMN_REF conjunct where one side names a
// table already in the accumulated left relation and the other names the
// new right table. Everything else becomes the residual, re-conjoined with
// AND, applied post-join.
func splitJoinCondition(on sql.Expr, leftTables map[string]bool, rightTable string) (leftKeys, rightKeys []string, residual sql.Expr) {
	conjuncts := flattenAnd(on)
	var remaining []sql.Expr

	for _, c := range conjuncts {
		bin, ok := c.(*sql.BinaryExpr)
		if !ok || bin.Op != sql.OpEq {
			remaining = append(remaining, c)
			continue
		}
		lref, lok := bin.L.(*sql.ColumnRef)
		rref, rok := bin.R.(*sql.ColumnRef)
		if !lok || !rok {
			remaining = append(remaining, c)
			continue
		}

		if leftTables[lref.Qualifier] && rref.Qualifier == rightTable {
			leftKeys = append(leftKeys, lref.FullName())
			rightKeys = append(rightKeys, rref.FullName())
		} else if leftTables[rref.Qualifier] && lref.Qualifier == rightTable {
			leftKeys = append(leftKeys, rref.FullName())
			rightKeys = append(rightKeys, lref.FullName())
		} else {
			remaining = append(remaining, c)
		}
	}

	for _, c := range remaining {
		if residual == nil {
			residual = c
		} else {
			residual = &sql.BinaryExpr{Op: sql.OpAnd, L: residual, R: c}
		}
	}
	return
}

func flattenAnd(e sql.Expr) []sql.Expr {
	bin, ok := e.(*sql.BinaryExpr)
	if !ok || bin.Op != sql.OpAnd {
		return []sql.Expr{e}
	}
	return append(flattenAnd(bin.L), flattenAnd(bin.R)...)
}

// buildAggregate wraps current in AGGREGATE when GROUP BY is present or any
// top-level select item is a call to SUM/COUNT/AVG.
func buildAggregate(stmt *sql.SelectStmt, current Node) Node {
	var aggs []AggSpec
	for _, item := range stmt.Items {
		call, ok := item.Value.(*sql.FuncCall)
		if !ok {
			continue
		}
		fn, isAgg := aggFuncs[strings.ToUpper(call.Name)]
		if !isAgg || len(call.Args) != 1 {
			continue
		}
		aggs = append(aggs, AggSpec{Func: fn, Arg: call.Args[0].Clone(), Alias: item.Alias})
	}

	if len(stmt.GroupBy) == 0 && len(aggs) == 0 {
		return current
	}

	groupBy := make([]sql.Expr, len(stmt.GroupBy))
	for i, g := range stmt.GroupBy {
		groupBy[i] = g.Clone()
	}

	return &AggregateNode{Child: current, GroupBy: groupBy, Aggs: aggs}
}

// buildProject always wraps in PROJECT, except when the select list was the
// bare wildcard directly over a plain scan.
func buildProject(stmt *sql.SelectStmt, current Node) Node {
	if len(stmt.Items) == 0 {
		if _, isScan := current.(*ScanNode); isScan {
			return &ProjectNode{Child: current, Identity: true}
		}
	}

	items := make([]sql.SelectItem, len(stmt.Items))
	for i, it := range stmt.Items {
		items[i] = sql.SelectItem{Value: it.Value.Clone(), Alias: it.Alias}
	}
	return &ProjectNode{Child: current, Items: items}
}
