// Package physplan translates a logical plan tree into a tree of physical
// operators, one node at a time, with no other optimisation pass.
package physplan

import (
	"fmt"

	"github.com/silvenkosk/colsql/internal/column"
	"github.com/silvenkosk/colsql/internal/exec"
	"github.com/silvenkosk/colsql/internal/plan"
)

// Build maps each logical node to its physical operator, recursively.
// PROJECT is elided when it is the bare-wildcard identity over a plain scan,
// or when its child is an AGGREGATE -- HashAggregate already produces the
// final columns.
func Build(node plan.Node, catalog *column.Catalog) (exec.Operator, error) {
	switch n := node.(type) {
	case *plan.ScanNode:
		table, ok := catalog.Table(n.TableName)
		if !ok {
			return nil, fmt.Errorf("physplan: table %q is not in the catalog", n.TableName)
		}
		return exec.NewColumnarScan(table, n.OutputNames, n.ColumnNames)

	case *plan.FilterNode:
		child, err := Build(n.Child, catalog)
		if err != nil {
			return nil, err
		}
		return exec.NewSelection(child, n.Predicate)

	case *plan.ProjectNode:
		child, err := Build(n.Child, catalog)
		if err != nil {
			return nil, err
		}
		if n.Identity {
			return child, nil
		}
		if _, childIsAgg := n.Child.(*plan.AggregateNode); childIsAgg {
			return child, nil
		}
		return exec.NewProject(child, n.Items)

	case *plan.HashJoinNode:
		left, err := Build(n.Left, catalog)
		if err != nil {
			return nil, err
		}
		right, err := Build(n.Right, catalog)
		if err != nil {
			return nil, err
		}
		return exec.NewHashJoin(left, right, n.LeftKeys, n.RightKeys, n.Residual)

	case *plan.AggregateNode:
		child, err := Build(n.Child, catalog)
		if err != nil {
			return nil, err
		}
		aggs := make([]exec.AggSpec, len(n.Aggs))
		for i, a := range n.Aggs {
			aggs[i] = exec.AggSpec{Func: a.Func, Arg: a.Arg, Alias: a.Alias}
		}
		return exec.NewHashAggregate(child, n.GroupBy, aggs)

	case *plan.OrderNode:
		child, err := Build(n.Child, catalog)
		if err != nil {
			return nil, err
		}
		return exec.NewOrderBy(child, n.Items)

	case *plan.LimitNode:
		child, err := Build(n.Child, catalog)
		if err != nil {
			return nil, err
		}
		return exec.NewLimit(child, n.N)

	default:
		return nil, fmt.Errorf("physplan: unknown logical node type")
	}
}
