// Package plan builds the logical plan tree (SCAN, FILTER, PROJECT,
// HASH_JOIN, AGGREGATE, ORDER, LIMIT) from a parsed SelectStmt, performing
// column pruning and aggregate detection along the way.
package plan

import "github.com/silvenkosk/colsql/internal/sql"

type NodeKind int

const (
	NScan NodeKind = iota
	NFilter
	NProject
	NHashJoin
	NAggregate
	NOrder
	NLimit
)

// Node is the tagged logical plan node.
type Node interface {
	Kind() NodeKind
}

// ScanNode holds a table name and the pruned projected column list. Each
// entry of OutputNames is the exact string an expression referenced this
// column by (e.g. "orders.id"); ColumnNames[i] is the underlying table
// column ScanNode must read to produce it. The physical planner resolves
// ColumnNames against the catalog's column indices.
type ScanNode struct {
	TableName   string
	Alias       string
	OutputNames []string
	ColumnNames []string
}

func (self *ScanNode) Kind() NodeKind { return NScan }

type FilterNode struct {
	Child     Node
	Predicate sql.Expr
}

func (self *FilterNode) Kind() NodeKind { return NFilter }

// ProjectNode holds cloned select expressions and aliases. Identity is true
// exactly when the select list was the bare wildcard over a plain scan (no
// join/aggregate child); the physical planner elides Project in that case.
type ProjectNode struct {
	Child    Node
	Items    []sql.SelectItem
	Identity bool
}

func (self *ProjectNode) Kind() NodeKind { return NProject }

// HashJoinNode holds equal-length left/right key-name vectors (names as
// referenced post-pruning) and an optional residual predicate carried from
// ON clauses that were not a plain COLUMN_REF = COLUMN_REF.
type HashJoinNode struct {
	Left, Right          Node
	LeftKeys, RightKeys  []string
	Residual             sql.Expr
}

func (self *HashJoinNode) Kind() NodeKind { return NHashJoin }

type AggSpec struct {
	Func  string // SUM, COUNT, or AVG -- upper-cased by buildAggregate
	Arg   sql.Expr
	Alias string
}

type AggregateNode struct {
	Child   Node
	GroupBy []sql.Expr
	Aggs    []AggSpec
}

func (self *AggregateNode) Kind() NodeKind { return NAggregate }

type OrderNode struct {
	Child Node
	Items []sql.OrderItem
}

func (self *OrderNode) Kind() NodeKind { return NOrder }

type LimitNode struct {
	Child Node
	N     int64
}

func (self *LimitNode) Kind() NodeKind { return NLimit }
