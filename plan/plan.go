// Package plan implements the tree transformer that decomposes single-node
// logical operators into the multi-stage distributed kernel chains the
// Graph Builder instantiates (spec.md §4.6).
//
// Grounded on the rewrite rules of
// original_source/engine/src/execution_graph/logic_controllers/PhysicalPlanGenerator.h's
// transform_json_tree: the LIMIT-only short-circuit for SORT, the
// single-node/distributed variant selection, and the exact chain shapes for
// SORT, AGGREGATE and JOIN. encoding/json is used for the plan wire shape,
// justified in DESIGN.md as stdlib since no example repo's JSON tree-walking
// library fits a domain-specific node shape this small.
package plan

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mlahir1/blazingsql/qerrors"
)

// unboundedRowCount stands in for "no limit" in a rewritten Limit node's
// argument when the originating LogicalSort carried an order-by but no
// explicit limit clause.
const unboundedRowCount = math.MaxInt32

// Node is one element of the plan tree: the expression string carrying the
// operator token and its arguments, and an ordered list of children (first
// child is the left input).
type Node struct {
	Expr     string  `json:"expr"`
	Children []*Node `json:"children"`
}

// Parse decodes a JSON plan document into a Node tree.
func Parse(data []byte) (*Node, error) {
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, qerrors.InvalidAlgebraf("malformed plan JSON: %v", err)
	}
	return &n, nil
}

// Marshal encodes a Node tree back to its JSON wire shape.
func Marshal(n *Node) ([]byte, error) {
	return json.Marshal(n)
}

// splitExpr splits an expression string "Token(args)" into its leading
// operator token and its argument body. An expression with no parentheses
// is returned as a bare token with empty args.
func splitExpr(expr string) (token, args string) {
	i := strings.IndexByte(expr, '(')
	if i < 0 {
		return expr, ""
	}
	j := strings.LastIndexByte(expr, ')')
	if j < i {
		return expr[:i], ""
	}
	return expr[:i], expr[i+1 : j]
}

// argsMap parses a comma-separated key=value argument body. Values without
// an '=' are recorded with an empty value, present as a key.
func argsMap(args string) map[string]string {
	out := map[string]string{}
	if args == "" {
		return out
	}
	for _, part := range strings.Split(args, ",") {
		kv := strings.SplitN(part, "=", 2)
		key := strings.TrimSpace(kv[0])
		if key == "" {
			continue
		}
		val := ""
		if len(kv) == 2 {
			val = strings.TrimSpace(kv[1])
		}
		out[key] = val
	}
	return out
}

// hasOrdering reports whether a LogicalSort's argument body carries an
// order-by component, as opposed to a pure LIMIT.
func hasOrdering(args string) bool {
	v, ok := argsMap(args)["order"]
	return ok && v != ""
}

// limitFromArgs extracts the numeric N from a "limit=N" key in a Sort's
// argument body. ok is false when no limit key is present or it doesn't
// parse as an integer.
func limitFromArgs(args string) (n int, ok bool) {
	v, present := argsMap(args)["limit"]
	if !present {
		return 0, false
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// Rewrite applies the top-down tree rewrite of spec.md §4.6 for the given
// cluster size. It returns a new tree; the input tree is not mutated in
// place (children slices are replaced with freshly built ones).
func Rewrite(n *Node, clusterSize int32) *Node {
	if n == nil {
		return nil
	}
	token, args := splitExpr(n.Expr)
	switch token {
	case "LogicalSort":
		n = rewriteSort(args, n.Children, clusterSize)
	case "LogicalAggregate":
		n = rewriteAggregate(args, n.Children, clusterSize)
	case "LogicalJoin":
		n = rewriteJoin(args, n.Children, clusterSize)
	default:
		n = &Node{Expr: n.Expr, Children: n.Children}
	}
	rewrittenChildren := make([]*Node, len(n.Children))
	for i, c := range n.Children {
		rewrittenChildren[i] = Rewrite(c, clusterSize)
	}
	n.Children = rewrittenChildren
	return n
}

// rewriteSort implements the SORT rule: a pure LIMIT short-circuits to a
// single LogicalLimit node; otherwise the node is replaced by the 4-deep
// chain LIMIT -> MERGE -> PARTITION -> SORT_AND_SAMPLE -> children, using
// the SingleNode variants when clusterSize == 1.
func rewriteSort(args string, children []*Node, clusterSize int32) *Node {
	if !hasOrdering(args) {
		n, _ := limitFromArgs(args)
		return &Node{Expr: fmt.Sprintf("LogicalLimit(%d)", n), Children: children}
	}

	sortKind := "LogicalSortAndSample"
	partitionKind := "LogicalPartition"
	if clusterSize <= 1 {
		sortKind = "LogicalSingleNodeSortAndSample"
		partitionKind = "LogicalSingleNodePartition"
	}

	sortNode := &Node{Expr: sortKind + "(" + args + ")", Children: children}
	partitionNode := &Node{Expr: partitionKind + "(" + args + ")", Children: []*Node{sortNode}}
	mergeNode := &Node{Expr: "LogicalMerge(" + args + ")", Children: []*Node{partitionNode}}

	n := unboundedRowCount
	if limit, ok := limitFromArgs(args); ok {
		n = limit
	}
	return &Node{Expr: fmt.Sprintf("LogicalLimit(%d)", n), Children: []*Node{mergeNode}}
}

// rewriteAggregate implements the AGGREGATE rule: single-node collapses to
// MERGE_AGGREGATE -> COMPUTE_AGGREGATE -> children; multi-node inserts
// DISTRIBUTE_AGGREGATE between them.
func rewriteAggregate(args string, children []*Node, clusterSize int32) *Node {
	computeNode := &Node{Expr: "LogicalComputeAggregate(" + args + ")", Children: children}
	mergeInput := computeNode
	if clusterSize > 1 {
		mergeInput = &Node{Expr: "LogicalDistributeAggregate(" + args + ")", Children: []*Node{computeNode}}
	}
	return &Node{Expr: "LogicalMergeAggregate(" + args + ")", Children: []*Node{mergeInput}}
}

// rewriteJoin implements the JOIN rule: single-node rewrites the expression
// in place to PARTWISE_JOIN; multi-node inserts a JOIN_PARTITION child.
func rewriteJoin(args string, children []*Node, clusterSize int32) *Node {
	if clusterSize <= 1 {
		return &Node{Expr: "LogicalPartwiseJoin(" + args + ")", Children: children}
	}
	joinPartition := &Node{Expr: "LogicalJoinPartition(" + args + ")", Children: children}
	return &Node{Expr: "LogicalPartwiseJoin(" + args + ")", Children: []*Node{joinPartition}}
}

// Token returns expr's leading operator token, e.g. "LogicalFilter" for
// "LogicalFilter(cond)". Exported for the Graph Builder's kernel dispatch.
func Token(expr string) string {
	token, _ := splitExpr(expr)
	return token
}

// Args returns expr's parenthesized argument body.
func Args(expr string) string {
	_, args := splitExpr(expr)
	return args
}

// TableName extracts the scan target from a TableScan/BindableTableScan
// expression's argument list: the first comma-separated field.
func TableName(expr string) string {
	a := Args(expr)
	if i := strings.IndexByte(a, ','); i >= 0 {
		a = a[:i]
	}
	return strings.TrimSpace(a)
}

// LeafScans returns the expression strings of every LogicalTableScan or
// BindableTableScan leaf in the tree, in left-to-right order, for the
// leaf-scan-multiset preservation property (spec.md §8 property 4).
func LeafScans(n *Node) []string {
	if n == nil {
		return nil
	}
	token, _ := splitExpr(n.Expr)
	if token == "LogicalTableScan" || token == "BindableTableScan" {
		return []string{n.Expr}
	}
	var out []string
	for _, c := range n.Children {
		out = append(out, LeafScans(c)...)
	}
	return out
}
