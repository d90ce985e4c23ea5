package kernels

import (
	"strconv"
	"strings"

	"github.com/mlahir1/blazingsql/qerrors"
)

// args returns the parenthesized argument portion of an expression string
// like "LogicalTableScan(orders)", i.e. "orders". Grounded on the original
// engine's extract_table_name/get_table_index helpers
// (original_source/.../PhysicalPlanGenerator.h), simplified since the core
// treats everything past the operator token as opaque per spec.md §4.6.
func args(expr string) string {
	open := strings.IndexByte(expr, '(')
	close := strings.LastIndexByte(expr, ')')
	if open < 0 || close < 0 || close < open {
		return ""
	}
	return expr[open+1 : close]
}

// tableName extracts the scan target from a TableScan/BindableTableScan
// expression's argument list: the first comma-separated field.
func tableName(expr string) string {
	a := args(expr)
	if i := strings.IndexByte(a, ','); i >= 0 {
		a = a[:i]
	}
	return strings.TrimSpace(a)
}

// limitCount extracts the row limit N from a Limit expression's argument
// list. Returns an InvalidAlgebra error if no integer is present.
func limitCount(expr string) (int, error) {
	a := strings.TrimSpace(args(expr))
	// Accept "limit=10" or bare "10" forms.
	if i := strings.IndexByte(a, '='); i >= 0 {
		a = a[i+1:]
	}
	a = strings.TrimSpace(a)
	if i := strings.IndexByte(a, ','); i >= 0 {
		a = a[:i]
	}
	n, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, qerrors.InvalidAlgebraf("limit expression %q has no integer count", expr)
	}
	return n, nil
}
