package storage

import (
	"fmt"
	"strings"
)

// Operator is a filter comparison.
type Operator string

const (
	OpEq Operator = "eq"
	OpIn Operator = "in"
	OpIs Operator = "is"
)

// Filter restricts a query to rows whose Column satisfies Op against Value.
type Filter struct {
	Column string
	Op     Operator
	Value  string   // eq and is ("null", "true", "false")
	Values []string // in
}

// Eq matches rows whose column equals value.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: fmt.Sprint(value)}
}

// In matches rows whose column equals any of values.
func In(column string, values ...string) Filter {
	return Filter{Column: column, Op: OpIn, Values: values}
}

// IsNull matches rows whose column is null or absent.
func IsNull(column string) Filter {
	return Filter{Column: column, Op: OpIs, Value: "null"}
}

// Expr renders the filter in column=op.value form without the column.
func (f Filter) Expr() string {
	switch f.Op {
	case OpIn:
		return "in.(" + strings.Join(f.Values, ",") + ")"
	default:
		return string(f.Op) + "." + f.Value
	}
}

// Validate checks that the filter is well formed.
func (f Filter) Validate() error {
	if f.Column == "" {
		return fmt.Errorf("%w: filter column is empty", ErrInvalidQuery)
	}
	switch f.Op {
	case OpEq, OpIn:
		return nil
	case OpIs:
		switch f.Value {
		case "null", "true", "false":
			return nil
		}
		return fmt.Errorf("%w: is.%s", ErrInvalidQuery, f.Value)
	default:
		return fmt.Errorf("%w: unsupported operator %q", ErrInvalidQuery, f.Op)
	}
}

// Order sorts results by Column.
type Order struct {
	Column     string
	Descending bool
}

// Asc orders by column ascending.
func Asc(column string) Order { return Order{Column: column} }

// Desc orders by column descending.
func Desc(column string) Order { return Order{Column: column, Descending: true} }

// Expr renders the order as column.asc or column.desc.
func (o Order) Expr() string {
	if o.Descending {
		return o.Column + ".desc"
	}
	return o.Column + ".asc"
}

// Query selects rows from a table.
// Zero Limit means unbounded. Empty Columns selects every column.
type Query struct {
	Columns []string
	Filters []Filter
	Order   []Order
	Limit   int
	Offset  int
}

// Validate checks that the query is well formed.
func (q Query) Validate() error {
	if q.Limit < 0 || q.Offset < 0 {
		return fmt.Errorf("%w: negative limit or offset", ErrInvalidQuery)
	}
	for _, f := range q.Filters {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	for _, o := range q.Order {
		if o.Column == "" {
			return fmt.Errorf("%w: order column is empty", ErrInvalidQuery)
		}
	}
	return nil
}
