package gorepo

import (
	"fmt"
	"reflect"

	"gorm.io/gorm/clause"
)

// Operator defines a comparison operator for filtering by column.
type Operator string

const (
	OperatorEQ    Operator = "="
	OperatorNEQ   Operator = "<>"
	OperatorGT    Operator = ">"
	OperatorGTE   Operator = ">="
	OperatorLT    Operator = "<"
	OperatorLTE   Operator = "<="
	OperatorIN    Operator = "IN"
	OperatorNotIN Operator = "NOT IN"
	OperatorLike  Operator = "LIKE"
)

func (o Operator) Valid() bool {
	switch o {
	case OperatorEQ, OperatorNEQ, OperatorGT, OperatorGTE, OperatorLT, OperatorLTE,
		OperatorIN, OperatorNotIN, OperatorLike:
		return true
	default:
		return false
	}
}

// isSet reports whether the operator expects a slice value.
func (o Operator) isSet() bool {
	return o == OperatorIN || o == OperatorNotIN
}

// expression builds a quoted gorm clause "column operator value".
func (o Operator) expression(column string, value any) clause.Expression {
	col := qualifiedColumn(column)

	switch o {
	case OperatorEQ:
		return clause.Eq{Column: col, Value: value}
	case OperatorNEQ:
		return clause.Neq{Column: col, Value: value}
	case OperatorGT:
		return clause.Gt{Column: col, Value: value}
	case OperatorGTE:
		return clause.Gte{Column: col, Value: value}
	case OperatorLT:
		return clause.Lt{Column: col, Value: value}
	case OperatorLTE:
		return clause.Lte{Column: col, Value: value}
	case OperatorLike:
		return clause.Like{Column: col, Value: value}
	case OperatorIN:
		return clause.IN{Column: col, Values: toAnySlice(value)}
	case OperatorNotIN:
		return clause.Not(clause.IN{Column: col, Values: toAnySlice(value)})
	default:
		panic(fmt.Errorf("cannot build expression for operator '%s'", o))
	}
}

// toAnySlice spreads a slice or array value into []any. Scalars become a
// single-element slice.
func toAnySlice(value any) []any {
	if values, ok := value.([]any); ok {
		return values
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{value}
	}

	// []byte is a scalar for SQL purposes.
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return []any{value}
	}

	ret := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		ret = append(ret, rv.Index(i).Interface())
	}

	return ret
}
