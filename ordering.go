package gorepo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Direction defines the sort direction for the requested dataset.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

func (o Direction) Valid() bool {
	return o == DirectionASC || o == DirectionDESC
}

// Ascending maps a boolean ascending flag onto a Direction.
func Ascending(ascending bool) Direction {
	return lo.Ternary(ascending, DirectionASC, DirectionDESC)
}

// ParseDirection maps the legacy string form onto a Direction. Only the exact
// string "DESC" sorts descending.
func ParseDirection(orderType string) Direction {
	return lo.Ternary(orderType == string(DirectionDESC), DirectionDESC, DirectionASC)
}

type (
	Orderings []OrderBy
	OrderBy   struct {
		Column    string
		Direction Direction
	}

	ColumnAlias = string

	// ColumnMapping maps external column aliases to model column names.
	// Key is an external alias, value is a column or Go field name.
	ColumnMapping = map[ColumnAlias]string
)

// Asc orders by column ascending.
func Asc(column string) OrderBy {
	return OrderBy{Column: column, Direction: DirectionASC}
}

// Desc orders by column descending.
func Desc(column string) OrderBy {
	return OrderBy{Column: column, Direction: DirectionDESC}
}

func (o OrderBy) resolve(sch *schema.Schema) (OrderBy, error) {
	if !o.Direction.Valid() {
		return o, &ExpressionError{Kind: ExpressionKindOrder, Name: o.Column, Reason: fmt.Sprintf("invalid ordering direction '%s'", o.Direction)}
	}

	field, err := resolveField(sch, ExpressionKindOrder, o.Column)
	if err != nil {
		return o, err
	}

	return OrderBy{Column: field.DBName, Direction: o.Direction}, nil
}

// ToSQLSlice converts Orderings to a slice of strings in the form
// "<order_column> <order_direction>".
//
// Example: for Orderings: [{"a", "ASC"}, {"b", "DESC"}] returns ["a ASC", "b DESC"].
func (o Orderings) ToSQLSlice() []string {
	ret := make([]string, 0, len(o))
	for _, ordering := range o {
		ret = append(ret, fmt.Sprintf("%s %s", ordering.Column, ordering.Direction))
	}

	return ret
}

// String returns "a ASC, b DESC".
func (o Orderings) String() string {
	return strings.Join(o.ToSQLSlice(), ", ")
}

// Apply applies the ordering to a gorm query with quoted column names.
// Empty Orderings leave the query untouched.
func (o Orderings) Apply(db *gorm.DB) *gorm.DB {
	if len(o) == 0 {
		return db
	}

	columns := lo.Map(o, func(ordering OrderBy, _ int) clause.OrderByColumn {
		return clause.OrderByColumn{
			Column: qualifiedColumn(ordering.Column),
			Desc:   ordering.Direction == DirectionDESC,
		}
	})

	return db.Clauses(clause.OrderBy{Columns: columns})
}

// resolve checks every column against the schema and appends the primary key
// as a final tie-breaker so that the ordering is total.
func (o Orderings) resolve(sch *schema.Schema) (Orderings, error) {
	if len(o) == 0 {
		return nil, nil
	}

	ret := make(Orderings, 0, len(o)+1)
	for _, ordering := range o {
		resolved, err := ordering.resolve(sch)
		if err != nil {
			return nil, err
		}

		// Remove previous occurrence (avoid duplication).
		ret = lo.Reject(ret, func(processed OrderBy, _ int) bool {
			return processed.Column == resolved.Column
		})
		ret = append(ret, resolved)
	}

	pk := sch.PrioritizedPrimaryField
	if pk != nil && !lo.ContainsBy(ret, func(ordering OrderBy) bool { return ordering.Column == pk.DBName }) {
		ret = append(ret, OrderBy{Column: pk.DBName, Direction: ret[len(ret)-1].Direction})
	}

	return ret, nil
}

// ParseSort builds Orderings from a list of strings in the format
// "column asc|desc". A bare "column" sorts ascending. Column aliases are
// resolved via ColumnMapping.
// Returns an error if an alias is not found in the mapping.
func ParseSort(stringsOrderings []string, columnMapping ColumnMapping) (Orderings, error) {
	ret := make([]OrderBy, 0, len(stringsOrderings))
	aliases := lo.Keys(columnMapping)
	sort.Strings(aliases)

	for _, stringOrdering := range stringsOrderings {
		cutStringOrdering := strings.Fields(stringOrdering)
		if len(cutStringOrdering) == 0 || len(cutStringOrdering) > 2 {
			return nil, &ExpressionError{Kind: ExpressionKindOrder, Name: stringOrdering, Reason: "invalid ordering string format"}
		}

		columnAlias := cutStringOrdering[0]
		direction := DirectionASC
		if len(cutStringOrdering) == 2 {
			direction = Direction(strings.ToUpper(cutStringOrdering[1]))
			if !direction.Valid() {
				return nil, &ExpressionError{Kind: ExpressionKindOrder, Name: stringOrdering, Reason: fmt.Sprintf("invalid ordering direction '%s'", cutStringOrdering[1])}
			}
		}

		columnName := columnMapping[columnAlias]
		if columnName == "" {
			return nil, &ExpressionError{
				Kind:    ExpressionKindOrder,
				Name:    columnAlias,
				Reason:  "invalid column alias",
				Closest: closest(columnAlias, aliases),
			}
		}

		ret = append(ret, OrderBy{
			Column:    columnName,
			Direction: direction,
		})
	}

	return ret, nil
}
