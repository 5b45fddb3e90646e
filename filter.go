package gorepo

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Condition is a single comparison Operator(Column, Value).
type Condition struct {
	Column   string
	Operator Operator
	Value    any
}

// Where builds a Condition.
func Where(column string, operator Operator, value any) Condition {
	return Condition{Column: column, Operator: operator, Value: value}
}

// Eq is shorthand for Where(column, OperatorEQ, value).
func Eq(column string, value any) Condition {
	return Where(column, OperatorEQ, value)
}

// Between is shorthand for the pair column >= lo AND column <= hi.
func Between(column string, lo, hi any) []Condition {
	return []Condition{
		Where(column, OperatorGTE, lo),
		Where(column, OperatorLTE, hi),
	}
}

type (
	// tDisjunct is a list of conditions joined by AND.
	tDisjunct []Condition

	// tDNF represents the disjunctive normal form (DNF) of a logical expression.
	// Each disjunct is joined by OR, and each disjunct consists of a list of
	// conditions which are joined by AND.
	//
	//	DNF = X1 OR X2 ... OR Xn, where Xi = Ai1 AND Ai2 ... AND Aim.
	tDNF []tDisjunct
)

// Filter is a predicate restricting a collection. A nil *Filter places no
// restriction.
//
// Usage:
//
//	// id >= 3 AND id <= 8
//	f := gorepo.Match(gorepo.Between("id", 3, 8)...)
//	// (name = 'a') OR (name = 'b' AND age > 30)
//	f = gorepo.Match(gorepo.Eq("name", "a")).Or(gorepo.Eq("name", "b"), gorepo.Where("age", gorepo.OperatorGT, 30))
type Filter struct {
	dnf tDNF
	raw []clause.Expr
}

// Match returns a filter satisfied when all conditions hold.
func Match(conditions ...Condition) *Filter {
	f := new(Filter)
	if len(conditions) > 0 {
		f.dnf = tDNF{conditions}
	}

	return f
}

// Or adds an alternative: the filter is satisfied by the existing
// alternatives or by all of conditions.
func (f *Filter) Or(conditions ...Condition) *Filter {
	if f == nil {
		f = new(Filter)
	}
	if len(conditions) > 0 {
		f.dnf = append(f.dnf, conditions)
	}

	return f
}

// Raw returns a filter from a raw SQL fragment using "?" placeholders.
// Raw fragments are ANDed with the structured conditions and are not
// checked against the model schema.
func Raw(sql string, vars ...any) *Filter {
	return new(Filter).AndRaw(sql, vars...)
}

// AndRaw appends a raw SQL fragment to the filter.
func (f *Filter) AndRaw(sql string, vars ...any) *Filter {
	if f == nil {
		f = new(Filter)
	}
	if sql != "" {
		f.raw = append(f.raw, clause.Expr{SQL: sql, Vars: vars})
	}

	return f
}

// IsEmpty reports whether the filter places no restriction.
func (f *Filter) IsEmpty() bool {
	return f == nil || (len(f.dnf) == 0 && len(f.raw) == 0)
}

// Apply applies the filter to a gorm query. An empty filter leaves the query untouched.
func (f *Filter) Apply(db *gorm.DB) *gorm.DB {
	if f.IsEmpty() {
		return db
	}

	exprs := make([]clause.Expression, 0, len(f.raw)+1)
	if exp := f.dnf.toGORMExpression(); exp != nil {
		exprs = append(exprs, exp)
	}
	for _, raw := range f.raw {
		exprs = append(exprs, raw)
	}

	return db.Clauses(clause.Where{Exprs: exprs})
}

// resolve checks every condition against the schema and returns a copy of the
// filter with columns replaced by their database names.
func (f *Filter) resolve(sch *schema.Schema) (*Filter, error) {
	if f.IsEmpty() {
		return nil, nil
	}

	ret := &Filter{
		dnf: make(tDNF, 0, len(f.dnf)),
		raw: f.raw,
	}
	for _, disjunct := range f.dnf {
		resolved := make(tDisjunct, 0, len(disjunct))
		for _, cond := range disjunct {
			rc, err := cond.resolve(sch)
			if err != nil {
				return nil, err
			}
			resolved = append(resolved, rc)
		}
		ret.dnf = append(ret.dnf, resolved)
	}

	return ret, nil
}

func (c Condition) resolve(sch *schema.Schema) (Condition, error) {
	if !c.Operator.Valid() {
		return c, &ExpressionError{Kind: ExpressionKindFilter, Name: string(c.Operator), Reason: "invalid operator"}
	}

	field, err := resolveField(sch, ExpressionKindFilter, c.Column)
	if err != nil {
		return c, err
	}

	isTime := field.DataType == schema.Time

	var value any
	if c.Operator.isSet() {
		value = lo.Map(toAnySlice(c.Value), func(v any, _ int) any {
			return lo.Ternary(isTime, parseTimeValue(v), v)
		})
	} else {
		value = lo.Ternary(isTime, parseTimeValue(c.Value), c.Value)
	}

	return Condition{Column: field.DBName, Operator: c.Operator, Value: value}, nil
}

// parseTimeValue tries parsing a value as time.Time. If it succeeds, returns
// time.Time. Otherwise returns the original value.
func parseTimeValue(v any) any {
	fnParseBytesToTimeOrValue := func(vBytes []byte) any {
		dst := time.Time{}
		err := dst.UnmarshalText(vBytes)
		if err == nil {
			return dst
		}

		return v
	}

	switch vt := v.(type) {
	case string:
		return fnParseBytesToTimeOrValue([]byte(vt))
	case []byte:
		return fnParseBytesToTimeOrValue(vt)
	default:
		return v
	}
}

func (c Condition) toGORMExpression() clause.Expression {
	return c.Operator.expression(c.Column, c.Value)
}

// toGORMExpression converts a disjunct (K1, K2, K3) into a gorm expression
// "K1 AND K2 AND K3".
func (d tDisjunct) toGORMExpression() clause.Expression {
	andExpressions := make([]clause.Expression, 0, len(d))
	for _, cond := range d {
		andExpressions = append(andExpressions, cond.toGORMExpression())
	}

	if len(andExpressions) == 1 {
		return andExpressions[0]
	} else if len(andExpressions) > 1 {
		return clause.And(andExpressions...)
	}

	return nil
}

// toGORMExpression converts a DNF into a clause.Expression. Disjuncts are
// joined with OR.
func (d tDNF) toGORMExpression() clause.Expression {
	orExpressions := make([]clause.Expression, 0, len(d))

	for _, disjunct := range d {
		andExpressions := disjunct.toGORMExpression()
		if andExpressions == nil {
			continue
		}

		orExpressions = append(orExpressions, andExpressions)
	}

	if len(orExpressions) == 1 {
		return orExpressions[0]
	} else if len(orExpressions) > 1 {
		return clause.Or(orExpressions...)
	}

	return nil
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Column, c.Operator, c.Value)
}
