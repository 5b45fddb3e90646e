package gorepo

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Include eagerly attaches related data to a query.
type Include struct {
	relation string
	args     []any
	join     bool
	scope    func(*gorm.DB) *gorm.DB
}

// Preload loads a relation with a separate query per relation. Nested
// relations are addressed with dots ("Orders.Items"); clause.Associations
// loads every direct relation. args are passed to gorm's Preload as-is.
func Preload(relation string, args ...any) Include {
	return Include{relation: relation, args: args}
}

// Joins loads a belongs-to or has-one relation with a LEFT JOIN in the main query.
func Joins(relation string, args ...any) Include {
	return Include{relation: relation, args: args, join: true}
}

// Scope wraps an arbitrary query transformation. Scopes are not checked
// against the schema.
func Scope(fn func(*gorm.DB) *gorm.DB) Include {
	return Include{scope: fn}
}

// Apply applies the include to a gorm query.
func (i Include) Apply(db *gorm.DB) *gorm.DB {
	switch {
	case i.scope != nil:
		return db.Scopes(i.scope)
	case i.join:
		return db.Joins(i.relation, i.args...)
	case i.relation != "":
		return db.Preload(i.relation, i.args...)
	default:
		return db
	}
}

func (i Include) validate(sch *schema.Schema) error {
	if i.scope != nil {
		return nil
	}

	if i.relation == clause.Associations && !i.join {
		return nil
	}

	if i.relation == "" {
		return &ExpressionError{Kind: ExpressionKindInclude, Name: i.relation, Reason: "empty relation"}
	}

	return resolveRelation(sch, i.relation)
}
