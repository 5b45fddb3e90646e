package gorepo

import (
	"sort"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

var _availableColumnNameSymbols = append([]rune("_"), lo.AlphanumericCharset...)

// resolveField looks a column up by its database name or its Go field name.
func resolveField(sch *schema.Schema, kind ExpressionKind, name string) (*schema.Field, error) {
	if name == "" {
		return nil, &ExpressionError{Kind: kind, Name: name, Reason: "empty column name"}
	}

	// Guard against SQL injection by restricting allowed characters in column names.
	if !lo.Every(_availableColumnNameSymbols, []rune(name)) {
		return nil, &ExpressionError{Kind: kind, Name: name, Reason: "column name contains forbidden symbols"}
	}

	field := sch.LookUpField(name)
	if field == nil || field.DBName == "" {
		return nil, &ExpressionError{
			Kind:    kind,
			Name:    name,
			Reason:  "unknown column",
			Closest: closest(name, sch.DBNames),
		}
	}

	return field, nil
}

// qualifiedColumn binds a resolved column name to the current table so it
// stays unambiguous once relations are joined.
func qualifiedColumn(name string) clause.Column {
	return clause.Column{Table: clause.CurrentTable, Name: name}
}

// resolveRelation checks a possibly nested relation path such as
// "Address" or "Orders.Items" against the schema.
func resolveRelation(sch *schema.Schema, name string) error {
	current := sch
	for _, part := range strings.Split(name, ".") {
		rel, ok := current.Relationships.Relations[part]
		if !ok {
			return &ExpressionError{
				Kind:    ExpressionKindInclude,
				Name:    name,
				Reason:  "unknown relation",
				Closest: closest(part, relationNames(current)),
			}
		}
		current = rel.FieldSchema
	}

	return nil
}

func relationNames(sch *schema.Schema) []string {
	names := lo.Keys(sch.Relationships.Relations)
	sort.Strings(names)

	return names
}
