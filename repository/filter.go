package repository

import (
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// Conditions holds recognized filter keys and their non-empty values.
type Conditions map[string]interface{}

// Filter is implemented by the typed filter of each list page.
type Filter interface {
	Conditions() Conditions
}

// Predicate turns one condition value into a WHERE clause.
type Predicate interface {
	Apply(db *gorm.DB, value interface{}) *gorm.DB
}

// Exact matches a column against the value.
type Exact struct {
	Column string
}

func (p Exact) Apply(db *gorm.DB, value interface{}) *gorm.DB {
	return db.Where(p.Column+" = ?", value)
}

// Search is a case-insensitive substring match OR'd across columns.
type Search struct {
	Columns []string
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (p Search) Apply(db *gorm.DB, value interface{}) *gorm.DB {
	term := strings.ToLower(strings.TrimSpace(fmt.Sprint(value)))
	if term == "" || len(p.Columns) == 0 {
		return db
	}
	pattern := "%" + likeEscaper.Replace(term) + "%"

	clauses := make([]string, len(p.Columns))
	args := make([]interface{}, len(p.Columns))
	for i, col := range p.Columns {
		clauses[i] = "LOWER(" + col + `) LIKE ? ESCAPE '\'`
		args[i] = pattern
	}
	return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// Window limits a list query. A zero Limit returns every row.
type Window struct {
	Limit  int
	Offset int
}

// All is the unwindowed list.
var All = Window{}

func applyConditions(db *gorm.DB, predicates map[string]Predicate, filter Filter) *gorm.DB {
	if filter == nil {
		return db
	}
	conds := filter.Conditions()

	// Sorted so the generated SQL is stable.
	keys := make([]string, 0, len(conds))
	for k := range conds {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		pred, ok := predicates[k]
		if !ok {
			continue
		}
		db = pred.Apply(db, conds[k])
	}
	return db
}

// set adds a string value when it is not blank.
func (c Conditions) set(key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		c[key] = value
	}
}

// setID adds a reference value when it is set.
func (c Conditions) setID(key string, id uint) {
	if id != 0 {
		c[key] = id
	}
}

// Raw is an untyped filter. Keys the schema does not recognize are ignored.
type Raw map[string]interface{}

func (r Raw) Conditions() Conditions {
	conds := Conditions{}
	for k, v := range r {
		switch val := v.(type) {
		case string:
			conds.set(k, val)
		case uint:
			conds.setID(k, val)
		case nil:
		default:
			conds[k] = val
		}
	}
	return conds
}
