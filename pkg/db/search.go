package db

import (
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern lowercases term and wraps it for a LIKE match, escaping wildcards with a backslash.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

// WhereContainsAny narrows query to rows where any of the column expressions contains term,
// ignoring case. A blank term leaves the query untouched.
func WhereContainsAny(query *gorm.DB, term string, columns ...string) *gorm.DB {
	if strings.TrimSpace(term) == "" || len(columns) == 0 {
		return query
	}
	pattern := ContainsPattern(term)
	clauses := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for _, col := range columns {
		clauses = append(clauses, "LOWER("+col+`) LIKE ? ESCAPE '\'`)
		args = append(args, pattern)
	}
	return query.Where("("+strings.Join(clauses, " OR ")+")", args...)
}
