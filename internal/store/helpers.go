package store

import "strings"

// placeholderList returns "?,?,?" for n placeholders.
func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// rolesToArgs converts []Role to []any for use with database/sql.
func rolesToArgs(roles []Role) []any {
	args := make([]any, len(roles))
	for i, r := range roles {
		args[i] = string(r)
	}
	return args
}
