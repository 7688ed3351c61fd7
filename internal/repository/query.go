package repository

import (
	"fmt"
	"strings"
)

// whereBuilder accumulates AND-ed conditions with positional arguments.
// Conditions use "?" for each argument; placeholders are numbered on Add.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) Add(cond string, args ...any) *whereBuilder {
	for _, a := range args {
		w.args = append(w.args, a)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
	return w
}

// Search adds a case-insensitive substring match over the given columns
func (w *whereBuilder) Search(term string, columns ...string) *whereBuilder {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return w
	}

	w.args = append(w.args, "%"+escapeLike(term)+"%")
	placeholder := fmt.Sprintf("$%d", len(w.args))

	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = col + " ILIKE " + placeholder
	}
	w.conds = append(w.conds, "("+strings.Join(parts, " OR ")+")")
	return w
}

// SQL returns the WHERE clause, or an empty string when nothing was added
func (w *whereBuilder) SQL() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// Args returns the accumulated arguments
func (w *whereBuilder) Args() []any {
	return w.args
}

// Paginate appends LIMIT/OFFSET placeholders and returns the clause and full argument list
func (w *whereBuilder) Paginate(limit, offset int) (string, []any) {
	args := append(append([]any{}, w.args...), limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
