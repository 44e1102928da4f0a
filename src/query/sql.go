package query

import (
	"fmt"
	"strings"
	"time"

	"finance-dashboard/src/models"
)

type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// SQLiteTimeLayout is the fixed-width UTC layout dates are stored in on SQLite, so that
// text comparison orders chronologically.
const SQLiteTimeLayout = "2006-01-02T15:04:05.000000000Z"

var columns = map[string]string{
	FieldID:          "id",
	FieldUserID:      "user_id",
	FieldDate:        "date",
	FieldDescription: "description",
	FieldCategory:    "category",
	FieldAmount:      "amount",
	FieldType:        "type",
	FieldStatus:      "status",
	FieldAccount:     "account",
}

// Builder accumulates positional arguments while rendering conditions, so callers can
// put their own arguments (such as the owner id) ahead of the filter's.
type Builder struct {
	Dialect Dialect
	Args    []interface{}
}

func NewBuilder(d Dialect, args ...interface{}) *Builder {
	return &Builder{Dialect: d, Args: args}
}

// Arg registers a value and returns its placeholder.
func (b *Builder) Arg(v interface{}) string {
	if t, ok := v.(time.Time); ok && b.Dialect == SQLite {
		v = t.UTC().Format(SQLiteTimeLayout)
	}
	b.Args = append(b.Args, v)
	if b.Dialect == SQLite {
		return "?"
	}
	return fmt.Sprintf("$%d", len(b.Args))
}

// Where renders cond as a SQL boolean expression. An empty condition renders as TRUE.
func (b *Builder) Where(cond models.Condition) (string, error) {
	if cond.IsZero() {
		return "1 = 1", nil
	}
	if len(cond.And) > 0 {
		return b.group(cond.And, " AND ")
	}
	if len(cond.Or) > 0 {
		return b.group(cond.Or, " OR ")
	}

	col, ok := columns[cond.Field]
	if !ok {
		return "", fmt.Errorf("unknown filter field %q", cond.Field)
	}

	switch cond.Op {
	case models.OpEquals:
		return fmt.Sprintf("%s = %s", col, b.Arg(cond.Value)), nil
	case models.OpGte:
		return fmt.Sprintf("%s >= %s", col, b.Arg(cond.Value)), nil
	case models.OpLte:
		return fmt.Sprintf("%s <= %s", col, b.Arg(cond.Value)), nil
	case models.OpContains:
		term, ok := cond.Value.(string)
		if !ok {
			return "", fmt.Errorf("contains on %q needs a string value", cond.Field)
		}
		pattern := "%" + escapeLike(term) + "%"
		if b.Dialect == SQLite {
			// SQLite LIKE is case-insensitive for ASCII.
			return fmt.Sprintf("%s LIKE %s ESCAPE '\\'", col, b.Arg(pattern)), nil
		}
		return fmt.Sprintf("%s ILIKE %s ESCAPE '\\'", col, b.Arg(pattern)), nil
	case models.OpIn:
		values, ok := cond.Value.([]string)
		if !ok {
			return "", fmt.Errorf("in on %q needs a string list", cond.Field)
		}
		if len(values) == 0 {
			return "1 = 0", nil
		}
		if b.Dialect == Postgres {
			return fmt.Sprintf("%s = ANY(%s)", col, b.Arg(values)), nil
		}
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = b.Arg(v)
		}
		return fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", ")), nil
	default:
		return "", fmt.Errorf("unknown filter operator %q", cond.Op)
	}
}

func (b *Builder) group(conds []models.Condition, sep string) (string, error) {
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		part, err := b.Where(c)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

// OrderBy renders the ORDER BY list for s. Unknown fields fall back to date.
// The created_at and id columns keep the order deterministic for equal keys.
func (b *Builder) OrderBy(s Sort) string {
	s = s.normalized()
	col := columns[s.Field]
	dir := "DESC"
	if s.Direction == Asc {
		dir = "ASC"
	}
	if s.Field == FieldDescription || s.Field == FieldCategory || s.Field == FieldAccount {
		col = "LOWER(" + col + ")"
	}
	return fmt.Sprintf("%s %s, created_at %s, id %s", col, dir, dir, dir)
}

// LimitOffset renders the LIMIT/OFFSET suffix, or an empty string when unbounded.
func (b *Builder) LimitOffset(limit, offset int) string {
	if limit <= 0 {
		if offset > 0 && b.Dialect == SQLite {
			return " LIMIT -1 OFFSET " + b.Arg(offset)
		}
		if offset > 0 {
			return " OFFSET " + b.Arg(offset)
		}
		return ""
	}
	clause := " LIMIT " + b.Arg(limit)
	if offset > 0 {
		clause += " OFFSET " + b.Arg(offset)
	}
	return clause
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
