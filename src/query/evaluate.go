package query

import (
	"strings"
	"time"

	"finance-dashboard/src/models"
)

// Evaluate reports whether txn satisfies cond. An empty condition matches everything;
// an unknown field or operator matches nothing.
func Evaluate(cond models.Condition, txn models.Transaction) bool {
	if cond.IsZero() {
		return true
	}
	// Logical AND
	if len(cond.And) > 0 {
		for _, c := range cond.And {
			if !Evaluate(c, txn) {
				return false
			}
		}
		return true
	}
	// Logical OR
	if len(cond.Or) > 0 {
		for _, c := range cond.Or {
			if Evaluate(c, txn) {
				return true
			}
		}
		return false
	}

	fieldValue, ok := fieldOf(txn, cond.Field)
	if !ok {
		return false
	}

	switch cond.Op {
	case models.OpEquals:
		switch v := fieldValue.(type) {
		case string:
			val, ok2 := cond.Value.(string)
			return ok2 && v == val
		case float64:
			val, ok2 := toFloat(cond.Value)
			return ok2 && v == val
		case time.Time:
			val, ok2 := cond.Value.(time.Time)
			return ok2 && v.Equal(val)
		default:
			return false
		}
	case models.OpContains:
		s, ok := fieldValue.(string)
		val, ok2 := cond.Value.(string)
		return ok && ok2 && strings.Contains(strings.ToLower(s), strings.ToLower(val))
	case models.OpGte, models.OpLte:
		c, ok := compare(fieldValue, cond.Value)
		if !ok {
			return false
		}
		if cond.Op == models.OpGte {
			return c >= 0
		}
		return c <= 0
	case models.OpIn:
		s, ok := fieldValue.(string)
		if !ok {
			return false
		}
		switch arr := cond.Value.(type) {
		case []string:
			for _, v := range arr {
				if s == v {
					return true
				}
			}
		case []interface{}:
			for _, v := range arr {
				if str, ok := v.(string); ok && s == str {
					return true
				}
			}
		}
		return false
	default:
		return false
	}
}

func fieldOf(txn models.Transaction, field string) (interface{}, bool) {
	switch field {
	case FieldID:
		return txn.ID, true
	case FieldUserID:
		return txn.UserID, true
	case FieldDate:
		return txn.Date, true
	case FieldDescription:
		return txn.Description, true
	case FieldCategory:
		return txn.Category, true
	case FieldAmount:
		return txn.Amount, true
	case FieldType:
		return string(txn.Type), true
	case FieldStatus:
		return string(txn.Status), true
	case FieldAccount:
		return txn.Account, true
	default:
		return nil, false
	}
}

// compare orders a field value against a condition value of the same kind.
func compare(fieldValue, condValue interface{}) (int, bool) {
	switch v := fieldValue.(type) {
	case float64:
		val, ok := toFloat(condValue)
		if !ok {
			return 0, false
		}
		switch {
		case v < val:
			return -1, true
		case v > val:
			return 1, true
		}
		return 0, true
	case time.Time:
		val, ok := condValue.(time.Time)
		if !ok {
			return 0, false
		}
		return v.Compare(val), true
	default:
		return 0, false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
