package query

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"finance-dashboard/src/models"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type Sort struct {
	Field     string
	Direction Direction
}

// DefaultSort lists newest first.
var DefaultSort = Sort{Field: FieldDate, Direction: Desc}

var sortable = map[string]bool{
	FieldDate:        true,
	FieldAmount:      true,
	FieldDescription: true,
	FieldCategory:    true,
	FieldStatus:      true,
	FieldType:        true,
	FieldAccount:     true,
}

// IsSortable reports whether field can be used as a sort key.
func IsSortable(field string) bool {
	return sortable[field]
}

func (s Sort) normalized() Sort {
	if !sortable[s.Field] {
		s.Field = DefaultSort.Field
	}
	if s.Direction != Asc {
		s.Direction = Desc
	}
	return s
}

// SortTransactions stable-sorts transactions in place. Strings are compared with an
// English collator ignoring case, amounts numerically and dates chronologically.
func SortTransactions(transactions []models.Transaction, s Sort) {
	s = s.normalized()
	col := collate.New(language.English, collate.IgnoreCase)

	cmp := func(a, b models.Transaction) int {
		switch s.Field {
		case FieldAmount:
			switch {
			case a.Amount < b.Amount:
				return -1
			case a.Amount > b.Amount:
				return 1
			}
			return 0
		case FieldDate:
			return a.Date.Compare(b.Date)
		default:
			av, _ := fieldOf(a, s.Field)
			bv, _ := fieldOf(b, s.Field)
			return col.CompareString(av.(string), bv.(string))
		}
	}

	sort.SliceStable(transactions, func(i, j int) bool {
		c := cmp(transactions[i], transactions[j])
		if s.Direction == Desc {
			return c > 0
		}
		return c < 0
	})
}

// SortStrings orders names with the same collation used for string sort keys.
func SortStrings(names []string) {
	col := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(names, func(i, j int) bool {
		return col.CompareString(names[i], names[j]) < 0
	})
}

// Run filters, sorts and windows an in-memory list the same way the stores do.
func Run(transactions []models.Transaction, opts Options) []models.Transaction {
	out := Apply(transactions, opts.Filter)
	SortTransactions(out, opts.Sort)
	return Window(out, opts.Limit, opts.Offset)
}

// Window returns the slice of list selected by limit and offset.
func Window(list []models.Transaction, limit, offset int) []models.Transaction {
	if offset >= len(list) {
		return []models.Transaction{}
	}
	if offset > 0 {
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

// ParseDirection accepts "asc"/"desc" in any case; anything else is Desc.
func ParseDirection(s string) Direction {
	if strings.EqualFold(s, string(Asc)) {
		return Asc
	}
	return Desc
}
