// Package export renders transaction lists as CSV or JSON downloads.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"finance-dashboard/src/apperrors"
	"finance-dashboard/src/models"
)

type Mode string

const (
	CSV  Mode = "csv"
	JSON Mode = "json"
)

const DefaultDateLayout = "1/2/2006"

// ParseMode accepts "csv" or "json" in any case.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case CSV:
		return CSV, true
	case JSON:
		return JSON, true
	}
	return "", false
}

func (m Mode) ContentType() string {
	if m == JSON {
		return "application/json"
	}
	return "text/csv"
}

// Filename is the attachment name for an export generated on day.
func (m Mode) Filename(day time.Time) string {
	return fmt.Sprintf("transactions-%s.%s", day.Format("2006-01-02"), m)
}

// Field is one exportable column.
type Field struct {
	Name  string
	Label string
}

// DefaultFields lists every exportable column in canonical order.
var DefaultFields = []Field{
	{"date", "Date"},
	{"description", "Description"},
	{"category", "Category"},
	{"amount", "Amount"},
	{"type", "Type"},
	{"status", "Status"},
	{"account", "Account"},
	{"notes", "Notes"},
}

// SelectFields intersects requested with DefaultFields, keeping canonical order.
// Unknown names are ignored; an empty result falls back to all default fields.
func SelectFields(requested []string) []Field {
	if len(requested) == 0 {
		return DefaultFields
	}
	want := make(map[string]bool, len(requested))
	for _, r := range requested {
		want[strings.TrimSpace(r)] = true
	}
	var out []Field
	for _, f := range DefaultFields {
		if want[f.Name] {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return DefaultFields
	}
	return out
}

// Formatter renders exports with a fixed date layout and location.
type Formatter struct {
	DateLayout string
	Location   *time.Location
}

func NewFormatter(layout string, loc *time.Location) Formatter {
	if layout == "" {
		layout = DefaultDateLayout
	}
	if loc == nil {
		loc = time.UTC
	}
	return Formatter{DateLayout: layout, Location: loc}
}

// Format projects fields of transactions and serialises them in mode.
func (f Formatter) Format(transactions []models.Transaction, fields []string, mode Mode) ([]byte, error) {
	if len(transactions) == 0 {
		return nil, apperrors.EmptyExport()
	}
	selected := SelectFields(fields)

	switch mode {
	case CSV:
		return f.csv(transactions, selected)
	case JSON:
		return f.json(transactions, selected)
	default:
		return nil, apperrors.Validation("Format must be csv or json",
			apperrors.FieldError{Field: "format", Message: "Format must be csv or json"})
	}
}

func (f Formatter) csv(transactions []models.Transaction, fields []Field) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(fields))
	for i, fd := range fields {
		header[i] = fd.Label
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}

	row := make([]string, len(fields))
	for _, t := range transactions {
		for i, fd := range fields {
			row[i] = f.text(t, fd.Name)
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("writing csv row %s: %w", t.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}

// row is a JSON object that keeps its keys in insertion order.
type row struct {
	keys   []string
	values []interface{}
}

func (r row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (f Formatter) json(transactions []models.Transaction, fields []Field) ([]byte, error) {
	rows := make([]row, 0, len(transactions))
	for _, t := range transactions {
		r := row{keys: []string{"id"}, values: []interface{}{t.ID}}
		for _, fd := range fields {
			r.keys = append(r.keys, fd.Name)
			if fd.Name == "amount" {
				r.values = append(r.values, t.Amount)
				continue
			}
			r.values = append(r.values, f.text(t, fd.Name))
		}
		rows = append(rows, r)
	}
	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding json export: %w", err)
	}
	return out, nil
}

func (f Formatter) text(t models.Transaction, field string) string {
	switch field {
	case "date":
		return t.Date.In(f.Location).Format(f.DateLayout)
	case "description":
		return t.Description
	case "category":
		return t.Category
	case "amount":
		return strconv.FormatFloat(t.Amount, 'f', -1, 64)
	case "type":
		return string(t.Type)
	case "status":
		return string(t.Status)
	case "account":
		return t.Account
	case "notes":
		return t.Notes
	}
	return ""
}
