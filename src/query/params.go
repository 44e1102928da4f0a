package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"finance-dashboard/src/apperrors"
)

const dateOnly = "2006-01-02"

// ParseDate accepts a calendar date (YYYY-MM-DD, interpreted in loc) or an RFC 3339
// timestamp. With endOfDay set, a calendar date resolves to the last instant of that
// day so that upper bounds include the whole day.
func ParseDate(s string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	if d, err := time.ParseInLocation(dateOnly, s, loc); err == nil {
		if endOfDay {
			return d.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
		}
		return d, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// ListRequest is a parsed GET /api/transactions query string.
type ListRequest struct {
	Options Options
	// Page is nil when the caller asked for the full list.
	Page *Page
}

// FromValues parses list parameters. Unknown parameters are ignored; malformed ones
// produce a ValidationError naming each offending field.
func FromValues(values url.Values, loc *time.Location) (ListRequest, error) {
	var req ListRequest
	var fields []apperrors.FieldError
	bad := func(field, msg string) {
		fields = append(fields, apperrors.FieldError{Field: field, Message: msg})
	}

	get := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(values.Get(k)); v != "" {
				return v
			}
		}
		return ""
	}

	f := Filter{
		Status:   get("status"),
		Category: get("category"),
		Type:     get("type"),
		Search:   get("search"),
	}

	if v := get("from", "dateFrom"); v != "" {
		if d, err := ParseDate(v, loc, false); err != nil {
			bad("from", "Please provide a valid date")
		} else {
			f.DateFrom = &d
		}
	}
	if v := get("to", "dateTo"); v != "" {
		if d, err := ParseDate(v, loc, true); err != nil {
			bad("to", "Please provide a valid date")
		} else {
			f.DateTo = &d
		}
	}
	if v := get("min", "minAmount"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err != nil {
			bad("min", "Minimum amount must be a number")
		} else {
			f.MinAmount = &n
		}
	}
	if v := get("max", "maxAmount"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err != nil {
			bad("max", "Maximum amount must be a number")
		} else {
			f.MaxAmount = &n
		}
	}

	req.Options.Filter = f
	req.Options.Sort = DefaultSort
	if v := get("sortBy"); v != "" {
		if !IsSortable(v) {
			bad("sortBy", "Unsupported sort field")
		} else {
			req.Options.Sort.Field = v
		}
	}
	if v := get("sortOrder"); v != "" {
		if !strings.EqualFold(v, string(Asc)) && !strings.EqualFold(v, string(Desc)) {
			bad("sortOrder", "Sort order must be asc or desc")
		} else {
			req.Options.Sort.Direction = ParseDirection(v)
		}
	}

	pageStr, limitStr := get("page"), get("limit")
	if pageStr != "" || limitStr != "" {
		p := Page{Number: 1, Size: DefaultPageSize}
		if pageStr != "" {
			n, err := strconv.Atoi(pageStr)
			if err != nil || n < 1 {
				bad("page", "Page must be a positive integer")
			} else {
				p.Number = n
			}
		}
		if limitStr != "" {
			n, err := strconv.Atoi(limitStr)
			if err != nil || n < 1 || n > MaxPageSize {
				bad("limit", "Limit must be between 1 and 100")
			} else {
				p.Size = n
			}
		}
		req.Page = &p
		req.Options.Limit = p.Size
		req.Options.Offset = p.Offset()
	}

	if len(fields) > 0 {
		return ListRequest{}, apperrors.Validation("Invalid query parameters", fields...)
	}
	return req, nil
}
