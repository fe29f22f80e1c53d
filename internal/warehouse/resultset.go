package warehouse

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidColumnName is returned for a column the schema does not name.
	ErrInvalidColumnName = errors.New("warehouse: invalid column name")
	// ErrInvalidColumnType is returned when a cell cannot be coerced to the
	// requested type.
	ErrInvalidColumnType = errors.New("warehouse: invalid column type")
	// ErrNoData is returned by Require accessors for null cells.
	ErrNoData = errors.New("warehouse: no data")
)

// ResultSet is a finite forward-only cursor over warehouse rows with
// column-by-name access. It starts positioned before the first row.
type ResultSet struct {
	columns map[string]int
	rows    [][]interface{}
	pos     int
}

// NewResultSet builds a cursor directly from columns and cell values. Used by
// tests; production result sets come from Client.Query.
func NewResultSet(columns []string, rows [][]interface{}) *ResultSet {
	idx := make(map[string]int, len(columns))
	for i, name := range columns {
		idx[name] = i
	}
	return &ResultSet{columns: idx, rows: rows, pos: -1}
}

// NextRow advances the cursor, returning false after the last row.
func (r *ResultSet) NextRow() bool {
	if r.pos+1 >= len(r.rows) {
		r.pos = len(r.rows)
		return false
	}
	r.pos++
	return true
}

func (r *ResultSet) RowCount() int {
	return len(r.rows)
}

func (r *ResultSet) cell(name string) (interface{}, error) {
	i, ok := r.columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColumnName, name)
	}
	if r.pos < 0 || r.pos >= len(r.rows) {
		return nil, fmt.Errorf("%w: cursor not positioned on a row", ErrNoData)
	}
	return r.rows[r.pos][i], nil
}

// GetRawByName returns the raw decoded JSON value of the cell; ok is false
// for null cells.
func (r *ResultSet) GetRawByName(name string) (interface{}, bool, error) {
	v, err := r.cell(name)
	if err != nil {
		return nil, false, err
	}
	return v, v != nil, nil
}

func (r *ResultSet) GetStringByName(name string) (string, bool, error) {
	v, err := r.cell(name)
	if err != nil || v == nil {
		return "", false, err
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("%w: column %q is not a string", ErrInvalidColumnType, name)
	}
	return s, true, nil
}

// GetInt64ByName coerces the cell to int64. JSON numbers are used directly;
// strings are attempted as integer then as float truncated to integer.
func (r *ResultSet) GetInt64ByName(name string) (int64, bool, error) {
	v, err := r.cell(name)
	if err != nil || v == nil {
		return 0, false, err
	}
	switch t := v.(type) {
	case float64:
		return int64(t), true, nil
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n, true, nil
		}
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return int64(f), true, nil
		}
		return 0, false, fmt.Errorf("%w: column %q value %q is not numeric", ErrInvalidColumnType, name, t)
	default:
		return 0, false, fmt.Errorf("%w: column %q is not numeric", ErrInvalidColumnType, name)
	}
}

func (r *ResultSet) GetFloat64ByName(name string) (float64, bool, error) {
	v, err := r.cell(name)
	if err != nil || v == nil {
		return 0, false, err
	}
	switch t := v.(type) {
	case float64:
		return t, true, nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false, fmt.Errorf("%w: column %q value %q is not a float", ErrInvalidColumnType, name, t)
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("%w: column %q is not a float", ErrInvalidColumnType, name)
	}
}

func (r *ResultSet) GetBoolByName(name string) (bool, bool, error) {
	v, err := r.cell(name)
	if err != nil || v == nil {
		return false, false, err
	}
	switch t := v.(type) {
	case bool:
		return t, true, nil
	case string:
		b, err := strconv.ParseBool(t)
		if err != nil {
			return false, false, fmt.Errorf("%w: column %q value %q is not a bool", ErrInvalidColumnType, name, t)
		}
		return b, true, nil
	default:
		return false, false, fmt.Errorf("%w: column %q is not a bool", ErrInvalidColumnType, name)
	}
}

func (r *ResultSet) RequireStringByName(name string) (string, error) {
	s, ok, err := r.GetStringByName(name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: column %q is null", ErrNoData, name)
	}
	return s, nil
}

func (r *ResultSet) RequireInt64ByName(name string) (int64, error) {
	n, ok, err := r.GetInt64ByName(name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: column %q is null", ErrNoData, name)
	}
	return n, nil
}

func (r *ResultSet) RequireFloat64ByName(name string) (float64, error) {
	f, ok, err := r.GetFloat64ByName(name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: column %q is null", ErrNoData, name)
	}
	return f, nil
}

func (r *ResultSet) RequireBoolByName(name string) (bool, error) {
	b, ok, err := r.GetBoolByName(name)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("%w: column %q is null", ErrNoData, name)
	}
	return b, nil
}

// RequireTimestampByName parses an integer epoch-second column into a UTC
// instant.
func (r *ResultSet) RequireTimestampByName(name string) (time.Time, error) {
	n, err := r.RequireInt64ByName(name)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(n, 0).UTC(), nil
}

// GetCommaSeparatedByName parses a JSON-array-of-strings cell and joins it
// with commas. The cell may be a JSON string holding the array or the decoded
// array itself.
func (r *ResultSet) GetCommaSeparatedByName(name string) (string, bool, error) {
	v, err := r.cell(name)
	if err != nil || v == nil {
		return "", false, err
	}
	switch t := v.(type) {
	case string:
		var parts []string
		if err := json.Unmarshal([]byte(t), &parts); err != nil {
			return "", false, fmt.Errorf("%w: column %q is not a JSON string array", ErrInvalidColumnType, name)
		}
		return strings.Join(parts, ","), true, nil
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return "", false, fmt.Errorf("%w: column %q holds a non-string element", ErrInvalidColumnType, name)
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), true, nil
	default:
		return "", false, fmt.Errorf("%w: column %q is not a string array", ErrInvalidColumnType, name)
	}
}

func (r *ResultSet) RequireCommaSeparatedByName(name string) (string, error) {
	s, ok, err := r.GetCommaSeparatedByName(name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: column %q is null", ErrNoData, name)
	}
	return s, nil
}
