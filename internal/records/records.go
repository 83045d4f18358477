package records

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field is one column of a result row.
type Field struct {
	Column string
	Value  Value
}

// Record is a result row: column names mapped to values, in select order.
type Record []Field

// Get returns the value of column and whether the record has it.
func (r Record) Get(column string) (Value, bool) {
	for _, f := range r {
		if f.Column == column {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Columns returns the column names in select order.
func (r Record) Columns() []string {
	cols := make([]string, len(r))
	for i, f := range r {
		cols[i] = f.Column
	}
	return cols
}

// MarshalJSON encodes the record as an object whose keys keep select order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Column)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", f.Column, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Scan reads every remaining row into records and closes rows.
func Scan(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()

	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var out []Record
	raw := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range raw {
		dest[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(out)+1, err)
		}
		rec := make(Record, len(cols))
		for i, c := range cols {
			rec[i] = Field{Column: c.Name(), Value: FromDriver(raw[i], c.DatabaseTypeName())}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return out, nil
}

// FromDriver converts a value produced by a database/sql driver into a
// Value. Text-protocol drivers deliver numbers as bytes, so dbType (the
// column's database type name) decides how those are parsed.
func FromDriver(v any, dbType string) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case int64:
		return Int(x)
	case float64:
		return Float(x)
	case bool:
		if x {
			return Int(1)
		}
		return Int(0)
	case time.Time:
		return Text(x.Format(time.RFC3339Nano))
	case []byte:
		return fromText(string(x), dbType)
	case string:
		return fromText(x, dbType)
	default:
		return Text(fmt.Sprint(x))
	}
}

func fromText(s, dbType string) Value {
	switch classify(dbType) {
	case KindInt:
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i)
		}
	case KindFloat:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Float(f)
		}
	}
	return Text(s)
}

var (
	intTypes = map[string]struct{}{
		"INT": {}, "INTEGER": {}, "TINYINT": {}, "SMALLINT": {},
		"MEDIUMINT": {}, "BIGINT": {}, "YEAR": {},
	}
	floatTypes = map[string]struct{}{
		"FLOAT": {}, "DOUBLE": {}, "REAL": {}, "DECIMAL": {}, "NUMERIC": {},
	}
)

// classify maps a database type name to the Kind its text form parses as.
func classify(dbType string) Kind {
	t := strings.ToUpper(strings.TrimSpace(dbType))
	t = strings.TrimPrefix(t, "UNSIGNED ")
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	if _, ok := intTypes[t]; ok {
		return KindInt
	}
	if _, ok := floatTypes[t]; ok {
		return KindFloat
	}
	return KindText
}
