package records

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestFromDriver(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		in     any
		dbType string
		want   Value
	}{
		{"nil", nil, "INT", Null()},
		{"int64", int64(42), "", Int(42)},
		{"float64", 2.5, "", Float(2.5)},
		{"bool", true, "", Int(1)},
		{"time", ts, "DATETIME", Text("2024-03-01T12:00:00Z")},
		{"int bytes", []byte("-7"), "BIGINT", Int(-7)},
		{"unsigned int bytes", []byte("7"), "UNSIGNED INT", Int(7)},
		{"decimal bytes", []byte("1.25"), "DECIMAL", Float(1.25)},
		{"double string", "3e2", "DOUBLE", Float(300)},
		{"varchar bytes", []byte("bench"), "VARCHAR", Text("bench")},
		{"unparsable int stays text", []byte("18446744073709551615"), "UNSIGNED BIGINT", Text("18446744073709551615")},
		{"untyped string", "12", "", Text("12")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromDriver(tt.in, tt.dbType))
		})
	}
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "NULL", Null().String())
	assert.Equal(t, "abc", Text("abc").String())
	assert.Equal(t, "-3", Int(-3).String())
	assert.Equal(t, "0.1", Float(0.1).String())

	s, ok := Text("x").AsText()
	assert.True(t, ok)
	assert.Equal(t, "x", s)
	_, ok = Text("x").AsInt()
	assert.False(t, ok)
	assert.True(t, Value{}.IsNull())
	assert.Equal(t, "float", KindFloat.String())
}

func TestRecordMarshalJSONKeepsOrder(t *testing.T) {
	rec := Record{
		{Column: "z", Value: Int(1)},
		{Column: "a", Value: Text("two")},
		{Column: "m", Value: Float(3.5)},
		{Column: "n", Value: Null()},
	}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":"two","m":3.5,"n":null}`, string(data))

	v, ok := rec.Get("a")
	assert.True(t, ok)
	assert.Equal(t, Text("two"), v)
	_, ok = rec.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"z", "a", "m", "n"}, rec.Columns())
}

func TestScan(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE results (id INTEGER, name TEXT, score REAL, note TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO results VALUES (1, 'render', 12.5, NULL), (2, 'mix', 3.0, 'warm')`)
	require.NoError(t, err)

	rows, err := db.Query(`SELECT id, name, score, note FROM results ORDER BY id`)
	require.NoError(t, err)

	recs, err := Scan(rows)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, []string{"id", "name", "score", "note"}, recs[0].Columns())
	assert.Equal(t, Record{
		{Column: "id", Value: Int(1)},
		{Column: "name", Value: Text("render")},
		{Column: "score", Value: Float(12.5)},
		{Column: "note", Value: Null()},
	}, recs[0])
	note, _ := recs[1].Get("note")
	assert.Equal(t, Text("warm"), note)
}

func TestScanEmpty(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT 1 AS one WHERE 0`)
	require.NoError(t, err)

	recs, err := Scan(rows)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
