package week

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnchor(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2024-01-07", "2024-01-07"}, // Sunday
		{"2024-01-01", "2024-01-07"}, // Monday
		{"2024-01-06", "2024-01-07"}, // Saturday
		{"2024-01-08", "2024-01-14"},
		{"2023-12-29", "2023-12-31"},
	}
	for _, tc := range cases {
		d, err := ParseAnchor(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, d.String(), tc.in)
		assert.Equal(t, time.Sunday, d.Time().Weekday())
	}
}

func TestAddWeeks(t *testing.T) {
	d := NewDate(2024, time.January, 10)
	assert.Equal(t, "2023-11-19", d.Anchor().AddWeeks(-8).String())
}

func TestParse(t *testing.T) {
	d, err := Parse("2024-01-07T15:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-07", d.String())

	_, err = Parse("07/01/2024")
	assert.Error(t, err)
	_, err = Parse("")
	assert.Error(t, err)
}

func TestJSON(t *testing.T) {
	var body struct {
		WeekDate Date `json:"weekDate"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"weekDate":"2024-01-07"}`), &body))
	assert.Equal(t, NewDate(2024, time.January, 7), body.WeekDate)

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"weekDate":"2024-01-07"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"weekDate":7}`), &body))

	empty, err := json.Marshal(struct{ D Date }{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"D":null}`, string(empty))
}

func TestScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01-07", d.String())

	require.NoError(t, d.Scan("2024-02-04 00:00:00+00:00"))
	assert.Equal(t, "2024-02-04", d.String())

	require.NoError(t, d.Scan([]byte("2024-03-03")))
	assert.Equal(t, "2024-03-03", d.String())

	assert.Error(t, d.Scan(42))

	v, err := NewDate(2024, time.January, 7).Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-07", v)
}

func TestLong(t *testing.T) {
	assert.Equal(t, "January 7, 2024", NewDate(2024, time.January, 7).Long())
}
