package model

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Date
		wantErr  bool
	}{
		{name: "iso_date", input: "2024-01-31", expected: NewDate(2024, time.January, 31)},
		{name: "timestamp", input: "2024-02-01T13:45:00", expected: NewDate(2024, time.February, 1)},
		{name: "rfc3339", input: "2024-02-01T23:59:59Z", expected: NewDate(2024, time.February, 1)},
		{name: "space_separated", input: "2024-03-05 00:00:00", expected: NewDate(2024, time.March, 5)},
		{name: "surrounding_whitespace", input: " 2024-03-05 ", expected: NewDate(2024, time.March, 5)},
		{name: "invalid_month", input: "2024-13-01", wantErr: true},
		{name: "us_format", input: "01/02/2024", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, d.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}
}

func TestDateCompare(t *testing.T) {
	a := MustParseDate("2024-01-31")
	b := MustParseDate("2024-02-01")
	c := MustParseDate("2023-12-31")

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, c.Before(a))
	assert.Equal(t, 0, a.Compare(MustParseDate("2024-01-31")))
	assert.True(t, Date{}.Before(c), "zero date sorts first")
}

func TestDateString(t *testing.T) {
	assert.Equal(t, "2024-07-04", NewDate(2024, time.July, 4).String())
	assert.Equal(t, "", Date{}.String())
	assert.Equal(t, "2024-03-01", MustParseDate("2024-02-29").AddDays(1).String())
}

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		Date Date `json:"date"`
	}

	data, err := sonic.Marshal(wrapper{Date: MustParseDate("2025-06-30")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-06-30"}`, string(data))

	var w wrapper
	require.NoError(t, sonic.Unmarshal([]byte(`{"date":"2025-06-30T00:00:00"}`), &w))
	assert.Equal(t, MustParseDate("2025-06-30"), w.Date)

	require.NoError(t, sonic.Unmarshal([]byte(`{"date":null}`), &w))
	assert.True(t, w.Date.IsZero())

	assert.Error(t, sonic.Unmarshal([]byte(`{"date":"June 30"}`), &w))
}

func TestMonthSpan(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		expected int
	}{
		{name: "same_day", start: "2024-01-01", end: "2024-01-01", expected: 1},
		{name: "same_month", start: "2024-01-01", end: "2024-01-31", expected: 1},
		{name: "two_months", start: "2024-01-31", end: "2024-02-01", expected: 2},
		{name: "across_year", start: "2023-11-15", end: "2024-02-10", expected: 4},
		{name: "reversed_bounds", start: "2024-05-01", end: "2024-01-01", expected: 1},
		{name: "missing_start", start: "", end: "2024-01-01", expected: 0},
		{name: "missing_end", start: "2024-01-01", end: "", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var start, end Date
			if tt.start != "" {
				start = MustParseDate(tt.start)
			}
			if tt.end != "" {
				end = MustParseDate(tt.end)
			}
			assert.Equal(t, tt.expected, MonthSpan(start, end))
		})
	}
}
