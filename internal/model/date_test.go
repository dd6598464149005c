package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOfDropsTimeOfDay(t *testing.T) {
	instant := time.Date(2026, time.July, 4, 23, 59, 58, 0, time.UTC)
	d := DateOf(instant)
	assert.Equal(t, "2026-07-04", d.String())
	assert.True(t, d.Equal(NewDate(2026, time.July, 4)))
}

func TestDateComparisons(t *testing.T) {
	a := NewDate(2026, time.March, 1)
	b := NewDate(2026, time.March, 2)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(a))
	assert.False(t, a.Before(a))
	assert.False(t, a.After(a))
}

func TestDateAddDays(t *testing.T) {
	d := NewDate(2026, time.February, 27)
	assert.Equal(t, "2026-03-01", d.AddDays(2).String()) // 2026 is not a leap year
	assert.Equal(t, "2026-02-26", d.AddDays(-1).String())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-12-31")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2026, time.December, 31), d)

	_, err = ParseDate("31/12/2026")
	assert.Error(t, err)
}

func TestDateJSONRoundTrip(t *testing.T) {
	type payload struct {
		Day Date `json:"day"`
	}

	b, err := json.Marshal(payload{Day: NewDate(2026, time.May, 9)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2026-05-09"}`, string(b))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"day":"2026-05-09"}`), &p))
	assert.True(t, p.Day.Equal(NewDate(2026, time.May, 9)))

	require.NoError(t, json.Unmarshal([]byte(`{"day":null}`), &p))
	assert.True(t, p.Day.IsZero())
}
