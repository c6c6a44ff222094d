package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampDecodesAllEncodings(t *testing.T) {
	want := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   string
	}{
		{"millis", "1714555800000"},
		{"seconds object", `{"seconds":1714555800,"nanoseconds":0}`},
		{"exported object", `{"_seconds":1714555800,"_nanoseconds":0}`},
		{"rfc3339", `"2024-05-01T09:30:00Z"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.in), &ts))
			assert.True(t, want.Equal(ts.Time), ts.Time.String())
		})
	}
}

func TestTimestampNullAndErrors(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte("null"), &ts))
	assert.True(t, ts.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"foo":1}`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestTimestampMarshalsMillis(t *testing.T) {
	out, err := json.Marshal(struct {
		At   Timestamp `json:"at"`
		None Timestamp `json:"none"`
	}{At: NewTimestamp(time.UnixMilli(1714555800123))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":1714555800123,"none":null}`, string(out))
}

func TestTextDecodesNumbersAndStrings(t *testing.T) {
	var v struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":12,"b":"7b","c":null}`), &v))
	assert.Equal(t, Text("12"), v.A)
	assert.Equal(t, Text("7b"), v.B)
	assert.Equal(t, Text(""), v.C)
}
