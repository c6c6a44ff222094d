package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Text is a document field that may be stored as a string or a number
// (group numbers, scores). It decodes both and keeps the literal form.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("text field %s: %w", data, err)
		}
		*t = Text(n.String())
	}
	return nil
}

func (t Text) String() string { return string(t) }
