package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Text is a string field that also accepts JSON numbers, since device
// addresses and module counts were historically stored as either.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*t = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("form: text value must be a string or number: %w", err)
	}
	*t = Text(n.String())
	return nil
}

// String returns the raw value.
func (t Text) String() string {
	return string(t)
}

// Itoa builds a Text from an integer.
func Itoa(n int) Text {
	return Text(strconv.Itoa(n))
}
