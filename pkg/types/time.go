package types

import (
	"bytes"
	"fmt"
	"time"
)

// Time is a timestamp as sent by the API. The server emits ISO-8601 values
// that may lack a zone offset, which encoding/json's time.Time rejects.
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTime parses any of the timestamp layouts the API is known to emit.
// Values without an offset are taken as UTC.
func ParseTime(s string) (Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Time{t}, nil
		}
	}
	return Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("timestamp must be a string, got %s", data)
	}
	if len(data) == 2 {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTime(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339) + `"`), nil
}

// Display formats the date the way the board and lists show it ("Jan 02, 2006").
func (t Time) Display() string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 02, 2006")
}
