package types

import (
	"encoding/hex"
	"fmt"
	"time"
)

// HexBytes is a []byte which encodes as hexadecimal in json, as opposed to the
// base64 default.
type HexBytes []byte

func (b *HexBytes) String() string {
	return "0x" + hex.EncodeToString(*b)
}

func (b HexBytes) MarshalJSON() ([]byte, error) {
	enc := make([]byte, hex.EncodedLen(len(b))+4)
	enc[0] = '"'
	enc[1] = '0'
	enc[2] = 'x'
	hex.Encode(enc[3:], b)
	enc[len(enc)-1] = '"'
	return enc, nil
}

func (b *HexBytes) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid JSON string: %q", data)
	}
	data = data[1 : len(data)-1]

	// Strip a leading "0x" prefix, the backend is inconsistent about it.
	if len(data) >= 2 && data[0] == '0' && (data[1] == 'x' || data[1] == 'X') {
		data = data[2:]
	}

	decLen := hex.DecodedLen(len(data))
	if cap(*b) < decLen {
		*b = make([]byte, decLen)
	}
	*b = (*b)[:decLen]
	if _, err := hex.Decode(*b, data); err != nil {
		return err
	}
	return nil
}

// UTCTime wraps time.Time with the backend's wire conventions: timestamps
// travel as ISO-8601 strings in UTC, with or without the trailing "Z", and
// never with a zone offset. A malformed or empty value decodes to the zero
// time instead of failing the enclosing object, so that a broken election
// record can still be listed (it will resolve to an invalid-dates status
// rather than erroring the whole page).
type UTCTime struct {
	time.Time
}

// NewUTCTime returns t normalized to UTC.
func NewUTCTime(t time.Time) UTCTime {
	return UTCTime{t.UTC()}
}

// layouts accepted from the wire, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (u *UTCTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		u.Time = time.Time{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		u.Time = time.Time{}
		return nil
	}
	s = s[1 : len(s)-1]
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			u.Time = t.UTC()
			return nil
		}
	}
	u.Time = time.Time{}
	return nil
}

func (u UTCTime) MarshalJSON() ([]byte, error) {
	if u.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + u.Time.UTC().Format(time.RFC3339) + `"`), nil
}

// IsSet reports whether the timestamp carried a parsable value.
func (u UTCTime) IsSet() bool { return !u.Time.IsZero() }
