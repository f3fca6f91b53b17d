package series

import (
	"bytes"
	"encoding/json"
)

var jsonNull = []byte("null")

// MarshalJSON encodes an absent value as null.
func (o Opt) MarshalJSON() ([]byte, error) {
	if !o.OK {
		return jsonNull, nil
	}
	return json.Marshal(o.V)
}

// UnmarshalJSON accepts a number or null.
func (o *Opt) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*o = None
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
