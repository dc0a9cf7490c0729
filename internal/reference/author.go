package reference

import (
	"bytes"
	"encoding/json"
)

// Author is a listed author with the keys of the record's institutions
// they are affiliated with.
type Author struct {
	Name         string `json:"name"`
	Institutions []int  `json:"institutions,omitempty"`
}

// UnmarshalJSON accepts either an object or the [name, institutions] pair
// form, where institutions may be null, a single key or a list of keys.
func (a *Author) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		type plain Author
		return json.Unmarshal(data, (*plain)(a))
	}

	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	*a = Author{}
	if len(pair) > 0 {
		if err := json.Unmarshal(pair[0], &a.Name); err != nil {
			return err
		}
	}
	if len(pair) < 2 || string(bytes.TrimSpace(pair[1])) == "null" {
		return nil
	}
	var single int
	if err := json.Unmarshal(pair[1], &single); err == nil {
		a.Institutions = []int{single}
		return nil
	}
	return json.Unmarshal(pair[1], &a.Institutions)
}
