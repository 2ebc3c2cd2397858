package msg

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned by UnmarshalJSONList for malformed input.
var ErrInvalidJSON = errors.New("msg: invalid JSON")

// Envelope is the JSON form of one message:
//
//	{"type": "RoleAnnouncement", "msg": {"playerId": 42, ...}}
type Envelope struct {
	Type string `json:"type"`
	Msg  Msg    `json:"msg"`
}

// MarshalJSONList renders msgs as a JSON array of envelopes.
func MarshalJSONList(msgs []Msg) ([]byte, error) {
	out := make([]Envelope, len(msgs))
	for i, m := range msgs {
		out[i] = Envelope{Type: m.Type().String(), Msg: m}
	}
	return json.MarshalIndent(out, "", "  ")
}

// UnmarshalJSONList parses a JSON array of envelopes, or a single
// envelope, into messages.
func UnmarshalJSONList(data []byte) ([]Msg, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)
	var elems []gjson.Result
	switch {
	case root.IsArray():
		elems = root.Array()
	case root.IsObject():
		elems = []gjson.Result{root}
	default:
		return nil, fmt.Errorf("%w: want an object or an array", ErrInvalidJSON)
	}

	msgs := make([]Msg, 0, len(elems))
	for i, el := range elems {
		name := el.Get("type")
		if name.Type != gjson.String {
			return nil, fmt.Errorf("%w: element %d has no type", ErrInvalidJSON, i)
		}
		t, err := ParseType(name.String())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		m, err := New(t)
		if err != nil {
			return nil, err
		}
		if body := el.Get("msg"); body.Exists() {
			if err := json.Unmarshal([]byte(body.Raw), m); err != nil {
				return nil, fmt.Errorf("%w: element %d: %v", ErrInvalidJSON, i, err)
			}
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
