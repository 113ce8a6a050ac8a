package payload

import (
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/mineclover/context-action-go/pipeline"
)

// rawJSON extracts the JSON document from a payload.
func rawJSON(payload any) (string, bool) {
	switch p := payload.(type) {
	case string:
		return p, true
	case []byte:
		return string(p), true
	case json.RawMessage:
		return string(p), true
	default:
		return "", false
	}
}

// Exists returns a condition that passes when the payload contains a
// value at the given gjson path.
func Exists(path string) pipeline.Condition {
	return func(payload any) bool {
		raw, ok := rawJSON(payload)
		if !ok {
			return false
		}
		return gjson.Get(raw, path).Exists()
	}
}

// Eq returns a condition that passes when the value at the given gjson
// path equals want. Numbers compare as float64, everything else by
// gjson's decoded value.
func Eq(path string, want any) pipeline.Condition {
	return func(payload any) bool {
		raw, ok := rawJSON(payload)
		if !ok {
			return false
		}
		res := gjson.Get(raw, path)
		if !res.Exists() {
			return false
		}
		switch w := want.(type) {
		case int:
			return res.Type == gjson.Number && res.Num == float64(w)
		case int64:
			return res.Type == gjson.Number && res.Num == float64(w)
		case float64:
			return res.Type == gjson.Number && res.Num == w
		case string:
			return res.Type == gjson.String && res.Str == w
		case bool:
			return res.IsBool() && res.Bool() == w
		default:
			return res.Value() == want
		}
	}
}

// Truthy returns a condition that passes when the value at the given
// gjson path is a true boolean, a non-zero number, or a non-empty
// string.
func Truthy(path string) pipeline.Condition {
	return func(payload any) bool {
		raw, ok := rawJSON(payload)
		if !ok {
			return false
		}
		res := gjson.Get(raw, path)
		switch res.Type {
		case gjson.True:
			return true
		case gjson.Number:
			return res.Num != 0
		case gjson.String:
			return res.Str != ""
		default:
			return false
		}
	}
}

// Set returns a payload transform that sets value at the given sjson
// path. The transform preserves the payload's concrete type and leaves
// the payload untouched when it is not JSON or the set fails.
func Set(path string, value any) func(payload any) any {
	return func(payload any) any {
		switch p := payload.(type) {
		case string:
			out, err := sjson.Set(p, path, value)
			if err != nil {
				return payload
			}
			return out
		case []byte:
			out, err := sjson.SetBytes(p, path, value)
			if err != nil {
				return payload
			}
			return out
		case json.RawMessage:
			out, err := sjson.SetBytes(p, path, value)
			if err != nil {
				return payload
			}
			return json.RawMessage(out)
		default:
			return payload
		}
	}
}

// Delete returns a payload transform that removes the value at the
// given sjson path.
func Delete(path string) func(payload any) any {
	return func(payload any) any {
		switch p := payload.(type) {
		case string:
			out, err := sjson.Delete(p, path)
			if err != nil {
				return payload
			}
			return out
		case []byte:
			out, err := sjson.DeleteBytes(p, path)
			if err != nil {
				return payload
			}
			return out
		case json.RawMessage:
			out, err := sjson.DeleteBytes(p, path)
			if err != nil {
				return payload
			}
			return json.RawMessage(out)
		default:
			return payload
		}
	}
}

// Get reads the value at the given gjson path from a payload.
func Get(payload any, path string) (any, bool) {
	raw, ok := rawJSON(payload)
	if !ok {
		return nil, false
	}
	res := gjson.Get(raw, path)
	if !res.Exists() {
		return nil, false
	}
	return res.Value(), true
}
