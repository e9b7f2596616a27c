// Package payload models the site's embedded page state as a generic JSON tree.
//
// Values are the shapes produced by JSON decoding: nil, bool, json.Number, string,
// []any and map[string]any. Numbers are kept as json.Number so identifiers and scores
// survive a decode/encode cycle untouched.
package payload

import (
	"encoding/json"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
)

// Value is any node of a decoded tree.
type Value = any

// Object is a JSON object node.
type Object = map[string]any

// API is the shared codec: numbers preserved, map keys sorted so equal trees encode
// to equal bytes, non-ASCII text left unescaped.
var API = sonic.Config{
	UseNumber:      true,
	SortMapKeys:    true,
	EscapeHTML:     false,
	CopyString:     true,
	ValidateString: true,
}.Froze()

var ErrNotObject = crerr.New("payload root is not an object")

// Decode parses raw JSON into an Object.
func Decode(raw []byte) (Object, error) {
	var root any
	if err := API.Unmarshal(raw, &root); err != nil {
		return nil, crerr.Wrap(err, "decode payload")
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return nil, crerr.Wrapf(ErrNotObject, "got %s", Kind(root))
	}
	return obj, nil
}

// Encode serialises a tree with the same settings used by Decode.
func Encode(v Value) ([]byte, error) {
	raw, err := API.Marshal(v)
	if err != nil {
		return nil, crerr.Wrap(err, "encode payload")
	}
	return raw, nil
}

// Lookup walks object keys from root. It reports false as soon as a step is missing
// or the current node is not an object.
func Lookup(root Value, path ...string) (Value, bool) {
	current := root
	for _, key := range path {
		obj, ok := AsObject(current)
		if !ok {
			return nil, false
		}
		next, ok := obj[key]
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func AsObject(v Value) (Object, bool) {
	obj, ok := v.(map[string]any)
	return obj, ok && obj != nil
}

func AsList(v Value) ([]any, bool) {
	list, ok := v.([]any)
	return list, ok
}

// AsString renders scalar nodes as text. Identifiers on the site show up both as
// strings and as numbers depending on the page.
func AsString(v Value) (string, bool) {
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed), true
	case json.Number:
		return typed.String(), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case int:
		return strconv.Itoa(typed), true
	case int64:
		return strconv.FormatInt(typed, 10), true
	default:
		return "", false
	}
}

// StringAt is Lookup followed by AsString, returning "" when absent.
func StringAt(root Value, path ...string) string {
	v, ok := Lookup(root, path...)
	if !ok {
		return ""
	}
	s, _ := AsString(v)
	return s
}

func Kind(v Value) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case json.Number, float64, int, int64:
		return "number"
	case string:
		return "string"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}

// SplitPath turns "props.pageProps.game" into its keys.
func SplitPath(path string) []string {
	parts := strings.Split(path, ".")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
