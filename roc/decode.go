package roc

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

// ErrEmptyKeyValueList is returned by ParseKeyValueList when a non-empty
// input yields no key=value pairs.
var ErrEmptyKeyValueList = errors.New("no key=value pairs found")

// DecodeParameters coerces declared-type string values into typed arguments:
// string passes through, number and integer parse to int64, boolean parses
// to bool. Arrays are parsed as JSON first; if that fails, the tolerant
// key=value tokenizer is applied and its result wrapped in a single-element
// list. An unknown declared type passes the value through unchanged.
func DecodeParameters(params []Parameter) (map[string]any, error) {
	args := make(map[string]any, len(params))
	for _, p := range params {
		v, err := decodeValue(p.Type, p.Value)
		if err != nil {
			return nil, errors.WithMessagef(err, "parameter %q", p.Name)
		}
		args[p.Name] = v
	}
	return args, nil
}

func decodeValue(typ, value string) (any, error) {
	switch typ {
	case "number", "integer":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, errors.Errorf("invalid integer value %q", value)
		}
		return n, nil
	case "boolean":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, errors.Errorf("invalid boolean value %q", value)
		}
		return b, nil
	case "array":
		return decodeArray(value), nil
	default:
		return value, nil
	}
}

// decodeArray tries a direct JSON parse first; on failure it falls back to
// the key=value tokenizer. The fallback never fails: an input that yields no
// pairs degrades to a single empty object, with the parse error logged.
func decodeArray(value string) any {
	var parsed any
	if err := json.Unmarshal([]byte(value), &parsed); err == nil {
		return parsed
	}

	pairs, err := ParseKeyValueList(value)
	if err != nil {
		logger.KV(xlog.WARNING, "reason", "array_fallback", "err", err.Error())
	}
	return []any{pairs}
}

type kvMode int

const (
	kvKey kvMode = iota
	kvValue
)

// ParseKeyValueList tokenizes a bracket-wrapped, comma-separated sequence of
// key=value pairs. A comma inside a value is distinguished from a pair
// separator by look-ahead: the current pair is committed only when an `=`
// appears before the next comma. Keys and values are whitespace-trimmed.
// It returns ErrEmptyKeyValueList when a non-empty input yields no pairs;
// the returned map is non-nil either way.
func ParseKeyValueList(s string) (map[string]string, error) {
	body := strings.TrimSpace(s)
	body = strings.TrimPrefix(body, "[")
	body = strings.TrimSuffix(body, "]")

	pairs := make(map[string]string)
	mode := kvKey
	var key, value strings.Builder

	commit := func() {
		k := strings.TrimSpace(key.String())
		if k != "" {
			pairs[k] = strings.TrimSpace(value.String())
		}
		key.Reset()
		value.Reset()
	}

	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch mode {
		case kvKey:
			if ch == '=' {
				mode = kvValue
			} else {
				key.WriteByte(ch)
			}
		case kvValue:
			if ch == ',' && pairFollows(body[i+1:]) {
				commit()
				mode = kvKey
			} else {
				value.WriteByte(ch)
			}
		}
	}
	if mode == kvValue {
		commit()
	}

	if len(pairs) == 0 && strings.TrimSpace(body) != "" {
		return pairs, errors.WithStack(ErrEmptyKeyValueList)
	}
	return pairs, nil
}

// pairFollows reports whether the remainder starts a new key=value pair:
// an `=` is found before the next comma.
func pairFollows(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '=':
			return true
		case ',':
			return false
		}
	}
	return false
}
