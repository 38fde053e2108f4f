// Package qs encodes flat key-value maps as
// "application/x-www-form-urlencoded" strings.
//
// Unlike [url.Values.Encode], spaces are escaped as "%20" rather than "+",
// following the percent-encoding rules of [RFC 3986 section 2].
//
// [RFC 3986 section 2]: https://datatracker.ietf.org/doc/html/rfc3986#section-2
package qs

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Encode converts the given map into a query string, with keys in sorted order.
// Values may be scalars or slices of scalars (which repeat the key once per
// element). Nested maps and structs are not supported.
func Encode(m map[string]any) (string, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var sb strings.Builder
	for _, k := range keys {
		vs, err := values(m[k])
		if err != nil {
			return "", fmt.Errorf("query string key %q: %w", k, err)
		}
		for _, v := range vs {
			if sb.Len() > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(EncodeValue(k))
			sb.WriteByte('=')
			sb.WriteString(EncodeValue(v))
		}
	}

	return sb.String(), nil
}

// EncodeValue percent-encodes a single key or value.
func EncodeValue(s string) string {
	// [url.QueryEscape] already escapes a literal "+" as "%2B",
	// so every remaining "+" stands for a space.
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func values(v any) ([]string, error) {
	switch v := v.(type) {
	case []string:
		return v, nil
	case []any:
		vs := make([]string, 0, len(v))
		for _, e := range v {
			s, err := scalar(e)
			if err != nil {
				return nil, err
			}
			vs = append(vs, s)
		}
		return vs, nil
	default:
		s, err := scalar(v)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
}

func scalar(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}
