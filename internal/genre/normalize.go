package genre

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Normalize converts genre metadata in any of the encodings seen in the
// catalog into a clean list of genre names.
//
// Accepted inputs are []string, []any, a bracketed list literal such as
// "['Fantasy', 'Magic']" or `["Fantasy","Magic"]`, and a plain
// comma-delimited string. Names are trimmed, blanks are dropped and
// duplicates (compared by slug) keep their first spelling. A bracketed
// string that cannot be decoded is returned as a single element holding the
// trimmed raw text. Normalize never fails; nil and unknown input yield an
// empty, non-nil slice.
func Normalize(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return []string{}
	case []string:
		return clean(v)
	case []any:
		names := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			names = append(names, fmt.Sprint(item))
		}
		return clean(names)
	case string:
		return parseString(v)
	case fmt.Stringer:
		return parseString(v.String())
	default:
		return []string{}
	}
}

func parseString(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}

	// Either bracket marks an attempted list encoding; only a well-formed one
	// is split.
	opens, closes := strings.HasPrefix(s, "["), strings.HasSuffix(s, "]")
	if opens || closes {
		if opens && closes && len(s) >= 2 {
			var decoded []string
			if err := json.Unmarshal([]byte(s), &decoded); err == nil {
				return clean(decoded)
			}
			if items, ok := parseListLiteral(s[1 : len(s)-1]); ok {
				return clean(items)
			}
		}
		return []string{s}
	}

	return clean(strings.Split(s, ","))
}

// parseListLiteral reads the comma-separated body of a list literal. Items
// may be single or double quoted, with backslash escapes, or bare words.
func parseListLiteral(body string) ([]string, bool) {
	var items []string
	i := 0
	n := len(body)

	skipSpace := func() {
		for i < n && (body[i] == ' ' || body[i] == '\t' || body[i] == '\n' || body[i] == '\r') {
			i++
		}
	}

	for {
		skipSpace()
		if i >= n {
			return items, true
		}

		var item strings.Builder
		switch quote := body[i]; quote {
		case '\'', '"':
			i++
			closed := false
			for i < n {
				c := body[i]
				if c == '\\' && i+1 < n {
					item.WriteByte(body[i+1])
					i += 2
					continue
				}
				if c == quote {
					closed = true
					i++
					break
				}
				item.WriteByte(c)
				i++
			}
			if !closed {
				return nil, false
			}
		default:
			for i < n && body[i] != ',' {
				if body[i] == '\'' || body[i] == '"' || body[i] == '[' || body[i] == ']' {
					return nil, false
				}
				item.WriteByte(body[i])
				i++
			}
		}
		items = append(items, item.String())

		skipSpace()
		if i >= n {
			return items, true
		}
		if body[i] != ',' {
			return nil, false
		}
		i++
	}
}

func clean(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := Slugify(name)
		if key == "" {
			key = strings.ToLower(name)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}
