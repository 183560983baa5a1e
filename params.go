package larafront

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Param is one declared handler parameter.
type Param struct {
	Name string
	// Default is the parsed inline default, valid when HasDefault is set.
	Default    any
	HasDefault bool
}

// ParseSignature parses a handler's declared parameter list.
//
//	ParseSignature("e, UserRequest")
//	ParseSignature("(id, page = 1, sort = 'desc')")
//
// Names are trimmed. An inline default ("name = literal") is parsed with
// ParseLiteral. An empty signature declares no parameters. Failures wrap
// ErrBinding.
func ParseSignature(sig string) ([]Param, error) {
	sig = strings.TrimSpace(sig)
	if strings.HasPrefix(sig, "(") {
		if !strings.HasSuffix(sig, ")") {
			return nil, fmt.Errorf("%w: unbalanced parentheses in %q", ErrBinding, sig)
		}
		sig = strings.TrimSpace(sig[1 : len(sig)-1])
	}
	if sig == "" {
		return nil, nil
	}

	parts, err := splitParams(sig)
	if err != nil {
		return nil, fmt.Errorf("%w: %v in %q", ErrBinding, err, sig)
	}

	params := make([]Param, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, part := range parts {
		name, def, hasDef := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !isIdent(name) {
			return nil, fmt.Errorf("%w: bad parameter name %q in %q", ErrBinding, name, sig)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate parameter %q in %q", ErrBinding, name, sig)
		}
		seen[name] = true

		p := Param{Name: name}
		if hasDef {
			p.Default = ParseLiteral(def)
			p.HasDefault = true
		}
		params = append(params, p)
	}
	return params, nil
}

// splitParams splits on top-level commas, leaving quoted defaults intact.
func splitParams(s string) ([]string, error) {
	var (
		parts []string
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' && quote != '`' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == ',':
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("empty parameter")
		}
	}
	return parts, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

// ParseLiteral parses a default value or data attribute into a typed value:
// null and undefined give nil, true and false give bools, integers give
// int64, other numbers float64, quoted text its unquoted content. Anything
// else is returned as the trimmed string.
func ParseLiteral(s string) any {
	s = strings.TrimSpace(s)
	switch s {
	case "null", "undefined", "nil":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		switch {
		case first == '"' && last == '"':
			if u, err := strconv.Unquote(s); err == nil {
				return u
			}
			return s[1 : len(s)-1]
		case (first == '\'' && last == '\'') || (first == '`' && last == '`'):
			return s[1 : len(s)-1]
		}
	}
	return s
}

// coerceData converts a data-* attribute value the way jQuery's .data()
// does: literals become typed values and JSON objects or arrays are
// decoded. Numbers keep their text when converting would change it.
func coerceData(s string) any {
	t := strings.TrimSpace(s)
	if t == "" {
		return s
	}
	if (t[0] == '{' && t[len(t)-1] == '}') || (t[0] == '[' && t[len(t)-1] == ']') {
		var v any
		if err := json.Unmarshal([]byte(t), &v); err == nil {
			return v
		}
		return s
	}
	switch t {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if n, err := strconv.ParseInt(t, 10, 64); err == nil && strconv.FormatInt(n, 10) == t {
		return n
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil && strconv.FormatFloat(f, 'f', -1, 64) == t {
		return f
	}
	return s
}
